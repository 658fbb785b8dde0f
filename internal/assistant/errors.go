package assistant

import "errors"

// Errors returned before a stream is opened map to HTTP status codes; the
// ones raised while streaming only ever reach the client as in-band events.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrMissingCredential  = errors.New("missing credential")
	ErrGenerationFailure  = errors.New("generation failed")
	ErrPersistenceFailure = errors.New("persistence failed")
)
