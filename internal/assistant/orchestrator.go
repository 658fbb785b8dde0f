package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"chatbot-backend/internal/models"
)

type State int

const (
	StateReceived State = iota
	StatePersistingUserTurn
	StateStreaming
	StateFinalizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StatePersistingUserTurn:
		return "PERSISTING_USER_TURN"
	case StateStreaming:
		return "STREAMING"
	case StateFinalizing:
		return "FINALIZING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TurnStore is the part of the chat store the pipeline writes through.
type TurnStore interface {
	AppendTurn(ctx context.Context, chatID, role, content string, code *string) (*models.Turn, error)
	FetchRecentTurns(ctx context.Context, chatID string, limit int) ([]models.Turn, error)
}

type Resolver interface {
	Resolve(modelIdentifier string, useCloud bool) (*Handle, error)
}

// Notifier is told about every assistant turn that was saved.
type Notifier interface {
	TurnCreated(ctx context.Context, userID uuid.UUID, turn *models.Turn, hasCode bool)
}

type SendRequest struct {
	UserID  uuid.UUID
	ChatID  string
	Message string
	Model   string
	IsCloud bool
}

func (r SendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ChatID, validation.Required),
		validation.Field(&r.Message, validation.Required),
		validation.Field(&r.Model, validation.Required),
	)
}

type Options struct {
	HistoryLimit int
	SystemPrompt string
	Notifier     Notifier
	// SaveTimeout bounds the assistant turn write, which runs detached from
	// the request context once generation has finished.
	SaveTimeout time.Duration
}

type Orchestrator struct {
	backends Resolver
	store    TurnStore
	opts     Options
}

func NewOrchestrator(backends Resolver, store TurnStore, opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 10 * time.Second
	}
	return &Orchestrator{backends: backends, store: store, opts: opts}
}

// Prepare validates the request, resolves the backend, saves the user turn
// and builds the backend request. Nothing is written when validation or
// resolution fails. A saved user turn is never rolled back.
func (o *Orchestrator) Prepare(ctx context.Context, req SendRequest) (*Session, error) {
	s := &Session{orch: o, req: req}
	s.enter(StateReceived)

	if err := req.Validate(); err != nil {
		s.enter(StateFailed)
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	handle, err := o.backends.Resolve(req.Model, req.IsCloud)
	if err != nil {
		s.enter(StateFailed)
		return nil, err
	}
	s.handle = handle

	s.enter(StatePersistingUserTurn)
	userTurn, err := o.store.AppendTurn(ctx, req.ChatID, models.RoleUser, req.Message, nil)
	if err != nil {
		s.enter(StateFailed)
		return nil, fmt.Errorf("%w: user turn: %w", ErrPersistenceFailure, err)
	}
	s.userTurn = userTurn

	// One extra row so the window still holds HistoryLimit turns after the
	// user turn just written is dropped.
	history, err := o.store.FetchRecentTurns(ctx, req.ChatID, o.opts.HistoryLimit+1)
	if err != nil {
		log.Printf("assistant: history fetch for chat %s failed, continuing without context: %v", req.ChatID, err)
		history = nil
	}
	history = dropTurn(history, userTurn.ID)
	if len(history) > o.opts.HistoryLimit {
		history = history[len(history)-o.opts.HistoryLimit:]
	}

	s.request = Format(history, req.Message, handle.Family)
	s.request.System = o.opts.SystemPrompt
	return s, nil
}

func dropTurn(turns []models.Turn, id string) []models.Turn {
	out := turns[:0:0]
	for _, t := range turns {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Outcome summarises a finished session.
type Outcome struct {
	State         State
	AssistantTurn *models.Turn
	HasCode       bool
	Chunks        int
	// Abandoned is set when the client went away; no terminal event was sent.
	Abandoned bool
	Err       error
}

// Session is one prepared request. It is driven by a single goroutine.
type Session struct {
	orch        *Orchestrator
	req         SendRequest
	handle      *Handle
	userTurn    *models.Turn
	request     Request
	transitions []State
}

func (s *Session) enter(st State) {
	s.transitions = append(s.transitions, st)
}

func (s *Session) State() State {
	return s.transitions[len(s.transitions)-1]
}

// Transitions returns every state the session has been in, in order.
func (s *Session) Transitions() []State {
	return append([]State(nil), s.transitions...)
}

func (s *Session) UserTurn() *models.Turn { return s.userTurn }

func (s *Session) Handle() *Handle { return s.handle }

func (s *Session) Request() Request { return s.request }

// Run streams the generation to sink and saves the reply. Every chunk is
// forwarded as soon as it arrives. Failures after this point are reported
// in-band as an error event followed by a failed [DONE].
func (s *Session) Run(ctx context.Context, sink EventSink) Outcome {
	s.enter(StateStreaming)

	stream, err := s.handle.Backend.Stream(ctx, s.handle.Model, s.request)
	if err != nil {
		if ctx.Err() != nil {
			return s.abandon(ctx.Err())
		}
		return s.fail(sink, fmt.Errorf("%w: %w", ErrGenerationFailure, err))
	}
	defer stream.Close()

	var (
		full   strings.Builder
		chunks int
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return s.abandon(ctx.Err())
			}
			out := s.fail(sink, fmt.Errorf("%w: %w", ErrGenerationFailure, err))
			out.Chunks = chunks
			return out
		}
		if chunk.Text == "" {
			continue
		}

		full.WriteString(chunk.Text)
		chunks++
		if err := sink.Send(ChunkEvent(chunk.Text)); err != nil {
			return s.abandon(err)
		}
	}
	if ctx.Err() != nil {
		return s.abandon(ctx.Err())
	}

	s.enter(StateFinalizing)
	parsed := Parse(full.String())

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.orch.opts.SaveTimeout)
	defer cancel()

	turn, err := s.orch.store.AppendTurn(saveCtx, s.req.ChatID, models.RoleAssistant, parsed.Prose, parsed.Code)
	if err != nil {
		out := s.fail(sink, fmt.Errorf("%w: assistant turn: %w", ErrPersistenceFailure, err))
		out.Chunks = chunks
		return out
	}

	hasCode := parsed.HasCode()
	if n := s.orch.opts.Notifier; n != nil {
		n.TurnCreated(saveCtx, s.req.UserID, turn, hasCode)
	}

	s.enter(StateDone)
	if err := sink.Send(DoneEvent(hasCode)); err != nil {
		log.Printf("assistant: chat %s: client left before [DONE]: %v", s.req.ChatID, err)
	}

	return Outcome{State: StateDone, AssistantTurn: turn, HasCode: hasCode, Chunks: chunks}
}

func (s *Session) fail(sink EventSink, err error) Outcome {
	s.enter(StateFailed)
	log.Printf("assistant: chat %s model %s: %v", s.req.ChatID, s.req.Model, err)

	if sendErr := sink.Send(ErrorEvent(err)); sendErr == nil {
		sink.Send(FailedDoneEvent())
	}
	return Outcome{State: StateFailed, Err: err}
}

func (s *Session) abandon(cause error) Outcome {
	s.enter(StateFailed)
	log.Printf("assistant: chat %s: client disconnected, generation cancelled: %v", s.req.ChatID, cause)
	return Outcome{State: StateFailed, Abandoned: true, Err: cause}
}
