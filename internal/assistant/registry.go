package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Selector identifies one configured backend connection.
type Selector struct {
	Family Family
	Cloud  bool
}

// Handle is the result of resolving a model identifier. Backend is shared.
type Handle struct {
	Selector
	Model   string
	Backend Backend
}

type RegistryConfig struct {
	GeminiAPIKey      string
	GeminiConcurrency int
	OllamaHost        string
	OllamaCloudHost   string
	OllamaCloudAPIKey string
}

// Registry owns one client per configured backend for the life of the
// process. Resolve only looks clients up.
type Registry struct {
	backends map[Selector]Backend
}

func NewRegistry(ctx context.Context, cfg RegistryConfig) (*Registry, error) {
	backends := map[Selector]Backend{
		{Family: FamilyOllama}: NewOllamaBackend(cfg.OllamaHost, ""),
	}

	if cfg.OllamaCloudAPIKey != "" {
		backends[Selector{Family: FamilyOllama, Cloud: true}] = NewOllamaBackend(cfg.OllamaCloudHost, cfg.OllamaCloudAPIKey)
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiConcurrency)
		if err != nil {
			return nil, err
		}
		backends[Selector{Family: FamilyGemini, Cloud: true}] = gemini
	}

	return NewRegistryWithBackends(backends), nil
}

// NewRegistryWithBackends builds a registry over already constructed
// backends. Gemini is only ever registered under Cloud: true.
func NewRegistryWithBackends(backends map[Selector]Backend) *Registry {
	r := &Registry{backends: make(map[Selector]Backend, len(backends))}
	for sel, b := range backends {
		r.backends[sel] = b
	}
	return r
}

// ParseModelIdentifier splits "family:model" on the first colon only, so
// model names such as "llama3:8b" pass through intact.
func ParseModelIdentifier(id string) (Family, string, error) {
	prefix, model, ok := strings.Cut(id, ":")
	if !ok || prefix == "" || model == "" {
		return "", "", fmt.Errorf("%w: malformed model identifier %q", ErrUnknownBackend, id)
	}
	family := Family(strings.ToLower(prefix))
	if !family.Known() {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownBackend, prefix)
	}
	return family, model, nil
}

func selectorFor(family Family, useCloud bool) Selector {
	// gemini has no local deployment
	if family == FamilyGemini {
		return Selector{Family: family, Cloud: true}
	}
	return Selector{Family: family, Cloud: useCloud}
}

func (r *Registry) Resolve(modelIdentifier string, useCloud bool) (*Handle, error) {
	family, model, err := ParseModelIdentifier(modelIdentifier)
	if err != nil {
		return nil, err
	}

	sel := selectorFor(family, useCloud)
	backend, ok := r.backends[sel]
	if !ok {
		if sel.Cloud {
			return nil, fmt.Errorf("%w: no API key configured for %s cloud", ErrMissingCredential, family)
		}
		return nil, fmt.Errorf("%w: %s is not configured", ErrUnknownBackend, family)
	}

	return &Handle{Selector: sel, Model: model, Backend: backend}, nil
}

// Available reports whether a model of family could be resolved with the
// given cloud flag.
func (r *Registry) Available(family Family, cloud bool) bool {
	_, ok := r.backends[selectorFor(family, cloud)]
	return ok
}

func (r *Registry) Close() error {
	var errs []error
	for sel, b := range r.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s (cloud=%v): %w", sel.Family, sel.Cloud, err))
		}
	}
	return errors.Join(errs...)
}
