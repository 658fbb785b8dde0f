package assistant

import (
	"errors"
	"testing"
)

func TestParseModelIdentifier(t *testing.T) {
	tests := []struct {
		input   string
		family  Family
		model   string
		wantErr bool
	}{
		{"gemini:gemini-2.5-flash", FamilyGemini, "gemini-2.5-flash", false},
		{"ollama:llama3", FamilyOllama, "llama3", false},
		{"ollama:llama3:8b", FamilyOllama, "llama3:8b", false},
		{"ollama:gpt-oss:120b-cloud", FamilyOllama, "gpt-oss:120b-cloud", false},
		{"Gemini:gemini-pro", FamilyGemini, "gemini-pro", false},
		{"openai:gpt-4", "", "", true},
		{"llama3", "", "", true},
		{":llama3", "", "", true},
		{"ollama:", "", "", true},
		{"", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			family, model, err := ParseModelIdentifier(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownBackend) {
					t.Fatalf("expected ErrUnknownBackend, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if family != tc.family || model != tc.model {
				t.Errorf("got (%s, %s), want (%s, %s)", family, model, tc.family, tc.model)
			}
		})
	}
}

func fullRegistry() (*Registry, map[Selector]*stubBackend) {
	stubs := map[Selector]*stubBackend{
		{Family: FamilyOllama}:              newStubBackend(FamilyOllama),
		{Family: FamilyOllama, Cloud: true}: newStubBackend(FamilyOllama),
		{Family: FamilyGemini, Cloud: true}: newStubBackend(FamilyGemini),
	}
	backends := make(map[Selector]Backend, len(stubs))
	for sel, b := range stubs {
		backends[sel] = b
	}
	return NewRegistryWithBackends(backends), stubs
}

func TestRegistry_ResolveFamilyMatchesPrefix(t *testing.T) {
	reg, stubs := fullRegistry()

	tests := []struct {
		id       string
		useCloud bool
		want     Selector
	}{
		{"ollama:llama3", false, Selector{Family: FamilyOllama}},
		{"ollama:llama3", true, Selector{Family: FamilyOllama, Cloud: true}},
		{"gemini:gemini-2.5-flash", true, Selector{Family: FamilyGemini, Cloud: true}},
		{"gemini:gemini-2.5-flash", false, Selector{Family: FamilyGemini, Cloud: true}},
	}

	for _, tc := range tests {
		h, err := reg.Resolve(tc.id, tc.useCloud)
		if err != nil {
			t.Fatalf("Resolve(%q, %v): %v", tc.id, tc.useCloud, err)
		}
		if h.Family != tc.want.Family || h.Cloud != tc.want.Cloud {
			t.Errorf("Resolve(%q, %v) selector = %+v, want %+v", tc.id, tc.useCloud, h.Selector, tc.want)
		}
		if h.Backend != Backend(stubs[tc.want]) {
			t.Errorf("Resolve(%q, %v) returned the wrong backend", tc.id, tc.useCloud)
		}
		if h.Backend.Family() != h.Family {
			t.Errorf("backend family %s does not match handle family %s", h.Backend.Family(), h.Family)
		}
	}
}

func TestRegistry_SharesBackends(t *testing.T) {
	reg, _ := fullRegistry()

	a, _ := reg.Resolve("ollama:llama3", false)
	b, _ := reg.Resolve("ollama:mistral", false)
	if a.Backend != b.Backend {
		t.Error("expected one shared backend per selector")
	}
	if a.Model != "llama3" || b.Model != "mistral" {
		t.Errorf("unexpected models %q, %q", a.Model, b.Model)
	}
}

func TestRegistry_MissingCredential(t *testing.T) {
	reg := NewRegistryWithBackends(map[Selector]Backend{
		{Family: FamilyOllama}: newStubBackend(FamilyOllama),
	})

	for _, tc := range []struct {
		id       string
		useCloud bool
	}{
		{"ollama:llama3", true},
		{"gemini:gemini-2.5-flash", true},
		{"gemini:gemini-2.5-flash", false},
	} {
		_, err := reg.Resolve(tc.id, tc.useCloud)
		if !errors.Is(err, ErrMissingCredential) {
			t.Errorf("Resolve(%q, %v) = %v, want ErrMissingCredential", tc.id, tc.useCloud, err)
		}
	}

	if _, err := reg.Resolve("ollama:llama3", false); err != nil {
		t.Errorf("local ollama should resolve without credentials: %v", err)
	}
}

func TestRegistry_UnknownBackend(t *testing.T) {
	reg, _ := fullRegistry()
	_, err := reg.Resolve("anthropic:claude", true)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestRegistry_Available(t *testing.T) {
	reg := NewRegistryWithBackends(map[Selector]Backend{
		{Family: FamilyOllama}: newStubBackend(FamilyOllama),
	})
	if !reg.Available(FamilyOllama, false) {
		t.Error("local ollama should be available")
	}
	if reg.Available(FamilyOllama, true) || reg.Available(FamilyGemini, false) {
		t.Error("cloud backends without keys must be unavailable")
	}
}

func TestNewRegistry_OnlyConfiguredBackends(t *testing.T) {
	reg, err := NewRegistry(t.Context(), RegistryConfig{
		OllamaHost:      "http://localhost:11434",
		OllamaCloudHost: "https://ollama.com",
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer reg.Close()

	if !reg.Available(FamilyOllama, false) {
		t.Error("local ollama should always be registered")
	}
	if reg.Available(FamilyOllama, true) {
		t.Error("ollama cloud registered without a key")
	}
	if _, err := reg.Resolve("gemini:gemini-2.5-flash", true); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential for gemini, got %v", err)
	}
}
