package assistant

import (
	"strings"
	"testing"
)

func TestLoadCatalog_Embedded(t *testing.T) {
	cat, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	models := cat.Models(nil)
	if len(models) == 0 {
		t.Fatal("embedded catalog is empty")
	}
	for _, m := range models {
		if m.DisplayName == "" {
			t.Errorf("%s has no display name", m.ID)
		}
		if m.Family == FamilyGemini && !m.Cloud {
			t.Errorf("%s: gemini models are always cloud", m.ID)
		}
		if m.Available {
			t.Errorf("%s marked available without a registry", m.ID)
		}
	}
}

func TestCatalog_AvailabilityFollowsRegistry(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
models:
  - id: "ollama:llama3"
    display_name: "Llama 3"
  - id: "ollama:gpt-oss:120b"
    display_name: "gpt-oss"
    cloud: true
  - id: "gemini:gemini-2.5-flash"
    display_name: "Flash"
`))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	reg := NewRegistryWithBackends(map[Selector]Backend{
		{Family: FamilyOllama}:              newStubBackend(FamilyOllama),
		{Family: FamilyGemini, Cloud: true}: newStubBackend(FamilyGemini),
	})

	got := map[string]bool{}
	for _, m := range cat.Models(reg) {
		got[m.ID] = m.Available
	}
	want := map[string]bool{
		"ollama:llama3":           true,
		"ollama:gpt-oss:120b":     false,
		"gemini:gemini-2.5-flash": true,
	}
	for id, avail := range want {
		if got[id] != avail {
			t.Errorf("%s available = %v, want %v", id, got[id], avail)
		}
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown family": "models:\n  - id: \"openai:gpt-4\"\n",
		"duplicate id":   "models:\n  - id: \"ollama:a\"\n  - id: \"ollama:a\"\n",
		"bad yaml":       "models: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCatalog_ModelsReturnsCopy(t *testing.T) {
	cat, _ := ParseCatalog([]byte("models:\n  - id: \"ollama:a\"\n    display_name: A\n"))
	first := cat.Models(nil)
	first[0].DisplayName = "changed"
	if second := cat.Models(nil); !strings.EqualFold(second[0].DisplayName, "A") {
		t.Errorf("catalog mutated through returned slice: %q", second[0].DisplayName)
	}
}
