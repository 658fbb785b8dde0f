package assistant

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/models.yaml
var catalogFiles embed.FS

type CatalogModel struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`
	Cloud       bool   `yaml:"cloud" json:"is_cloud"`
	Family      Family `yaml:"-" json:"family"`
	Available   bool   `yaml:"-" json:"available"`
}

type catalogFile struct {
	Models []CatalogModel `yaml:"models"`
}

// Catalog is the fixed list of models advertised to clients, loaded once
// from the embedded YAML.
type Catalog struct {
	models []CatalogModel
}

func LoadCatalog() (*Catalog, error) {
	data, err := catalogFiles.ReadFile("catalog/models.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Models))
	for i := range f.Models {
		m := &f.Models[i]
		family, _, err := ParseModelIdentifier(m.ID)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true
		m.Family = family
		if family == FamilyGemini {
			m.Cloud = true
		}
	}
	return &Catalog{models: f.Models}, nil
}

// Models returns a copy of the catalog with Available set according to the
// backends configured in reg.
func (c *Catalog) Models(reg *Registry) []CatalogModel {
	out := make([]CatalogModel, len(c.models))
	copy(out, c.models)
	for i := range out {
		out[i].Available = reg != nil && reg.Available(out[i].Family, out[i].Cloud)
	}
	return out
}
