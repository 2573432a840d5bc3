package templates

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/invoicer/invoicer/report"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogEntry is one system template definition.
type CatalogEntry struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Category    string        `yaml:"category"`
	IsDefault   bool          `yaml:"isDefault"`
	PreviewURL  string        `yaml:"previewUrl"`
	Styles      report.Styles `yaml:"styles"`
	SampleData  *SampleData   `yaml:"sampleData"`
}

// LoadCatalog parses the embedded system template catalogue.
func LoadCatalog() ([]CatalogEntry, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(raw []byte) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("templates: parse catalog: %w", err)
	}
	seen := map[string]bool{}
	defaults := 0
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("templates: catalog entry without name")
		}
		key := strings.ToLower(e.Name)
		if seen[key] {
			return nil, fmt.Errorf("templates: duplicate catalog entry %q", e.Name)
		}
		seen[key] = true
		if e.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, fmt.Errorf("templates: catalog declares %d defaults", defaults)
	}
	return entries, nil
}
