// Package catalog loads the fixed, read-only set of places offered to users.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/pkg/geospatial"
)

//go:embed places.yaml
var embedded []byte

// Default returns the built-in catalog.
func Default() ([]domain.Place, error) {
	return Parse(embedded)
}

// Load reads a catalog from a YAML file, or the built-in one when path is empty.
func Load(path string) ([]domain.Place, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of places and checks that ids are present and
// unique and coordinates are valid.
func Parse(data []byte) ([]domain.Place, error) {
	var places []domain.Place
	if err := yaml.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(places))
	for i, p := range places {
		if p.ID == "" {
			return nil, fmt.Errorf("place #%d: missing id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("place %s: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}

		if err := geospatial.Validate(p.Coordinate.Lat, p.Coordinate.Lon); err != nil {
			return nil, fmt.Errorf("place %s: %w", p.ID, err)
		}
	}
	return places, nil
}
