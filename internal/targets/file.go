package targets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadYAML reads a YAML file into a value of type T.
func loadYAML[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	return &v, nil
}

// LoadFile reads a YAML list of targets that replaces the built-in
// defaults, one {name, ra, dec} mapping per entry. Every entry must parse
// and names must be unique.
func LoadFile(path string) ([]Target, error) {
	raw, err := loadYAML[[]Target](path)
	if err != nil {
		return nil, fmt.Errorf("load targets %s: %w", path, err)
	}
	if len(*raw) == 0 {
		return nil, fmt.Errorf("load targets %s: no targets defined", path)
	}

	out := make([]Target, 0, len(*raw))
	seen := make(map[string]bool, len(*raw))
	for i, e := range *raw {
		t, err := New(e.Name, e.RA, e.Dec)
		if err != nil {
			return nil, fmt.Errorf("load targets %s: entry %d: %w", path, i+1, err)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("load targets %s: duplicate target %q", path, t.Name)
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	return out, nil
}
