package idmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the YAML form of an IdMap.
type file struct {
	Source  string  `yaml:"source"`
	Target  string  `yaml:"target"`
	Entries []Entry `yaml:"entries"`
}

// Parse parses YAML data into an IdMap.
func Parse(data []byte) (*IdMap, error) {
	var f file

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse id map YAML: %w", err)
	}

	m := New(f.Source, f.Target)
	for i, e := range f.Entries {
		if err := m.Add(e); err != nil {
			return nil, fmt.Errorf("id map entry %d: %w", i, err)
		}
	}

	return m, nil
}

// LoadFile loads and parses an id map file.
func LoadFile(path string) (*IdMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read id map file %s: %w", path, err)
	}

	return Parse(data)
}

// Marshal serializes the map to YAML with entries in a stable order.
func Marshal(m *IdMap) ([]byte, error) {
	return yaml.Marshal(file{Source: m.SourceSystem, Target: m.TargetSystem, Entries: m.Entries()})
}

// WriteFile writes the map to the given path.
func WriteFile(m *IdMap, path string) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal id map: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write id map file %s: %w", path, err)
	}

	return nil
}
