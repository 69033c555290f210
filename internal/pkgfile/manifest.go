package pkgfile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"content-mover/internal/model"
	"content-mover/internal/store"
)

// ManifestFile is the name of the manifest inside a package directory.
const ManifestFile = "package.yaml"

// Manifest describes a package.
type Manifest struct {
	Name    string    `yaml:"name"`
	Source  string    `yaml:"source,omitempty"`
	Created time.Time `yaml:"created"`
	Roots   []string  `yaml:"roots,omitempty"`
	Objects []Entry   `yaml:"objects"`
}

// Entry is one packaged object.
type Entry struct {
	Type     model.ObjectType `yaml:"type"`
	Key      string           `yaml:"key"`
	Name     string           `yaml:"name,omitempty"`
	Category model.Category   `yaml:"category"`
	Parent   string           `yaml:"parent,omitempty"`
	Level    int              `yaml:"level"`
	Files    []string         `yaml:"files,omitempty"`
}

// ID returns the identity of the entry.
func (e Entry) ID() model.DependencyID {
	return model.DependencyID{Type: e.Type, Key: e.Key}
}

// Levels returns the number of dependency levels in the manifest.
func (m *Manifest) Levels() int {
	n := 0
	for _, e := range m.Objects {
		if e.Level+1 > n {
			n = e.Level + 1
		}
	}

	return n
}

// ParseManifest parses manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	seen := make(map[model.DependencyID]bool, len(m.Objects))

	for i, e := range m.Objects {
		if !e.Type.IsKnown() || e.Key == "" {
			return nil, fmt.Errorf("manifest object %d: invalid id %s", i, e.ID())
		}

		if e.Level < 0 {
			return nil, fmt.Errorf("manifest object %s: negative level", e.ID())
		}

		if seen[e.ID()] {
			return nil, fmt.Errorf("manifest object %s listed twice", e.ID())
		}

		for _, f := range e.Files {
			if err := store.CheckPath(f); err != nil {
				return nil, fmt.Errorf("manifest object %s: %w", e.ID(), err)
			}
		}

		seen[e.ID()] = true
	}

	return &m, nil
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return ParseManifest(data)
}

// WriteManifest writes m to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
