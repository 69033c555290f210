package model

import (
	"fmt"
	"os"

	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"
)

// LoadObjectFile loads and parses a YAML object definition.
func LoadObjectFile(path string) (*Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object file %s: %w", path, err)
	}

	return ParseObject(data)
}

// ParseObject parses YAML data into an Object.
func ParseObject(data []byte) (*Object, error) {
	var o Object

	err := yaml.Unmarshal(data, &o)
	if err != nil {
		return nil, fmt.Errorf("failed to parse object YAML: %w", err)
	}

	applyDefaults(&o)

	return &o, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(o *Object) {
	for i := range o.Resources {
		r := &o.Resources[i]
		if r.Name == "" && len(o.Resources) == 1 {
			r.Name = DefaultResource
		}
	}
}

// DefaultResource is the resource name given to the single unnamed resource
// of a simple object.
const DefaultResource = "main"

// MarshalObject serializes an Object to YAML.
func MarshalObject(o *Object) ([]byte, error) {
	return yaml.Marshal(o)
}

// WriteObjectFile writes an Object to the given path.
func WriteObjectFile(o *Object, path string) error {
	data, err := MarshalObject(o)
	if err != nil {
		return fmt.Errorf("failed to marshal object %s: %w", o.Key(), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object file %s: %w", path, err)
	}

	return nil
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() (*Object, error) {
	var c Object
	if err := deepcopy.Copy(&c, *o); err != nil {
		return nil, fmt.Errorf("failed to copy object %s: %w", o.Key(), err)
	}

	return &c, nil
}
