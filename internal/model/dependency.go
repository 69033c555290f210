package model

import (
	"fmt"
	"sort"
	"strings"

	"content-mover/internal/common"
)

// DependencyID identifies one object instance by type and key.
type DependencyID struct {
	Type ObjectType
	Key  string
}

// String returns "Type:Key".
func (d DependencyID) String() string {
	return fmt.Sprintf("%s:%s", d.Type, d.Key)
}

// IsZero reports whether the id is unset.
func (d DependencyID) IsZero() bool {
	return d.Type == "" && d.Key == ""
}

// ParseDependencyID parses a "Type:Key" string.
func ParseDependencyID(s string) (DependencyID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return DependencyID{}, fmt.Errorf("invalid dependency id %q: expected Type:Key", s)
	}

	t := ObjectType(parts[0])
	if !t.IsKnown() {
		return DependencyID{}, fmt.Errorf("invalid dependency id %q: unknown type %s", s, parts[0])
	}

	return DependencyID{Type: t, Key: parts[1]}, nil
}

// Category tells where an object comes from.
type Category int

const (
	// CategoryLocal is a user-created object owned by the packaged application.
	CategoryLocal Category = iota
	// CategoryShared is a user-created object other packages may reference.
	CategoryShared
	// CategorySystem is an object reserved by the system; never installed.
	CategorySystem
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryLocal:
		return "local"
	case CategoryShared:
		return "shared"
	case CategorySystem:
		return "system"
	default:
		return common.UnknownStr
	}
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "local", "":
		return CategoryLocal, nil
	case "shared":
		return CategoryShared, nil
	case "system":
		return CategorySystem, nil
	default:
		return CategoryLocal, fmt.Errorf("unknown category %q", s)
	}
}

// MarshalYAML writes the category name.
func (c Category) MarshalYAML() (any, error) {
	return c.String(), nil
}

// UnmarshalYAML reads a category name.
func (c *Category) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// Dependency is one object instance together with the objects it depends on.
type Dependency struct {
	ID          DependencyID
	DisplayName string
	Category    Category
	// Parent is set for objects whose identity is only meaningful inside
	// another object.
	Parent   *DependencyID
	Children []*Dependency
}

// NewDependency builds a childless dependency record for an object.
func NewDependency(o *Object, category Category) *Dependency {
	d := &Dependency{
		ID:          o.Key(),
		DisplayName: o.DisplayName(),
		Category:    category,
	}

	if o.Parent != nil {
		p := o.Parent.Key()
		d.Parent = &p
	}

	return d
}

// String returns "Type:Key (name)".
func (d *Dependency) String() string {
	if d.DisplayName == "" || d.DisplayName == d.ID.Key {
		return d.ID.String()
	}

	return fmt.Sprintf("%s (%s)", d.ID, d.DisplayName)
}

// SortDependencies orders dependencies by id for deterministic output.
func SortDependencies(deps []*Dependency) {
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].ID.Type != deps[j].ID.Type {
			return deps[i].ID.Type < deps[j].ID.Type
		}

		return deps[i].ID.Key < deps[j].ID.Key
	})
}

// Catalog gives read access to the objects of one system.
type Catalog interface {
	// Object returns the object with the given id or ErrNotFound.
	Object(id DependencyID) (*Object, error)
	// Objects returns every object of a type, ordered by id.
	Objects(t ObjectType) []*Object
}
