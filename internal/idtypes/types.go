package idtypes

import (
	"sort"

	"content-mover/internal/idctx"
	"content-mover/internal/model"
)

// Element classifies the resource section a literal was found in.
type Element string

const (
	ElementParam         Element = "param"
	ElementConditional   Element = "conditional"
	ElementExtension     Element = "extension"
	ElementMapping       Element = "mapping"
	ElementRequest       Element = "request"
	ElementResultPage    Element = "resultpage"
	ElementField         Element = "field"
	ElementDisplayMapper Element = "displaymapper"
	ElementBinding       Element = "binding"
)

// Elements lists every element classification in scan order.
var Elements = []Element{
	ElementParam, ElementConditional, ElementExtension, ElementMapping, ElementRequest,
	ElementResultPage, ElementField, ElementDisplayMapper, ElementBinding,
}

// IsValid reports whether e is a known element classification.
func (e Element) IsValid() bool {
	for _, k := range Elements {
		if k == e {
			return true
		}
	}

	return false
}

// Declared kinds besides object types.
const (
	// TypeNone declares that a literal is not an id; it is never rewritten.
	TypeNone model.ObjectType = "none"
	// TypeUndefined marks a literal that looks like an id but could not be
	// classified. It must be set before the literal gets rewritten.
	TypeUndefined model.ObjectType = ""
)

// Mapping declares that the literal at Chain is an id of Type on the source
// system.
type Mapping struct {
	Resource string
	Element  Element
	Chain    *idctx.Chain
	// Type is an object type, TypeNone or TypeUndefined.
	Type model.ObjectType
	// Value is the literal as discovered, i.e. the source system id.
	Value string
	// Field is the name the literal was classified by.
	Field string
	// ParentType and ParentID are set for ids only unique inside a parent
	// object, such as a workflow state.
	ParentType model.ObjectType
	ParentID   string
}

// IsUndefined reports whether the mapping still needs a type.
func (m *Mapping) IsUndefined() bool {
	return m.Type == TypeUndefined
}

// IsNone reports whether the literal is declared not to be an id.
func (m *Mapping) IsNone() bool {
	return m.Type == TypeNone
}

// Source returns the source object the literal refers to.
func (m *Mapping) Source() model.DependencyID {
	return model.DependencyID{Type: m.Type, Key: m.Value}
}

// key identifies the mapping inside its group.
func (m *Mapping) key() string {
	return m.Chain.Key()
}

// ApplicationIdTypes holds the mappings found in one object, grouped by
// resource and element.
type ApplicationIdTypes struct {
	Owner model.DependencyID

	groups map[string]map[Element][]*Mapping
	keys   map[string]map[Element]map[string]struct{}
}

// New returns an empty collection owned by the given object.
func New(owner model.DependencyID) *ApplicationIdTypes {
	return &ApplicationIdTypes{
		Owner:  owner,
		groups: make(map[string]map[Element][]*Mapping),
		keys:   make(map[string]map[Element]map[string]struct{}),
	}
}

// Add appends m to its group. A mapping whose chain equals one already in
// the group is dropped and Add reports false.
func (t *ApplicationIdTypes) Add(m *Mapping) bool {
	byElem, ok := t.groups[m.Resource]
	if !ok {
		byElem = make(map[Element][]*Mapping)
		t.groups[m.Resource] = byElem
		t.keys[m.Resource] = make(map[Element]map[string]struct{})
	}

	keys, ok := t.keys[m.Resource][m.Element]
	if !ok {
		keys = make(map[string]struct{})
		t.keys[m.Resource][m.Element] = keys
	}

	k := m.key()
	if _, dup := keys[k]; dup {
		return false
	}

	keys[k] = struct{}{}
	byElem[m.Element] = append(byElem[m.Element], m)

	return true
}

// Resources returns the resource names holding mappings, sorted.
func (t *ApplicationIdTypes) Resources() []string {
	out := make([]string, 0, len(t.groups))
	for r := range t.groups {
		out = append(out, r)
	}

	sort.Strings(out)

	return out
}

// Elements returns the elements of a resource holding mappings, in scan order.
func (t *ApplicationIdTypes) Elements(resource string) []Element {
	byElem := t.groups[resource]

	var out []Element

	for _, e := range Elements {
		if len(byElem[e]) > 0 {
			out = append(out, e)
		}
	}

	return out
}

// Group returns the mappings of one resource and element in discovery order.
func (t *ApplicationIdTypes) Group(resource string, element Element) []*Mapping {
	return t.groups[resource][element]
}

// All returns every mapping ordered by resource, element and discovery.
func (t *ApplicationIdTypes) All() []*Mapping {
	var out []*Mapping

	for _, r := range t.Resources() {
		for _, e := range t.Elements(r) {
			out = append(out, t.groups[r][e]...)
		}
	}

	return out
}

// Len returns the number of mappings.
func (t *ApplicationIdTypes) Len() int {
	n := 0

	for _, byElem := range t.groups {
		for _, ms := range byElem {
			n += len(ms)
		}
	}

	return n
}

// Undefined returns the mappings that still need a type.
func (t *ApplicationIdTypes) Undefined() []*Mapping {
	var out []*Mapping

	for _, m := range t.All() {
		if m.IsUndefined() {
			out = append(out, m)
		}
	}

	return out
}

// References returns the distinct source objects referenced by defined
// mappings, sorted.
func (t *ApplicationIdTypes) References() []model.DependencyID {
	seen := make(map[model.DependencyID]struct{})

	var out []model.DependencyID

	for _, m := range t.All() {
		if m.IsUndefined() || m.IsNone() {
			continue
		}

		id := m.Source()
		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}

		return out[i].Key < out[j].Key
	})

	return out
}
