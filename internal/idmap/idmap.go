package idmap

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"content-mover/internal/model"
)

// ErrConflict is returned when an entry would change the target of an
// already mapped source id.
var ErrConflict = errors.New("conflicting id mapping")

// Entry translates one source id of a type into a target id. Parent holds
// the source id of the parent object for types that are only unique inside
// a parent.
type Entry struct {
	Type   model.ObjectType `yaml:"type"`
	Source string           `yaml:"source"`
	Target string           `yaml:"target"`
	Parent string           `yaml:"parent,omitempty"`
	// New marks targets minted by Reserve that do not exist on the target
	// system yet.
	New bool `yaml:"new,omitempty"`
}

func (e Entry) key() key {
	return key{typ: e.Type, source: e.Source, parent: e.Parent}
}

// String returns "Type:Source -> Target".
func (e Entry) String() string {
	s := fmt.Sprintf("%s:%s -> %s", e.Type, e.Source, e.Target)
	if e.Parent != "" {
		s += " (in " + e.Parent + ")"
	}

	if e.New {
		s += " [new]"
	}

	return s
}

type key struct {
	typ    model.ObjectType
	source string
	parent string
}

// Allocator mints target ids for ids that have no mapping yet.
type Allocator interface {
	Next(t model.ObjectType) (string, error)
}

// IdMap translates ids of a source system into ids of a target system. It
// is safe for concurrent use.
type IdMap struct {
	SourceSystem string
	TargetSystem string

	mu      sync.RWMutex
	entries map[key]Entry
	// pending holds the transactions that staged an entry not committed yet.
	pending map[key]map[string]struct{}
}

// New returns an empty map between two systems.
func New(source, target string) *IdMap {
	return &IdMap{
		SourceSystem: source,
		TargetSystem: target,
		entries:      make(map[key]Entry),
		pending:      make(map[key]map[string]struct{}),
	}
}

// Add records an entry. Adding an identical entry again is a no-op; a
// different target for the same source fails with ErrConflict.
func (m *IdMap) Add(e Entry) error {
	if e.Type == "" || e.Source == "" || e.Target == "" {
		return fmt.Errorf("incomplete id mapping %s", e)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[e.key()]; ok && old.Target != e.Target {
		return fmt.Errorf("%w: %s already maps to %s", ErrConflict, e, old.Target)
	}

	m.entries[e.key()] = e
	delete(m.pending, e.key())

	return nil
}

// Target returns the target id of a source id.
func (m *IdMap) Target(t model.ObjectType, source, parent string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key{typ: t, source: source, parent: parent}]

	return e.Target, ok
}

// Reserve returns the target of a source id, minting one through alloc and
// recording it as new when the id is not mapped yet.
func (m *IdMap) Reserve(t model.ObjectType, source, parent string, alloc Allocator) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{typ: t, source: source, parent: parent}
	if e, ok := m.entries[k]; ok {
		return e, nil
	}

	e, err := mint(k, alloc)
	if err != nil {
		return Entry{}, err
	}

	m.entries[k] = e

	return e, nil
}

// Claim records e unless its source id is mapped already and returns the
// entry in effect.
func (m *IdMap) Claim(e Entry) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[e.key()]; ok {
		return old
	}

	m.entries[e.key()] = e

	return e
}

func mint(k key, alloc Allocator) (Entry, error) {
	target, err := alloc.Next(k.typ)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to reserve %s id for %s: %w", k.typ, k.source, err)
	}

	return Entry{Type: k.typ, Source: k.source, Target: target, Parent: k.parent, New: true}, nil
}

// Entries returns every committed entry ordered by type, parent and
// source. Entries staged by an open transaction are left out.
func (m *IdMap) Entries() []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))

	for k, e := range m.entries {
		if _, ok := m.pending[k]; ok {
			continue
		}

		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}

		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}

		return lessID(a.Source, b.Source)
	})

	return out
}

// Reserved returns the entries minted by Reserve.
func (m *IdMap) Reserved() []Entry {
	var out []Entry

	for _, e := range m.Entries() {
		if e.New {
			out = append(out, e)
		}
	}

	return out
}

// Len returns the number of committed entries.
func (m *IdMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries) - len(m.pending)
}

// lessID orders numeric ids numerically and everything else lexically.
func lessID(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}

	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
