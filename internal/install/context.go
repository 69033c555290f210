package install

import (
	"sync"

	"content-mover/internal/idmap"
	"content-mover/internal/model"
)

// Overrides are operator-selected policy flags applied over the freshly
// installed definition. Nil fields keep the packaged value.
type Overrides struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	Logging *bool `yaml:"logging,omitempty"`
	Tracing *bool `yaml:"tracing,omitempty"`
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o.Enabled == nil && o.Logging == nil && o.Tracing == nil
}

// Apply writes the set overrides into p.
func (o Overrides) Apply(p *model.Policy) {
	if o.Enabled != nil {
		p.Enabled = *o.Enabled
	}

	if o.Logging != nil {
		p.Logging = *o.Logging
	}

	if o.Tracing != nil {
		p.Tracing = *o.Tracing
	}
}

// ImportContext is the state shared by the transactions of one install
// operation: the id map, the policy overrides and the accumulated
// transaction log. It is safe for concurrent use by transactions.
type ImportContext struct {
	IdMap     *idmap.IdMap
	Overrides Overrides

	mu      sync.Mutex
	entries []LogEntry
}

// NewImportContext creates a context for one install operation.
func NewImportContext(m *idmap.IdMap, overrides Overrides) *ImportContext {
	if m == nil {
		m = idmap.New("", "")
	}

	return &ImportContext{IdMap: m, Overrides: overrides}
}

func (c *ImportContext) record(entries []LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entries...)
}

// Entries returns the log entries recorded so far, in commit order.
func (c *ImportContext) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]LogEntry(nil), c.entries...)
}
