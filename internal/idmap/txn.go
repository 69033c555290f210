package idmap

import (
	"content-mover/internal/model"
)

// Txn stages the entries one install reserves or claims. Staged entries
// are visible to every lookup at once, so concurrent installs that meet
// the same unmapped id agree on its target, but they are only listed by
// Entries once a transaction holding them commits. An entry whose every
// holder rolled back is removed again.
type Txn struct {
	m    *IdMap
	id   string
	held map[key]struct{}
}

// Begin opens a transaction named id.
func (m *IdMap) Begin(id string) *Txn {
	return &Txn{m: m, id: id, held: make(map[key]struct{})}
}

// hold records t as a holder of k when the entry at k is still staged.
// The map lock must be held.
func (t *Txn) hold(k key) {
	holders, ok := t.m.pending[k]
	if !ok {
		return
	}

	holders[t.id] = struct{}{}
	t.held[k] = struct{}{}
}

func (t *Txn) stage(k key, e Entry) {
	t.m.entries[k] = e
	t.m.pending[k] = map[string]struct{}{t.id: {}}
	t.held[k] = struct{}{}
}

// Target returns the target of a source id, staged or committed.
func (t *Txn) Target(typ model.ObjectType, source, parent string) (string, bool) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	k := key{typ: typ, source: source, parent: parent}

	e, ok := t.m.entries[k]
	if ok {
		t.hold(k)
	}

	return e.Target, ok
}

// Reserve works like IdMap.Reserve but stages a minted entry.
func (t *Txn) Reserve(typ model.ObjectType, source, parent string, alloc Allocator) (Entry, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	k := key{typ: typ, source: source, parent: parent}
	if e, ok := t.m.entries[k]; ok {
		t.hold(k)

		return e, nil
	}

	e, err := mint(k, alloc)
	if err != nil {
		return Entry{}, err
	}

	t.stage(k, e)

	return e, nil
}

// Claim works like IdMap.Claim but stages e.
func (t *Txn) Claim(e Entry) Entry {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	k := e.key()
	if old, ok := t.m.entries[k]; ok {
		t.hold(k)

		return old
	}

	t.stage(k, e)

	return e
}

// Staged returns the entries t holds that are not committed yet.
func (t *Txn) Staged() []Entry {
	t.m.mu.RLock()
	defer t.m.mu.RUnlock()

	var out []Entry

	for k := range t.held {
		if _, ok := t.m.pending[k]; ok {
			out = append(out, t.m.entries[k])
		}
	}

	return out
}

// Commit makes every entry t holds permanent.
func (t *Txn) Commit() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	for k := range t.held {
		delete(t.m.pending, k)
	}

	t.held = make(map[key]struct{})
}

// Rollback releases the entries t holds. Entries no other open
// transaction holds are removed from the map.
func (t *Txn) Rollback() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	for k := range t.held {
		holders, ok := t.m.pending[k]
		if !ok {
			continue
		}

		delete(holders, t.id)

		if len(holders) == 0 {
			delete(t.m.pending, k)
			delete(t.m.entries, k)
		}
	}

	t.held = make(map[key]struct{})
}
