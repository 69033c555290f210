package transform

import (
	"fmt"

	"content-mover/internal/idmap"
	"content-mover/internal/model"
)

// Rekey moves obj to the identity it is installed under. The parent and
// the references are translated when mapped. An unmapped object id is
// reserved when new ids may be minted and is otherwise claimed unchanged,
// so references met later resolve to the id the object really has. Ids
// that are not numeric are kept and nil is returned. The returned entry
// has New set when the id was minted.
func (e *Engine) Rekey(obj *model.Object, m Mapper) (*idmap.Entry, error) {
	src := obj.Key()

	var parent string
	if obj.Parent != nil {
		parent = obj.Parent.ID
	}

	var entry *idmap.Entry

	if model.Number(obj.ID).LooksLikeID() {
		got, err := e.rekeyID(obj.Type, obj.ID, parent, m)
		if err != nil {
			return nil, err
		}

		obj.ID = got.Target
		entry = &got
	}

	if obj.Parent != nil {
		obj.Parent.ID = mapped(m, obj.Parent.Type, obj.Parent.ID)
	}

	for i := range obj.Refs {
		obj.Refs[i].ID = mapped(m, obj.Refs[i].Type, obj.Refs[i].ID)
	}

	if obj.Key() != src {
		e.log.Debugw("rekeyed object", "object", src.String(), "target", obj.Key().String())
	}

	return entry, nil
}

func (e *Engine) rekeyID(t model.ObjectType, id, parent string, m Mapper) (idmap.Entry, error) {
	if target, ok := m.Target(t, id, parent); ok {
		return idmap.Entry{Type: t, Source: id, Target: target, Parent: parent}, nil
	}

	if !e.opts.ReserveNew || e.opts.Allocator == nil {
		return m.Claim(idmap.Entry{Type: t, Source: id, Target: id, Parent: parent}), nil
	}

	entry, err := m.Reserve(t, id, parent, e.opts.Allocator)
	if err != nil {
		return idmap.Entry{}, fmt.Errorf("failed to rekey %s:%s: %w", t, id, err)
	}

	return entry, nil
}

func mapped(m Mapper, t model.ObjectType, id string) string {
	if target, ok := m.Target(t, id, ""); ok {
		return target
	}

	return id
}
