package transform

import (
	"fmt"

	"content-mover/internal/idctx"
	"content-mover/internal/idtypes"
	"content-mover/internal/model"
)

// value returns the literal text the leaf addresses inside ref.
func value(leaf idctx.Payload, ref idtypes.Ref) (string, error) {
	switch {
	case ref.Conditional != nil:
		side, ok := leaf.(*idctx.ConditionalSide)
		if !ok {
			return "", fmt.Errorf("%w: conditional addressed by %s", idctx.ErrTypeMismatch, leaf.Kind())
		}

		return conditionalSide(ref.Conditional, side.Side).Text, nil
	case ref.Mapping != nil:
		side, ok := leaf.(*idctx.MappingSide)
		if !ok {
			return "", fmt.Errorf("%w: data mapping addressed by %s", idctx.ErrTypeMismatch, leaf.Kind())
		}

		return mappingSide(ref.Mapping, side.Side).Text, nil
	case ref.Entry != nil:
		return ref.Entry.Value.Text, nil
	case ref.Literal != nil:
		return ref.Literal.Text, nil
	default:
		return "", fmt.Errorf("%w: empty reference", idtypes.ErrUnresolvedAddress)
	}
}

func conditionalSide(c *model.Conditional, s idctx.Side) *model.Literal {
	if s == idctx.SideVariable {
		return &c.Variable
	}

	return &c.Value
}

func mappingSide(m *model.DataMapping, s idctx.Side) *model.Literal {
	if s == idctx.SideBackend {
		return &m.Backend
	}

	return &m.Document
}

// setValue stores target in the leaf's current value. Leaves without a
// versioned value are left alone; the object is written through the ref.
func setValue(leaf *idctx.Node, target string) error {
	switch p := leaf.Payload().(type) {
	case *idctx.ConditionalSide:
		c := p.Cond.Current
		conditionalSide(&c, p.Side).Text = target

		return leaf.UpdateValue(c)
	case *idctx.MappingSide:
		dm := p.Mapping.Current
		mappingSide(&dm, p.Side).Text = target

		return leaf.UpdateValue(dm)
	case *idctx.Entry:
		e := p.Entry.Current
		e.Value.Text = target

		return leaf.UpdateValue(e)
	case *idctx.ExtensionParam:
		l := p.Value.Current
		l.Text = target

		return leaf.UpdateValue(l)
	default:
		return nil
	}
}

// writeBack copies the leaf's current value into the object.
func writeBack(leaf idctx.Payload, ref idtypes.Ref, target string) error {
	switch {
	case ref.Conditional != nil:
		side, ok := leaf.(*idctx.ConditionalSide)
		if !ok {
			return fmt.Errorf("%w: conditional addressed by %s", idctx.ErrTypeMismatch, leaf.Kind())
		}

		// Aliases of the other side have already been folded into Current.
		*ref.Conditional = side.Cond.Current
	case ref.Mapping != nil:
		side, ok := leaf.(*idctx.MappingSide)
		if !ok {
			return fmt.Errorf("%w: data mapping addressed by %s", idctx.ErrTypeMismatch, leaf.Kind())
		}

		ref.Mapping.Backend = side.Mapping.Current.Backend
		ref.Mapping.Document = side.Mapping.Current.Document
	case ref.Entry != nil:
		entry, ok := leaf.(*idctx.Entry)
		if !ok {
			return fmt.Errorf("%w: entry addressed by %s", idctx.ErrTypeMismatch, leaf.Kind())
		}

		ref.Entry.Value = entry.Entry.Current.Value
	case ref.Literal != nil:
		ref.Literal.Text = target
	default:
		return fmt.Errorf("%w: empty reference", idtypes.ErrUnresolvedAddress)
	}

	return nil
}
