package transform

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"content-mover/internal/diagnostic"
	"content-mover/internal/idctx"
	"content-mover/internal/idmap"
	"content-mover/internal/idtypes"
	"content-mover/internal/model"
)

// Options control how unmapped ids are handled.
type Options struct {
	// ReserveNew mints target ids for unmapped source ids through Allocator
	// instead of failing.
	ReserveNew bool
	Allocator  idmap.Allocator
}

// Mapper resolves source ids to target ids. *idmap.IdMap and *idmap.Txn
// implement it.
type Mapper interface {
	Target(t model.ObjectType, source, parent string) (string, bool)
	Reserve(t model.ObjectType, source, parent string, alloc idmap.Allocator) (idmap.Entry, error)
	Claim(e idmap.Entry) idmap.Entry
}

// Engine rewrites the literal ids of objects.
type Engine struct {
	opts     Options
	messages *idctx.Messages
	log      *zap.SugaredLogger
}

// NewEngine creates an Engine. A nil logger disables logging and nil
// messages render addresses as keys.
func NewEngine(opts Options, messages *idctx.Messages, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Engine{opts: opts, messages: messages, log: log}
}

// Result summarizes one transformation.
type Result struct {
	// Changed counts the literals whose value differs after the pass.
	Changed int
	// Applied counts the mappings written, changed or not.
	Applied int
	// Reserved lists the entries minted during the pass.
	Reserved    []idmap.Entry
	Diagnostics diagnostic.Diagnostics
}

// Transform rewrites every mapped literal of obj in place. Targets are
// looked up by the source id recorded in the mapping, so running the same
// transformation twice leaves the object unchanged after the first pass.
// The chains of types are not modified.
//
// All unmapped ids are reported together; the object must not be used
// when an error is returned.
func (e *Engine) Transform(obj *model.Object, types *idtypes.ApplicationIdTypes, m Mapper) (*Result, error) {
	if types.Owner != obj.Key() {
		return nil, fmt.Errorf("id types of %s cannot transform %s", types.Owner, obj.Key())
	}

	res := &Result{}

	var errs []error

	for _, r := range types.Resources() {
		for _, el := range types.Elements(r) {
			if err := e.group(obj, types.Group(r, el), m, res); err != nil {
				errs = append(errs, err)
			}
		}
	}

	e.log.Debugw("transformed object",
		"object", obj.Key().String(),
		"applied", res.Applied,
		"changed", res.Changed,
		"reserved", len(res.Reserved),
		"failed", len(errs))

	return res, errors.Join(errs...)
}

// group transforms the mappings of one resource element. Chains are
// cloned and linked so that aliases of one value see each other's updates.
func (e *Engine) group(obj *model.Object, group []*idtypes.Mapping, m Mapper, res *Result) error {
	net := idctx.NewNetwork()
	work := make([]*idtypes.Mapping, len(group))

	for i, orig := range group {
		c := *orig
		c.Chain = orig.Chain.Clone()
		work[i] = &c
		net.Register(c.Chain)
	}

	defer func() {
		for _, w := range work {
			net.Drop(w.Chain.ID())
		}
	}()

	for i := range work {
		for j := i + 1; j < len(work); j++ {
			if _, err := net.CheckAddListener(work[i].Chain, work[j].Chain); err != nil {
				return err
			}
		}
	}

	var errs []error

	for _, w := range work {
		if err := e.apply(obj, w, net, m, res); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *Engine) address(c *idctx.Chain) string {
	if e.messages == nil {
		return c.Key()
	}

	return e.messages.Chain(c)
}

func (e *Engine) apply(obj *model.Object, w *idtypes.Mapping, net *idctx.Network, m Mapper, res *Result) error {
	if w.IsNone() {
		return nil
	}

	if w.IsUndefined() {
		res.Diagnostics.AddWarning(diagnostic.CodeUndefinedIDType,
			fmt.Sprintf("literal %s skipped: id type never defined", w.Value), obj.Key().String(), e.address(w.Chain))

		return nil
	}

	target, err := e.target(obj, w, m, res)
	if err != nil {
		return err
	}

	ref, err := idtypes.Locate(obj, w)
	if err != nil {
		return err
	}

	leaf := w.Chain.Leaf()

	before, err := value(leaf.Payload(), ref)
	if err != nil {
		return err
	}

	if err := setValue(leaf, target); err != nil {
		return err
	}

	if err := net.Notify(idctx.LeafOf(w.Chain)); err != nil {
		return err
	}

	if err := writeBack(leaf.Payload(), ref, target); err != nil {
		return err
	}

	res.Applied++
	if before != target {
		res.Changed++
	}

	return nil
}

func (e *Engine) target(obj *model.Object, w *idtypes.Mapping, m Mapper, res *Result) (string, error) {
	if t, ok := m.Target(w.Type, w.Value, w.ParentID); ok {
		return t, nil
	}

	if !e.opts.ReserveNew || e.opts.Allocator == nil {
		return "", &UnmappedIDError{Type: w.Type, Source: w.Value, Parent: w.ParentID, Address: e.address(w.Chain)}
	}

	entry, err := m.Reserve(w.Type, w.Value, w.ParentID, e.opts.Allocator)
	if err != nil {
		return "", err
	}

	res.Reserved = append(res.Reserved, entry)
	res.Diagnostics.AddInfo(diagnostic.CodeReservedID,
		fmt.Sprintf("reserved %s", entry), obj.Key().String(), e.address(w.Chain))

	return entry.Target, nil
}
