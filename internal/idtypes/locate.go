package idtypes

import (
	"errors"
	"fmt"

	"content-mover/internal/idctx"
	"content-mover/internal/model"
)

// ErrUnresolvedAddress is returned when a chain does not lead to a value of
// the object it is applied to.
var ErrUnresolvedAddress = errors.New("address does not resolve")

// Ref points at the sub-object a mapping addresses. Exactly one field is
// set: the conditional, data mapping or choice entry for versioned leaves,
// the literal otherwise.
type Ref struct {
	Conditional *model.Conditional
	Mapping     *model.DataMapping
	Entry       *model.Entry
	Literal     *model.Literal
}

// Locate resolves a mapping's chain against obj, dispatching on the
// mapping's element.
func Locate(obj *model.Object, m *Mapping) (Ref, error) {
	res, ok := obj.Resource(m.Resource)
	if !ok {
		return Ref{}, fmt.Errorf("%w: %s has no resource %q", ErrUnresolvedAddress, obj.Key(), m.Resource)
	}

	l := &locator{nodes: m.Chain.Nodes(), chain: m.Chain}

	switch m.Element {
	case ElementParam:
		return l.param(res)
	case ElementConditional:
		return l.conditionalAt(res.Conditionals, idctx.ItemConditional)
	case ElementExtension:
		return l.extension(res.Extensions)
	case ElementMapping:
		return l.mapping(res)
	case ElementRequest:
		return l.request(res)
	case ElementResultPage:
		return l.resultPage(res)
	case ElementField:
		return l.field(res)
	case ElementDisplayMapper:
		return l.displayMapper(res)
	case ElementBinding:
		return l.binding(res)
	default:
		return Ref{}, fmt.Errorf("%w: unknown element %q", ErrUnresolvedAddress, m.Element)
	}
}

// locator consumes chain nodes from the root towards the leaf.
type locator struct {
	nodes []*idctx.Node
	pos   int
	chain *idctx.Chain
}

func (l *locator) fail(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrUnresolvedAddress, l.chain.Key(), fmt.Sprintf(format, args...))
}

func (l *locator) next() (idctx.Payload, bool) {
	if l.pos >= len(l.nodes) {
		return nil, false
	}

	p := l.nodes[l.pos].Payload()
	l.pos++

	return p, true
}

func (l *locator) done() bool {
	return l.pos >= len(l.nodes)
}

func take[T idctx.Payload](l *locator) (T, error) {
	var zero T

	p, ok := l.next()
	if !ok {
		return zero, l.fail("chain ends early")
	}

	v, ok := p.(T)
	if !ok {
		return zero, l.fail("unexpected %s at depth %d", p.Kind(), l.pos-1)
	}

	return v, nil
}

func (l *locator) index(want idctx.ItemType, n int) (int, error) {
	item, err := take[*idctx.IndexedItem](l)
	if err != nil {
		return 0, err
	}

	if item.Type != want {
		return 0, l.fail("expected %s item, got %s", want, item.Type)
	}

	if item.Index >= n {
		return 0, l.fail("%s index %d out of range (%d)", want, item.Index, n)
	}

	return item.Index, nil
}

func (l *locator) end(ref Ref) (Ref, error) {
	if !l.done() {
		return Ref{}, l.fail("chain continues past the value")
	}

	return ref, nil
}

func findParam(params []model.Param, name string) (*model.Literal, bool) {
	for i := range params {
		if params[i].Name == name {
			return &params[i].Value, true
		}
	}

	return nil, false
}

func (l *locator) param(res *model.Resource) (Ref, error) {
	item, err := take[*idctx.NamedItem](l)
	if err != nil {
		return Ref{}, err
	}

	lit, ok := findParam(res.Params, item.Name)
	if !ok {
		return Ref{}, l.fail("no param %q", item.Name)
	}

	return l.end(Ref{Literal: lit})
}

func (l *locator) conditionalAt(conds []model.Conditional, item idctx.ItemType) (Ref, error) {
	i, err := l.index(item, len(conds))
	if err != nil {
		return Ref{}, err
	}

	return l.conditionalSide(&conds[i])
}

func (l *locator) conditionalSide(c *model.Conditional) (Ref, error) {
	if _, err := take[*idctx.ConditionalSide](l); err != nil {
		return Ref{}, err
	}

	return l.end(Ref{Conditional: c})
}

func (l *locator) extension(calls []model.ExtensionCall) (Ref, error) {
	call, err := take[*idctx.ExtensionCall](l)
	if err != nil {
		return Ref{}, err
	}

	if call.Index >= len(calls) || calls[call.Index].Name != call.Name {
		return Ref{}, l.fail("no call of %q at %d", call.Name, call.Index)
	}

	param, err := take[*idctx.ExtensionParam](l)
	if err != nil {
		return Ref{}, err
	}

	params := calls[call.Index].Params
	if param.Index >= len(params) {
		return Ref{}, l.fail("parameter %d out of range (%d)", param.Index, len(params))
	}

	return l.end(Ref{Literal: &params[param.Index].Value})
}

func (l *locator) mapping(res *model.Resource) (Ref, error) {
	i, err := l.index(idctx.ItemMapping, len(res.Mappings))
	if err != nil {
		return Ref{}, err
	}

	dm := &res.Mappings[i]

	p, ok := l.next()
	if !ok {
		return Ref{}, l.fail("chain ends early")
	}

	switch p.(type) {
	case *idctx.MappingSide:
		return l.end(Ref{Mapping: dm})
	case *idctx.IndexedItem:
		l.pos--

		return l.conditionalAt(dm.Conditionals, idctx.ItemConditional)
	default:
		return Ref{}, l.fail("unexpected %s below mapping", p.Kind())
	}
}

func (l *locator) request(res *model.Resource) (Ref, error) {
	req, err := take[*idctx.URLRequest](l)
	if err != nil {
		return Ref{}, err
	}

	item, err := take[*idctx.NamedItem](l)
	if err != nil {
		return Ref{}, err
	}

	for i := range res.Requests {
		if res.Requests[i].Name != req.Name {
			continue
		}

		lit, ok := findParam(res.Requests[i].Params, item.Name)
		if !ok {
			return Ref{}, l.fail("request %q has no param %q", req.Name, item.Name)
		}

		return l.end(Ref{Literal: lit})
	}

	return Ref{}, l.fail("no request %q", req.Name)
}

func (l *locator) resultPage(res *model.Resource) (Ref, error) {
	i, err := l.index(idctx.ItemResultPage, len(res.ResultPages))
	if err != nil {
		return Ref{}, err
	}

	page := &res.ResultPages[i]

	p, ok := l.next()
	if !ok {
		return Ref{}, l.fail("chain ends early")
	}

	l.pos--

	switch p.(type) {
	case *idctx.IndexedItem:
		return l.conditionalAt(page.Conditionals, idctx.ItemConditional)
	case *idctx.ExtensionCall:
		return l.extension(page.Extensions)
	default:
		return Ref{}, l.fail("unexpected %s below result page", p.Kind())
	}
}

func (l *locator) field(res *model.Resource) (Ref, error) {
	f, err := take[*idctx.Field](l)
	if err != nil {
		return Ref{}, err
	}

	var field *model.Field

	for i := range res.Fields {
		if res.Fields[i].Name == f.Name {
			field = &res.Fields[i]

			break
		}
	}

	if field == nil {
		return Ref{}, l.fail("no field %q", f.Name)
	}

	p, ok := l.next()
	if !ok {
		return Ref{}, l.fail("chain ends early")
	}

	switch x := p.(type) {
	case *idctx.NamedItem:
		if x.Type != idctx.ItemDefault || field.Default == nil {
			return Ref{}, l.fail("field %q has no default", f.Name)
		}

		return l.end(Ref{Literal: field.Default})
	case *idctx.IndexedItem:
		l.pos--

		return l.conditionalAt(field.Visibility, idctx.ItemVisibility)
	default:
		return Ref{}, l.fail("unexpected %s below field", p.Kind())
	}
}

func (l *locator) displayMapper(res *model.Resource) (Ref, error) {
	d, err := take[*idctx.DisplayMapper](l)
	if err != nil {
		return Ref{}, err
	}

	var dm *model.DisplayMapping

	for i := range res.DisplayMappers {
		if res.DisplayMappers[i].FieldRef == d.FieldRef {
			dm = &res.DisplayMappers[i]

			break
		}
	}

	if dm == nil {
		return Ref{}, l.fail("no display mapper for %q", d.FieldRef)
	}

	p, ok := l.next()
	if !ok {
		return Ref{}, l.fail("chain ends early")
	}

	switch x := p.(type) {
	case *idctx.UISet:
		if x.Name != dm.UISet.Name {
			return Ref{}, l.fail("UI set %q, want %q", dm.UISet.Name, x.Name)
		}

		entry, err := take[*idctx.Entry](l)
		if err != nil {
			return Ref{}, err
		}

		c := choiceAt(dm.UISet.Choices, entry.Index, entry.Entry.Original)
		if c == nil {
			return Ref{}, l.fail("no choice %d %q at %d", entry.Entry.Original.Sequence, entry.Entry.Original.Label, entry.Index)
		}

		return l.end(Ref{Entry: c})
	case *idctx.ExtensionCall:
		l.pos--

		return l.extension(dm.UISet.Extensions)
	default:
		return Ref{}, l.fail("unexpected %s below display mapper", p.Kind())
	}
}

func (l *locator) binding(res *model.Resource) (Ref, error) {
	b, err := take[*idctx.Binding](l)
	if err != nil {
		return Ref{}, err
	}

	if b.Index >= len(res.Bindings) || res.Bindings[b.Index].Variable != b.Variable {
		return Ref{}, l.fail("no binding of %q at %d", b.Variable, b.Index)
	}

	binding := &res.Bindings[b.Index]
	if l.done() {
		return Ref{Literal: &binding.Expression}, nil
	}

	bp, err := take[*idctx.BindingParam](l)
	if err != nil {
		return Ref{}, err
	}

	if bp.Index >= len(binding.Params) || binding.Params[bp.Index].Name != bp.Name {
		return Ref{}, l.fail("binding %q has no param %q at %d", b.Variable, bp.Name, bp.Index)
	}

	return l.end(Ref{Literal: &binding.Params[bp.Index].Value})
}

// choiceAt returns the choice at index when its sequence and label still
// match. Otherwise the choice is searched by sequence and label, which
// must then be unique.
func choiceAt(choices []model.Entry, index int, want model.Entry) *model.Entry {
	same := func(c model.Entry) bool {
		return c.Sequence == want.Sequence && c.Label == want.Label
	}

	if index >= 0 && index < len(choices) && same(choices[index]) {
		return &choices[index]
	}

	var found *model.Entry

	for i := range choices {
		if !same(choices[i]) {
			continue
		}

		if found != nil {
			return nil
		}

		found = &choices[i]
	}

	return found
}
