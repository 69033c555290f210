package idtypes

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"content-mover/internal/common"
	"content-mover/internal/diagnostic"
	"content-mover/internal/idctx"
	"content-mover/internal/model"
)

// Engine finds literal ids inside objects and classifies them.
type Engine struct {
	tables   *Tables
	messages *idctx.Messages
	log      *zap.SugaredLogger
}

// NewEngine creates a discovery engine. A nil logger disables logging and
// nil messages render addresses as keys.
func NewEngine(tables *Tables, messages *idctx.Messages, log *zap.SugaredLogger) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Engine{tables: tables, messages: messages, log: log}
}

// Tables returns the engine's classification tables.
func (e *Engine) Tables() *Tables {
	return e.tables
}

// Discovery is the result of scanning one object.
type Discovery struct {
	IdTypes     *ApplicationIdTypes
	Diagnostics diagnostic.Diagnostics
}

// Discover scans obj with the transform table. Literals of parent-scoped
// types are resolved in a second pass against the parent ids found in the
// same scan; those without a parent are dropped with a diagnostic.
func (e *Engine) Discover(obj *model.Object) (*Discovery, error) {
	return e.scan(obj, e.tables.Transform)
}

// DiscoverDependency looks dep up in cat and scans it.
func (e *Engine) DiscoverDependency(cat model.Catalog, dep *model.Dependency) (*Discovery, error) {
	obj, err := cat.Object(dep.ID)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dep.ID, err)
	}

	return e.Discover(obj)
}

// ChildReferences scans obj with the child table and returns the objects
// its literal ids refer to.
func (e *Engine) ChildReferences(obj *model.Object) ([]model.DependencyID, error) {
	d, err := e.scan(obj, e.tables.Child)
	if err != nil {
		return nil, err
	}

	return d.IdTypes.References(), nil
}

func (e *Engine) scan(obj *model.Object, table *Table) (*Discovery, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	s := &scanner{engine: e, table: table, owner: obj.Key()}
	s.result = &Discovery{IdTypes: New(obj.Key())}

	for i := range obj.Resources {
		s.resource(&obj.Resources[i])
	}

	s.resolveDeferred()

	e.log.Debugw("scanned object",
		"object", obj.Key().String(),
		"mappings", s.result.IdTypes.Len(),
		"warnings", len(s.result.Diagnostics.Warnings))

	return s.result, nil
}

type scanner struct {
	engine *Engine
	table  *Table
	owner  model.DependencyID
	result *Discovery

	resName  string
	deferred []*Mapping
}

func (s *scanner) address(c *idctx.Chain) string {
	if s.engine.messages == nil {
		return c.Key()
	}

	return s.engine.messages.Chain(c)
}

// emit records the literal at c when it looks like an id.
func (s *scanner) emit(elem Element, c *idctx.Chain, field string, lit model.Literal) {
	if !lit.LooksLikeID() {
		return
	}

	m := &Mapping{
		Resource: s.resName,
		Element:  elem,
		Chain:    c,
		Value:    strings.TrimSpace(lit.Text),
		Field:    field,
	}

	ft, ok := s.table.Lookup(field)
	if !ok {
		m.Type = TypeUndefined

		if s.result.IdTypes.Add(m) {
			msg := fmt.Sprintf("literal %s in %s %q matches no id type", m.Value, elem, field)
			if sug, ok := s.table.Suggest(field); ok {
				s.result.Diagnostics.AddWarningWithSuggestions(diagnostic.CodeUnclassifiedID, msg,
					s.owner.String(), s.address(c), sug)
			} else {
				s.result.Diagnostics.AddWarning(diagnostic.CodeUnclassifiedID, msg, s.owner.String(), s.address(c))
			}
		}

		return
	}

	m.Type = ft.Type
	if ft.ParentType != "" {
		m.ParentType = ft.ParentType
		s.deferred = append(s.deferred, m)

		return
	}

	s.result.IdTypes.Add(m)
}

// resolveDeferred attaches parent ids to parent-scoped mappings. A parent
// found in the same resource wins over one from another resource.
func (s *scanner) resolveDeferred() {
	for _, m := range s.deferred {
		var local, all []*Mapping

		for _, p := range s.result.IdTypes.All() {
			if p.Type != m.ParentType {
				continue
			}

			if p.Resource == m.Resource {
				local = append(local, p)
			}

			all = append(all, p)
		}

		parent, ok := common.First(local)
		if !ok {
			parent, ok = common.First(all)
		}

		if !ok {
			s.result.Diagnostics.AddWarning(diagnostic.CodeMissingParent,
				fmt.Sprintf("%s id %s dropped: no %s found in the same object", m.Type, m.Value, m.ParentType),
				s.owner.String(), s.address(m.Chain))

			continue
		}

		m.ParentID = parent.Value
		s.result.IdTypes.Add(m)
	}

	s.deferred = nil
}

func (s *scanner) resource(r *model.Resource) {
	s.resName = r.Name

	for _, p := range r.Params {
		c := idctx.Build(&idctx.NamedItem{Type: idctx.ItemParam, Name: p.Name})
		s.emit(ElementParam, c, p.Name, p.Value)
	}

	for i, cond := range r.Conditionals {
		base := idctx.Build(&idctx.IndexedItem{Type: idctx.ItemConditional, Index: i})
		s.conditional(ElementConditional, base, cond)
	}

	for i, call := range r.Extensions {
		s.extension(ElementExtension, nil, i, call)
	}

	for i, dm := range r.Mappings {
		s.mapping(i, dm)
	}

	for _, req := range r.Requests {
		base := idctx.Build(&idctx.URLRequest{Name: req.Name})
		for _, p := range req.Params {
			c := base.Extend(&idctx.NamedItem{Type: idctx.ItemRequestParam, Name: p.Name})
			s.emit(ElementRequest, c, p.Name, p.Value)
		}
	}

	for i, page := range r.ResultPages {
		base := idctx.Build(&idctx.IndexedItem{Type: idctx.ItemResultPage, Index: i})

		for j, cond := range page.Conditionals {
			s.conditional(ElementResultPage, base.Extend(&idctx.IndexedItem{Type: idctx.ItemConditional, Index: j}), cond)
		}

		for j, call := range page.Extensions {
			s.extension(ElementResultPage, base, j, call)
		}
	}

	for _, f := range r.Fields {
		s.field(f)
	}

	for _, dm := range r.DisplayMappers {
		s.displayMapper(dm)
	}

	for i, b := range r.Bindings {
		s.binding(i, b)
	}
}

// conditional emits the literal side of a "name op id" test. The other
// side names the field the id belongs to.
func (s *scanner) conditional(elem Element, base *idctx.Chain, c model.Conditional) {
	if c.Variable.IsNamedRef() && c.Value.LooksLikeID() {
		leaf := base.Extend(&idctx.ConditionalSide{Side: idctx.SideValue, Cond: idctx.NewVersioned(c)})
		s.emit(elem, leaf, c.Variable.Text, c.Value)
	}

	if c.Value.IsNamedRef() && c.Variable.LooksLikeID() {
		leaf := base.Extend(&idctx.ConditionalSide{Side: idctx.SideVariable, Cond: idctx.NewVersioned(c)})
		s.emit(elem, leaf, c.Value.Text, c.Variable)
	}
}

// extension emits id parameters of an extension call. Unnamed parameters
// are classified by their position.
func (s *scanner) extension(elem Element, parent *idctx.Chain, index int, call model.ExtensionCall) {
	p := &idctx.ExtensionCall{Name: call.Name, Index: index}

	var base *idctx.Chain
	if parent == nil {
		base = idctx.Build(p)
	} else {
		base = parent.Extend(p)
	}

	for j, param := range call.Params {
		field := param.Name
		if field == "" {
			field, _ = s.engine.tables.ExtensionArg(call.Name, j)
		}

		leaf := base.Extend(&idctx.ExtensionParam{Index: j, Name: param.Name, Value: idctx.NewVersioned(param.Value)})
		s.emit(elem, leaf, field, param.Value)
	}
}

func (s *scanner) mapping(index int, dm model.DataMapping) {
	base := idctx.Build(&idctx.IndexedItem{Type: idctx.ItemMapping, Index: index})

	if dm.Document.IsNamedRef() && dm.Backend.LooksLikeID() {
		leaf := base.Extend(&idctx.MappingSide{Side: idctx.SideBackend, Mapping: idctx.NewVersioned(dm)})
		s.emit(ElementMapping, leaf, dm.Document.Text, dm.Backend)
	}

	if dm.Backend.IsNamedRef() && dm.Document.LooksLikeID() {
		leaf := base.Extend(&idctx.MappingSide{Side: idctx.SideDocument, Mapping: idctx.NewVersioned(dm)})
		s.emit(ElementMapping, leaf, dm.Backend.Text, dm.Document)
	}

	for j, cond := range dm.Conditionals {
		s.conditional(ElementMapping, base.Extend(&idctx.IndexedItem{Type: idctx.ItemConditional, Index: j}), cond)
	}
}

func (s *scanner) field(f model.Field) {
	base := idctx.Build(&idctx.Field{Name: f.Name})

	if f.Default != nil {
		c := base.Extend(&idctx.NamedItem{Type: idctx.ItemDefault, Name: f.Name})
		s.emit(ElementField, c, f.Name, *f.Default)
	}

	for j, cond := range f.Visibility {
		s.conditional(ElementField, base.Extend(&idctx.IndexedItem{Type: idctx.ItemVisibility, Index: j}), cond)
	}
}

// displayMapper emits choice values, classified by the mapped field, and
// id parameters of the UI set's extensions.
func (s *scanner) displayMapper(dm model.DisplayMapping) {
	base := idctx.Build(&idctx.DisplayMapper{FieldRef: dm.FieldRef})
	set := base.Extend(&idctx.UISet{Name: dm.UISet.Name})

	for i, e := range dm.UISet.Choices {
		leaf := set.Extend(&idctx.Entry{Entry: idctx.NewVersioned(e), Index: i})
		s.emit(ElementDisplayMapper, leaf, dm.FieldRef, e.Value)
	}

	for j, call := range dm.UISet.Extensions {
		s.extension(ElementDisplayMapper, base, j, call)
	}
}

func (s *scanner) binding(index int, b model.Binding) {
	base := idctx.Build(&idctx.Binding{Variable: b.Variable, Index: index})
	s.emit(ElementBinding, base, b.Variable, b.Expression)

	for j, p := range b.Params {
		leaf := base.Extend(&idctx.BindingParam{Name: p.Name, Index: j})
		s.emit(ElementBinding, leaf, p.Name, p.Value)
	}
}
