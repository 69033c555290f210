package dependency

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"content-mover/internal/diagnostic"
	"content-mover/internal/idtypes"
	"content-mover/internal/model"
)

// Handler discovers the dependencies of one object type.
type Handler interface {
	// Type returns the object type served by the handler.
	Type() model.ObjectType
	// ChildDependencies returns the existing objects dep refers to, without
	// duplicates and without dep itself. References to missing objects are
	// omitted and reported in diags.
	ChildDependencies(dep *model.Dependency, diags *diagnostic.Diagnostics) ([]*model.Dependency, error)
	// AllDependencies yields every object of the type whose key or name
	// matches the doublestar pattern; an empty pattern matches everything.
	AllDependencies(pattern string) iter.Seq[*model.Dependency]
	// Exists reports whether the object is known.
	Exists(id model.DependencyID) bool
}

// Registry maps object types to handlers.
type Registry struct {
	catalog  model.Catalog
	engine   *idtypes.Engine
	handlers map[model.ObjectType]Handler
}

// NewRegistry returns a registry with a handler for every known type.
func NewRegistry(cat model.Catalog, engine *idtypes.Engine) *Registry {
	if engine == nil {
		engine = idtypes.NewEngine(nil, nil, nil)
	}

	r := &Registry{catalog: cat, engine: engine, handlers: make(map[model.ObjectType]Handler)}

	for _, t := range model.KnownTypes {
		h := &objectHandler{typ: t, reg: r}

		switch t {
		case model.TypeApplication:
			h.extra = pipeTables
		case model.TypeStylesheet:
			h.extra = stylesheetIncludes
		}

		r.Register(h)
	}

	return r
}

// Register adds or replaces the handler of h.Type().
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Handler returns the handler of t.
func (r *Registry) Handler(t model.ObjectType) (Handler, bool) {
	h, ok := r.handlers[t]

	return h, ok
}

// Catalog returns the catalog handlers read from.
func (r *Registry) Catalog() model.Catalog {
	return r.catalog
}

// Dependency looks id up and returns its childless dependency record.
func (r *Registry) Dependency(id model.DependencyID) (*model.Dependency, error) {
	obj, err := r.catalog.Object(id)
	if err != nil {
		return nil, err
	}

	return model.NewDependency(obj, CategoryOf(obj)), nil
}

// CategoryOf classifies an object as system, shared or local.
func CategoryOf(o *model.Object) model.Category {
	switch {
	case o.System:
		return model.CategorySystem
	case o.Shared:
		return model.CategoryShared
	default:
		return model.CategoryLocal
	}
}

// objectHandler implements the discovery shared by all types. extra adds
// type-specific references.
type objectHandler struct {
	typ   model.ObjectType
	reg   *Registry
	extra func(h *objectHandler, o *model.Object, refs *refSet) error
}

func (h *objectHandler) Type() model.ObjectType {
	return h.typ
}

func (h *objectHandler) Exists(id model.DependencyID) bool {
	if id.Type != h.typ {
		return false
	}

	_, err := h.reg.catalog.Object(id)

	return err == nil
}

func (h *objectHandler) AllDependencies(pattern string) iter.Seq[*model.Dependency] {
	return func(yield func(*model.Dependency) bool) {
		for _, o := range h.reg.catalog.Objects(h.typ) {
			if !matches(pattern, o) {
				continue
			}

			if !yield(model.NewDependency(o, CategoryOf(o))) {
				return
			}
		}
	}
}

func matches(pattern string, o *model.Object) bool {
	if pattern == "" {
		return true
	}

	for _, s := range []string{o.ID, o.Name} {
		if ok, err := doublestar.Match(pattern, s); err == nil && ok {
			return true
		}
	}

	return false
}

func (h *objectHandler) ChildDependencies(dep *model.Dependency, diags *diagnostic.Diagnostics) ([]*model.Dependency, error) {
	if dep.ID.Type != h.typ {
		return nil, fmt.Errorf("%s handler cannot scan %s", h.typ, dep.ID)
	}

	obj, err := h.reg.catalog.Object(dep.ID)
	if err != nil {
		return nil, fmt.Errorf("child dependencies of %s: %w", dep.ID, err)
	}

	if err := obj.Validate(); err != nil {
		return nil, err
	}

	refs := newRefSet()
	structuralRefs(obj, refs)

	ids, err := h.reg.engine.ChildReferences(obj)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		refs.add(id, "id")
	}

	if h.extra != nil {
		if err := h.extra(h, obj, refs); err != nil {
			return nil, err
		}
	}

	return h.resolveRefs(dep.ID, refs, diags), nil
}

// resolveRefs turns references into dependency records, dropping self
// references and references to missing objects.
func (h *objectHandler) resolveRefs(self model.DependencyID, refs *refSet, diags *diagnostic.Diagnostics) []*model.Dependency {
	var out []*model.Dependency

	for _, id := range refs.sorted() {
		if id == self {
			continue
		}

		if _, ok := h.reg.Handler(id.Type); !ok {
			diags.AddWarning(diagnostic.CodeUnknownHandler,
				fmt.Sprintf("no handler for %s", id.Type), self.String(), refs.via[id])

			continue
		}

		d, err := h.reg.Dependency(id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				diags.AddInfo(diagnostic.CodeMissingReference,
					fmt.Sprintf("%s refers to missing %s", self, id), self.String(), refs.via[id])

				continue
			}

			diags.AddWarning(diagnostic.CodeMissingReference,
				fmt.Sprintf("%s refers to unreadable %s: %v", self, id, err), self.String(), refs.via[id])

			continue
		}

		out = append(out, d)
	}

	return out
}

// refSet collects referenced ids and remembers where each was found.
type refSet struct {
	via map[model.DependencyID]string
}

func newRefSet() *refSet {
	return &refSet{via: make(map[model.DependencyID]string)}
}

func (s *refSet) add(id model.DependencyID, via string) {
	if id.Type == "" || strings.TrimSpace(id.Key) == "" {
		return
	}

	if _, ok := s.via[id]; !ok {
		s.via[id] = via
	}
}

func (s *refSet) sorted() []model.DependencyID {
	out := make([]model.DependencyID, 0, len(s.via))
	for id := range s.via {
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

// structuralRefs adds the references every object type can carry.
func structuralRefs(o *model.Object, refs *refSet) {
	if o.Parent != nil {
		refs.add(o.Parent.Key(), "parent")
	}

	for _, a := range o.ACL {
		refs.add(model.DependencyID{Type: model.TypeRole, Key: a.Role}, "acl")
	}

	for _, r := range o.Refs {
		refs.add(r.Key(), "refs")
	}

	for _, s := range o.Stylesheets {
		refs.add(stylesheetID(s), "stylesheets")
	}

	for i := range o.Resources {
		r := &o.Resources[i]
		if r.Stylesheet != "" {
			refs.add(stylesheetID(r.Stylesheet), "resources["+r.Name+"].stylesheet")
		}

		extensionRefs(r.Extensions, refs, "resources["+r.Name+"].extensions")

		for _, rp := range r.ResultPages {
			if rp.Stylesheet != "" {
				refs.add(stylesheetID(rp.Stylesheet), "resources["+r.Name+"].resultPages")
			}

			extensionRefs(rp.Extensions, refs, "resources["+r.Name+"].resultPages")
		}

		for _, dm := range r.DisplayMappers {
			extensionRefs(dm.UISet.Extensions, refs, "resources["+r.Name+"].displayMappers")
		}
	}
}

func extensionRefs(calls []model.ExtensionCall, refs *refSet, via string) {
	for _, c := range calls {
		refs.add(model.DependencyID{Type: model.TypeExtension, Key: c.Name}, via)
	}
}

func stylesheetID(name string) model.DependencyID {
	return model.DependencyID{Type: model.TypeStylesheet, Key: name}
}

// pipeTables adds the schemas of the back-end tables an application's
// datasets read from. A table without an explicit schema is its own schema.
func pipeTables(_ *objectHandler, o *model.Object, refs *refSet) error {
	for i := range o.Resources {
		r := &o.Resources[i]
		if r.Pipe == nil {
			continue
		}

		for _, t := range r.Pipe.Tables {
			schema := t.Schema
			if schema == "" {
				schema = t.Name
			}

			refs.add(model.DependencyID{Type: model.TypeSchema, Key: schema}, "resources["+r.Name+"].pipe")
		}
	}

	return nil
}

// stylesheetIncludes adds the closure of a stylesheet's includes. Missing
// includes end the walk on that branch.
func stylesheetIncludes(h *objectHandler, o *model.Object, refs *refSet) error {
	seen := map[string]struct{}{o.ID: {}}
	queue := append([]string(nil), o.Stylesheets...)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		refs.add(stylesheetID(name), "include")

		inc, err := h.reg.catalog.Object(stylesheetID(name))
		if err != nil {
			continue
		}

		queue = append(queue, inc.Stylesheets...)
	}

	return nil
}
