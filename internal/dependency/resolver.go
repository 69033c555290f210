package dependency

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"content-mover/internal/diagnostic"
	"content-mover/internal/model"
)

// Config holds resolver settings.
type Config struct {
	// MaxDepth limits how deep children are followed (0 = unlimited).
	MaxDepth int
	// SkipSystem stops the walk at system objects: they are kept as
	// children but their own children are not resolved.
	SkipSystem bool
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{SkipSystem: true}
}

// Resolver builds dependency graphs.
type Resolver struct {
	reg    *Registry
	config Config
	log    *zap.SugaredLogger
}

// NewResolver creates a Resolver. A nil logger disables logging.
func NewResolver(reg *Registry, config Config, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Resolver{reg: reg, config: config, log: log}
}

// Graph is a resolved dependency DAG. Objects reached through several
// paths share one node.
type Graph struct {
	Roots       []*model.Dependency
	Diagnostics diagnostic.Diagnostics

	nodes map[model.DependencyID]*model.Dependency
}

// Node returns the node of id.
func (g *Graph) Node(id model.DependencyID) (*model.Dependency, bool) {
	d, ok := g.nodes[id]

	return d, ok
}

// Len returns the number of distinct objects in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns every node ordered by id.
func (g *Graph) Nodes() []*model.Dependency {
	out := make([]*model.Dependency, 0, len(g.nodes))
	for _, d := range g.nodes {
		out = append(out, d)
	}

	model.SortDependencies(out)

	return out
}

// Levels groups the nodes so that every object comes after its children.
// Objects of one level do not depend on each other.
func (g *Graph) Levels() ([][]*model.Dependency, error) {
	nodes := g.Nodes()

	index := make(map[model.DependencyID]int, len(nodes))
	for i, d := range nodes {
		index[d.ID] = i
	}

	levels, err := topoLevels(len(nodes), func(i int) []int {
		deps := make([]int, 0, len(nodes[i].Children))
		for _, c := range nodes[i].Children {
			deps = append(deps, index[c.ID])
		}

		return deps
	})
	if err != nil {
		return nil, err
	}

	out := make([][]*model.Dependency, len(levels))
	for l, idx := range levels {
		for _, i := range idx {
			out[l] = append(out[l], nodes[i])
		}
	}

	return out, nil
}

// Order returns the nodes in install order, children first.
func (g *Graph) Order() ([]*model.Dependency, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	var out []*model.Dependency
	for _, l := range levels {
		out = append(out, l...)
	}

	return out, nil
}

// Resolve builds the graph rooted at ids. A missing root or an object
// that cannot be scanned fails the whole resolution.
func (r *Resolver) Resolve(ids ...model.DependencyID) (*Graph, error) {
	g := &Graph{nodes: make(map[model.DependencyID]*model.Dependency)}
	w := &walk{r: r, g: g, onPath: make(map[model.DependencyID]bool), done: make(map[model.DependencyID]bool)}

	for _, id := range ids {
		if d, ok := g.nodes[id]; ok {
			g.Roots = append(g.Roots, d)

			continue
		}

		root, err := r.reg.Dependency(id)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", id, err)
		}

		g.nodes[id] = root
		if err := w.visit(root, 0); err != nil {
			return nil, err
		}

		g.Roots = append(g.Roots, root)
	}

	r.log.Debugw("resolved dependencies",
		"roots", len(g.Roots),
		"objects", g.Len(),
		"warnings", len(g.Diagnostics.Warnings))

	return g, nil
}

type walk struct {
	r      *Resolver
	g      *Graph
	onPath map[model.DependencyID]bool
	done   map[model.DependencyID]bool
}

func (w *walk) visit(d *model.Dependency, depth int) error {
	if w.done[d.ID] {
		return nil
	}

	if w.r.config.MaxDepth > 0 && depth >= w.r.config.MaxDepth {
		return nil
	}

	if w.r.config.SkipSystem && d.Category == model.CategorySystem && depth > 0 {
		w.done[d.ID] = true

		return nil
	}

	h, ok := w.r.reg.Handler(d.ID.Type)
	if !ok {
		w.g.Diagnostics.AddWarning(diagnostic.CodeUnknownHandler,
			fmt.Sprintf("no handler for %s", d.ID.Type), d.ID.String(), "")
		w.done[d.ID] = true

		return nil
	}

	w.onPath[d.ID] = true
	defer delete(w.onPath, d.ID)

	children, err := h.ChildDependencies(d, &w.g.Diagnostics)
	if err != nil {
		return err
	}

	d.Children = d.Children[:0]

	for _, c := range children {
		if w.onPath[c.ID] {
			w.g.Diagnostics.AddWarning(diagnostic.CodeDependencyCycle,
				fmt.Sprintf("%s refers back to %s", d.ID, c.ID), d.ID.String(), "")

			continue
		}

		node, ok := w.g.nodes[c.ID]
		if !ok {
			node = c
			w.g.nodes[c.ID] = node
		}

		if err := w.visit(node, depth+1); err != nil {
			return err
		}

		d.Children = append(d.Children, node)
	}

	sort.SliceStable(d.Children, func(i, j int) bool {
		if d.Children[i].ID.Type != d.Children[j].ID.Type {
			return d.Children[i].ID.Type < d.Children[j].ID.Type
		}

		return d.Children[i].ID.Key < d.Children[j].ID.Key
	})

	w.done[d.ID] = true

	return nil
}
