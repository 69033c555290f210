package idctx

import (
	"errors"
	"fmt"
	"sort"
)

// Endpoint names one node of a chain registered in a Network.
type Endpoint struct {
	Chain *Chain
	Depth int
}

// LeafOf returns the endpoint of a chain's leaf.
func LeafOf(c *Chain) Endpoint {
	return Endpoint{Chain: c, Depth: c.Len() - 1}
}

func (e Endpoint) ref() nodeRef {
	return nodeRef{chain: e.Chain.ID(), depth: e.Depth}
}

type nodeRef struct {
	chain ChainID
	depth int
}

// Network links nodes of different chains that address the same value, so
// an update made through one chain reaches its aliases.
//
// Links are not owning: the network keeps chains in an arena keyed by chain
// id and stores links between (chain id, depth) pairs. Drop tears down a
// chain with all of its links. A Network is not safe for concurrent use.
type Network struct {
	chains map[ChainID]*Chain
	links  map[nodeRef]map[nodeRef]struct{}
}

// NewNetwork returns an empty network.
func NewNetwork() *Network {
	return &Network{
		chains: make(map[ChainID]*Chain),
		links:  make(map[nodeRef]map[nodeRef]struct{}),
	}
}

// Register adds a chain to the arena.
func (n *Network) Register(c *Chain) {
	n.chains[c.ID()] = c
}

// Chains returns the number of chains in the arena.
func (n *Network) Chains() int {
	return len(n.chains)
}

// Links returns the number of links; a mutual pair counts once.
func (n *Network) Links() int {
	total := 0
	for _, to := range n.links {
		total += len(to)
	}

	return total / 2
}

func (n *Network) resolve(ref nodeRef) (*Node, bool) {
	c, ok := n.chains[ref.chain]
	if !ok {
		return nil, false
	}

	return c.At(ref.depth)
}

// Attach registers a and b as each other's listener. Attaching a node to
// itself is a no-op and reports false.
func (n *Network) Attach(a, b Endpoint) (bool, error) {
	na, ok := a.Chain.At(a.Depth)
	if !ok {
		return false, fmt.Errorf("attach: depth %d outside chain %d", a.Depth, a.Chain.ID())
	}

	nb, ok := b.Chain.At(b.Depth)
	if !ok {
		return false, fmt.Errorf("attach: depth %d outside chain %d", b.Depth, b.Chain.ID())
	}

	ra, rb := a.ref(), b.ref()
	if na == nb || ra == rb {
		return false, nil
	}

	n.Register(a.Chain)
	n.Register(b.Chain)
	n.link(ra, rb)
	n.link(rb, ra)

	return true, nil
}

func (n *Network) link(from, to nodeRef) {
	set, ok := n.links[from]
	if !ok {
		set = make(map[nodeRef]struct{})
		n.links[from] = set
	}

	set[to] = struct{}{}
}

// Detach removes the link between a and b in both directions.
func (n *Network) Detach(a, b Endpoint) {
	n.unlink(a.ref(), b.ref())
	n.unlink(b.ref(), a.ref())
}

func (n *Network) unlink(from, to nodeRef) {
	set, ok := n.links[from]
	if !ok {
		return
	}

	delete(set, to)

	if len(set) == 0 {
		delete(n.links, from)
	}
}

// Listeners returns the endpoints linked to e, ordered by chain id and depth.
func (n *Network) Listeners(e Endpoint) []Endpoint {
	set := n.links[e.ref()]
	refs := make([]nodeRef, 0, len(set))

	for r := range set {
		refs = append(refs, r)
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].chain != refs[j].chain {
			return refs[i].chain < refs[j].chain
		}

		return refs[i].depth < refs[j].depth
	})

	out := make([]Endpoint, 0, len(refs))
	for _, r := range refs {
		if c, ok := n.chains[r.chain]; ok {
			out = append(out, Endpoint{Chain: c, Depth: r.depth})
		}
	}

	return out
}

// Notify tells every listener of e that e's value changed.
func (n *Network) Notify(e Endpoint) error {
	src, ok := e.Chain.At(e.Depth)
	if !ok {
		return fmt.Errorf("notify: depth %d outside chain %d", e.Depth, e.Chain.ID())
	}

	var errs []error

	for _, l := range n.Listeners(e) {
		dst, ok := n.resolve(l.ref())
		if !ok {
			continue
		}

		if err := dst.OnAliasUpdated(src); err != nil {
			errs = append(errs, fmt.Errorf("notify chain %d depth %d: %w", l.Chain.ID(), l.Depth, err))
		}
	}

	return errors.Join(errs...)
}

// Drop removes a chain from the arena together with every link that starts
// or ends at one of its nodes.
func (n *Network) Drop(id ChainID) {
	for from, set := range n.links {
		if from.chain == id {
			for to := range set {
				n.unlink(to, from)
			}

			delete(n.links, from)

			continue
		}

		for to := range set {
			if to.chain == id {
				delete(set, to)
			}
		}

		if len(set) == 0 {
			delete(n.links, from)
		}
	}

	delete(n.chains, id)
}

// CheckAddListener walks a and b from their roots towards their leaves in
// tandem. At every level whose payloads hold the same original data, nodes
// of listener-registering variants are attached to each other. The walk
// stops at the first level where the data differs or where the two
// payloads diverge (for example the two sides of one conditional). It
// returns the number of links created. Comparing a chain with itself is a
// no-op.
func (n *Network) CheckAddListener(a, b *Chain) (int, error) {
	if a == b || a.ID() == b.ID() {
		return 0, nil
	}

	defer a.ClearCurrentRoot()
	defer b.ClearCurrentRoot()

	a.ResetCurrentRoot()
	b.ResetCurrentRoot()

	attached := 0

	for {
		na, err := a.CurrentRoot()
		if err != nil {
			return attached, err
		}

		nb, err := b.CurrentRoot()
		if err != nil {
			return attached, err
		}

		if !sameData(na.payload, nb.payload, true) {
			return attached, nil
		}

		if registersListeners(na.payload) {
			ok, err := n.Attach(Endpoint{Chain: a, Depth: a.CurrentDepth()}, Endpoint{Chain: b, Depth: b.CurrentDepth()})
			if err != nil {
				return attached, err
			}

			if ok {
				attached++
			}
		}

		if !payloadEqual(na.payload, nb.payload) {
			return attached, nil
		}

		nextA, err := a.NextRoot()
		if err != nil {
			return attached, err
		}

		nextB, err := b.NextRoot()
		if err != nil {
			return attached, err
		}

		if nextA == nil || nextB == nil {
			return attached, nil
		}
	}
}
