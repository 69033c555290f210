package idctx

import (
	"fmt"
	"sync/atomic"
)

// ChainID identifies a chain inside a listener network.
type ChainID uint64

var lastChainID atomic.Uint64

// Chain is a complete address: the node closest to the literal value (the
// leaf) and, through its parents, every segment up to the object's top.
//
// A chain carries the cursor of a tandem walk. The cursor moves from the
// root towards the leaf; only one cursor is active per chain.
type Chain struct {
	id   ChainID
	leaf *Node

	// path is the top-down snapshot taken when the cursor is reset.
	path  []*Node
	cur   int
	final bool
}

// NewChain wraps a leaf node in a chain with a fresh id.
func NewChain(leaf *Node) *Chain {
	if leaf == nil {
		panic("idctx: chain leaf cannot be nil")
	}

	return &Chain{id: ChainID(lastChainID.Add(1)), leaf: leaf, cur: -1}
}

// Build links payloads top-down into a chain: the first payload becomes the
// root, the last one the leaf.
func Build(payloads ...Payload) *Chain {
	if len(payloads) == 0 {
		panic("idctx: cannot build an empty chain")
	}

	var n *Node
	for _, p := range payloads {
		n = NewNode(p, n)
	}

	return NewChain(n)
}

// Extend returns a new chain whose leaf is p and whose parent is this
// chain's leaf. The parent node is shared.
func (c *Chain) Extend(p Payload) *Chain {
	return NewChain(NewNode(p, c.leaf))
}

// ID returns the chain's stable id.
func (c *Chain) ID() ChainID {
	return c.id
}

// Leaf returns the node closest to the literal.
func (c *Chain) Leaf() *Node {
	return c.leaf
}

// Root returns the top-level node.
func (c *Chain) Root() *Node {
	return c.leaf.Root()
}

// Len returns the number of nodes.
func (c *Chain) Len() int {
	return c.leaf.Depth()
}

// Nodes returns the nodes ordered from root to leaf.
func (c *Chain) Nodes() []*Node {
	nodes := make([]*Node, c.leaf.Depth())
	i := len(nodes) - 1

	for n := c.leaf; n != nil; n = n.parent {
		nodes[i] = n
		i--
	}

	return nodes
}

// At returns the node at the given depth, the root being depth 0.
func (c *Chain) At(depth int) (*Node, bool) {
	nodes := c.Nodes()
	if depth < 0 || depth >= len(nodes) {
		return nil, false
	}

	return nodes[depth], true
}

// Equal compares two chains node by node.
func (c *Chain) Equal(o *Chain) bool {
	return c.leaf.Equal(o.leaf)
}

// Key returns the leaf's key.
func (c *Chain) Key() string {
	return c.leaf.Key()
}

// Clone returns an independent copy with a new id and no cursor.
func (c *Chain) Clone() *Chain {
	return NewChain(c.leaf.Clone())
}

// String returns the chain's key.
func (c *Chain) String() string {
	return fmt.Sprintf("#%d %s", c.id, c.Key())
}

// ResetCurrentRoot places the cursor on the root.
func (c *Chain) ResetCurrentRoot() {
	c.path = c.Nodes()
	c.cur = 0
	c.final = false
}

// CurrentRoot returns the node under the cursor, placing the cursor on the
// root when no walk is active.
func (c *Chain) CurrentRoot() (*Node, error) {
	if c.cur < 0 {
		c.ResetCurrentRoot()
	}

	if c.cur >= len(c.path) {
		return nil, fmt.Errorf("%w: cursor %d outside chain of %d", ErrInvalidCursorState, c.cur, len(c.path))
	}

	return c.path[c.cur], nil
}

// CurrentDepth returns the cursor position, or -1 when no walk is active.
func (c *Chain) CurrentDepth() int {
	return c.cur
}

// NextRoot moves the cursor one level towards the leaf and returns the new
// current node. When the cursor already is on the leaf the walk is
// exhausted: the chain is marked final and NextRoot returns nil. Advancing a
// final or inactive cursor fails with ErrInvalidCursorState.
func (c *Chain) NextRoot() (*Node, error) {
	if c.cur < 0 {
		return nil, fmt.Errorf("%w: no active cursor", ErrInvalidCursorState)
	}

	if c.final {
		return nil, fmt.Errorf("%w: cursor already passed the leaf", ErrInvalidCursorState)
	}

	if c.cur == len(c.path)-1 {
		c.final = true

		return nil, nil
	}

	c.cur++

	return c.path[c.cur], nil
}

// IsFinal reports whether the cursor has passed the leaf.
func (c *Chain) IsFinal() bool {
	return c.final
}

// ClearCurrentRoot drops all cursor state.
func (c *Chain) ClearCurrentRoot() {
	c.path = nil
	c.cur = -1
	c.final = false
}
