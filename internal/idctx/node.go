package idctx

import (
	"fmt"
	"strings"
)

// Node is one segment of an address. It points at the next-outer segment;
// a node without parent is the root and stands for the top-level object.
//
// Parents may be shared between chains. SetParent replaces the link; the
// last caller wins.
type Node struct {
	payload Payload
	parent  *Node
}

// NewNode creates a node with the given payload and optional parent.
func NewNode(p Payload, parent *Node) *Node {
	if p == nil {
		panic("idctx: node payload cannot be nil")
	}

	return &Node{payload: p, parent: parent}
}

// Kind returns the node's variant.
func (n *Node) Kind() Kind {
	return n.payload.Kind()
}

// Payload returns the variant payload. Callers must not mutate versioned
// payloads directly; use UpdateValue.
func (n *Node) Payload() Payload {
	return n.payload
}

// Parent returns the next-outer node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// SetParent replaces the parent link.
func (n *Node) SetParent(p *Node) {
	n.parent = p
}

// Root returns the outermost node.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}

	return r
}

// Depth returns the number of nodes from n to its root, n included.
func (n *Node) Depth() int {
	d := 0
	for c := n; c != nil; c = c.parent {
		d++
	}

	return d
}

// Equal reports whether both nodes carry equal payloads and their parents
// are recursively equal.
func (n *Node) Equal(o *Node) bool {
	a, b := n, o
	for a != nil && b != nil {
		if a == b {
			return true
		}

		if !payloadEqual(a.payload, b.payload) {
			return false
		}

		a, b = a.parent, b.parent
	}

	return a == nil && b == nil
}

// Key returns a string that is equal for equal nodes. It is suitable as a
// map key for deduplication.
func (n *Node) Key() string {
	var b strings.Builder

	for c := n; c != nil; c = c.parent {
		if c != n {
			b.WriteString("<")
		}

		b.WriteString(c.Kind().Tag())
		b.WriteString(payloadKey(c.payload))
	}

	return b.String()
}

// Identifier returns the name carried by name-bearing variants.
func (n *Node) Identifier() (string, bool) {
	return identifier(n.payload)
}

// UpdateValue replaces the current value held by a versioned variant. The
// value must be a model.Conditional, model.DataMapping, model.Entry or
// model.Literal matching the variant; other variants ignore the call.
func (n *Node) UpdateValue(v any) error {
	return update(n.payload, v)
}

// OnAliasUpdated is invoked when src, an alias of n, has been updated.
func (n *Node) OnAliasUpdated(src *Node) error {
	return aliasUpdated(n.payload, src.payload)
}

// Clone returns a deep copy of n and all of its parents.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	return &Node{payload: clonePayload(n.payload), parent: n.parent.Clone()}
}

// String returns the node's key.
func (n *Node) String() string {
	return n.Key()
}

func payloadKey(p Payload) string {
	switch x := p.(type) {
	case *ConditionalSide:
		return fmt.Sprintf("{%s %+v}", x.Side, x.Cond.Current)
	case *MappingSide:
		return fmt.Sprintf("{%s %+v}", x.Side, x.Mapping.Current)
	case *Entry:
		return fmt.Sprintf("{%d %+v}", x.Index, x.Entry.Current)
	case *ExtensionParam:
		return fmt.Sprintf("{%d %s %+v}", x.Index, x.Name, x.Value.Current)
	default:
		return fmt.Sprintf("%+v", p)
	}
}
