package idctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-mover/internal/model"
)

func articleMapping() model.DataMapping {
	return model.DataMapping{
		Backend:  model.Literal{Kind: model.LiteralBackend, Text: "RXARTICLE.TITLE"},
		Document: model.Literal{Kind: model.LiteralXML, Text: "article/title"},
		Conditionals: []model.Conditional{
			{Variable: model.ParamRef("sys_contenttypeid"), Operator: "=", Value: model.Number("311")},
		},
	}
}

func mappingChain(side Side, m model.DataMapping) *Chain {
	return Build(
		&IndexedItem{Type: ItemMapping, Index: 0},
		&MappingSide{Side: side, Mapping: NewVersioned(m)},
	)
}

func TestNetwork_AttachSelfIsNoOp(t *testing.T) {
	nw := NewNetwork()
	c := conditionalChain(SideValue, communityConditional())

	ok, err := nw.Attach(LeafOf(c), LeafOf(c))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, nw.Listeners(LeafOf(c)))
	assert.Equal(t, 0, nw.Links())
}

func TestNetwork_AttachSharedNodeIsNoOp(t *testing.T) {
	nw := NewNetwork()
	call := Build(&ExtensionCall{Name: "sys_casAutoSlot", Index: 0})
	a := call.Extend(&ExtensionParam{Index: 0})
	b := call.Extend(&ExtensionParam{Index: 1})

	ok, err := nw.Attach(Endpoint{Chain: a, Depth: 0}, Endpoint{Chain: b, Depth: 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNetwork_CheckAddListenerSelf(t *testing.T) {
	nw := NewNetwork()
	c := mappingChain(SideBackend, articleMapping())

	n, err := nw.CheckAddListener(c, c)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, nw.Links())
}

func TestNetwork_MappingSidesAreAliases(t *testing.T) {
	nw := NewNetwork()

	m := articleMapping()
	backend := mappingChain(SideBackend, m)
	document := mappingChain(SideDocument, backend.Leaf().Payload().(*MappingSide).Mapping.Current)

	n, err := nw.CheckAddListener(backend, document)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The walk always leaves both cursors cleared.
	assert.Equal(t, -1, backend.CurrentDepth())
	assert.Equal(t, -1, document.CurrentDepth())

	updated := articleMapping()
	updated.Conditionals[0].Value = model.Number("5")
	require.NoError(t, backend.Leaf().UpdateValue(updated))
	require.NoError(t, nw.Notify(LeafOf(backend)))

	got := document.Leaf().Payload().(*MappingSide)
	assert.Equal(t, "5", got.Mapping.Current.Conditionals[0].Value.Text)
	assert.Equal(t, "311", got.Mapping.Original.Conditionals[0].Value.Text)
	assert.Equal(t, SideDocument, got.Side)
}

func TestNetwork_ConditionalSidesAreAliases(t *testing.T) {
	nw := NewNetwork()
	value := conditionalChain(SideValue, communityConditional())
	variable := conditionalChain(SideVariable, communityConditional())

	n, err := nw.CheckAddListener(value, variable)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	listeners := nw.Listeners(LeafOf(variable))
	require.Len(t, listeners, 1)
	assert.Same(t, value, listeners[0].Chain)
	assert.Equal(t, 1, listeners[0].Depth)
}

func TestNetwork_DifferentDataIsNotLinked(t *testing.T) {
	nw := NewNetwork()
	other := communityConditional()
	other.Value = model.Number("43")

	a := conditionalChain(SideValue, communityConditional())
	b := conditionalChain(SideValue, other)

	n, err := nw.CheckAddListener(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNetwork_DifferentPathIsNotLinked(t *testing.T) {
	nw := NewNetwork()
	a := conditionalChain(SideValue, communityConditional())
	b := Build(
		&IndexedItem{Type: ItemConditional, Index: 3},
		&ConditionalSide{Side: SideValue, Cond: NewVersioned(communityConditional())},
	)

	n, err := nw.CheckAddListener(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNetwork_SameDataUsesOriginal(t *testing.T) {
	nw := NewNetwork()
	a := conditionalChain(SideValue, communityConditional())
	b := conditionalChain(SideVariable, communityConditional())

	updated := communityConditional()
	updated.Value = model.Number("7")
	require.NoError(t, a.Leaf().UpdateValue(updated))

	n, err := nw.CheckAddListener(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNetwork_DetachAndDrop(t *testing.T) {
	nw := NewNetwork()
	a := conditionalChain(SideValue, communityConditional())
	b := conditionalChain(SideVariable, communityConditional())
	c := conditionalChain(SideValue, communityConditional())

	_, err := nw.CheckAddListener(a, b)
	require.NoError(t, err)
	_, err = nw.CheckAddListener(a, c)
	require.NoError(t, err)
	require.Equal(t, 2, nw.Links())

	nw.Detach(LeafOf(a), LeafOf(c))
	assert.Equal(t, 1, nw.Links())
	assert.Empty(t, nw.Listeners(LeafOf(c)))

	nw.Drop(b.ID())
	assert.Equal(t, 0, nw.Links())
	assert.Empty(t, nw.Listeners(LeafOf(a)))
	assert.Equal(t, 2, nw.Chains())
}

func TestNetwork_NotifyWithoutListeners(t *testing.T) {
	nw := NewNetwork()
	c := conditionalChain(SideValue, communityConditional())

	require.NoError(t, nw.Notify(LeafOf(c)))
}
