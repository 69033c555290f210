package dependency

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-mover/internal/diagnostic"
	"content-mover/internal/model"
)

func TestChildDependencies_Application(t *testing.T) {
	reg := NewRegistry(articleSystem(t), nil)
	h, ok := reg.Handler(model.TypeApplication)
	require.True(t, ok)

	dep, err := reg.Dependency(id(model.TypeApplication, "312"))
	require.NoError(t, err)

	var diags diagnostic.Diagnostics

	children, err := h.ChildDependencies(dep, &diags)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Community:42",
		"Extension:sys_casAutoSlot",
		"Role:Admin",
		"Schema:RXARTICLE",
		"Schema:RXSYS",
		"Slot:503",
		"Stylesheet:article.xsl",
		"Template:11",
		"Workflow:5",
	}, keys(children))

	missing := diags.WithCode(diagnostic.CodeMissingReference)
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0].Message, "Search:9")
	assert.False(t, diags.HasErrors())

	for _, c := range children {
		switch c.ID.Type {
		case model.TypeWorkflow, model.TypeExtension:
			assert.Equal(t, model.CategorySystem, c.Category, c.ID.String())
		case model.TypeCommunity:
			assert.Equal(t, "Corporate", c.DisplayName)
		}
	}
}

func TestChildDependencies_Idempotent(t *testing.T) {
	reg := NewRegistry(articleSystem(t), nil)
	h, _ := reg.Handler(model.TypeApplication)
	dep, err := reg.Dependency(id(model.TypeApplication, "312"))
	require.NoError(t, err)

	first, err := h.ChildDependencies(dep, &diagnostic.Diagnostics{})
	require.NoError(t, err)

	second, err := h.ChildDependencies(dep, &diagnostic.Diagnostics{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChildDependencies_StylesheetIncludeClosure(t *testing.T) {
	reg := NewRegistry(articleSystem(t), nil)
	h, _ := reg.Handler(model.TypeStylesheet)
	dep, err := reg.Dependency(id(model.TypeStylesheet, "article.xsl"))
	require.NoError(t, err)

	children, err := h.ChildDependencies(dep, &diagnostic.Diagnostics{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Stylesheet:base.xsl", "Stylesheet:common.xsl"}, keys(children))
}

func TestChildDependencies_StateDependsOnWorkflow(t *testing.T) {
	reg := NewRegistry(articleSystem(t), nil)
	h, _ := reg.Handler(model.TypeState)
	dep, err := reg.Dependency(id(model.TypeState, "3"))
	require.NoError(t, err)

	require.NotNil(t, dep.Parent)
	assert.Equal(t, id(model.TypeWorkflow, "5"), *dep.Parent)

	children, err := h.ChildDependencies(dep, &diagnostic.Diagnostics{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Workflow:5"}, keys(children))
}

func TestChildDependencies_Errors(t *testing.T) {
	s := articleSystem(t)
	require.NoError(t, s.Put(&model.Object{
		Type: model.TypeSearch,
		ID:   "10",
		Resources: []model.Resource{{
			Name:         "main",
			Conditionals: []model.Conditional{{Variable: model.ParamRef("a"), Value: model.Number("1")}},
		}},
	}, nil))

	reg := NewRegistry(s, nil)
	h, _ := reg.Handler(model.TypeSearch)

	_, err := h.ChildDependencies(&model.Dependency{ID: id(model.TypeSearch, "10")}, &diagnostic.Diagnostics{})
	require.ErrorIs(t, err, model.ErrMalformedObject)

	_, err = h.ChildDependencies(&model.Dependency{ID: id(model.TypeSearch, "11")}, &diagnostic.Diagnostics{})
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = h.ChildDependencies(&model.Dependency{ID: id(model.TypeSlot, "503")}, &diagnostic.Diagnostics{})
	require.Error(t, err)
}

func TestAllDependencies(t *testing.T) {
	reg := NewRegistry(articleSystem(t), nil)

	h, _ := reg.Handler(model.TypeStylesheet)
	assert.Equal(t,
		[]string{"Stylesheet:article.xsl", "Stylesheet:base.xsl", "Stylesheet:common.xsl"},
		keys(slices.Collect(h.AllDependencies(""))))

	assert.Equal(t,
		[]string{"Stylesheet:base.xsl", "Stylesheet:common.xsl"},
		keys(slices.Collect(h.AllDependencies("[bc]*.xsl"))))

	h, _ = reg.Handler(model.TypeCommunity)
	assert.Equal(t, []string{"Community:42"}, keys(slices.Collect(h.AllDependencies("Corp*"))))

	h, _ = reg.Handler(model.TypeSchema)
	for d := range h.AllDependencies("") {
		if d.ID.Key == "RXSYS" {
			assert.Equal(t, model.CategorySystem, d.Category)
		} else {
			assert.Equal(t, model.CategoryLocal, d.Category)
		}
	}

	var first []*model.Dependency
	for d := range h.AllDependencies("") {
		first = append(first, d)

		break
	}

	assert.Len(t, first, 1)
}

func TestExists(t *testing.T) {
	reg := NewRegistry(articleSystem(t), nil)

	h, _ := reg.Handler(model.TypeSlot)
	assert.True(t, h.Exists(id(model.TypeSlot, "503")))
	assert.False(t, h.Exists(id(model.TypeSlot, "504")))
	assert.False(t, h.Exists(id(model.TypeTemplate, "11")), "handlers only know their own type")

	for _, typ := range model.KnownTypes {
		_, ok := reg.Handler(typ)
		assert.True(t, ok, typ)
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, model.CategorySystem, CategoryOf(&model.Object{System: true, Shared: true}))
	assert.Equal(t, model.CategoryShared, CategoryOf(&model.Object{Shared: true}))
	assert.Equal(t, model.CategoryLocal, CategoryOf(&model.Object{}))
}
