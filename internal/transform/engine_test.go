package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-mover/internal/diagnostic"
	"content-mover/internal/idctx"
	"content-mover/internal/idmap"
	"content-mover/internal/idtypes"
	"content-mover/internal/model"
)

func newsApp() *model.Object {
	return &model.Object{
		Type: model.TypeApplication,
		ID:   "312",
		Resources: []model.Resource{{
			Name:   "main",
			Params: []model.Param{{Name: "sys_siteid", Value: model.Number("301")}},
			Conditionals: []model.Conditional{
				{Variable: model.ParamRef("sys_communityid"), Operator: "=", Value: model.Number("42")},
				{Variable: model.ParamRef("sys_workflowid"), Operator: "=", Value: model.Number("5")},
				{Variable: model.ParamRef("sys_contentstateid"), Operator: "=", Value: model.Number("3")},
			},
			Extensions: []model.ExtensionCall{{
				Name:   "sys_casAutoSlot",
				Params: []model.Param{{Value: model.Number("503")}, {Value: model.Number("11")}},
			}},
			Mappings: []model.DataMapping{{
				Backend:  model.Literal{Kind: model.LiteralBackend, Text: "CONTENTSTATUS.WORKFLOWID"},
				Document: model.Number("5"),
				Conditionals: []model.Conditional{
					{Variable: model.Literal{Kind: model.LiteralCGI, Text: "sys_contenttypeid"}, Operator: "=", Value: model.Number("311")},
				},
			}},
			DisplayMappers: []model.DisplayMapping{{
				FieldRef: "sys_variantid",
				UISet: model.UISet{
					Name:    "sys_DropDownSingle",
					Choices: []model.Entry{{Sequence: 1, Label: "Full", Value: model.Number("505")}},
				},
			}},
			Bindings: []model.Binding{{Variable: "$sys_slotid", Expression: model.Number("510")}},
		}},
	}
}

func newsMap(t *testing.T) *idmap.IdMap {
	t.Helper()

	m := idmap.New("dev", "prod")
	for _, e := range []idmap.Entry{
		{Type: model.TypeSite, Source: "301", Target: "401"},
		{Type: model.TypeCommunity, Source: "42", Target: "7"},
		{Type: model.TypeWorkflow, Source: "5", Target: "6"},
		{Type: model.TypeState, Source: "3", Target: "4", Parent: "5"},
		{Type: model.TypeSlot, Source: "503", Target: "603"},
		{Type: model.TypeTemplate, Source: "11", Target: "111"},
		{Type: model.TypeContentType, Source: "311", Target: "411"},
		{Type: model.TypeTemplate, Source: "505", Target: "605"},
		{Type: model.TypeSlot, Source: "510", Target: "610"},
	} {
		require.NoError(t, m.Add(e))
	}

	return m
}

func discover(t *testing.T, obj *model.Object) *idtypes.ApplicationIdTypes {
	t.Helper()

	d, err := idtypes.NewEngine(nil, nil, nil).Discover(obj)
	require.NoError(t, err)

	return d.IdTypes
}

func TestTransform_CommunityConditional(t *testing.T) {
	obj := &model.Object{
		Type: model.TypeSearch,
		ID:   "9",
		Resources: []model.Resource{{
			Name: "main",
			Conditionals: []model.Conditional{
				{Variable: model.ParamRef("sys_communityid"), Operator: "=", Value: model.Number("42")},
			},
		}},
	}

	types := discover(t, obj)
	require.Equal(t, 1, types.Len())

	mapping := types.All()[0]
	assert.Equal(t, model.TypeCommunity, mapping.Type)

	m := idmap.New("dev", "prod")
	require.NoError(t, m.Add(idmap.Entry{Type: model.TypeCommunity, Source: "42", Target: "7"}))

	res, err := NewEngine(Options{}, nil, nil).Transform(obj, types, m)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Changed)

	ref, err := idtypes.Locate(obj, mapping)
	require.NoError(t, err)
	assert.Equal(t, "7", ref.Conditional.Value.Text)
	assert.Equal(t, "sys_communityid", ref.Conditional.Variable.Text)
	assert.Equal(t, "=", ref.Conditional.Operator)

	// The discovered chain still holds the source id.
	side := mapping.Chain.Leaf().Payload().(*idctx.ConditionalSide)
	assert.Equal(t, "42", side.Cond.Current.Value.Text)
}

func TestTransform_AllElements(t *testing.T) {
	obj := newsApp()
	types := discover(t, obj)

	res, err := NewEngine(Options{}, nil, nil).Transform(obj, types, newsMap(t))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Applied)
	assert.Equal(t, 10, res.Changed)
	assert.Empty(t, res.Reserved)

	want := newsApp()
	r := &want.Resources[0]
	r.Params[0].Value.Text = "401"
	r.Conditionals[0].Value.Text = "7"
	r.Conditionals[1].Value.Text = "6"
	r.Conditionals[2].Value.Text = "4"
	r.Extensions[0].Params[0].Value.Text = "603"
	r.Extensions[0].Params[1].Value.Text = "111"
	r.Mappings[0].Document.Text = "6"
	r.Mappings[0].Conditionals[0].Value.Text = "411"
	r.DisplayMappers[0].UISet.Choices[0].Value.Text = "605"
	r.Bindings[0].Expression.Text = "610"

	assert.Equal(t, want, obj)
}

func TestTransform_Idempotent(t *testing.T) {
	obj := newsApp()
	types := discover(t, obj)
	m := newsMap(t)
	eng := NewEngine(Options{}, nil, nil)

	_, err := eng.Transform(obj, types, m)
	require.NoError(t, err)

	once, err := obj.Clone()
	require.NoError(t, err)

	res, err := eng.Transform(obj, types, m)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Changed)
	assert.Equal(t, 10, res.Applied)
	assert.Equal(t, once, obj)
}

func TestTransform_DuplicateChoices(t *testing.T) {
	obj := newsApp()
	set := &obj.Resources[0].DisplayMappers[0].UISet
	set.Choices = append(set.Choices, model.Entry{Sequence: 1, Label: "Full", Value: model.Number("506")})

	types := discover(t, obj)

	m := newsMap(t)
	require.NoError(t, m.Add(idmap.Entry{Type: model.TypeTemplate, Source: "506", Target: "606"}))

	eng := NewEngine(Options{}, nil, nil)

	_, err := eng.Transform(obj, types, m)
	require.NoError(t, err)
	assert.Equal(t, "605", set.Choices[0].Value.Text)
	assert.Equal(t, "606", set.Choices[1].Value.Text)

	res, err := eng.Transform(obj, types, m)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Changed)
	assert.Equal(t, "605", set.Choices[0].Value.Text)
	assert.Equal(t, "606", set.Choices[1].Value.Text)
}

func TestTransform_AliasedSides(t *testing.T) {
	cond := model.Conditional{Variable: model.Number("5"), Operator: "=", Value: model.Number("42")}
	obj := &model.Object{
		Type:      model.TypeSearch,
		ID:        "9",
		Resources: []model.Resource{{Name: "main", Conditionals: []model.Conditional{cond}}},
	}

	base := idctx.Build(&idctx.IndexedItem{Type: idctx.ItemConditional, Index: 0})
	types := idtypes.New(obj.Key())
	types.Add(&idtypes.Mapping{
		Resource: "main",
		Element:  idtypes.ElementConditional,
		Chain:    base.Extend(&idctx.ConditionalSide{Side: idctx.SideValue, Cond: idctx.NewVersioned(cond)}),
		Type:     model.TypeCommunity,
		Value:    "42",
	})
	types.Add(&idtypes.Mapping{
		Resource: "main",
		Element:  idtypes.ElementConditional,
		Chain:    base.Extend(&idctx.ConditionalSide{Side: idctx.SideVariable, Cond: idctx.NewVersioned(cond)}),
		Type:     model.TypeWorkflow,
		Value:    "5",
	})

	res, err := NewEngine(Options{}, nil, nil).Transform(obj, types, newsMap(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Changed)

	got := obj.Resources[0].Conditionals[0]
	assert.Equal(t, "6", got.Variable.Text, "variable side")
	assert.Equal(t, "7", got.Value.Text, "value side survives the variable side's write")
}

func TestTransform_Unmapped(t *testing.T) {
	obj := newsApp()
	types := discover(t, obj)

	m := idmap.New("dev", "prod")
	require.NoError(t, m.Add(idmap.Entry{Type: model.TypeCommunity, Source: "42", Target: "7"}))

	eng := NewEngine(Options{}, idctx.NewMessages(idctx.DefaultLocale), nil)

	_, err := eng.Transform(obj, types, m)
	require.ErrorIs(t, err, ErrUnmappedID)

	var ue *UnmappedIDError
	require.True(t, errors.As(err, &ue))

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))

	var all []*UnmappedIDError

	var walk func(error)
	walk = func(err error) {
		if j, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range j.Unwrap() {
				walk(e)
			}

			return
		}

		if u, ok := err.(*UnmappedIDError); ok {
			all = append(all, u)
		}
	}
	walk(err)

	assert.Len(t, all, 9)

	var site *UnmappedIDError

	for _, u := range all {
		if u.Type == model.TypeSite {
			site = u
		}
	}

	require.NotNil(t, site)
	assert.Equal(t, "301", site.Source)
	assert.Equal(t, `param "sys_siteid"`, site.Address)
	assert.Contains(t, site.Error(), "unmapped id: Site 301")

	// The mapped id is still applied.
	assert.Equal(t, "7", obj.Resources[0].Conditionals[0].Value.Text)
}

func TestTransform_ReserveNew(t *testing.T) {
	obj := newsApp()
	types := discover(t, obj)

	m := newsMap(t)
	m2 := idmap.New(m.SourceSystem, m.TargetSystem)

	for _, e := range m.Entries() {
		if e.Type != model.TypeSite {
			require.NoError(t, m2.Add(e))
		}
	}

	alloc := idmap.NewSequenceAllocator(map[model.ObjectType]int64{model.TypeSite: 900})

	res, err := NewEngine(Options{ReserveNew: true, Allocator: alloc}, nil, nil).Transform(obj, types, m2)
	require.NoError(t, err)

	require.Len(t, res.Reserved, 1)
	assert.Equal(t, idmap.Entry{Type: model.TypeSite, Source: "301", Target: "901", New: true}, res.Reserved[0])
	assert.Equal(t, "901", obj.Resources[0].Params[0].Value.Text)
	assert.Len(t, res.Diagnostics.WithCode(diagnostic.CodeReservedID), 1)

	target, ok := m2.Target(model.TypeSite, "301", "")
	require.True(t, ok)
	assert.Equal(t, "901", target)
}

func TestTransform_SkipsNoneAndUndefined(t *testing.T) {
	obj := &model.Object{
		Type: model.TypeSearch,
		ID:   "9",
		Resources: []model.Resource{{
			Name: "main",
			Params: []model.Param{
				{Name: "sys_mystery", Value: model.Number("77")},
				{Name: "sys_pagesize", Value: model.Number("25")},
			},
		}},
	}

	types := discover(t, obj)
	require.Len(t, types.Undefined(), 2)

	// An operator marks the page size as no id at all.
	types.Group("main", idtypes.ElementParam)[1].Type = idtypes.TypeNone

	res, err := NewEngine(Options{}, nil, nil).Transform(obj, types, idmap.New("dev", "prod"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Len(t, res.Diagnostics.WithCode(diagnostic.CodeUndefinedIDType), 1)
	assert.Equal(t, "77", obj.Resources[0].Params[0].Value.Text)
}

func TestTransform_OwnerMismatch(t *testing.T) {
	types := idtypes.New(model.DependencyID{Type: model.TypeSearch, Key: "1"})

	_, err := NewEngine(Options{}, nil, nil).Transform(newsApp(), types, idmap.New("a", "b"))
	require.Error(t, err)
}

func TestTransform_UnresolvedAddress(t *testing.T) {
	obj := newsApp()
	types := discover(t, obj)

	obj.Resources[0].Params = nil

	_, err := NewEngine(Options{}, nil, nil).Transform(obj, types, newsMap(t))
	require.ErrorIs(t, err, idtypes.ErrUnresolvedAddress)
}
