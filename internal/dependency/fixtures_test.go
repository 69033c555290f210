package dependency

import (
	"testing"

	"github.com/stretchr/testify/require"

	"content-mover/internal/model"
	"content-mover/internal/store"
)

func id(t model.ObjectType, key string) model.DependencyID {
	return model.DependencyID{Type: t, Key: key}
}

// articleSystem returns a catalog around the article application.
func articleSystem(t *testing.T) *store.MemStore {
	t.Helper()

	s := store.NewMemStore()

	objs := []*model.Object{
		{
			Type:        model.TypeApplication,
			ID:          "312",
			Name:        "rx_ce_article",
			ACL:         []model.ACLEntry{{Role: "Admin"}},
			Refs:        []model.ObjectRef{{Type: model.TypeSearch, ID: "9"}, {Type: model.TypeApplication, ID: "312"}},
			Stylesheets: []string{"article.xsl"},
			Resources: []model.Resource{
				{
					Name: "query",
					Pipe: &model.Pipe{Tables: []model.TableRef{
						{Name: "CONTENTSTATUS", Schema: "RXSYS"},
						{Name: "RXARTICLE"},
					}},
					Params: []model.Param{{Name: "sys_communityid", Value: model.Number("42")}},
					Conditionals: []model.Conditional{
						{Variable: model.ParamRef("sys_workflowid"), Operator: "=", Value: model.Number("5")},
						{Variable: model.ParamRef("sys_contentstateid"), Operator: "=", Value: model.Number("3")},
					},
					Extensions: []model.ExtensionCall{
						{Name: "sys_casAutoSlot", Params: []model.Param{{Value: model.Number("503")}, {Value: model.Number("11")}}},
					},
				},
			},
		},
		{Type: model.TypeRole, ID: "Admin"},
		{Type: model.TypeSchema, ID: "RXSYS", System: true},
		{Type: model.TypeSchema, ID: "RXARTICLE"},
		{Type: model.TypeStylesheet, ID: "article.xsl", Stylesheets: []string{"common.xsl"}},
		{Type: model.TypeStylesheet, ID: "common.xsl", Stylesheets: []string{"base.xsl"}},
		{Type: model.TypeStylesheet, ID: "base.xsl"},
		{Type: model.TypeCommunity, ID: "42", Name: "Corporate"},
		{Type: model.TypeSlot, ID: "503", Refs: []model.ObjectRef{{Type: model.TypeTemplate, ID: "11"}}},
		{Type: model.TypeTemplate, ID: "11"},
		{Type: model.TypeWorkflow, ID: "5", System: true},
		{Type: model.TypeState, ID: "3", Parent: &model.ObjectRef{Type: model.TypeWorkflow, ID: "5"}},
		{Type: model.TypeExtension, ID: "sys_casAutoSlot", System: true},
	}

	for _, o := range objs {
		require.NoError(t, s.Put(o, nil))
	}

	return s
}

func keys(deps []*model.Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.ID.String())
	}

	return out
}
