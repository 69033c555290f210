package idtypes

import (
	"content-mover/internal/model"
)

func ptr[T any](v T) *T { return &v }

// articleApp is an application whose query resource carries ids in every
// element classification.
func articleApp() *model.Object {
	return &model.Object{
		Type: model.TypeApplication,
		ID:   "312",
		Name: "rx_ce_article",
		Resources: []model.Resource{
			{
				Name: "query",
				Params: []model.Param{
					{Name: "sys_communityid", Value: model.Number("42")},
					{Name: "title", Value: model.Text("News")},
					{Name: "sys_comunityid", Value: model.Number("43")},
				},
				Conditionals: []model.Conditional{
					{Variable: model.ParamRef("sys_communityid"), Operator: "=", Value: model.Number("42")},
					{Variable: model.ParamRef("sys_title"), Operator: "LIKE", Value: model.Text("a%")},
				},
				Extensions: []model.ExtensionCall{
					{
						Name: "sys_casAutoSlot",
						Params: []model.Param{
							{Value: model.Number("503")},
							{Value: model.Number("11")},
						},
					},
				},
				Mappings: []model.DataMapping{
					{
						Backend:  model.Literal{Kind: model.LiteralBackend, Text: "CONTENTSTATUS.WORKFLOWID"},
						Document: model.Number("5"),
						Conditionals: []model.Conditional{
							{Variable: model.Literal{Kind: model.LiteralCGI, Text: "sys_contenttypeid"}, Operator: "=", Value: model.Number("311")},
						},
					},
				},
				Requests: []model.URLRequest{
					{Name: "edit", Params: []model.Param{{Name: "sys_siteid", Value: model.Number("301")}}},
				},
				ResultPages: []model.ResultPage{
					{
						Conditionals: []model.Conditional{
							{Variable: model.ParamRef("sys_contentstateid"), Operator: "=", Value: model.Number("3")},
							{Variable: model.ParamRef("sys_workflowid"), Operator: "=", Value: model.Number("5")},
						},
					},
				},
				Fields: []model.Field{
					{Name: "sys_folderid", Default: ptr(model.Number("900"))},
					{
						Name: "body",
						Visibility: []model.Conditional{
							{Variable: model.Literal{Kind: model.LiteralXML, Text: "article/communityid"}, Operator: "=", Value: model.Number("42")},
						},
					},
				},
				DisplayMappers: []model.DisplayMapping{
					{
						FieldRef: "sys_variantid",
						UISet: model.UISet{
							Name: "sys_DropDownSingle",
							Choices: []model.Entry{
								{Sequence: 1, Label: "Full", Value: model.Number("505")},
								{Sequence: 2, Label: "Snippet", Value: model.Number("506")},
							},
						},
					},
				},
				Bindings: []model.Binding{
					{
						Variable:   "$sys_slotid",
						Expression: model.Number("510"),
						Params:     []model.Param{{Name: "templateid", Value: model.Number("505")}},
					},
					{Variable: "$mystery", Expression: model.Number("77")},
				},
			},
		},
	}
}
