package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validObject() *Object {
	return &Object{
		Type:   TypeApplication,
		ID:     "312",
		Parent: nil,
		ACL:    []ACLEntry{{Role: "Admin", Access: "owner"}},
		Refs:   []ObjectRef{{Type: TypeSchema, ID: "RXCOMMUNITY"}},
		Resources: []Resource{
			{
				Name:         "query",
				Pipe:         &Pipe{Tables: []TableRef{{Name: "CONTENTSTATUS"}}},
				Params:       []Param{{Name: "sys_communityid", Value: Number("42")}},
				Conditionals: []Conditional{{Variable: ParamRef("a"), Operator: "=", Value: Number("1")}},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Object)
		wantErr string
	}{
		{name: "valid", mutate: func(*Object) {}},
		{name: "no id", mutate: func(o *Object) { o.ID = "" }, wantErr: "type and id are required"},
		{name: "bad parent", mutate: func(o *Object) { o.Parent = &ObjectRef{Type: TypeWorkflow} }, wantErr: "parent"},
		{name: "acl without role", mutate: func(o *Object) { o.ACL[0].Role = " " }, wantErr: "acl[0]"},
		{name: "ref without id", mutate: func(o *Object) { o.Refs[0].ID = "" }, wantErr: "refs[0]"},
		{
			name:    "duplicate resource",
			mutate:  func(o *Object) { o.Resources = append(o.Resources, Resource{Name: "query"}) },
			wantErr: "duplicate resource name",
		},
		{
			name:    "unnamed table",
			mutate:  func(o *Object) { o.Resources[0].Pipe.Tables[0].Name = "" },
			wantErr: "resources[query].pipe.tables[0]",
		},
		{
			name:    "unnamed param",
			mutate:  func(o *Object) { o.Resources[0].Params[0].Name = "" },
			wantErr: "param has no name",
		},
		{
			name:    "conditional without operator",
			mutate:  func(o *Object) { o.Resources[0].Conditionals[0].Operator = "" },
			wantErr: "conditional has no operator",
		},
		{
			name:    "unknown literal kind",
			mutate:  func(o *Object) { o.Resources[0].Conditionals[0].Value.Kind = "blob" },
			wantErr: `unknown literal kind "blob"`,
		},
		{
			name: "display mapping without ui set",
			mutate: func(o *Object) {
				o.Resources[0].DisplayMappers = []DisplayMapping{{FieldRef: "sys_title"}}
			},
			wantErr: "ui set has no name",
		},
		{
			name:    "binding without variable",
			mutate:  func(o *Object) { o.Resources[0].Bindings = []Binding{{Expression: Number("1")}} },
			wantErr: "binding has no variable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validObject()
			tt.mutate(o)

			err := o.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, ErrMalformedObject)
			assert.Contains(t, err.Error(), tt.wantErr)

			var oe *ObjectError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, o.Key(), oe.Object)
		})
	}
}
