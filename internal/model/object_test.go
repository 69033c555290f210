package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteral_LooksLikeID(t *testing.T) {
	tests := []struct {
		name string
		lit  Literal
		want bool
	}{
		{"number", Number("42"), true},
		{"text digits", Text("301"), true},
		{"untyped digits", Literal{Text: " 7 "}, true},
		{"zero", Number("0"), false},
		{"negative", Number("-3"), false},
		{"word", Text("News"), false},
		{"empty", Text(""), false},
		{"param ref", ParamRef("42"), false},
		{"backend column", Literal{Kind: LiteralBackend, Text: "5"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lit.LooksLikeID())
		})
	}
}

func TestLiteral_Kinds(t *testing.T) {
	assert.True(t, ParamRef("x").IsNamedRef())
	assert.True(t, Literal{Kind: LiteralXML, Text: "a/b"}.IsNamedRef())
	assert.False(t, Literal{Kind: LiteralUser, Text: "u"}.IsNamedRef())
	assert.False(t, Number("1").IsNamedRef())

	assert.Equal(t, "42", Number("42").String())
	assert.Equal(t, "cgi:sys_siteid", Literal{Kind: LiteralCGI, Text: "sys_siteid"}.String())
	assert.Equal(t, "param:a = 1", Conditional{Variable: ParamRef("a"), Operator: "=", Value: Number("1")}.String())

	assert.True(t, LiteralKind("").IsValid())
	assert.False(t, LiteralKind("blob").IsValid())
}

func TestObject_Accessors(t *testing.T) {
	o := &Object{Type: TypeSlot, ID: "510", Resources: []Resource{{Name: "main"}}}

	assert.Equal(t, DependencyID{Type: TypeSlot, Key: "510"}, o.Key())
	assert.Equal(t, "510", o.DisplayName())

	o.Name = "rffAutoIndex"
	assert.Equal(t, "rffAutoIndex", o.DisplayName())

	r, ok := o.Resource("main")
	assert.True(t, ok)
	assert.Equal(t, "main", r.Name)

	_, ok = o.Resource("other")
	assert.False(t, ok)

	assert.True(t, TypeWorkflow.IsKnown())
	assert.False(t, ObjectType("Gadget").IsKnown())
}
