package model

import (
	"strconv"
	"strings"
)

// ObjectType names a migratable object type.
type ObjectType string

const (
	TypeApplication ObjectType = "Application"
	TypeCommunity   ObjectType = "Community"
	TypeContentType ObjectType = "ContentType"
	TypeExtension   ObjectType = "Extension"
	TypeFolder      ObjectType = "Folder"
	TypeLocale      ObjectType = "Locale"
	TypeRole        ObjectType = "Role"
	TypeSchema      ObjectType = "Schema"
	TypeSearch      ObjectType = "Search"
	TypeSite        ObjectType = "Site"
	TypeSlot        ObjectType = "Slot"
	TypeState       ObjectType = "State"
	TypeStylesheet  ObjectType = "Stylesheet"
	TypeTemplate    ObjectType = "Template"
	TypeWorkflow    ObjectType = "Workflow"
)

// KnownTypes lists every object type handled by the tool, in display order.
var KnownTypes = []ObjectType{
	TypeApplication, TypeCommunity, TypeContentType, TypeExtension, TypeFolder,
	TypeLocale, TypeRole, TypeSchema, TypeSearch, TypeSite, TypeSlot, TypeState,
	TypeStylesheet, TypeTemplate, TypeWorkflow,
}

// IsKnown reports whether t is one of KnownTypes.
func (t ObjectType) IsKnown() bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}

	return false
}

// Object is one migratable configuration object.
type Object struct {
	Type        ObjectType  `yaml:"type"`
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name,omitempty"`
	System      bool        `yaml:"system,omitempty"`
	Shared      bool        `yaml:"shared,omitempty"`
	Parent      *ObjectRef  `yaml:"parent,omitempty"`
	Policy      Policy      `yaml:"policy"`
	ACL         []ACLEntry  `yaml:"acl,omitempty"`
	Stylesheets []string    `yaml:"stylesheets,omitempty"`
	Refs        []ObjectRef `yaml:"refs,omitempty"`
	Resources   []Resource  `yaml:"resources,omitempty"`
}

// Key returns the identity of the object.
func (o *Object) Key() DependencyID {
	return DependencyID{Type: o.Type, Key: o.ID}
}

// DisplayName returns Name, falling back to the id.
func (o *Object) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}

	return o.ID
}

// Resource returns the resource with the given name.
func (o *Object) Resource(name string) (*Resource, bool) {
	for i := range o.Resources {
		if o.Resources[i].Name == name {
			return &o.Resources[i], true
		}
	}

	return nil, false
}

// Policy holds the operator-controlled runtime flags of an object.
type Policy struct {
	Enabled bool `yaml:"enabled"`
	Logging bool `yaml:"logging,omitempty"`
	Tracing bool `yaml:"tracing,omitempty"`
}

// ObjectRef is a typed reference to another object.
type ObjectRef struct {
	Type ObjectType `yaml:"type"`
	ID   string     `yaml:"id"`
}

// Key converts the reference to a DependencyID.
func (r ObjectRef) Key() DependencyID {
	return DependencyID{Type: r.Type, Key: r.ID}
}

// ACLEntry grants a role access to the object.
type ACLEntry struct {
	Role   string `yaml:"role"`
	Access string `yaml:"access,omitempty"`
}

// Resource is a named dataset of an object. Simple objects carry a single
// resource.
type Resource struct {
	Name           string           `yaml:"name"`
	Pipe           *Pipe            `yaml:"pipe,omitempty"`
	Stylesheet     string           `yaml:"stylesheet,omitempty"`
	Params         []Param          `yaml:"params,omitempty"`
	Conditionals   []Conditional    `yaml:"conditionals,omitempty"`
	Extensions     []ExtensionCall  `yaml:"extensions,omitempty"`
	Mappings       []DataMapping    `yaml:"mappings,omitempty"`
	Requests       []URLRequest     `yaml:"requests,omitempty"`
	ResultPages    []ResultPage     `yaml:"resultPages,omitempty"`
	Fields         []Field          `yaml:"fields,omitempty"`
	DisplayMappers []DisplayMapping `yaml:"displayMappers,omitempty"`
	Bindings       []Binding        `yaml:"bindings,omitempty"`
}

// Pipe connects a dataset to its back-end tables.
type Pipe struct {
	Tables []TableRef `yaml:"tables"`
}

// TableRef names a back-end table; the table belongs to a Schema object.
type TableRef struct {
	Name   string `yaml:"name"`
	Schema string `yaml:"schema,omitempty"`
}

// LiteralKind classifies the source of a replacement value.
type LiteralKind string

const (
	LiteralText    LiteralKind = "text"
	LiteralNumber  LiteralKind = "number"
	LiteralParam   LiteralKind = "param"
	LiteralCGI     LiteralKind = "cgi"
	LiteralBackend LiteralKind = "backend"
	LiteralXML     LiteralKind = "xml"
	LiteralUser    LiteralKind = "user"
)

// IsValid reports whether k is a recognized kind. The empty kind is treated
// as text.
func (k LiteralKind) IsValid() bool {
	switch k {
	case "", LiteralText, LiteralNumber, LiteralParam, LiteralCGI,
		LiteralBackend, LiteralXML, LiteralUser:
		return true
	default:
		return false
	}
}

// Literal is a replacement value: either a literal or a named reference to
// request, back-end or document data.
type Literal struct {
	Kind LiteralKind `yaml:"kind,omitempty"`
	Text string      `yaml:"text"`
}

// Text returns a text literal.
func Text(s string) Literal {
	return Literal{Kind: LiteralText, Text: s}
}

// Number returns a numeric literal.
func Number(s string) Literal {
	return Literal{Kind: LiteralNumber, Text: s}
}

// ParamRef returns a reference to a request parameter.
func ParamRef(name string) Literal {
	return Literal{Kind: LiteralParam, Text: name}
}

// IsLiteral reports whether the value is a literal rather than a reference.
func (l Literal) IsLiteral() bool {
	return l.Kind == "" || l.Kind == LiteralText || l.Kind == LiteralNumber
}

// IsNamedRef reports whether the value names a param, column or field whose
// name can be used to classify a literal on the other side of an expression.
func (l Literal) IsNamedRef() bool {
	switch l.Kind {
	case LiteralParam, LiteralCGI, LiteralBackend, LiteralXML:
		return true
	default:
		return false
	}
}

// LooksLikeID reports whether the literal holds a positive integer, the
// shape of a system-assigned identifier.
func (l Literal) LooksLikeID() bool {
	if !l.IsLiteral() {
		return false
	}

	s := strings.TrimSpace(l.Text)
	if s == "" {
		return false
	}

	n, err := strconv.ParseInt(s, 10, 64)

	return err == nil && n > 0
}

// String renders the literal for display.
func (l Literal) String() string {
	if l.IsLiteral() {
		return l.Text
	}

	return string(l.Kind) + ":" + l.Text
}

// Param is a named value: a request property, a call parameter or a named item.
type Param struct {
	Name  string  `yaml:"name"`
	Value Literal `yaml:"value"`
}

// Conditional is a single "variable operator value" test.
type Conditional struct {
	Variable Literal `yaml:"variable"`
	Operator string  `yaml:"operator"`
	Value    Literal `yaml:"value"`
	Boolean  string  `yaml:"boolean,omitempty"`
}

// String renders the conditional for display.
func (c Conditional) String() string {
	return c.Variable.String() + " " + c.Operator + " " + c.Value.String()
}

// ExtensionCall invokes a registered extension with parameters.
type ExtensionCall struct {
	Name   string  `yaml:"name"`
	Params []Param `yaml:"params,omitempty"`
}

// DataMapping maps a back-end value to a document value.
type DataMapping struct {
	Backend      Literal       `yaml:"backend"`
	Document     Literal       `yaml:"document"`
	Conditionals []Conditional `yaml:"conditionals,omitempty"`
}

// URLRequest is a named link to another resource.
type URLRequest struct {
	Name   string  `yaml:"name"`
	Href   string  `yaml:"href,omitempty"`
	Params []Param `yaml:"params,omitempty"`
}

// ResultPage selects a stylesheet by conditionals and may run extensions.
type ResultPage struct {
	Stylesheet   string          `yaml:"stylesheet,omitempty"`
	Conditionals []Conditional   `yaml:"conditionals,omitempty"`
	Extensions   []ExtensionCall `yaml:"extensions,omitempty"`
}

// Field is a content-item field definition.
type Field struct {
	Name       string        `yaml:"name"`
	Default    *Literal      `yaml:"default,omitempty"`
	Visibility []Conditional `yaml:"visibility,omitempty"`
}

// DisplayMapping binds a field reference to the UI set that renders it.
type DisplayMapping struct {
	FieldRef string `yaml:"fieldRef"`
	UISet    UISet  `yaml:"uiSet"`
}

// UISet describes the control used to edit a field.
type UISet struct {
	Name       string          `yaml:"name"`
	Control    string          `yaml:"control,omitempty"`
	Choices    []Entry         `yaml:"choices,omitempty"`
	Extensions []ExtensionCall `yaml:"extensions,omitempty"`
}

// Entry is one choice of a choice list.
type Entry struct {
	Sequence int     `yaml:"sequence"`
	Label    string  `yaml:"label"`
	Value    Literal `yaml:"value"`
}

// Binding is a template script binding: a variable assigned an expression,
// optionally calling a function with named parameters.
type Binding struct {
	Variable   string  `yaml:"variable"`
	Expression Literal `yaml:"expression"`
	Params     []Param `yaml:"params,omitempty"`
}
