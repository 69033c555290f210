package idctx

import (
	"fmt"
	"slices"

	"github.com/tiendc/go-deepcopy"

	"content-mover/internal/model"
)

// Versioned keeps the value a context was created with next to the value it
// holds now. Updates only touch Current.
type Versioned[T any] struct {
	Current  T
	Original T
}

// NewVersioned returns a Versioned whose Current and Original are
// independent deep copies of v.
func NewVersioned[T any](v T) Versioned[T] {
	return Versioned[T]{Current: deepCopy(v), Original: deepCopy(v)}
}

// Value returns Original when original is set, otherwise Current.
func (v Versioned[T]) Value(original bool) T {
	if original {
		return v.Original
	}

	return v.Current
}

func (v Versioned[T]) clone() Versioned[T] {
	return Versioned[T]{Current: deepCopy(v.Current), Original: deepCopy(v.Original)}
}

func deepCopy[T any](v T) T {
	var out T
	if err := deepcopy.Copy(&out, v); err != nil {
		// Only plain data is versioned; a copy failure means a programming error.
		panic(fmt.Sprintf("idctx: deep copy of %T failed: %v", v, err))
	}

	return out
}

// Payload is the variant-specific part of a context node. The set of
// implementations is closed: IndexedItem, NamedItem, ConditionalSide,
// MappingSide, DisplayMapper, Entry, ExtensionCall, ExtensionParam, UISet,
// URLRequest, Binding, BindingParam and Field.
type Payload interface {
	Kind() Kind
	isPayload()
}

// IndexedItem addresses the Index-th member of a collection.
type IndexedItem struct {
	Type  ItemType
	Index int
}

// NamedItem addresses a member of a collection by name.
type NamedItem struct {
	Type ItemType
	Name string
}

// ConditionalSide addresses one operand of a conditional.
type ConditionalSide struct {
	Side Side
	Cond Versioned[model.Conditional]
}

// MappingSide addresses the back-end or document side of a data mapping.
type MappingSide struct {
	Side    Side
	Mapping Versioned[model.DataMapping]
}

// DisplayMapper addresses the display mapping of a field.
type DisplayMapper struct {
	FieldRef string
}

// Entry addresses one choice of a choice list. Index is the choice's
// position in the list; choices may share a sequence and label.
type Entry struct {
	Entry Versioned[model.Entry]
	Index int
}

// ExtensionCall addresses the extension call at Index in its list.
type ExtensionCall struct {
	Name  string
	Index int
}

// ExtensionParam addresses a parameter of an extension call.
type ExtensionParam struct {
	Index int
	Name  string
	Value Versioned[model.Literal]
}

// UISet addresses a UI set by name.
type UISet struct {
	Name string
}

// URLRequest addresses a URL request by name.
type URLRequest struct {
	Name string
}

// Binding addresses a script binding by variable and position.
type Binding struct {
	Variable string
	Index    int
}

// BindingParam addresses a parameter of a binding's function call.
type BindingParam struct {
	Name  string
	Index int
}

// Field addresses a content-item field.
type Field struct {
	Name string
}

func (*IndexedItem) Kind() Kind     { return KindIndexedItem }
func (*NamedItem) Kind() Kind       { return KindNamedItem }
func (*ConditionalSide) Kind() Kind { return KindConditional }
func (*MappingSide) Kind() Kind     { return KindDataMapping }
func (*DisplayMapper) Kind() Kind   { return KindDisplayMapper }
func (*Entry) Kind() Kind           { return KindEntry }
func (*ExtensionCall) Kind() Kind   { return KindExtensionCall }
func (*ExtensionParam) Kind() Kind  { return KindExtensionParam }
func (*UISet) Kind() Kind           { return KindUISet }
func (*URLRequest) Kind() Kind      { return KindURLRequest }
func (*Binding) Kind() Kind         { return KindBinding }
func (*BindingParam) Kind() Kind    { return KindBindingParam }
func (*Field) Kind() Kind           { return KindField }

func (*IndexedItem) isPayload()     {}
func (*NamedItem) isPayload()       {}
func (*ConditionalSide) isPayload() {}
func (*MappingSide) isPayload()     {}
func (*DisplayMapper) isPayload()   {}
func (*Entry) isPayload()           {}
func (*ExtensionCall) isPayload()   {}
func (*ExtensionParam) isPayload()  {}
func (*UISet) isPayload()           {}
func (*URLRequest) isPayload()      {}
func (*Binding) isPayload()         {}
func (*BindingParam) isPayload()    {}
func (*Field) isPayload()           {}

// payloadEqual compares the full payload on current values.
func payloadEqual(a, b Payload) bool {
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *IndexedItem:
		return *x == *b.(*IndexedItem)
	case *NamedItem:
		return *x == *b.(*NamedItem)
	case *ConditionalSide:
		y := b.(*ConditionalSide)
		return x.Side == y.Side && x.Cond.Current == y.Cond.Current
	case *MappingSide:
		y := b.(*MappingSide)
		return x.Side == y.Side && mappingEqual(x.Mapping.Current, y.Mapping.Current)
	case *DisplayMapper:
		return *x == *b.(*DisplayMapper)
	case *Entry:
		y := b.(*Entry)
		return x.Index == y.Index && x.Entry.Current == y.Entry.Current
	case *ExtensionCall:
		return *x == *b.(*ExtensionCall)
	case *ExtensionParam:
		y := b.(*ExtensionParam)
		return x.Index == y.Index && x.Name == y.Name && x.Value.Current == y.Value.Current
	case *UISet:
		return *x == *b.(*UISet)
	case *URLRequest:
		return *x == *b.(*URLRequest)
	case *Binding:
		return *x == *b.(*Binding)
	case *BindingParam:
		return *x == *b.(*BindingParam)
	case *Field:
		return *x == *b.(*Field)
	default:
		return false
	}
}

// sameData reports whether two payloads address the same underlying data.
// Conditional and mapping sides ignore which side they point at, so the
// value and variable side of one conditional are the same data.
func sameData(a, b Payload, useOriginal bool) bool {
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *ConditionalSide:
		return x.Cond.Value(useOriginal) == b.(*ConditionalSide).Cond.Value(useOriginal)
	case *MappingSide:
		return mappingEqual(x.Mapping.Value(useOriginal), b.(*MappingSide).Mapping.Value(useOriginal))
	case *Entry:
		y := b.(*Entry)
		return x.Index == y.Index && x.Entry.Value(useOriginal) == y.Entry.Value(useOriginal)
	case *ExtensionParam:
		y := b.(*ExtensionParam)
		return x.Index == y.Index && x.Value.Value(useOriginal) == y.Value.Value(useOriginal)
	default:
		return payloadEqual(a, b)
	}
}

// registersListeners reports whether aliases of the payload are linked
// during a tandem walk. Every kind listed here must handle aliasUpdated.
func registersListeners(p Payload) bool {
	switch p.(type) {
	case *ConditionalSide, *MappingSide:
		return true
	default:
		return false
	}
}

// aliasUpdated copies the current value of src into dst.
func aliasUpdated(dst, src Payload) error {
	switch x := dst.(type) {
	case *ConditionalSide:
		y, ok := src.(*ConditionalSide)
		if !ok {
			return mismatch(dst, src)
		}

		x.Cond.Current = y.Cond.Current

		return nil
	case *MappingSide:
		y, ok := src.(*MappingSide)
		if !ok {
			return mismatch(dst, src)
		}

		x.Mapping.Current = deepCopy(y.Mapping.Current)

		return nil
	default:
		return fmt.Errorf("%w: %s does not accept alias updates", ErrUnsupportedOperation, dst.Kind())
	}
}

// update replaces the current value of a versioned payload.
func update(p Payload, v any) error {
	switch x := p.(type) {
	case *ConditionalSide:
		c, ok := v.(model.Conditional)
		if !ok {
			return mismatch(p, v)
		}

		x.Cond.Current = c
	case *MappingSide:
		m, ok := v.(model.DataMapping)
		if !ok {
			return mismatch(p, v)
		}

		x.Mapping.Current = deepCopy(m)
	case *Entry:
		e, ok := v.(model.Entry)
		if !ok {
			return mismatch(p, v)
		}

		x.Entry.Current = e
	case *ExtensionParam:
		l, ok := v.(model.Literal)
		if !ok {
			return mismatch(p, v)
		}

		x.Value.Current = l
	}

	return nil
}

func mismatch(p Payload, v any) error {
	return fmt.Errorf("%w: %s context cannot hold %T", ErrTypeMismatch, p.Kind(), v)
}

// identifier returns the name carried by name-bearing payloads.
func identifier(p Payload) (string, bool) {
	var id string

	switch x := p.(type) {
	case *NamedItem:
		id = x.Name
	case *DisplayMapper:
		id = x.FieldRef
	case *ExtensionCall:
		id = x.Name
	case *ExtensionParam:
		id = x.Name
	case *UISet:
		id = x.Name
	case *URLRequest:
		id = x.Name
	case *Binding:
		id = x.Variable
	case *BindingParam:
		id = x.Name
	case *Field:
		id = x.Name
	}

	return id, id != ""
}

func clonePayload(p Payload) Payload {
	switch x := p.(type) {
	case *IndexedItem:
		c := *x
		return &c
	case *NamedItem:
		c := *x
		return &c
	case *ConditionalSide:
		return &ConditionalSide{Side: x.Side, Cond: x.Cond.clone()}
	case *MappingSide:
		return &MappingSide{Side: x.Side, Mapping: x.Mapping.clone()}
	case *DisplayMapper:
		c := *x
		return &c
	case *Entry:
		return &Entry{Entry: x.Entry.clone(), Index: x.Index}
	case *ExtensionCall:
		c := *x
		return &c
	case *ExtensionParam:
		return &ExtensionParam{Index: x.Index, Name: x.Name, Value: x.Value.clone()}
	case *UISet:
		c := *x
		return &c
	case *URLRequest:
		c := *x
		return &c
	case *Binding:
		c := *x
		return &c
	case *BindingParam:
		c := *x
		return &c
	case *Field:
		c := *x
		return &c
	default:
		panic(fmt.Sprintf("idctx: unknown payload %T", p))
	}
}

func mappingEqual(a, b model.DataMapping) bool {
	return a.Backend == b.Backend && a.Document == b.Document &&
		slices.Equal(a.Conditionals, b.Conditionals)
}
