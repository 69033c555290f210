package idctx

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"content-mover/internal/match"
	"content-mover/internal/model"
)

// Element is the generic portable form of an address node: a tag, its
// attributes and nested elements. A literal element carries its value as
// character data.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []Element  `xml:",any"`
}

// Element names used inside the portable form.
const (
	ParentTag      = "Parent"
	conditionalTag = "Conditional"
	mappingTag     = "Mapping"
	entryTag       = "Entry"
	variableTag    = "Variable"
	valueTag       = "Value"
	backendTag     = "Backend"
	documentTag    = "Document"
)

func newElement(tag string, attrs ...string) Element {
	el := Element{XMLName: xml.Name{Local: tag}}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}

	return el
}

// Tag returns the element's local name.
func (e *Element) Tag() string {
	return e.XMLName.Local
}

// Attr returns the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}

	return "", false
}

// Child returns the first nested element with the given tag.
func (e *Element) Child(tag string) (*Element, bool) {
	for i := range e.Children {
		if e.Children[i].XMLName.Local == tag {
			return &e.Children[i], true
		}
	}

	return nil, false
}

func (e *Element) setAttr(name, value string) {
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// Encode converts a node and all of its parents into the portable form.
func Encode(n *Node) Element {
	el := encodePayload(n.payload)
	if n.parent != nil {
		parent := newElement(ParentTag)
		parent.Children = []Element{Encode(n.parent)}
		el.Children = append(el.Children, parent)
	}

	return el
}

// EncodeChain converts a chain into the portable form of its leaf.
func EncodeChain(c *Chain) Element {
	return Encode(c.leaf)
}

// MarshalChain renders a chain as indented XML.
func MarshalChain(c *Chain) ([]byte, error) {
	return xml.MarshalIndent(EncodeChain(c), "", "  ")
}

func encodePayload(p Payload) Element {
	switch x := p.(type) {
	case *IndexedItem:
		return newElement(KindIndexedItem.Tag(), "type", string(x.Type), "index", strconv.Itoa(x.Index))
	case *NamedItem:
		return newElement(KindNamedItem.Tag(), "type", string(x.Type), "name", x.Name)
	case *ConditionalSide:
		el := newElement(KindConditional.Tag(), "side", string(x.Side))
		el.Children = append(el.Children, encodeConditional(x.Cond.Current))

		return el
	case *MappingSide:
		el := newElement(KindDataMapping.Tag(), "side", string(x.Side))
		el.Children = append(el.Children, encodeMapping(x.Mapping.Current))

		return el
	case *DisplayMapper:
		return newElement(KindDisplayMapper.Tag(), "fieldRef", x.FieldRef)
	case *Entry:
		el := newElement(KindEntry.Tag(), "index", strconv.Itoa(x.Index))
		el.Children = append(el.Children, encodeEntry(x.Entry.Current))

		return el
	case *ExtensionCall:
		return newElement(KindExtensionCall.Tag(), "name", x.Name, "index", strconv.Itoa(x.Index))
	case *ExtensionParam:
		el := newElement(KindExtensionParam.Tag(), "index", strconv.Itoa(x.Index))
		if x.Name != "" {
			el.setAttr("name", x.Name)
		}

		el.Children = append(el.Children, encodeLiteral(valueTag, x.Value.Current))

		return el
	case *UISet:
		return newElement(KindUISet.Tag(), "name", x.Name)
	case *URLRequest:
		return newElement(KindURLRequest.Tag(), "name", x.Name)
	case *Binding:
		return newElement(KindBinding.Tag(), "variable", x.Variable, "index", strconv.Itoa(x.Index))
	case *BindingParam:
		return newElement(KindBindingParam.Tag(), "name", x.Name, "index", strconv.Itoa(x.Index))
	case *Field:
		return newElement(KindField.Tag(), "name", x.Name)
	default:
		panic(fmt.Sprintf("idctx: cannot encode payload %T", p))
	}
}

func encodeLiteral(tag string, l model.Literal) Element {
	el := newElement(tag)
	if l.Kind != "" {
		el.setAttr("kind", string(l.Kind))
	}

	el.Text = l.Text

	return el
}

func encodeConditional(c model.Conditional) Element {
	el := newElement(conditionalTag, "operator", c.Operator)
	if c.Boolean != "" {
		el.setAttr("boolean", c.Boolean)
	}

	el.Children = []Element{
		encodeLiteral(variableTag, c.Variable),
		encodeLiteral(valueTag, c.Value),
	}

	return el
}

func encodeMapping(m model.DataMapping) Element {
	el := newElement(mappingTag)
	el.Children = []Element{
		encodeLiteral(backendTag, m.Backend),
		encodeLiteral(documentTag, m.Document),
	}

	for _, c := range m.Conditionals {
		el.Children = append(el.Children, encodeConditional(c))
	}

	return el
}

func encodeEntry(e model.Entry) Element {
	el := newElement(entryTag, "sequence", strconv.Itoa(e.Sequence))
	if e.Label != "" {
		el.setAttr("label", e.Label)
	}

	el.Children = []Element{encodeLiteral(valueTag, e.Value)}

	return el
}

// DecodeFunc rebuilds a payload from its element. Nested Parent elements
// are handled by the registry.
type DecodeFunc func(el *Element) (Payload, error)

// Registry maps element names to payload decoders. Unknown names fail
// closed with ErrMalformedAddress.
type Registry struct {
	decoders map[string]DecodeFunc
}

// NewRegistry returns a registry with a decoder for every address variant.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]DecodeFunc, KindTotal)}

	r.Register(KindIndexedItem.Tag(), decodeIndexedItem)
	r.Register(KindNamedItem.Tag(), decodeNamedItem)
	r.Register(KindConditional.Tag(), decodeConditionalSide)
	r.Register(KindDataMapping.Tag(), decodeMappingSide)
	r.Register(KindDisplayMapper.Tag(), decodeDisplayMapper)
	r.Register(KindEntry.Tag(), decodeEntry)
	r.Register(KindExtensionCall.Tag(), decodeExtensionCall)
	r.Register(KindExtensionParam.Tag(), decodeExtensionParam)
	r.Register(KindUISet.Tag(), decodeUISet)
	r.Register(KindURLRequest.Tag(), decodeURLRequest)
	r.Register(KindBinding.Tag(), decodeBinding)
	r.Register(KindBindingParam.Tag(), decodeBindingParam)
	r.Register(KindField.Tag(), decodeField)

	return r
}

// Register adds or replaces the decoder for tag.
func (r *Registry) Register(tag string, fn DecodeFunc) {
	r.decoders[tag] = fn
}

// Tags returns the registered element names in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.decoders))
	for t := range r.decoders {
		tags = append(tags, t)
	}

	sort.Strings(tags)

	return tags
}

// Decode rebuilds a node and its parents from the portable form.
func (r *Registry) Decode(el *Element) (*Node, error) {
	tag := el.Tag()

	fn, ok := r.decoders[tag]
	if !ok {
		err := &AddressError{Tag: tag, Reason: "unknown element"}
		if s, ok := match.Closest(tag, r.Tags()); ok {
			err.Suggestion = s
		}

		return nil, err
	}

	p, err := fn(el)
	if err != nil {
		return nil, err
	}

	var parent *Node

	if pe, ok := el.Child(ParentTag); ok {
		if len(pe.Children) != 1 {
			return nil, &AddressError{Tag: tag, Reason: fmt.Sprintf("parent holds %d elements, want 1", len(pe.Children))}
		}

		parent, err = r.Decode(&pe.Children[0])
		if err != nil {
			return nil, err
		}
	}

	return NewNode(p, parent), nil
}

// DecodeChain rebuilds a chain from the portable form of its leaf.
func (r *Registry) DecodeChain(el *Element) (*Chain, error) {
	n, err := r.Decode(el)
	if err != nil {
		return nil, err
	}

	return NewChain(n), nil
}

// UnmarshalChain parses XML produced by MarshalChain.
func (r *Registry) UnmarshalChain(data []byte) (*Chain, error) {
	var el Element
	if err := xml.Unmarshal(data, &el); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAddress, err)
	}

	return r.DecodeChain(&el)
}

func requireAttr(el *Element, name string) (string, error) {
	v, ok := el.Attr(name)
	if !ok {
		return "", &AddressError{Tag: el.Tag(), Reason: fmt.Sprintf("missing attribute %q", name)}
	}

	return v, nil
}

func requireInt(el *Element, name string) (int, error) {
	v, err := requireAttr(el, name)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &AddressError{Tag: el.Tag(), Reason: fmt.Sprintf("attribute %q: %q is not a non-negative integer", name, v)}
	}

	return n, nil
}

func requireChild(el *Element, tag string) (*Element, error) {
	c, ok := el.Child(tag)
	if !ok {
		return nil, &AddressError{Tag: el.Tag(), Reason: fmt.Sprintf("missing <%s>", tag)}
	}

	return c, nil
}

func requireItemType(el *Element) (ItemType, error) {
	v, err := requireAttr(el, "type")
	if err != nil {
		return "", err
	}

	t := ItemType(v)
	if !t.IsValid() {
		return "", &AddressError{Tag: el.Tag(), Reason: fmt.Sprintf("unknown item type %q", v)}
	}

	return t, nil
}

func decodeIndexedItem(el *Element) (Payload, error) {
	t, err := requireItemType(el)
	if err != nil {
		return nil, err
	}

	idx, err := requireInt(el, "index")
	if err != nil {
		return nil, err
	}

	return &IndexedItem{Type: t, Index: idx}, nil
}

func decodeNamedItem(el *Element) (Payload, error) {
	t, err := requireItemType(el)
	if err != nil {
		return nil, err
	}

	name, err := requireAttr(el, "name")
	if err != nil {
		return nil, err
	}

	return &NamedItem{Type: t, Name: name}, nil
}

func decodeConditionalSide(el *Element) (Payload, error) {
	side, err := requireAttr(el, "side")
	if err != nil {
		return nil, err
	}

	if !Side(side).isConditionalSide() {
		return nil, &AddressError{Tag: el.Tag(), Reason: fmt.Sprintf("invalid conditional side %q", side)}
	}

	ce, err := requireChild(el, conditionalTag)
	if err != nil {
		return nil, err
	}

	c, err := decodeConditional(ce)
	if err != nil {
		return nil, err
	}

	return &ConditionalSide{Side: Side(side), Cond: NewVersioned(c)}, nil
}

func decodeMappingSide(el *Element) (Payload, error) {
	side, err := requireAttr(el, "side")
	if err != nil {
		return nil, err
	}

	if !Side(side).isMappingSide() {
		return nil, &AddressError{Tag: el.Tag(), Reason: fmt.Sprintf("invalid mapping side %q", side)}
	}

	me, err := requireChild(el, mappingTag)
	if err != nil {
		return nil, err
	}

	m, err := decodeMapping(me)
	if err != nil {
		return nil, err
	}

	return &MappingSide{Side: Side(side), Mapping: NewVersioned(m)}, nil
}

func decodeDisplayMapper(el *Element) (Payload, error) {
	ref, err := requireAttr(el, "fieldRef")
	if err != nil {
		return nil, err
	}

	return &DisplayMapper{FieldRef: ref}, nil
}

func decodeEntry(el *Element) (Payload, error) {
	ee, err := requireChild(el, entryTag)
	if err != nil {
		return nil, err
	}

	idx, err := requireInt(el, "index")
	if err != nil {
		return nil, err
	}

	seq, err := requireInt(ee, "sequence")
	if err != nil {
		return nil, err
	}

	label, _ := ee.Attr("label")

	ve, err := requireChild(ee, valueTag)
	if err != nil {
		return nil, err
	}

	v, err := decodeLiteral(ve)
	if err != nil {
		return nil, err
	}

	return &Entry{Entry: NewVersioned(model.Entry{Sequence: seq, Label: label, Value: v}), Index: idx}, nil
}

func decodeExtensionCall(el *Element) (Payload, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return nil, err
	}

	idx, err := requireInt(el, "index")
	if err != nil {
		return nil, err
	}

	return &ExtensionCall{Name: name, Index: idx}, nil
}

func decodeExtensionParam(el *Element) (Payload, error) {
	idx, err := requireInt(el, "index")
	if err != nil {
		return nil, err
	}

	name, _ := el.Attr("name")

	ve, err := requireChild(el, valueTag)
	if err != nil {
		return nil, err
	}

	v, err := decodeLiteral(ve)
	if err != nil {
		return nil, err
	}

	return &ExtensionParam{Index: idx, Name: name, Value: NewVersioned(v)}, nil
}

func decodeUISet(el *Element) (Payload, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return nil, err
	}

	return &UISet{Name: name}, nil
}

func decodeURLRequest(el *Element) (Payload, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return nil, err
	}

	return &URLRequest{Name: name}, nil
}

func decodeBinding(el *Element) (Payload, error) {
	variable, err := requireAttr(el, "variable")
	if err != nil {
		return nil, err
	}

	idx, err := requireInt(el, "index")
	if err != nil {
		return nil, err
	}

	return &Binding{Variable: variable, Index: idx}, nil
}

func decodeBindingParam(el *Element) (Payload, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return nil, err
	}

	idx, err := requireInt(el, "index")
	if err != nil {
		return nil, err
	}

	return &BindingParam{Name: name, Index: idx}, nil
}

func decodeField(el *Element) (Payload, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return nil, err
	}

	return &Field{Name: name}, nil
}

func decodeLiteral(el *Element) (model.Literal, error) {
	kind, _ := el.Attr("kind")

	k := model.LiteralKind(kind)
	if !k.IsValid() {
		return model.Literal{}, &AddressError{Tag: el.Tag(), Reason: fmt.Sprintf("unknown literal kind %q", kind)}
	}

	return model.Literal{Kind: k, Text: el.Text}, nil
}

func decodeConditional(el *Element) (model.Conditional, error) {
	op, err := requireAttr(el, "operator")
	if err != nil {
		return model.Conditional{}, err
	}

	boolean, _ := el.Attr("boolean")

	ve, err := requireChild(el, variableTag)
	if err != nil {
		return model.Conditional{}, err
	}

	variable, err := decodeLiteral(ve)
	if err != nil {
		return model.Conditional{}, err
	}

	vale, err := requireChild(el, valueTag)
	if err != nil {
		return model.Conditional{}, err
	}

	value, err := decodeLiteral(vale)
	if err != nil {
		return model.Conditional{}, err
	}

	return model.Conditional{Variable: variable, Operator: op, Value: value, Boolean: boolean}, nil
}

func decodeMapping(el *Element) (model.DataMapping, error) {
	be, err := requireChild(el, backendTag)
	if err != nil {
		return model.DataMapping{}, err
	}

	backend, err := decodeLiteral(be)
	if err != nil {
		return model.DataMapping{}, err
	}

	de, err := requireChild(el, documentTag)
	if err != nil {
		return model.DataMapping{}, err
	}

	document, err := decodeLiteral(de)
	if err != nil {
		return model.DataMapping{}, err
	}

	m := model.DataMapping{Backend: backend, Document: document}

	for i := range el.Children {
		if el.Children[i].Tag() != conditionalTag {
			continue
		}

		c, err := decodeConditional(&el.Children[i])
		if err != nil {
			return model.DataMapping{}, err
		}

		m.Conditionals = append(m.Conditionals, c)
	}

	return m, nil
}
