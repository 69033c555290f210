package idtypes

import (
	"encoding/xml"
	"fmt"
	"os"

	"content-mover/internal/idctx"
	"content-mover/internal/model"
)

// FileName is the name of the id types file inside a packaged object.
const FileName = "idtypes.xml"

type fileXML struct {
	XMLName  xml.Name     `xml:"IdTypes"`
	Owner    string       `xml:"owner,attr"`
	Mappings []mappingXML `xml:"Mapping"`
}

type mappingXML struct {
	Resource   string        `xml:"resource,attr"`
	Element    string        `xml:"element,attr"`
	Type       string        `xml:"type,attr"`
	Value      string        `xml:"value,attr"`
	Field      string        `xml:"field,attr,omitempty"`
	ParentType string        `xml:"parentType,attr,omitempty"`
	ParentID   string        `xml:"parentId,attr,omitempty"`
	Address    idctx.Element `xml:",any"`
}

// Marshal renders the collection as XML.
func Marshal(t *ApplicationIdTypes) ([]byte, error) {
	f := fileXML{Owner: t.Owner.String()}

	for _, m := range t.All() {
		f.Mappings = append(f.Mappings, mappingXML{
			Resource:   m.Resource,
			Element:    string(m.Element),
			Type:       string(m.Type),
			Value:      m.Value,
			Field:      m.Field,
			ParentType: string(m.ParentType),
			ParentID:   m.ParentID,
			Address:    idctx.EncodeChain(m.Chain),
		})
	}

	data, err := xml.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal id types of %s: %w", t.Owner, err)
	}

	return append([]byte(xml.Header), data...), nil
}

// Parse decodes XML produced by Marshal. Addresses are rebuilt through reg,
// so an unknown element fails the whole file.
func Parse(data []byte, reg *idctx.Registry) (*ApplicationIdTypes, error) {
	var f fileXML
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse id types XML: %w", err)
	}

	owner, err := model.ParseDependencyID(f.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id types XML: %w", err)
	}

	t := New(owner)

	for i := range f.Mappings {
		mx := &f.Mappings[i]

		elem := Element(mx.Element)
		if !elem.IsValid() {
			return nil, fmt.Errorf("mapping %d of %s: unknown element %q", i, owner, mx.Element)
		}

		typ := model.ObjectType(mx.Type)
		if typ != TypeNone && typ != TypeUndefined && !typ.IsKnown() {
			return nil, fmt.Errorf("mapping %d of %s: unknown type %q", i, owner, mx.Type)
		}

		chain, err := reg.DecodeChain(&mx.Address)
		if err != nil {
			return nil, fmt.Errorf("mapping %d of %s: %w", i, owner, err)
		}

		t.Add(&Mapping{
			Resource:   mx.Resource,
			Element:    elem,
			Chain:      chain,
			Type:       typ,
			Value:      mx.Value,
			Field:      mx.Field,
			ParentType: model.ObjectType(mx.ParentType),
			ParentID:   mx.ParentID,
		})
	}

	return t, nil
}

// LoadFile loads and parses an id types file.
func LoadFile(path string, reg *idctx.Registry) (*ApplicationIdTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read id types file %s: %w", path, err)
	}

	return Parse(data, reg)
}

// WriteFile writes the collection to path.
func WriteFile(t *ApplicationIdTypes, path string) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write id types file %s: %w", path, err)
	}

	return nil
}
