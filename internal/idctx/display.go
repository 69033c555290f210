package idctx

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys of the display texts.
const (
	msgSeparator     = "address.separator"
	msgIndexedItem   = "address.indexed-item"
	msgNamedItem     = "address.named-item"
	msgConditional   = "address.conditional"
	msgDataMapping   = "address.data-mapping"
	msgDisplayMapper = "address.display-mapper"
	msgEntry         = "address.entry"
	msgExtensionCall = "address.extension-call"
	msgExtParam      = "address.extension-param"
	msgExtParamNamed = "address.extension-param-named"
	msgUISet         = "address.ui-set"
	msgURLRequest    = "address.url-request"
	msgBinding       = "address.binding"
	msgBindingParam  = "address.binding-param"
	msgField         = "address.field"
)

var displayTexts = map[language.Tag]map[string]string{
	language.English: {
		msgSeparator:     " in ",
		msgIndexedItem:   "%s #%d",
		msgNamedItem:     "%s %q",
		msgConditional:   "%s side of %q",
		msgDataMapping:   "%s side of mapping %q",
		msgDisplayMapper: "display mapper of field %q",
		msgEntry:         "choice %d %q",
		msgExtensionCall: "call #%d of extension %q",
		msgExtParam:      "parameter #%d",
		msgExtParamNamed: "parameter #%d %q",
		msgUISet:         "UI set %q",
		msgURLRequest:    "request %q",
		msgBinding:       "binding #%d of %q",
		msgBindingParam:  "parameter %q #%d",
		msgField:         "field %q",
	},
	language.German: {
		msgSeparator:     " in ",
		msgIndexedItem:   "%s Nr. %d",
		msgNamedItem:     "%s %q",
		msgConditional:   "%s-Seite von %q",
		msgDataMapping:   "%s-Seite der Zuordnung %q",
		msgDisplayMapper: "Anzeigezuordnung des Feldes %q",
		msgEntry:         "Auswahl %d %q",
		msgExtensionCall: "Aufruf Nr. %d der Erweiterung %q",
		msgExtParam:      "Parameter Nr. %d",
		msgExtParamNamed: "Parameter Nr. %d %q",
		msgUISet:         "UI-Satz %q",
		msgURLRequest:    "Anfrage %q",
		msgBinding:       "Bindung Nr. %d von %q",
		msgBindingParam:  "Parameter %q Nr. %d",
		msgField:         "Feld %q",
	},
}

// DefaultLocale is the locale of address texts when none is configured.
var DefaultLocale = language.English

var supportedLocales = []language.Tag{language.English, language.German}

// Messages renders addresses as human-readable text in one locale.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages builds display messages for the closest supported locale.
// Locales without translations fall back to English.
func NewMessages(tag language.Tag) *Messages {
	_, idx, _ := language.NewMatcher(supportedLocales).Match(tag)
	tag = supportedLocales[idx]

	b := catalog.NewBuilder(catalog.Fallback(language.English))

	for lang, texts := range displayTexts {
		for key, text := range texts {
			// Keys and texts are static; SetString only fails on invalid input.
			if err := b.SetString(lang, key, text); err != nil {
				panic(fmt.Sprintf("idctx: register message %s/%s: %v", lang, key, err))
			}
		}
	}

	return &Messages{tag: tag, printer: message.NewPrinter(tag, message.Catalog(b))}
}

// ParseLocale parses a BCP 47 locale such as "en" or "de-CH". An empty
// string selects English.
func ParseLocale(s string) (language.Tag, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultLocale, nil
	}

	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", s, err)
	}

	return tag, nil
}

// Locale returns the supported locale the messages render in.
func (m *Messages) Locale() language.Tag {
	return m.tag
}

// DisplayText describes n followed by the texts of all its parents, joined
// by the locale's separator.
func (m *Messages) DisplayText(n *Node) string {
	text := m.segment(n.payload)
	if n.parent == nil {
		return text
	}

	return text + m.printer.Sprintf(msgSeparator) + m.DisplayText(n.parent)
}

// Chain describes a chain starting at its leaf.
func (m *Messages) Chain(c *Chain) string {
	return m.DisplayText(c.leaf)
}

func (m *Messages) segment(p Payload) string {
	pr := m.printer

	switch x := p.(type) {
	case *IndexedItem:
		return pr.Sprintf(msgIndexedItem, x.Type, x.Index)
	case *NamedItem:
		return pr.Sprintf(msgNamedItem, x.Type, x.Name)
	case *ConditionalSide:
		return pr.Sprintf(msgConditional, x.Side, x.Cond.Current.String())
	case *MappingSide:
		return pr.Sprintf(msgDataMapping, x.Side,
			x.Mapping.Current.Backend.String()+" -> "+x.Mapping.Current.Document.String())
	case *DisplayMapper:
		return pr.Sprintf(msgDisplayMapper, x.FieldRef)
	case *Entry:
		return pr.Sprintf(msgEntry, x.Entry.Current.Sequence, x.Entry.Current.Label)
	case *ExtensionCall:
		return pr.Sprintf(msgExtensionCall, x.Index, x.Name)
	case *ExtensionParam:
		if x.Name == "" {
			return pr.Sprintf(msgExtParam, x.Index)
		}

		return pr.Sprintf(msgExtParamNamed, x.Index, x.Name)
	case *UISet:
		return pr.Sprintf(msgUISet, x.Name)
	case *URLRequest:
		return pr.Sprintf(msgURLRequest, x.Name)
	case *Binding:
		return pr.Sprintf(msgBinding, x.Index, x.Variable)
	case *BindingParam:
		return pr.Sprintf(msgBindingParam, x.Name, x.Index)
	case *Field:
		return pr.Sprintf(msgField, x.Name)
	default:
		return p.Kind().String()
	}
}
