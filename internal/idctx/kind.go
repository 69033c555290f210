package idctx

import "content-mover/internal/common"

// Kind discriminates the address variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindIndexedItem
	KindNamedItem
	KindConditional
	KindDataMapping
	KindDisplayMapper
	KindEntry
	KindExtensionCall
	KindExtensionParam
	KindUISet
	KindURLRequest
	KindBinding
	KindBindingParam
	KindField

	// KindTotal is the number of kinds including KindUnknown.
	KindTotal = int(iota)
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindIndexedItem:
		return "indexed-item"
	case KindNamedItem:
		return "named-item"
	case KindConditional:
		return "conditional"
	case KindDataMapping:
		return "data-mapping"
	case KindDisplayMapper:
		return "display-mapper"
	case KindEntry:
		return "entry"
	case KindExtensionCall:
		return "extension-call"
	case KindExtensionParam:
		return "extension-param"
	case KindUISet:
		return "ui-set"
	case KindURLRequest:
		return "url-request"
	case KindBinding:
		return "binding"
	case KindBindingParam:
		return "binding-param"
	case KindField:
		return "field"
	default:
		return common.UnknownStr
	}
}

// Tag returns the element name of the kind's portable form.
func (k Kind) Tag() string {
	switch k {
	case KindIndexedItem:
		return "IndexedItemContext"
	case KindNamedItem:
		return "NamedItemContext"
	case KindConditional:
		return "ConditionalContext"
	case KindDataMapping:
		return "DataMappingContext"
	case KindDisplayMapper:
		return "DisplayMapperContext"
	case KindEntry:
		return "EntryContext"
	case KindExtensionCall:
		return "ExtensionCallContext"
	case KindExtensionParam:
		return "ExtensionParamContext"
	case KindUISet:
		return "UISetContext"
	case KindURLRequest:
		return "URLRequestContext"
	case KindBinding:
		return "BindingContext"
	case KindBindingParam:
		return "BindingParamContext"
	case KindField:
		return "FieldContext"
	default:
		return ""
	}
}

// ItemType qualifies indexed and named items with the collection they live in.
type ItemType string

const (
	ItemConditional  ItemType = "conditional"
	ItemMapping      ItemType = "mapping"
	ItemResultPage   ItemType = "resultpage"
	ItemVisibility   ItemType = "visibility"
	ItemParam        ItemType = "param"
	ItemRequestParam ItemType = "requestparam"
	ItemDefault      ItemType = "default"
)

// IsValid reports whether t is a recognized item type.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemConditional, ItemMapping, ItemResultPage, ItemVisibility,
		ItemParam, ItemRequestParam, ItemDefault:
		return true
	default:
		return false
	}
}

// Side selects one operand of a conditional or a data mapping.
type Side string

const (
	SideVariable Side = "variable"
	SideValue    Side = "value"
	SideBackend  Side = "backend"
	SideDocument Side = "document"
)

func (s Side) isConditionalSide() bool {
	return s == SideVariable || s == SideValue
}

func (s Side) isMappingSide() bool {
	return s == SideBackend || s == SideDocument
}
