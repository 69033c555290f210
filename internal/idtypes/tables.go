package idtypes

import (
	"sort"
	"strings"

	"content-mover/internal/common"
	"content-mover/internal/match"
	"content-mover/internal/model"
)

// FieldType is the classification of a field name.
type FieldType struct {
	Type model.ObjectType `yaml:"type"`
	// ParentType is set when ids of Type are only unique inside a parent.
	ParentType model.ObjectType `yaml:"parentType,omitempty"`
}

// Table classifies field names. Names are normalized, so sys_communityid,
// communityId and CommunityID share one entry.
type Table struct {
	entries map[string]FieldType
}

// NewTable builds a table from raw field names.
func NewTable(entries map[string]FieldType) *Table {
	t := &Table{entries: make(map[string]FieldType, len(entries))}
	for name, ft := range entries {
		t.Set(name, ft)
	}

	return t
}

// NormalizeField reduces a field, parameter, column or path name to its
// lookup key: the last path segment without "$" and "sys_" prefixes,
// lowercased and without separators.
func NormalizeField(name string) string {
	s := strings.TrimPrefix(strings.TrimSpace(common.LastSegment(name)), "$")
	if len(s) > 4 && strings.EqualFold(s[:4], "sys_") {
		s = s[4:]
	}

	return match.NormalizeIdent(s)
}

// Set adds or replaces the classification of a field name.
func (t *Table) Set(name string, ft FieldType) {
	t.entries[NormalizeField(name)] = ft
}

// Lookup classifies a field name.
func (t *Table) Lookup(name string) (FieldType, bool) {
	if name == "" {
		return FieldType{}, false
	}

	ft, ok := t.entries[NormalizeField(name)]

	return ft, ok
}

// Fields returns the normalized keys, sorted.
func (t *Table) Fields() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// Suggest returns the known field closest to name.
func (t *Table) Suggest(name string) (string, bool) {
	return match.Closest(NormalizeField(name), t.Fields())
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Tables is the classification configuration of a discovery engine.
//
// Child classifies fields whose ids are child dependencies of the scanned
// object. Transform classifies fields whose ids are rewritten on install;
// it is a superset of Child that also knows ids scoped by a parent. The two
// are kept apart on purpose.
type Tables struct {
	Child     *Table
	Transform *Table
	// ExtensionArgs names the positional parameters of extensions that
	// pass ids without naming them.
	ExtensionArgs map[string][]string
}

func childEntries() map[string]FieldType {
	return map[string]FieldType{
		"communityid":   {Type: model.TypeCommunity},
		"workflowid":    {Type: model.TypeWorkflow},
		"contenttypeid": {Type: model.TypeContentType},
		"variantid":     {Type: model.TypeTemplate},
		"templateid":    {Type: model.TypeTemplate},
		"slotid":        {Type: model.TypeSlot},
		"siteid":        {Type: model.TypeSite},
	}
}

// DefaultTables returns the built-in classification tables.
func DefaultTables() *Tables {
	transform := childEntries()
	transform["stateid"] = FieldType{Type: model.TypeState, ParentType: model.TypeWorkflow}
	transform["contentstateid"] = FieldType{Type: model.TypeState, ParentType: model.TypeWorkflow}
	transform["folderid"] = FieldType{Type: model.TypeFolder}

	return &Tables{
		Child:     NewTable(childEntries()),
		Transform: NewTable(transform),
		ExtensionArgs: map[string][]string{
			"sys_casAutoSlot":        {"slotid", "templateid"},
			"sys_casRelatedSlot":     {"slotid"},
			"sys_CommunityFilter":    {"communityid"},
			"sys_SiteFolderFinder":   {"siteid", "folderid"},
			"sys_WorkflowStateCheck": {"workflowid", "stateid"},
		},
	}
}

// Merge adds configured entries on top of the tables.
func (t *Tables) Merge(child, transform map[string]FieldType, extensionArgs map[string][]string) {
	for name, ft := range child {
		t.Child.Set(name, ft)
	}

	for name, ft := range transform {
		t.Transform.Set(name, ft)
	}

	if t.ExtensionArgs == nil {
		t.ExtensionArgs = make(map[string][]string, len(extensionArgs))
	}

	for name, args := range extensionArgs {
		t.ExtensionArgs[name] = args
	}
}

// ExtensionArg names the positional parameter index of an extension.
func (t *Tables) ExtensionArg(extension string, index int) (string, bool) {
	args, ok := t.ExtensionArgs[extension]
	if !ok || index < 0 || index >= len(args) {
		return "", false
	}

	return args[index], true
}
