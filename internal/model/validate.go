package model

import (
	"fmt"
	"strings"
)

// Validate checks the structural elements that dependency discovery and id
// scans rely on. The first violation is returned as an *ObjectError.
func (o *Object) Validate() error {
	v := validator{id: o.Key()}

	if o.Type == "" || o.ID == "" {
		return v.fail("", "type and id are required")
	}

	if o.Parent != nil && (o.Parent.Type == "" || o.Parent.ID == "") {
		return v.fail("parent", "parent reference requires type and id")
	}

	for i, a := range o.ACL {
		if strings.TrimSpace(a.Role) == "" {
			return v.fail(fmt.Sprintf("acl[%d]", i), "entry has no role")
		}
	}

	for i, r := range o.Refs {
		if r.Type == "" || r.ID == "" {
			return v.fail(fmt.Sprintf("refs[%d]", i), "reference requires type and id")
		}
	}

	seen := make(map[string]struct{}, len(o.Resources))

	for i := range o.Resources {
		r := &o.Resources[i]
		if _, dup := seen[r.Name]; dup {
			return v.fail(fmt.Sprintf("resources[%d]", i), fmt.Sprintf("duplicate resource name %q", r.Name))
		}

		seen[r.Name] = struct{}{}

		if err := v.resource(fmt.Sprintf("resources[%s]", r.Name), r); err != nil {
			return err
		}
	}

	return nil
}

type validator struct {
	id DependencyID
}

func (v validator) fail(path, reason string) error {
	return &ObjectError{Object: v.id, Path: path, Reason: reason}
}

func (v validator) resource(path string, r *Resource) error {
	if r.Pipe != nil {
		for i, t := range r.Pipe.Tables {
			if strings.TrimSpace(t.Name) == "" {
				return v.fail(fmt.Sprintf("%s.pipe.tables[%d]", path, i), "table has no name")
			}
		}
	}

	if err := v.params(path+".params", r.Params); err != nil {
		return err
	}

	if err := v.conditionals(path+".conditionals", r.Conditionals); err != nil {
		return err
	}

	if err := v.extensions(path+".extensions", r.Extensions); err != nil {
		return err
	}

	for i, m := range r.Mappings {
		p := fmt.Sprintf("%s.mappings[%d]", path, i)
		if err := v.literal(p+".backend", m.Backend); err != nil {
			return err
		}

		if err := v.literal(p+".document", m.Document); err != nil {
			return err
		}

		if err := v.conditionals(p+".conditionals", m.Conditionals); err != nil {
			return err
		}
	}

	for i, u := range r.Requests {
		p := fmt.Sprintf("%s.requests[%d]", path, i)
		if u.Name == "" {
			return v.fail(p, "request has no name")
		}

		if err := v.params(p+".params", u.Params); err != nil {
			return err
		}
	}

	for i, rp := range r.ResultPages {
		p := fmt.Sprintf("%s.resultPages[%d]", path, i)
		if err := v.conditionals(p+".conditionals", rp.Conditionals); err != nil {
			return err
		}

		if err := v.extensions(p+".extensions", rp.Extensions); err != nil {
			return err
		}
	}

	for i, f := range r.Fields {
		p := fmt.Sprintf("%s.fields[%d]", path, i)
		if f.Name == "" {
			return v.fail(p, "field has no name")
		}

		if f.Default != nil {
			if err := v.literal(p+".default", *f.Default); err != nil {
				return err
			}
		}

		if err := v.conditionals(p+".visibility", f.Visibility); err != nil {
			return err
		}
	}

	for i, dm := range r.DisplayMappers {
		p := fmt.Sprintf("%s.displayMappers[%d]", path, i)
		if dm.FieldRef == "" {
			return v.fail(p, "display mapping has no field reference")
		}

		if dm.UISet.Name == "" {
			return v.fail(p+".uiSet", "ui set has no name")
		}

		for j, e := range dm.UISet.Choices {
			if err := v.literal(fmt.Sprintf("%s.uiSet.choices[%d]", p, j), e.Value); err != nil {
				return err
			}
		}

		if err := v.extensions(p+".uiSet.extensions", dm.UISet.Extensions); err != nil {
			return err
		}
	}

	for i, b := range r.Bindings {
		p := fmt.Sprintf("%s.bindings[%d]", path, i)
		if b.Variable == "" {
			return v.fail(p, "binding has no variable")
		}

		if err := v.params(p+".params", b.Params); err != nil {
			return err
		}
	}

	return nil
}

func (v validator) params(path string, params []Param) error {
	for i, p := range params {
		if p.Name == "" {
			return v.fail(fmt.Sprintf("%s[%d]", path, i), "param has no name")
		}

		if err := v.literal(fmt.Sprintf("%s[%s]", path, p.Name), p.Value); err != nil {
			return err
		}
	}

	return nil
}

func (v validator) conditionals(path string, conds []Conditional) error {
	for i, c := range conds {
		p := fmt.Sprintf("%s[%d]", path, i)
		if strings.TrimSpace(c.Operator) == "" {
			return v.fail(p, "conditional has no operator")
		}

		if strings.TrimSpace(c.Variable.Text) == "" {
			return v.fail(p, "conditional has no variable")
		}

		if err := v.literal(p+".variable", c.Variable); err != nil {
			return err
		}

		if err := v.literal(p+".value", c.Value); err != nil {
			return err
		}
	}

	return nil
}

func (v validator) extensions(path string, calls []ExtensionCall) error {
	for i, c := range calls {
		p := fmt.Sprintf("%s[%d]", path, i)
		if c.Name == "" {
			return v.fail(p, "extension call has no name")
		}

		for j, prm := range c.Params {
			if err := v.literal(fmt.Sprintf("%s.params[%d]", p, j), prm.Value); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v validator) literal(path string, l Literal) error {
	if !l.Kind.IsValid() {
		return v.fail(path, fmt.Sprintf("unknown literal kind %q", l.Kind))
	}

	return nil
}
