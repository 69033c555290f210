package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"content-mover/internal/common"
)

// Diagnostic codes.
const (
	// CodeUnclassifiedID marks a literal that looks like an id but matches no
	// classification entry. It is recorded with an undefined type.
	CodeUnclassifiedID = "unclassified-id"
	// CodeMissingParent marks a deferred id type dropped because no parent
	// of the required type was found in the same scan.
	CodeMissingParent = "missing-parent"
	// CodeMissingReference marks a reference to an object that does not
	// exist. It is omitted from the dependency set.
	CodeMissingReference = "missing-reference"
	// CodeDependencyCycle marks a reference back to an object already on the
	// resolution path.
	CodeDependencyCycle = "dependency-cycle"
	// CodeUndefinedIDType marks a mapping skipped during transformation
	// because its type was never defined.
	CodeUndefinedIDType = "undefined-id-type"
	// CodeReservedID marks a fresh target id minted for an unmapped source id.
	CodeReservedID = "reserved-id"
	// CodeUnknownHandler marks an object type without a dependency handler.
	CodeUnknownHandler = "unknown-handler"
)

// Diagnostics holds all diagnostic information from a run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Object identifies the object this relates to ("Type:Key"), if any.
	Object string
	// Address locates the value inside the object, if any.
	Address string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, object, address string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  message,
		Object:   object,
		Address:  address,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, object, address string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		Object:   object,
		Address:  address,
	})
}

// AddWarningWithSuggestions adds a warning carrying suggested fixes.
func (d *Diagnostics) AddWarningWithSuggestions(code, message, object, address string, suggestions ...string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:    DiagnosticWarning,
		Code:        code,
		Message:     message,
		Object:      object,
		Address:     address,
		Suggestions: suggestions,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, object, address string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: DiagnosticInfo,
		Code:     code,
		Message:  message,
		Object:   object,
		Address:  address,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// All returns every diagnostic, errors first.
func (d *Diagnostics) All() []Diagnostic {
	all := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)
	all = append(all, d.Infos...)

	return all
}

// WithCode returns the diagnostics carrying code, in severity order.
func (d *Diagnostics) WithCode(code string) []Diagnostic {
	var out []Diagnostic

	for _, diag := range d.All() {
		if diag.Code == code {
			out = append(out, diag)
		}
	}

	return out
}

// Counts returns the number of diagnostics per code, sorted by code.
func (d *Diagnostics) Counts() []CodeCount {
	counts := make(map[string]int)
	for _, diag := range d.All() {
		counts[diag.Code]++
	}

	out := make([]CodeCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, CodeCount{Code: code, Count: n})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return out
}

// CodeCount is the number of diagnostics sharing one code.
type CodeCount struct {
	Code  string
	Count int
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Object != "" {
		prefix = append(prefix, "["+d.Object+"]")
	}

	if d.Address != "" {
		prefix = append(prefix, d.Address)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
