package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_Collect(t *testing.T) {
	var d Diagnostics

	d.AddInfo(CodeReservedID, "reserved id 1001", "Community:42", "")
	d.AddWarning(CodeUnclassifiedID, "literal 17 has no type", "Application:312", "param \"x\"")
	d.AddWarning(CodeUnclassifiedID, "literal 18 has no type", "Application:312", "")

	assert.True(t, d.IsValid())
	assert.False(t, d.HasErrors())
	require.NoError(t, d.Error())
	assert.Len(t, d.All(), 3)
	assert.Len(t, d.WithCode(CodeUnclassifiedID), 2)
	assert.Equal(t, []CodeCount{
		{Code: CodeReservedID, Count: 1},
		{Code: CodeUnclassifiedID, Count: 2},
	}, d.Counts())

	d.AddError(CodeMissingReference, "boom", "", "")
	assert.True(t, d.HasErrors())
	require.EqualError(t, d.Error(), "[missing-reference] boom")
	assert.Equal(t, DiagnosticError, d.All()[0].Severity)
}

func TestDiagnostics_Merge(t *testing.T) {
	var a, b Diagnostics

	a.AddWarning(CodeMissingParent, "w", "", "")
	b.AddError(CodeMissingReference, "e", "", "")
	b.AddInfo(CodeReservedID, "i", "", "")

	a.Merge(b)

	assert.Len(t, a.Errors, 1)
	assert.Len(t, a.Warnings, 1)
	assert.Len(t, a.Infos, 1)
}

func TestDiagnostic_String(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "message only",
			d:    Diagnostic{Message: "plain"},
			want: "plain",
		},
		{
			name: "full",
			d: Diagnostic{
				Code:    CodeMissingParent,
				Message: "state 3 has no workflow",
				Object:  "Application:312",
				Address: "value side of \"sys_stateid = 3\"",
			},
			want: "[Application:312] value side of \"sys_stateid = 3\": [missing-parent] state 3 has no workflow",
		},
		{
			name: "suggestions",
			d: Diagnostic{
				Code:        CodeUnclassifiedID,
				Message:     "no type for comunityid",
				Suggestions: []string{"communityid"},
			},
			want: "[unclassified-id] no type for comunityid (did you mean communityid?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.String())
		})
	}
}

func TestDiagnosticSeverity_String(t *testing.T) {
	assert.Equal(t, "info", DiagnosticInfo.String())
	assert.Equal(t, "warning", DiagnosticWarning.String())
	assert.Equal(t, "error", DiagnosticError.String())
	assert.Equal(t, "unknown", DiagnosticSeverity(9).String())
}
