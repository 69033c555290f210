package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDependencyID(t *testing.T) {
	id, err := ParseDependencyID("Slot:510")
	require.NoError(t, err)
	assert.Equal(t, DependencyID{Type: TypeSlot, Key: "510"}, id)
	assert.Equal(t, "Slot:510", id.String())

	id, err = ParseDependencyID("Schema:RX:X")
	require.NoError(t, err)
	assert.Equal(t, "RX:X", id.Key)

	for _, bad := range []string{"", "Slot", "Slot:", ":5", "Gadget:1"} {
		_, err := ParseDependencyID(bad)
		assert.Error(t, err, bad)
	}

	assert.True(t, DependencyID{}.IsZero())
}

func TestCategory_YAML(t *testing.T) {
	var v struct {
		C Category `yaml:"c"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("c: shared"), &v))
	assert.Equal(t, CategoryShared, v.C)

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "c: shared\n", string(out))

	require.Error(t, yaml.Unmarshal([]byte("c: public"), &v))

	assert.Equal(t, "unknown", Category(9).String())
}

func TestDependency(t *testing.T) {
	o := &Object{Type: TypeState, ID: "3", Name: "Public", Parent: &ObjectRef{Type: TypeWorkflow, ID: "5"}}

	d := NewDependency(o, CategoryShared)
	require.NotNil(t, d.Parent)
	assert.Equal(t, DependencyID{Type: TypeWorkflow, Key: "5"}, *d.Parent)
	assert.Equal(t, "State:3 (Public)", d.String())

	plain := NewDependency(&Object{Type: TypeSite, ID: "301"}, CategoryLocal)
	assert.Equal(t, "Site:301", plain.String())
	assert.Nil(t, plain.Parent)

	deps := []*Dependency{d, plain, {ID: DependencyID{Type: TypeSite, Key: "300"}}}
	SortDependencies(deps)
	assert.Equal(t, "Site:300", deps[0].ID.String())
	assert.Equal(t, "Site:301", deps[1].ID.String())
	assert.Equal(t, "State:3", deps[2].ID.String())
}
