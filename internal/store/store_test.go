package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-mover/internal/model"
)

// system is the surface both stores share.
type system interface {
	model.Catalog
	Definition(id model.DependencyID) (*model.Object, error)
	SaveDefinition(obj *model.Object) error
	Files(id model.DependencyID) (map[string]uint64, error)
	ReadFile(id model.DependencyID, path string) ([]byte, error)
	WriteFile(id model.DependencyID, path string, data []byte) error
	DeleteFile(id model.DependencyID, path string) error
	FileNames(id model.DependencyID) []string
	Stop(id model.DependencyID) (bool, error)
	Start(id model.DependencyID) error
	Running(id model.DependencyID) bool
	MaxIDs() map[model.ObjectType]int64
}

func stores(t *testing.T) map[string]system {
	return map[string]system{
		"mem": NewMemStore(),
		"dir": NewDirStore(t.TempDir()),
	}
}

func slot(id string) *model.Object {
	return &model.Object{
		Type:      model.TypeSlot,
		ID:        id,
		Name:      "slot" + id,
		Resources: []model.Resource{{Name: model.DefaultResource}},
	}
}

func TestStore_Definitions(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Object(model.DependencyID{Type: model.TypeSlot, Key: "1"})
			require.ErrorIs(t, err, model.ErrNotFound)

			require.NoError(t, s.SaveDefinition(slot("20")))
			require.NoError(t, s.SaveDefinition(slot("3")))
			require.NoError(t, s.SaveDefinition(&model.Object{Type: model.TypeSite, ID: "web"}))

			got, err := s.Definition(model.DependencyID{Type: model.TypeSlot, Key: "20"})
			require.NoError(t, err)
			assert.Equal(t, "slot20", got.Name)

			got.Name = "changed"
			again, err := s.Object(got.Key())
			require.NoError(t, err)
			assert.Equal(t, "slot20", again.Name, "returned objects are copies")

			objs := s.Objects(model.TypeSlot)
			require.Len(t, objs, 2)
			assert.Equal(t, "20", objs[0].ID)
			assert.Equal(t, "3", objs[1].ID)

			assert.Empty(t, s.Objects(model.TypeFolder))

			assert.Equal(t, map[model.ObjectType]int64{model.TypeSlot: 20}, s.MaxIDs())
		})
	}
}

func TestStore_Files(t *testing.T) {
	id := model.DependencyID{Type: model.TypeTemplate, Key: "505"}

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			files, err := s.Files(id)
			require.NoError(t, err)
			assert.Empty(t, files)

			require.NoError(t, s.WriteFile(id, "bindings/main.js", []byte("a")))
			require.NoError(t, s.WriteFile(id, "layout.xsl", []byte("b")))

			files, err = s.Files(id)
			require.NoError(t, err)
			assert.Equal(t, map[string]uint64{
				"bindings/main.js": Digest([]byte("a")),
				"layout.xsl":       Digest([]byte("b")),
			}, files)

			data, err := s.ReadFile(id, "layout.xsl")
			require.NoError(t, err)
			assert.Equal(t, "b", string(data))

			require.NoError(t, s.DeleteFile(id, "layout.xsl"))
			require.NoError(t, s.DeleteFile(id, "layout.xsl"))
			assert.Equal(t, []string{"bindings/main.js"}, s.FileNames(id))

			_, err = s.ReadFile(id, "layout.xsl")
			require.ErrorIs(t, err, model.ErrNotFound)

			for _, bad := range []string{"", "/etc/passwd", "../x", "a/../../x", `a\b`} {
				require.ErrorIs(t, s.WriteFile(id, bad, nil), ErrInvalidPath, bad)
			}
		})
	}
}

func TestStore_StopStart(t *testing.T) {
	id := model.DependencyID{Type: model.TypeApplication, Key: "312"}

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			was, err := s.Stop(id)
			require.NoError(t, err)
			assert.False(t, was)

			require.NoError(t, s.Start(id))
			assert.True(t, s.Running(id))

			was, err = s.Stop(id)
			require.NoError(t, err)
			assert.True(t, was)
			assert.False(t, s.Running(id))
		})
	}
}

func TestMemStore_Put(t *testing.T) {
	s := NewMemStore()
	obj := slot("7")
	files := map[string][]byte{"a.txt": []byte("x")}

	require.NoError(t, s.Put(obj, files))

	obj.Name = "mutated"
	files["a.txt"][0] = 'y'

	got, err := s.Object(obj.Key())
	require.NoError(t, err)
	assert.Equal(t, "slot7", got.Name)

	data, err := s.ReadFile(obj.Key(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestDirStore_RejectsMismatchedDefinition(t *testing.T) {
	s := NewDirStore(t.TempDir())
	require.NoError(t, s.SaveDefinition(slot("7")))

	_, err := s.Object(model.DependencyID{Type: model.TypeSlot, Key: "../Slot/7"})
	require.ErrorIs(t, err, model.ErrNotFound)
}
