package pkgfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-mover/internal/dependency"
	"content-mover/internal/idctx"
	"content-mover/internal/idmap"
	"content-mover/internal/idtypes"
	"content-mover/internal/install"
	"content-mover/internal/model"
	"content-mover/internal/store"
)

var (
	appID       = model.DependencyID{Type: model.TypeApplication, Key: "312"}
	communityID = model.DependencyID{Type: model.TypeCommunity, Key: "42"}
	roleID      = model.DependencyID{Type: model.TypeRole, Key: "Admin"}
)

func sourceSystem(t *testing.T) *store.MemStore {
	t.Helper()

	src := store.NewMemStore()

	app := &model.Object{
		Type:   model.TypeApplication,
		ID:     "312",
		Name:   "news",
		Policy: model.Policy{Enabled: true},
		ACL:    []model.ACLEntry{{Role: "Admin"}},
		Resources: []model.Resource{{
			Name: "main",
			Conditionals: []model.Conditional{
				{Variable: model.ParamRef("sys_communityid"), Operator: "=", Value: model.Number("42")},
			},
		}},
	}

	require.NoError(t, src.Put(app, map[string][]byte{
		"scripts/app.js": []byte("run()"),
		"notes.tmp":      []byte("scratch"),
	}))
	require.NoError(t, src.Put(&model.Object{Type: model.TypeCommunity, ID: "42", Name: "Corporate"}, nil))
	require.NoError(t, src.Put(&model.Object{Type: model.TypeRole, ID: "Admin", System: true}, nil))

	return src
}

func newBuilder(src *store.MemStore, opts BuildOptions) *Builder {
	engine := idtypes.NewEngine(nil, nil, nil)
	resolver := dependency.NewResolver(dependency.NewRegistry(src, engine), dependency.DefaultConfig(), nil)

	b := NewBuilder(src, resolver, engine, opts, nil)
	b.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return b
}

func TestBuild_WritesClosureInInstallOrder(t *testing.T) {
	dir := t.TempDir()

	res, err := newBuilder(sourceSystem(t), BuildOptions{
		Name:   "news",
		Source: "dev",
		Files:  Filter{Exclude: []string{"**/*.tmp"}},
	}).Build(dir, appID)
	require.NoError(t, err)

	m := res.Manifest
	assert.Equal(t, "news", m.Name)
	assert.Equal(t, []string{"Application:312"}, m.Roots)
	assert.Equal(t, []Entry{
		{Type: model.TypeCommunity, Key: "42", Name: "Corporate", Category: model.CategoryLocal, Level: 0},
		{Type: model.TypeApplication, Key: "312", Name: "news", Category: model.CategoryLocal, Level: 1, Files: []string{"scripts/app.js"}},
	}, m.Objects, "system objects are left out")

	assert.FileExists(t, filepath.Join(dir, ManifestFile))
	assert.FileExists(t, filepath.Join(dir, "Application", "312", "object.yaml"))
	assert.FileExists(t, filepath.Join(dir, "Application", "312", idtypes.FileName))
	assert.FileExists(t, filepath.Join(dir, "Application", "312", "files", "scripts", "app.js"))
	assert.NoFileExists(t, filepath.Join(dir, "Application", "312", "files", "notes.tmp"))
	assert.NoFileExists(t, filepath.Join(dir, "Community", "42", idtypes.FileName), "objects without ids get no id types file")

	got, err := LoadManifest(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestBuild_IncludeSystem(t *testing.T) {
	res, err := newBuilder(sourceSystem(t), BuildOptions{IncludeSystem: true}).Build(t.TempDir(), appID)
	require.NoError(t, err)

	var ids []model.DependencyID
	for _, e := range res.Manifest.Objects {
		ids = append(ids, e.ID())
	}

	assert.Equal(t, []model.DependencyID{communityID, roleID, appID}, ids)
	assert.Equal(t, 2, res.Manifest.Levels())
}

func TestBuild_Errors(t *testing.T) {
	_, err := newBuilder(sourceSystem(t), BuildOptions{Files: Filter{Include: []string{"[a-"}}}).Build(t.TempDir(), appID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file pattern")

	_, err = newBuilder(sourceSystem(t), BuildOptions{}).Build(t.TempDir(), model.DependencyID{Type: model.TypeApplication, Key: "999"})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	_, err := newBuilder(sourceSystem(t), BuildOptions{}).Build(dir, appID)
	require.NoError(t, err)

	p, err := Load(dir, idctx.NewRegistry())
	require.NoError(t, err)

	levels := p.Levels()
	require.Len(t, levels, 2)
	require.Len(t, levels[0], 1)
	require.Len(t, levels[1], 1)
	assert.Equal(t, communityID, levels[0][0].Key())

	app, ok := p.Item(appID)
	require.True(t, ok)
	require.NotNil(t, app.IdTypes)
	assert.Equal(t, 1, app.IdTypes.Len())
	assert.Equal(t, map[string][]byte{
		"notes.tmp":      []byte("scratch"),
		"scripts/app.js": []byte("run()"),
	}, app.Files)

	community, ok := p.Item(communityID)
	require.True(t, ok)
	assert.Nil(t, community.IdTypes)

	_, ok = p.Item(roleID)
	assert.False(t, ok)
}

func TestLoad_UnknownAddressTagFails(t *testing.T) {
	dir := t.TempDir()

	_, err := newBuilder(sourceSystem(t), BuildOptions{}).Build(dir, appID)
	require.NoError(t, err)

	path := filepath.Join(dir, "Application", "312", idtypes.FileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(string(data), "ConditionalContext", "ConditionalContex")), 0o644))

	_, err = Load(dir, idctx.NewRegistry())
	require.ErrorIs(t, err, idctx.ErrMalformedAddress)
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := newBuilder(sourceSystem(t), BuildOptions{}).Build(dir, appID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "Application", "312", "files", "scripts", "app.js")))

	_, err = Load(dir, idctx.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scripts/app.js")
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "bad yaml", yaml: "objects: [", want: "failed to parse manifest"},
		{name: "unknown type", yaml: "objects:\n  - {type: Gadget, key: '1'}\n", want: "invalid id"},
		{name: "duplicate", yaml: "objects:\n  - {type: Slot, key: '1'}\n  - {type: Slot, key: '1'}\n", want: "listed twice"},
		{name: "negative level", yaml: "objects:\n  - {type: Slot, key: '1', level: -1}\n", want: "negative level"},
		{name: "file escapes object", yaml: "objects:\n  - {type: Slot, key: '1', files: ['../secret']}\n", want: "invalid file path"},
		{name: "absolute file", yaml: "objects:\n  - {type: Slot, key: '1', files: ['/etc/passwd']}\n", want: "invalid file path"},
		{name: "unclean file", yaml: "objects:\n  - {type: Slot, key: '1', files: ['img/../../x']}\n", want: "invalid file path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	f := Filter{Include: []string{"**/*.js", "*.xsl"}, Exclude: []string{"vendor/**"}}

	assert.True(t, f.Match("scripts/app.js"))
	assert.True(t, f.Match("article.xsl"))
	assert.False(t, f.Match("img/logo.svg"))
	assert.False(t, f.Match("vendor/lib.js"))
	assert.True(t, Filter{}.Match("anything"))
}

// Packages built on one system install into another with remapped ids.
func TestPackage_InstallsIntoTarget(t *testing.T) {
	dir := t.TempDir()

	_, err := newBuilder(sourceSystem(t), BuildOptions{}).Build(dir, appID)
	require.NoError(t, err)

	p, err := Load(dir, idctx.NewRegistry())
	require.NoError(t, err)

	m := idmap.New("dev", "prod")
	require.NoError(t, m.Add(idmap.Entry{Type: model.TypeCommunity, Source: "42", Target: "7"}))

	target := store.NewDirStore(t.TempDir())
	ictx := install.NewImportContext(m, install.Overrides{})

	b := install.NewInstaller(target, install.Options{}).InstallLevels(context.Background(), p.Levels(), ictx)
	require.NoError(t, b.Err())
	assert.Len(t, b.Committed, 2)

	// The community is installed under its mapped id.
	community := model.DependencyID{Type: model.TypeCommunity, Key: "7"}
	assert.Equal(t, community, b.Targets[model.DependencyID{Type: model.TypeCommunity, Key: "42"}])

	_, err = target.Definition(community)
	require.NoError(t, err)

	got, err := target.Definition(appID)
	require.NoError(t, err)
	assert.Equal(t, "7", got.Resources[0].Conditionals[0].Value.Text)
	assert.True(t, target.Running(appID))

	data, err := target.ReadFile(appID, "scripts/app.js")
	require.NoError(t, err)
	assert.Equal(t, "run()", string(data))
}
