package pkgfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"content-mover/internal/dependency"
	"content-mover/internal/diagnostic"
	"content-mover/internal/idtypes"
	"content-mover/internal/model"
)

const (
	definitionFile = "object.yaml"
	filesDir       = "files"
)

// Source is the system objects are packaged from.
type Source interface {
	model.Catalog
	FileNames(id model.DependencyID) []string
	ReadFile(id model.DependencyID, path string) ([]byte, error)
}

// BuildOptions configure a Builder.
type BuildOptions struct {
	Name   string
	Source string
	Files  Filter
	// IncludeSystem packages system objects too. They exist on every
	// target, so they are left out by default.
	IncludeSystem bool
}

// Builder writes packages.
type Builder struct {
	src      Source
	resolver *dependency.Resolver
	engine   *idtypes.Engine
	opts     BuildOptions
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(src Source, resolver *dependency.Resolver, engine *idtypes.Engine, opts BuildOptions, log *zap.SugaredLogger) *Builder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Builder{src: src, resolver: resolver, engine: engine, opts: opts, log: log, now: time.Now}
}

// BuildResult is a written package.
type BuildResult struct {
	Manifest    *Manifest
	Diagnostics diagnostic.Diagnostics
}

// Build resolves the dependency closure of roots and writes it to dir.
func (b *Builder) Build(dir string, roots ...model.DependencyID) (*BuildResult, error) {
	if err := b.opts.Files.Validate(); err != nil {
		return nil, err
	}

	graph, err := b.resolver.Resolve(roots...)
	if err != nil {
		return nil, err
	}

	levels, err := graph.Levels()
	if err != nil {
		return nil, err
	}

	res := &BuildResult{
		Manifest: &Manifest{
			Name:    b.opts.Name,
			Source:  b.opts.Source,
			Created: b.now().UTC().Truncate(time.Second),
		},
		Diagnostics: graph.Diagnostics,
	}

	for _, r := range roots {
		res.Manifest.Roots = append(res.Manifest.Roots, r.String())
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create package directory: %w", err)
	}

	level := 0

	for _, deps := range levels {
		written := 0

		for _, dep := range deps {
			if dep.Category == model.CategorySystem && !b.opts.IncludeSystem {
				continue
			}

			entry, err := b.object(dir, dep, level, &res.Diagnostics)
			if err != nil {
				return nil, err
			}

			res.Manifest.Objects = append(res.Manifest.Objects, entry)
			written++
		}

		if written > 0 {
			level++
		}
	}

	if err := WriteManifest(res.Manifest, filepath.Join(dir, ManifestFile)); err != nil {
		return nil, err
	}

	b.log.Infow("built package",
		"dir", dir,
		"objects", len(res.Manifest.Objects),
		"levels", level,
		"warnings", len(res.Diagnostics.Warnings))

	return res, nil
}

func (b *Builder) object(dir string, dep *model.Dependency, level int, diags *diagnostic.Diagnostics) (Entry, error) {
	obj, err := b.src.Object(dep.ID)
	if err != nil {
		return Entry{}, err
	}

	objDir, err := objectDir(dir, dep.ID)
	if err != nil {
		return Entry{}, err
	}

	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("failed to create %s: %w", objDir, err)
	}

	if err := model.WriteObjectFile(obj, filepath.Join(objDir, definitionFile)); err != nil {
		return Entry{}, err
	}

	d, err := b.engine.Discover(obj)
	if err != nil {
		return Entry{}, err
	}

	diags.Merge(d.Diagnostics)

	if d.IdTypes.Len() > 0 {
		if err := idtypes.WriteFile(d.IdTypes, filepath.Join(objDir, idtypes.FileName)); err != nil {
			return Entry{}, err
		}
	}

	entry := Entry{
		Type:     dep.ID.Type,
		Key:      dep.ID.Key,
		Name:     obj.Name,
		Category: dep.Category,
		Level:    level,
	}

	if dep.Parent != nil {
		entry.Parent = dep.Parent.String()
	}

	for _, rel := range b.src.FileNames(dep.ID) {
		if !b.opts.Files.Match(rel) {
			continue
		}

		data, err := b.src.ReadFile(dep.ID, rel)
		if err != nil {
			return Entry{}, err
		}

		path := filepath.Join(objDir, filesDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Entry{}, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return Entry{}, fmt.Errorf("failed to write %s: %w", path, err)
		}

		entry.Files = append(entry.Files, rel)
	}

	return entry, nil
}

func objectDir(dir string, id model.DependencyID) (string, error) {
	if id.Key == "" || id.Key == "." || id.Key == ".." || strings.ContainsAny(id.Key, `/\`) {
		return "", fmt.Errorf("cannot package %s: key is not a valid directory name", id)
	}

	return filepath.Join(dir, string(id.Type), id.Key), nil
}
