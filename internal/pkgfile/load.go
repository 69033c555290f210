package pkgfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"content-mover/internal/idctx"
	"content-mover/internal/idtypes"
	"content-mover/internal/install"
	"content-mover/internal/model"
)

// Package is a loaded package directory.
type Package struct {
	Dir      string
	Manifest *Manifest
	Items    []*install.Item
}

// Load reads the package in dir. Every object, id types file and file
// listed in the manifest must be present.
func Load(dir string, reg *idctx.Registry) (*Package, error) {
	m, err := LoadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	p := &Package{Dir: dir, Manifest: m}

	for _, e := range m.Objects {
		item, err := loadItem(dir, e, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", e.ID(), err)
		}

		p.Items = append(p.Items, item)
	}

	return p, nil
}

func loadItem(dir string, e Entry, reg *idctx.Registry) (*install.Item, error) {
	objDir, err := objectDir(dir, e.ID())
	if err != nil {
		return nil, err
	}

	obj, err := model.LoadObjectFile(filepath.Join(objDir, definitionFile))
	if err != nil {
		return nil, err
	}

	if obj.Key() != e.ID() {
		return nil, fmt.Errorf("%w: definition declares %s", model.ErrMalformedObject, obj.Key())
	}

	if err := obj.Validate(); err != nil {
		return nil, err
	}

	item := &install.Item{Object: obj, Files: make(map[string][]byte, len(e.Files))}

	types, err := idtypes.LoadFile(filepath.Join(objDir, idtypes.FileName), reg)

	switch {
	case err == nil:
		if types.Owner != obj.Key() {
			return nil, fmt.Errorf("id types belong to %s", types.Owner)
		}

		item.IdTypes = types
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	for _, rel := range e.Files {
		data, err := os.ReadFile(filepath.Join(objDir, filesDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", rel, err)
		}

		item.Files[rel] = data
	}

	return item, nil
}

// Levels groups the items by dependency level for install.
func (p *Package) Levels() [][]*install.Item {
	out := make([][]*install.Item, p.Manifest.Levels())
	for i, e := range p.Manifest.Objects {
		out[e.Level] = append(out[e.Level], p.Items[i])
	}

	return out
}

// Item returns the packaged item of id.
func (p *Package) Item(id model.DependencyID) (*install.Item, bool) {
	for _, it := range p.Items {
		if it.Key() == id {
			return it, true
		}
	}

	return nil, false
}
