package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"content-mover/internal/model"
)

const (
	// DefinitionFile is the name of an object's definition inside its directory.
	DefinitionFile = "object.yaml"
	// FilesDir holds an object's auxiliary files.
	FilesDir = "files"

	runningMarker = ".running"
)

// DirStore keeps objects in a directory tree:
//
//	<root>/<Type>/<Key>/object.yaml
//	<root>/<Type>/<Key>/files/...
//	<root>/<Type>/<Key>/.running
type DirStore struct {
	root string
}

// NewDirStore returns a store rooted at root. The directory is created on
// first write.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

// Root returns the store's directory.
func (s *DirStore) Root() string {
	return s.root
}

func (s *DirStore) objectDir(id model.DependencyID) string {
	return filepath.Join(s.root, string(id.Type), id.Key)
}

func (s *DirStore) filePath(id model.DependencyID, rel string) (string, error) {
	if err := CheckPath(rel); err != nil {
		return "", err
	}

	return filepath.Join(s.objectDir(id), FilesDir, filepath.FromSlash(rel)), nil
}

// Object implements model.Catalog.
func (s *DirStore) Object(id model.DependencyID) (*model.Object, error) {
	if strings.ContainsAny(id.Key, `/\`) || id.Key == "." || id.Key == ".." {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}

	o, err := model.LoadObjectFile(filepath.Join(s.objectDir(id), DefinitionFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	if o.Key() != id {
		return nil, fmt.Errorf("%w: %s: definition declares %s", model.ErrMalformedObject, id, o.Key())
	}

	return o, nil
}

// Objects implements model.Catalog. Unreadable definitions are skipped.
func (s *DirStore) Objects(t model.ObjectType) []*model.Object {
	entries, err := os.ReadDir(filepath.Join(s.root, string(t)))
	if err != nil {
		return nil
	}

	var out []*model.Object

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		o, err := s.Object(model.DependencyID{Type: t, Key: e.Name()})
		if err != nil {
			continue
		}

		out = append(out, o)
	}

	sortObjects(out)

	return out
}

// Definition returns the stored definition of id.
func (s *DirStore) Definition(id model.DependencyID) (*model.Object, error) {
	return s.Object(id)
}

// SaveDefinition writes obj's definition file.
func (s *DirStore) SaveDefinition(obj *model.Object) error {
	dir := s.objectDir(obj.Key())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create object directory %s: %w", dir, err)
	}

	return model.WriteObjectFile(obj, filepath.Join(dir, DefinitionFile))
}

// Files returns the digests of id's files keyed by slash-separated relative
// path.
func (s *DirStore) Files(id model.DependencyID) (map[string]uint64, error) {
	base := filepath.Join(s.objectDir(id), FilesDir)
	out := make(map[string]uint64)

	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == base {
				return filepath.SkipDir
			}

			return err
		}

		if d.IsDir() {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}

		out[filepath.ToSlash(rel)] = Digest(data)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %s: %w", id, err)
	}

	return out, nil
}

// ReadFile returns the content of one of id's files.
func (s *DirStore) ReadFile(id model.DependencyID, rel string) ([]byte, error) {
	p, err := s.filePath(id, rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s file %s", model.ErrNotFound, id, rel)
	}

	return data, err
}

// WriteFile writes one of id's files, creating parent directories.
func (s *DirStore) WriteFile(id model.DependencyID, rel string, data []byte) error {
	p, err := s.filePath(id, rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}

	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s file %s: %w", id, rel, err)
	}

	return nil
}

// DeleteFile removes one of id's files. Deleting a missing file is a no-op.
func (s *DirStore) DeleteFile(id model.DependencyID, rel string) error {
	p, err := s.filePath(id, rel)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s file %s: %w", id, rel, err)
	}

	return nil
}

// FileNames returns id's file paths, sorted.
func (s *DirStore) FileNames(id model.DependencyID) []string {
	files, err := s.Files(id)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}

	sort.Strings(out)

	return out
}

// Stop removes id's running marker and reports whether it was running.
func (s *DirStore) Stop(id model.DependencyID) (bool, error) {
	err := os.Remove(filepath.Join(s.objectDir(id), runningMarker))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to stop %s: %w", id, err)
	}

	return true, nil
}

// Start writes id's running marker.
func (s *DirStore) Start(id model.DependencyID) error {
	dir := s.objectDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to start %s: %w", id, err)
	}

	if err := os.WriteFile(filepath.Join(dir, runningMarker), nil, 0o644); err != nil {
		return fmt.Errorf("failed to start %s: %w", id, err)
	}

	return nil
}

// Running reports whether id is running.
func (s *DirStore) Running(id model.DependencyID) bool {
	_, err := os.Stat(filepath.Join(s.objectDir(id), runningMarker))

	return err == nil
}

// MaxIDs returns the highest numeric id in use per type.
func (s *DirStore) MaxIDs() map[model.ObjectType]int64 {
	var ids []model.DependencyID

	for _, t := range model.KnownTypes {
		entries, err := os.ReadDir(filepath.Join(s.root, string(t)))
		if err != nil {
			continue
		}

		for _, e := range entries {
			if e.IsDir() {
				ids = append(ids, model.DependencyID{Type: t, Key: e.Name()})
			}
		}
	}

	return maxNumericIDs(ids)
}

// CheckPath rejects file paths that are absolute, not in clean
// slash-separated form or leaving the file area.
func CheckPath(rel string) error {
	if rel == "" || path.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.Contains(rel, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}

	clean := path.Clean(rel)
	if clean != rel || clean == ".." || strings.HasPrefix(clean, "../") || clean == "." {
		return fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}

	return nil
}
