package store

import (
	"fmt"
	"sort"
	"sync"

	"content-mover/internal/model"
)

// MemStore keeps objects and their files in memory. Objects are copied on
// the way in and out.
type MemStore struct {
	mu      sync.RWMutex
	objects map[model.DependencyID]*model.Object
	files   map[model.DependencyID]map[string][]byte
	running map[model.DependencyID]bool
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[model.DependencyID]*model.Object),
		files:   make(map[model.DependencyID]map[string][]byte),
		running: make(map[model.DependencyID]bool),
	}
}

// Put stores a copy of obj together with its files.
func (s *MemStore) Put(obj *model.Object, files map[string][]byte) error {
	c, err := obj.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[obj.Key()] = c

	fs := make(map[string][]byte, len(files))
	for p, data := range files {
		fs[p] = append([]byte(nil), data...)
	}

	s.files[obj.Key()] = fs

	return nil
}

// Object implements model.Catalog.
func (s *MemStore) Object(id model.DependencyID) (*model.Object, error) {
	s.mu.RLock()
	o, ok := s.objects[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}

	return o.Clone()
}

// Objects implements model.Catalog.
func (s *MemStore) Objects(t model.ObjectType) []*model.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Object

	for id, o := range s.objects {
		if id.Type != t {
			continue
		}

		if c, err := o.Clone(); err == nil {
			out = append(out, c)
		}
	}

	sortObjects(out)

	return out
}

// Definition returns the stored definition of id.
func (s *MemStore) Definition(id model.DependencyID) (*model.Object, error) {
	return s.Object(id)
}

// SaveDefinition replaces the stored definition of obj.
func (s *MemStore) SaveDefinition(obj *model.Object) error {
	c, err := obj.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[obj.Key()] = c
	if s.files[obj.Key()] == nil {
		s.files[obj.Key()] = make(map[string][]byte)
	}

	return nil
}

// Files returns the digests of id's files keyed by relative path.
func (s *MemStore) Files(id model.DependencyID) (map[string]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]uint64, len(s.files[id]))
	for p, data := range s.files[id] {
		out[p] = Digest(data)
	}

	return out, nil
}

// ReadFile returns the content of one of id's files.
func (s *MemStore) ReadFile(id model.DependencyID, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[id][path]
	if !ok {
		return nil, fmt.Errorf("%w: %s file %s", model.ErrNotFound, id, path)
	}

	return append([]byte(nil), data...), nil
}

// WriteFile stores one of id's files.
func (s *MemStore) WriteFile(id model.DependencyID, path string, data []byte) error {
	if err := CheckPath(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.files[id] == nil {
		s.files[id] = make(map[string][]byte)
	}

	s.files[id][path] = append([]byte(nil), data...)

	return nil
}

// DeleteFile removes one of id's files. Deleting a missing file is a no-op.
func (s *MemStore) DeleteFile(id model.DependencyID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files[id], path)

	return nil
}

// FileNames returns id's file paths, sorted.
func (s *MemStore) FileNames(id model.DependencyID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.files[id]))
	for p := range s.files[id] {
		out = append(out, p)
	}

	sort.Strings(out)

	return out
}

// Stop marks id as stopped and reports whether it was running.
func (s *MemStore) Stop(id model.DependencyID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.running[id]
	s.running[id] = false

	return was, nil
}

// Start marks id as running.
func (s *MemStore) Start(id model.DependencyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running[id] = true

	return nil
}

// Running reports whether id is running.
func (s *MemStore) Running(id model.DependencyID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.running[id]
}

// MaxIDs returns the highest numeric id in use per type.
func (s *MemStore) MaxIDs() map[model.ObjectType]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]model.DependencyID, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}

	return maxNumericIDs(ids)
}
