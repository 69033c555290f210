package idmap

import (
	"strconv"
	"sync"

	"content-mover/internal/model"
)

// SequenceAllocator hands out increasing numeric ids per type, starting
// after the highest id seeded for the type.
type SequenceAllocator struct {
	mu   sync.Mutex
	last map[model.ObjectType]int64
}

// NewSequenceAllocator returns an allocator seeded with the highest id in
// use per type.
func NewSequenceAllocator(seeds map[model.ObjectType]int64) *SequenceAllocator {
	a := &SequenceAllocator{last: make(map[model.ObjectType]int64, len(seeds))}
	for t, n := range seeds {
		a.last[t] = n
	}

	return a
}

// Seed raises the last used id of t to n. Lower values are ignored.
func (a *SequenceAllocator) Seed(t model.ObjectType, n int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n > a.last[t] {
		a.last[t] = n
	}
}

// Next implements Allocator.
func (a *SequenceAllocator) Next(t model.ObjectType) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.last[t]++

	return strconv.FormatInt(a.last[t], 10), nil
}
