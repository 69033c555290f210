package store

import (
	"errors"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"content-mover/internal/model"
)

// ErrInvalidPath is returned for file paths that escape an object's file
// area.
var ErrInvalidPath = errors.New("invalid file path")

// Digest returns the content hash stored for files.
func Digest(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// maxNumericIDs returns the highest numeric key per type.
func maxNumericIDs(ids []model.DependencyID) map[model.ObjectType]int64 {
	out := make(map[model.ObjectType]int64)

	for _, id := range ids {
		n, err := strconv.ParseInt(id.Key, 10, 64)
		if err != nil {
			continue
		}

		if n > out[id.Type] {
			out[id.Type] = n
		}
	}

	return out
}

func sortObjects(objs []*model.Object) {
	sort.Slice(objs, func(i, j int) bool {
		return objs[i].ID < objs[j].ID
	})
}
