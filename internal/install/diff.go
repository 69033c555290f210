package install

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"content-mover/internal/model"
)

// Action is what an install did to one file.
type Action string

const (
	ActionCreated   Action = "created"
	ActionModified  Action = "modified"
	ActionDeleted   Action = "deleted"
	ActionUnchanged Action = "unchanged"
)

// FileChange is the diff result for one file path.
type FileChange struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
}

// Diff compares the files present on the target, given as content
// digests, with the incoming files. The result is sorted by path.
func Diff(existing map[string]uint64, incoming map[string][]byte) []FileChange {
	out := make([]FileChange, 0, len(existing)+len(incoming))

	for p, data := range incoming {
		old, ok := existing[p]

		switch {
		case !ok:
			out = append(out, FileChange{Path: p, Action: ActionCreated})
		case old != xxhash.Sum64(data):
			out = append(out, FileChange{Path: p, Action: ActionModified})
		default:
			out = append(out, FileChange{Path: p, Action: ActionUnchanged})
		}
	}

	for p := range existing {
		if _, ok := incoming[p]; !ok {
			out = append(out, FileChange{Path: p, Action: ActionDeleted})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})

	return out
}

// changed drops unchanged files.
func changed(changes []FileChange) []FileChange {
	var out []FileChange

	for _, c := range changes {
		if c.Action != ActionUnchanged {
			out = append(out, c)
		}
	}

	return out
}

// definitionDigest hashes the serialized definition so a reinstall can
// tell whether object.yaml changed.
func definitionDigest(o *model.Object) (uint64, error) {
	data, err := model.MarshalObject(o)
	if err != nil {
		return 0, fmt.Errorf("failed to digest definition: %w", err)
	}

	return xxhash.Sum64(data), nil
}
