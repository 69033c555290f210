package dependency

import (
	"errors"
	"fmt"
	"sort"
)

// topoLevels groups indices into levels: every index comes after all the
// indices it depends on, and each level holds the indices whose
// dependencies are all in earlier levels.
//
// Nodes are by index in the input slice.
// depsFn(i) yields indices that must be handled before i.
//
// Levels are sorted by index. If a cycle exists, an error is returned.
func topoLevels(n int, depsFn func(i int) []int) ([][]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		deps := depsFn(i)
		for _, d := range deps {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("dependency index out of range: %d depends on %d", i, d)
			}

			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	var (
		levels [][]int
		done   int
	)

	for len(ready) > 0 {
		sort.Ints(ready)
		levels = append(levels, ready)
		done += len(ready)

		var next []int

		for _, i := range ready {
			for _, j := range out[i] {
				indeg[j]--
				if indeg[j] == 0 {
					next = append(next, j)
				}
			}
		}

		ready = next
	}

	if done != n {
		return nil, errors.New("cycle detected")
	}

	return levels, nil
}
