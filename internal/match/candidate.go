package match

import (
	"cmp"
	"slices"
)

// Thresholds for accepting a suggestion.
const (
	// MinScore is the lowest similarity a suggestion may have.
	MinScore = 0.7
	// MinGap is the lead the best candidate needs over the runner-up.
	MinGap = 0.05
)

// Candidate is a known name scored against a query.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every known name against query, best first. Names tie-break
// alphabetically.
func Rank(query string, names []string) []Candidate {
	q := NormalizeIdent(query)
	qs := trimIDSuffix(q)

	out := make([]Candidate, 0, len(names))

	for _, name := range names {
		n := NormalizeIdent(name)
		score := max(Similarity(n, q), Similarity(trimIDSuffix(n), qs))
		out = append(out, Candidate{Name: name, Score: score})
	}

	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}

// Closest returns the known name most similar to query. It fails when the
// best score stays below MinScore or the runner-up comes within MinGap.
func Closest(query string, names []string) (string, bool) {
	ranked := Rank(query, names)
	if len(ranked) == 0 || ranked[0].Score < MinScore {
		return "", false
	}

	if len(ranked) > 1 && ranked[0].Score-ranked[1].Score < MinGap {
		return "", false
	}

	return ranked[0].Name, true
}
