package pkgfile

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects auxiliary files by doublestar patterns on their relative
// path. An empty include list selects every file; excludes win.
type Filter struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// Validate checks the patterns.
func (f Filter) Validate() error {
	for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid file pattern %q", p)
		}
	}

	return nil
}

// Match reports whether the file at rel is selected.
func (f Filter) Match(rel string) bool {
	for _, p := range f.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}

	if len(f.Include) == 0 {
		return true
	}

	for _, p := range f.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}

	return false
}
