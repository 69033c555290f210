package common

import "strings"

// LastSegment returns the part of a qualified name after the last '.', '/'
// or ':' separator. "RXARTICLE.COMMUNITYID" yields "COMMUNITYID".
func LastSegment(name string) string {
	if i := strings.LastIndexAny(name, "./:"); i >= 0 {
		return name[i+1:]
	}

	return name
}
