package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent folds s to lower case and drops '_', '-' and blanks, so
// that sys_communityid, sys-communityId and SYS_COMMUNITYID compare equal.
func NormalizeIdent(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

// trimIDSuffix drops a trailing "ids" or "id" from a normalized name unless
// nothing would be left.
func trimIDSuffix(s string) string {
	for _, suffix := range []string{"ids", "id"} {
		if len(s) > len(suffix) && strings.HasSuffix(s, suffix) {
			return s[:len(s)-len(suffix)]
		}
	}

	return s
}
