// Package match suggests the intended name when a lookup misses: an unknown
// address element tag or a field name missing from a classification table.
//
// Names are compared after NormalizeIdent by their Levenshtein similarity.
package match
