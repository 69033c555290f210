// Package diagnostic collects warnings and notes produced while scanning,
// packaging and installing objects.
//
// Key capabilities:
//   - Literal ids that match no classification entry
//   - Deferred id types dropped for lack of a parent
//   - Missing references omitted from dependency sets
//   - Install steps skipped for undefined id types
package diagnostic
