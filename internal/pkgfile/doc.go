// Package pkgfile builds and loads package directories.
//
// A package holds the dependency closure of one or more root objects:
//
//	package.yaml
//	<Type>/<Key>/object.yaml
//	<Type>/<Key>/idtypes.xml
//	<Type>/<Key>/files/...
//
// The manifest lists the objects in install order (children first) with
// their dependency level. Loading decodes every id type address through
// the codec registry and fails on unknown address tags.
package pkgfile
