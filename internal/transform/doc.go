// Package transform rewrites the literal ids of an object with an id map.
//
// Each mapping of an idtypes.ApplicationIdTypes names the source id found
// at one address. The engine looks that source id up in the map, updates
// the value held by a clone of the mapping's chain and writes it back into
// the object through idtypes.Locate. Chains of one resource element are
// linked in an idctx.Network first, so that two addresses of the same
// conditional or data mapping see each other's updates before either is
// written back.
//
// Lookups always use the recorded source id, never the value currently in
// the object, so a second pass with the same inputs changes nothing.
package transform
