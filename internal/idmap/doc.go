// Package idmap translates identifiers valid on a source system into
// identifiers valid on a target system.
//
// A map is stored as YAML:
//
//	source: dev
//	target: prod
//	entries:
//	  - type: Community
//	    source: "42"
//	    target: "7"
//	  - type: State
//	    source: "3"
//	    target: "4"
//	    parent: "5"
//
// Entries are keyed by type, source id and parent source id. Ids that are
// missing from the map can be minted with Reserve; such entries are marked
// new and written back with the map.
package idmap
