// Package dependency discovers which objects an object depends on and
// orders them for installation.
//
// A Handler per object type reports the children of one object: roles
// from its ACL, explicit references, stylesheets and their includes,
// extensions it calls, its parent, and the objects whose literal ids it
// carries (found by the idtypes child table). Applications also depend on
// the schemas of their pipe tables. References to missing objects are
// omitted, never errors.
//
// The Resolver follows children transitively into a Graph. Shared children
// become one node; a reference back to an object on the current path is
// reported as a cycle and not followed. Graph.Levels returns install
// levels with children before parents.
package dependency
