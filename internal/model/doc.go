// Package model defines the migratable configuration objects of a content
// system and the dependency records built around them.
//
// An Object is a nested tree: resources (datasets) hold params, conditionals,
// extension calls, data mappings, URL requests, result pages, content-item
// fields, display mappings and script bindings. Any Literal leaf of kind
// "text" or "number" may hold an identifier that is only valid on the system
// the object was created on.
//
// Object definitions are stored as YAML:
//
//	type: Application
//	id: "312"
//	name: rx_ce_article
//	policy:
//	  enabled: true
//	acl:
//	  - role: Editor
//	resources:
//	  - name: query
//	    pipe:
//	      tables: [{name: RXARTICLE}]
//	    conditionals:
//	      - variable: {kind: param, text: sys_communityid}
//	        operator: "="
//	        value: {kind: number, text: "42"}
//
// # Dependencies
//
// A Dependency is one instance of an object type (DependencyID "Type:Key")
// with its display name, category (local, shared or system), children and an
// optional parent reference for objects that only exist nested inside another
// one (a State inside a Workflow).
package model
