// Package idctx models portable addresses of literal values inside a
// configuration object.
//
// An address is a Chain of Nodes. The leaf is the segment closest to the
// literal; following parents leads to the root, which stands for the
// object's top. Every Node carries one of thirteen payload variants
// (IndexedItem, NamedItem, ConditionalSide, MappingSide, DisplayMapper,
// Entry, ExtensionCall, ExtensionParam, UISet, URLRequest, Binding,
// BindingParam, Field). Variants that embed object data keep both the
// current and the original value, see Versioned.
//
// Chains round-trip through a tag-keyed XML form:
//
//	<ConditionalContext side="value">
//	  <Conditional operator="=">
//	    <Variable kind="param">sys_communityid</Variable>
//	    <Value kind="number">42</Value>
//	  </Conditional>
//	  <Parent>
//	    <IndexedItemContext type="conditional" index="0"></IndexedItemContext>
//	  </Parent>
//	</ConditionalContext>
//
// A Registry decodes that form; unknown element names are rejected.
//
// # Aliases
//
// Two chains may address the same value through different paths, for
// example the backend and the document side of one data mapping.
// Network.CheckAddListener detects this with a tandem walk over both
// chains and links the aliased nodes; Network.Notify then pushes an update
// made through one chain to the other. Networks live for one
// transformation pass and are torn down with Drop.
package idctx
