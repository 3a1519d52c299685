// Package fabrica is a test-data factory engine: it builds or
// persists instances of your model types from declaratively-defined
// attribute values, with inheritance between factories, named traits,
// inter-attribute dependencies resolved in topological order,
// transient helper values, lifecycle hooks, and associations that
// build related objects alongside their parent.
//
// Factories are defined against a Registry and addressed by model
// type plus an optional alias:
//
//	reg := fabrica.New()
//
//	fabrica.Define[User](reg).
//		Set("Name", "John").
//		Set("Email", fabrica.Computed(func(name string) string {
//			return strings.ToLower(name) + "@example.com"
//		}, "Name"))
//
//	user, err := fabrica.Build[User](reg)
//
// Build constructs instances in memory; Create additionally runs the
// persistence callback declared with Storage (or supplied per call
// with WithStorage). AttributesFor returns the resolved attribute
// map without constructing anything.
//
// Attribute values come from providers: constants, Computed
// functions over other attributes, stateful Sequence counters,
// repeating Cycle lists, and RandomValue picks. Provider
// dependencies form a graph that is resolved in topological order; a
// cycle fails the build with a CyclicDependencyError describing the
// offending edges.
//
// Unset model fields are seeded with placeholder defaults from a
// pluggable Stubber, so a factory only has to declare the attributes
// it cares about. Explicit declarations, trait declarations, and
// caller overrides each shadow the layer below them.
//
// A Registry and the stateful providers registered on it are not
// safe for concurrent use; the engine is synchronous and
// single-threaded, including re-entrant Build/Create calls made from
// inside hooks.
package fabrica
