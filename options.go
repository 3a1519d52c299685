package fabrica

import "math/rand"

// RegistryOption configures a Registry at construction.
type RegistryOption func(*Registry)

// WithRandom injects the random source shared by RandomValue
// providers and the default stub collaborator.
func WithRandom(r *rand.Rand) RegistryOption {
	return func(reg *Registry) { reg.rand = r }
}

// WithSeed seeds the registry's random source deterministically.
func WithSeed(seed int64) RegistryOption {
	return func(reg *Registry) { reg.rand = rand.New(rand.NewSource(seed)) }
}

// WithStubber replaces the default-value collaborator that seeds
// placeholder attributes for unset model fields.
func WithStubber(s Stubber) RegistryOption {
	return func(reg *Registry) { reg.stubber = s }
}

// buildOptions carries the per-call configuration of Build, Create
// and AttributesFor.
type buildOptions struct {
	alias     string
	traits    []string
	overrides Overrides
	refine    Refine
	storage   Persist
}

func newBuildOptions(opts []BuildOption) *buildOptions {
	o := &buildOptions{overrides: Overrides{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// BuildOption configures one Build/Create/AttributesFor call.
type BuildOption func(*buildOptions)

// WithAlias targets an aliased factory instead of the default one.
func WithAlias(alias string) BuildOption {
	return func(o *buildOptions) { o.alias = alias }
}

// WithTraits activates the named traits, applied in declaration
// order during flattening.
func WithTraits(traits ...string) BuildOption {
	return func(o *buildOptions) { o.traits = append(o.traits, traits...) }
}

// WithOverrides merges the given overrides into the call.
func WithOverrides(overrides Overrides) BuildOption {
	return func(o *buildOptions) {
		for k, v := range overrides {
			o.overrides[k] = v
		}
	}
}

// WithOverride overrides a single attribute.
func WithOverride(attr string, value any) BuildOption {
	return func(o *buildOptions) { o.overrides[attr] = value }
}

// WithRefine installs a free-form touch-up applied to each instance
// after every other step, including persistence; refinements are not
// reflected in the persisted snapshot.
func WithRefine(refine Refine) BuildOption {
	return func(o *buildOptions) { o.refine = refine }
}

// WithStorage overrides the persistence callback for this Create
// call, taking precedence over any factory-declared one. Build
// ignores it.
func WithStorage(p Persist) BuildOption {
	return func(o *buildOptions) { o.storage = p }
}

// AssocOption configures a declared association.
type AssocOption func(*associateStage)

// WithAssocOverrides sets the association's own override map,
// applied to the nested build. Values may be Lookup correlations.
func WithAssocOverrides(overrides Overrides) AssocOption {
	return func(st *associateStage) {
		for k, v := range overrides {
			st.overrides[k] = v
		}
	}
}

// WithAssocStrategy selects whether the association builds or
// creates its related instance. The default is create.
func WithAssocStrategy(s Strategy) AssocOption {
	return func(st *associateStage) { st.strategy = s }
}
