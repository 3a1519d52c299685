package fabrica

import (
	"fmt"
)

// Definition is the authoring handle returned by Define and Derive.
// Every declaration fans out to all the factories the handle covers,
// so defining several aliases at once shares one configuration.
type Definition struct {
	reg       *Registry
	factories []*factory
}

// Define registers (or reopens) a factory for model T under each
// alias. With no aliases it targets the default factory for T.
// Aliased factories are derived from T's default factory, which is
// created on demand, so aliases inherit the default declarations.
//
// Defining the same (model, alias) again returns a handle that
// appends to the existing factory's stage list: definitions can be
// reopened from multiple declaration sites.
func Define[T any](r *Registry, aliases ...string) *Definition {
	model := ModelOf[T]()
	if len(aliases) == 0 {
		aliases = []string{""}
	}
	factories := make([]*factory, 0, len(aliases))
	for _, alias := range aliases {
		if alias == "" {
			factories = append(factories, r.getOrCreate(Name{Model: model}))
			continue
		}
		name := Name{Model: model, Alias: alias}
		if existing, ok := r.factories[name]; ok {
			factories = append(factories, existing)
			continue
		}
		root := r.getOrCreate(Name{Model: model})
		f, err := r.derive(root, alias)
		if err != nil {
			// derive only errors on conflicts with an existing
			// entry, which the lookup above already excluded.
			panic(fmt.Sprintf("fabrica: %v", err))
		}
		factories = append(factories, f)
	}
	return &Definition{reg: r, factories: factories}
}

// DeriveFrom registers child factories for model T whose parent is
// the factory registered under parentAlias.
func DeriveFrom[T any](r *Registry, parentAlias string, aliases ...string) (*Definition, error) {
	parent, err := r.lookup(Name{Model: ModelOf[T](), Alias: parentAlias})
	if err != nil {
		return nil, err
	}
	return deriveAll(r, []*factory{parent}, aliases)
}

// Derive registers child factories inheriting from every factory
// this handle covers. An alias already bound to a different parent
// is a DerivationError; re-deriving from the same parent is
// idempotent.
func (d *Definition) Derive(aliases ...string) (*Definition, error) {
	return deriveAll(d.reg, d.factories, aliases)
}

func deriveAll(r *Registry, parents []*factory, aliases []string) (*Definition, error) {
	if len(aliases) == 0 {
		panic("fabrica: Derive requires at least one alias")
	}
	factories := make([]*factory, 0, len(parents)*len(aliases))
	for _, parent := range parents {
		for _, alias := range aliases {
			f, err := r.derive(parent, alias)
			if err != nil {
				return nil, err
			}
			factories = append(factories, f)
		}
	}
	return &Definition{reg: r, factories: factories}, nil
}

// Set declares a value for attr. The value may be a Provider
// (Computed, Sequence, Cycle, RandomValue) or any literal.
func (d *Definition) Set(attr string, value any) *Definition {
	st := makeSetStage(attr, value, false)
	for _, f := range d.factories {
		f.stages = append(f.stages, st)
	}
	return d
}

// Transient declares a value for attr that is visible during
// resolution and to hooks but excluded from the constructed
// instance.
func (d *Definition) Transient(attr string, value any) *Definition {
	st := makeSetStage(attr, value, true)
	for _, f := range d.factories {
		f.stages = append(f.stages, st)
	}
	return d
}

// Hook registers fn at the given lifecycle event. Unknown events
// panic: the event set is fixed.
func (d *Definition) Hook(event HookEvent, fn Hook) *Definition {
	st := makeHookStage(event, fn)
	for _, f := range d.factories {
		f.stages = append(f.stages, st)
	}
	return d
}

// Storage sets the persistence callback used by Create for every
// factory this handle covers.
func (d *Definition) Storage(p Persist) *Definition {
	for _, f := range d.factories {
		f.persist = p
	}
	return d
}

// Trait opens a named variant: its declarations only apply when the
// trait name is requested at build time.
func (d *Definition) Trait(name string) *Trait {
	st := &traitStage{name: name}
	for _, f := range d.factories {
		f.stages = append(f.stages, st)
	}
	return &Trait{stage: st}
}

// Associate declares a related sub-build for attr, wired as an
// ordinary attribute.
func (d *Definition) Associate(attr string, target Ref, opts ...AssocOption) *Definition {
	st := makeAssociateStage(attr, target, opts)
	for _, f := range d.factories {
		f.stages = append(f.stages, st)
	}
	return d
}

// Trait is the authoring handle for one trait's nested stages.
type Trait struct {
	stage *traitStage
}

// Set declares a value for attr inside the trait.
func (t *Trait) Set(attr string, value any) *Trait {
	t.stage.stages = append(t.stage.stages, makeSetStage(attr, value, false))
	return t
}

// Transient declares a transient value inside the trait.
func (t *Trait) Transient(attr string, value any) *Trait {
	t.stage.stages = append(t.stage.stages, makeSetStage(attr, value, true))
	return t
}

// Hook registers a lifecycle callback inside the trait.
func (t *Trait) Hook(event HookEvent, fn Hook) *Trait {
	t.stage.stages = append(t.stage.stages, makeHookStage(event, fn))
	return t
}

// Associate declares an association inside the trait.
func (t *Trait) Associate(attr string, target Ref, opts ...AssocOption) *Trait {
	t.stage.stages = append(t.stage.stages, makeAssociateStage(attr, target, opts))
	return t
}

// Trait opens a nested trait, activated only when both the outer and
// the nested trait names are requested.
func (t *Trait) Trait(name string) *Trait {
	st := &traitStage{name: name}
	t.stage.stages = append(t.stage.stages, st)
	return &Trait{stage: st}
}

func makeHookStage(event HookEvent, fn Hook) *hookStage {
	if !validEvent(event) {
		panic(fmt.Sprintf("fabrica: unknown hook event %q", event))
	}
	if fn == nil {
		panic("fabrica: hook callback must not be nil")
	}
	return &hookStage{event: event, fn: fn}
}

func makeAssociateStage(attr string, target Ref, opts []AssocOption) *associateStage {
	st := &associateStage{attr: attr, ref: target, overrides: Overrides{}}
	for _, opt := range opts {
		opt(st)
	}
	return st
}
