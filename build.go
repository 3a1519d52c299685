package fabrica

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/zjrosen/fabrica/internal/log"
)

// Build resolves attributes and constructs one in-memory instance of
// T: no persistence, no before/after-create hooks. After-build hooks
// and the refine callback still run.
func Build[T any](r *Registry, opts ...BuildOption) (*T, error) {
	out, err := run[T](r, 1, StrategyBuild, opts)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// BuildMany builds count instances. Each instance goes through the
// full per-instance sequence independently; stateful providers
// declared on the factory advance across the batch. The first
// failing instance aborts the whole batch with no partial results.
func BuildMany[T any](r *Registry, count int, opts ...BuildOption) ([]*T, error) {
	return run[T](r, count, StrategyBuild, opts)
}

// Create builds one instance and persists it: resolution,
// construction, after-build hooks, before-create hooks, the
// persistence callback, after-create hooks, then refine.
func Create[T any](r *Registry, opts ...BuildOption) (*T, error) {
	out, err := run[T](r, 1, StrategyCreate, opts)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// CreateMany creates count instances with BuildMany's batch
// semantics.
func CreateMany[T any](r *Registry, count int, opts ...BuildOption) ([]*T, error) {
	return run[T](r, count, StrategyCreate, opts)
}

// AttributesFor resolves and returns the attribute map for T without
// constructing an instance. Associations still run, since their
// instances are attribute values.
func AttributesFor[T any](r *Registry, opts ...BuildOption) (map[string]any, error) {
	o := newBuildOptions(opts)
	f, err := r.lookup(Name{Model: ModelOf[T](), Alias: o.alias})
	if err != nil {
		return nil, err
	}
	p, err := r.newPlan(f, o.traits, o.overrides)
	if err != nil {
		return nil, err
	}
	attrs, _, err := p.generate()
	return attrs, err
}

func run[T any](r *Registry, count int, strategy Strategy, opts []BuildOption) ([]*T, error) {
	o := newBuildOptions(opts)
	out, err := r.run(Name{Model: ModelOf[T](), Alias: o.alias}, count, strategy, o)
	if err != nil {
		return nil, err
	}
	typed := make([]*T, len(out))
	for i, inst := range out {
		typed[i] = inst.(*T)
	}
	return typed, nil
}

// run is the untyped build loop shared by the public operations and
// by association sub-builds.
func (r *Registry) run(name Name, count int, strategy Strategy, o *buildOptions) ([]any, error) {
	f, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	p, err := r.newPlan(f, o.traits, o.overrides)
	if err != nil {
		return nil, err
	}

	var persist Persist
	if strategy == StrategyCreate {
		persist = o.storage
		if persist == nil {
			persist = r.persister(f)
		}
	}

	instances := make([]any, 0, count)
	for i := 0; i < count; i++ {
		instance, err := r.runOne(name, p, strategy, persist, o)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	log.Debug(log.CatBuild, "batch complete",
		"factory", name.String(), "count", count, "created", strategy == StrategyCreate)
	return instances, nil
}

func (r *Registry) runOne(name Name, p *plan, strategy Strategy, persist Persist, o *buildOptions) (any, error) {
	attributes, ctx, err := p.generate()
	if err != nil {
		return nil, err
	}
	instance, err := instantiate(name.Model, attributes)
	if err != nil {
		return nil, err
	}
	for _, hook := range p.hooks[AfterBuild] {
		if err := hook(instance, ctx); err != nil {
			return nil, err
		}
	}
	if strategy == StrategyCreate {
		for _, hook := range p.hooks[BeforeCreate] {
			if err := hook(instance, ctx); err != nil {
				return nil, err
			}
		}
		if err := persist(instance, ctx); err != nil {
			return nil, err
		}
		for _, hook := range p.hooks[AfterCreate] {
			if err := hook(instance, ctx); err != nil {
				return nil, err
			}
		}
	}
	if o.refine != nil {
		o.refine(instance)
	}
	return instance, nil
}

// instantiate decodes the resolved attribute map into a fresh *model
// value. Attributes matching no model field fail the build, the same
// way passing an unknown keyword to a constructor would.
func instantiate(model reflect.Type, attributes map[string]any) (any, error) {
	target := reflect.New(model).Interface()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", model, err)
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, fmt.Errorf("building %s: %w", model, err)
	}
	return target, nil
}
