package fabrica

import (
	"fmt"
	"reflect"

	"github.com/zjrosen/fabrica/internal/log"
)

// stage is the declarative unit of factory configuration. The set of
// variants is closed: set-attribute, register-trait, register-hook,
// declare-association. Stages are pure data; flattening and
// resolution hold the only dispatch points over them.
type stage interface {
	isStage()
}

// setStage declares a value for one attribute, either persisted or
// transient.
type setStage struct {
	attr      string
	provider  Provider
	transient bool
}

// traitStage is a named, optionally-activated bundle of nested
// stages.
type traitStage struct {
	name   string
	stages []stage
}

// hookStage registers a lifecycle callback.
type hookStage struct {
	event HookEvent
	fn    Hook
}

// associateStage declares a related sub-build wired as an attribute.
type associateStage struct {
	attr      string
	ref       Ref
	overrides Overrides
	strategy  Strategy
}

func (*setStage) isStage()       {}
func (*traitStage) isStage()     {}
func (*hookStage) isStage()      {}
func (*associateStage) isStage() {}

// makeSetStage wraps value into a set stage: providers keep their
// declared dependencies, anything else becomes a constant.
func makeSetStage(attr string, value any, transient bool) *setStage {
	provider, ok := value.(Provider)
	if !ok {
		provider = Value(value)
	}
	return &setStage{attr: attr, provider: provider, transient: transient}
}

// Ref names the target of an association: a model type, an optional
// alias, and the traits to activate on the sub-build.
type Ref struct {
	Model  reflect.Type
	Alias  string
	Traits []string
}

// To references the default factory for T with the given traits.
func To[T any](traits ...string) Ref {
	return Ref{Model: ModelOf[T](), Traits: traits}
}

// ToAlias references the aliased factory for T with the given traits.
func ToAlias[T any](alias string, traits ...string) Ref {
	return Ref{Model: ModelOf[T](), Alias: alias, Traits: traits}
}

// flatten walks f's ancestor chain root to leaf and yields every
// stage in declaration order. Default set stages inferred from the
// model's fields come first, so anything declared explicitly shadows
// them downstream. Active traits are expanded in place, their nested
// stages pushed onto the front of the working queue so nested traits
// and surrounding declaration order interleave correctly; inactive
// traits are dropped.
//
// The parent walk is bounded by the number of registered factories;
// exceeding the bound means the chain was corrupted by misuse and is
// a fatal error.
func (r *Registry) flatten(f *factory, traits []string) ([]stage, error) {
	chain := []*factory{f}
	for current := f; current.parent != nil; {
		if len(chain) > len(r.factories) {
			return nil, fmt.Errorf("factory %s: parent chain does not terminate", f.name)
		}
		parent, ok := r.factories[*current.parent]
		if !ok {
			return nil, &NotFoundError{Name: *current.parent}
		}
		chain = append([]*factory{parent}, chain...)
		current = parent
	}

	active := make(map[string]bool, len(traits))
	for _, t := range traits {
		active[t] = true
	}

	out, err := r.defaultStages(f.name.Model)
	if err != nil {
		return nil, err
	}

	for _, ancestor := range chain {
		queue := append([]stage(nil), ancestor.stages...)
		for len(queue) > 0 {
			st := queue[0]
			queue = queue[1:]
			if trait, ok := st.(*traitStage); ok {
				if active[trait.name] {
					log.Debug(log.CatFlatten, "trait expanded",
						"factory", ancestor.name.String(), "trait", trait.name)
					queue = append(append([]stage(nil), trait.stages...), queue...)
				}
				continue
			}
			out = append(out, st)
		}
	}
	return out, nil
}

// defaultStages synthesizes one constant set stage per model field
// from the stub collaborator, in field declaration order.
func (r *Registry) defaultStages(model reflect.Type) ([]stage, error) {
	defaults, err := r.stubber.Attributes(model)
	if err != nil {
		return nil, fmt.Errorf("inferring defaults for %s: %w", model, err)
	}
	log.Debug(log.CatStub, "defaults inferred", "model", model.String(), "fields", len(defaults))
	out := make([]stage, 0, len(defaults))
	for i := 0; i < model.NumField(); i++ {
		field := model.Field(i)
		value, ok := defaults[field.Name]
		if !ok {
			continue
		}
		out = append(out, makeSetStage(field.Name, value, false))
	}
	return out, nil
}
