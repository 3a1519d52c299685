package fabrica

import (
	"fmt"
	"math/rand"
	"reflect"
	"time"

	"github.com/zjrosen/fabrica/internal/log"
	"github.com/zjrosen/fabrica/internal/stub"
)

// Name identifies a factory: the model type plus an optional alias.
// The zero alias names the default factory for the type.
type Name struct {
	Model reflect.Type
	Alias string
}

func (n Name) String() string {
	model := "<nil>"
	if n.Model != nil {
		model = n.Model.Name()
		if model == "" {
			model = n.Model.String()
		}
	}
	if n.Alias == "" {
		return model
	}
	return fmt.Sprintf("%s(%s)", model, n.Alias)
}

// ModelOf returns the reflect.Type token for a model type.
func ModelOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// HookEvent names a lifecycle point hooks can attach to.
type HookEvent string

const (
	// AfterBuild runs after the instance is constructed, for both
	// Build and Create.
	AfterBuild HookEvent = "after_build"
	// BeforeCreate runs before persistence, for Create only.
	BeforeCreate HookEvent = "before_create"
	// AfterCreate runs after persistence, for Create only.
	AfterCreate HookEvent = "after_create"
)

func validEvent(event HookEvent) bool {
	switch event {
	case AfterBuild, BeforeCreate, AfterCreate:
		return true
	}
	return false
}

// Hook observes an instance at a lifecycle point. The context holds
// every resolved attribute and transient value. A non-nil error
// aborts the remaining steps of that instance's construction.
type Hook func(instance any, ctx Context) error

// Persist stores a finished instance. Failures propagate to the
// caller of Create unwrapped.
type Persist func(instance any, ctx Context) error

// Refine is a caller-supplied final touch-up applied after every
// other step, including persistence.
type Refine func(instance any)

// Strategy selects whether an association builds its related
// instance in memory or creates (builds and persists) it.
type Strategy int

const (
	// StrategyDefault defers to the association's declaration,
	// falling back to create.
	StrategyDefault Strategy = iota
	// StrategyCreate builds and persists the related instance.
	StrategyCreate
	// StrategyBuild builds the related instance in memory only.
	StrategyBuild
)

// Stubber is the default-value collaborator: given a model type it
// returns a placeholder value per field. Implementations may cache;
// the registry consults it once per build for unset attributes.
type Stubber interface {
	Attributes(model reflect.Type) (map[string]any, error)
}

// factory is one named configuration for producing instances of one
// model type. The parent link is a key into the registry table, not
// a pointer, so the registry stays the single owner of all factories.
type factory struct {
	name    Name
	parent  *Name
	stages  []stage
	persist Persist
}

// Registry holds every defined factory keyed by (model, alias) and
// owns the random source shared by providers that need one.
//
// A Registry is not safe for concurrent use: the engine is
// synchronous and single-threaded by contract, including re-entrant
// Build/Create calls from within hooks.
type Registry struct {
	factories map[Name]*factory
	rand      *rand.Rand
	stubber   Stubber
}

// New creates an empty registry.
func New(opts ...RegistryOption) *Registry {
	r := &Registry{
		factories: make(map[Name]*factory),
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.stubber == nil {
		r.stubber = stub.NewSource(r.rand)
	}
	return r
}

// Reset drops every registered factory and any cached stub defaults,
// returning the registry to its empty state. Intended for test
// teardown.
func (r *Registry) Reset() {
	r.factories = make(map[Name]*factory)
	if f, ok := r.stubber.(interface{ Flush() }); ok {
		f.Flush()
	}
	log.Debug(log.CatRegistry, "registry reset")
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	return len(r.factories)
}

// lookup resolves a name exactly. No fallback to the default factory
// and no auto-definition: an unknown name is a NotFoundError.
func (r *Registry) lookup(name Name) (*factory, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return f, nil
}

// getOrCreate returns the factory registered under name, creating an
// empty root factory when absent. Reopening an existing factory is
// deliberate: later definition calls amend its stage list.
func (r *Registry) getOrCreate(name Name) *factory {
	if f, ok := r.factories[name]; ok {
		return f
	}
	f := &factory{name: name}
	r.factories[name] = f
	log.Debug(log.CatRegistry, "factory defined", "name", name.String())
	return f
}

// derive registers a child factory of parent under alias. An alias
// already bound to a different parent is a DerivationError;
// re-deriving from the same parent returns the existing factory.
func (r *Registry) derive(parent *factory, alias string) (*factory, error) {
	if alias == "" {
		panic("fabrica: Derive requires a non-empty alias")
	}
	name := Name{Model: parent.name.Model, Alias: alias}
	existing, ok := r.factories[name]
	if !ok {
		f := &factory{name: name, parent: &parent.name}
		r.factories[name] = f
		log.Debug(log.CatRegistry, "factory derived",
			"name", name.String(), "parent", parent.name.String())
		return f, nil
	}
	if existing.parent == nil || *existing.parent != parent.name {
		boundTo := ""
		if existing.parent != nil {
			boundTo = existing.parent.Alias
		}
		return nil, &DerivationError{Name: name, Parent: parent.name.Alias, Existing: boundTo}
	}
	return existing, nil
}

// persister walks from f up the parent chain and returns the first
// declared persistence callback, or a no-op when none is declared.
func (r *Registry) persister(f *factory) Persist {
	current := f
	for steps := 0; current != nil; steps++ {
		if steps > len(r.factories) {
			break // malformed chain; flatten reports the real error
		}
		if current.persist != nil {
			return current.persist
		}
		if current.parent == nil {
			break
		}
		current = r.factories[*current.parent]
	}
	return func(any, Context) error { return nil }
}
