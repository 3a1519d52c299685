package fabrica

import (
	"strings"

	"github.com/zjrosen/fabrica/internal/graph"
	"github.com/zjrosen/fabrica/internal/log"
)

// Overrides maps attribute names to caller-supplied replacements.
// A plain value (or Provider) replaces whatever was declared for the
// name. An Overrides value targeting an association merges into the
// association's own override map instead of replacing it, so nested
// overrides compose. Keys matching no declared attribute or
// transient are ignored.
type Overrides map[string]any

// AssocOverride is an Overrides bundle that additionally switches
// the association's build-vs-create strategy.
type AssocOverride struct {
	Overrides Overrides
	Strategy  Strategy
}

// LookupRef marks an association override as a same-instance
// correlation; see Lookup.
type LookupRef struct {
	attribute string
}

// Lookup declares that an association override takes its value from
// a sibling attribute already resolved on the current instance,
// written as a dotted path: Lookup(".ID") reads the instance's ID.
// The sibling becomes a dependency of the association, so
// topological order resolves it first.
func Lookup(attribute string) LookupRef {
	return LookupRef{attribute: strings.TrimPrefix(attribute, ".")}
}

// Attribute returns the sibling attribute name the lookup targets.
func (l LookupRef) Attribute() string { return l.attribute }

// setter is a resolved-per-name value source: either a provider set
// stage or a bound association.
type setter interface {
	dependencies() []string
	isTransient() bool
	resolve(ctx Context) (any, error)
}

type providerSetter struct {
	provider  Provider
	transient bool
}

func (s *providerSetter) dependencies() []string { return s.provider.Dependencies() }
func (s *providerSetter) isTransient() bool      { return s.transient }
func (s *providerSetter) resolve(ctx Context) (any, error) {
	return s.provider.Resolve(ctx), nil
}

// boundAssociate is an association closed over the registry so it
// can recursively build or create the related instance. Its
// dependencies are the Lookup targets in its override map.
type boundAssociate struct {
	reg       *Registry
	ref       Ref
	overrides Overrides
	strategy  Strategy
}

func (b *boundAssociate) dependencies() []string {
	var deps []string
	for _, v := range b.overrides {
		if l, ok := v.(LookupRef); ok {
			deps = append(deps, l.attribute)
		}
	}
	return deps
}

func (b *boundAssociate) isTransient() bool { return false }

func (b *boundAssociate) resolve(ctx Context) (any, error) {
	delegated := make(Overrides, len(b.overrides))
	for k, v := range b.overrides {
		if l, ok := v.(LookupRef); ok {
			delegated[k] = ctx.Value(l.attribute)
			continue
		}
		delegated[k] = v
	}
	strategy := b.strategy
	if strategy == StrategyDefault {
		strategy = StrategyCreate
	}
	o := &buildOptions{traits: b.ref.Traits, overrides: delegated}
	out, err := b.reg.run(Name{Model: b.ref.Model, Alias: b.ref.Alias}, 1, strategy, o)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// plan is the compiled form of one build request: the flattened and
// override-applied setter map, hooks grouped by event, and the
// memoized topological order. One plan serves every instance of a
// batch, so stateful providers advance across the batch.
type plan struct {
	reg     *Registry
	setters map[string]setter
	order   []string // first-sighting order of setter names
	hooks   map[HookEvent][]Hook
	topo    []string
}

// newPlan partitions the flattened stages into attribute and
// transient setters (last declaration for a name wins), groups hooks
// by event in declaration order, binds associations, and applies
// caller overrides.
func (r *Registry) newPlan(f *factory, traits []string, overrides Overrides) (*plan, error) {
	stages, err := r.flatten(f, traits)
	if err != nil {
		return nil, err
	}

	attrs := newSetterMap()
	transients := newSetterMap()
	hooks := make(map[HookEvent][]Hook)

	for _, st := range stages {
		switch st := st.(type) {
		case *setStage:
			target := attrs
			if st.transient {
				target = transients
			}
			target.put(st.attr, &providerSetter{provider: st.provider, transient: st.transient})
		case *hookStage:
			hooks[st.event] = append(hooks[st.event], st.fn)
		case *associateStage:
			attrs.put(st.attr, &boundAssociate{
				reg:       r,
				ref:       st.ref,
				overrides: cloneOverrides(st.overrides),
				strategy:  st.strategy,
			})
		}
	}

	for attr, value := range overrides {
		switch v := value.(type) {
		case Overrides:
			if assoc, ok := attrs.get(attr).(*boundAssociate); ok {
				mergeOverrides(assoc.overrides, v)
				continue
			}
			value = map[string]any(v)
		case AssocOverride:
			if assoc, ok := attrs.get(attr).(*boundAssociate); ok {
				mergeOverrides(assoc.overrides, v.Overrides)
				if v.Strategy != StrategyDefault {
					assoc.strategy = v.Strategy
				}
				continue
			}
			value = map[string]any(v.Overrides)
		}
		switch {
		case attrs.has(attr):
			st := makeSetStage(attr, value, false)
			attrs.put(attr, &providerSetter{provider: st.provider})
		case transients.has(attr):
			st := makeSetStage(attr, value, true)
			transients.put(attr, &providerSetter{provider: st.provider, transient: true})
		default:
			log.Debug(log.CatResolve, "override matches no declared attribute",
				"factory", f.name.String(), "attribute", attr)
		}
	}

	p := &plan{
		reg:     r,
		setters: make(map[string]setter, transients.len()+attrs.len()),
		hooks:   hooks,
	}
	for _, name := range transients.order {
		if !attrs.has(name) {
			p.setters[name] = transients.get(name)
			p.order = append(p.order, name)
		}
	}
	for _, name := range attrs.order {
		p.setters[name] = attrs.get(name)
		p.order = append(p.order, name)
	}
	return p, nil
}

// topoOrder computes (once) the dependency order over all setter
// names. A cycle yields a CyclicDependencyError carrying the
// dependency list of every attribute that declares one.
func (p *plan) topoOrder() ([]string, error) {
	if p.topo != nil {
		return p.topo, nil
	}
	g := graph.New()
	for _, name := range p.order {
		g.Add(name, p.setters[name].dependencies()...)
	}
	order, err := g.Order()
	if err != nil {
		declared := make(map[string][]string)
		for _, name := range p.order {
			if deps := p.setters[name].dependencies(); len(deps) > 0 {
				declared[name] = append([]string(nil), deps...)
			}
		}
		log.Error(log.CatResolve, "dependency cycle", err, "attributes", len(declared))
		return nil, &CyclicDependencyError{Dependencies: declared}
	}
	p.topo = order
	return order, nil
}

// generate evaluates every setter in dependency order, routing
// values into the transient or attribute map, and returns the
// finished attribute map plus the combined context snapshot.
func (p *plan) generate() (map[string]any, Context, error) {
	order, err := p.topoOrder()
	if err != nil {
		return nil, Context{}, err
	}
	attributes := make(map[string]any, len(p.order))
	transients := make(map[string]any)
	ctx := Context{transients: transients, attributes: attributes, rand: p.reg.rand}
	for _, name := range order {
		s, ok := p.setters[name]
		if !ok {
			// Declared as a dependency but never set; lookups on it
			// report absence.
			continue
		}
		value, err := s.resolve(ctx)
		if err != nil {
			return nil, Context{}, err
		}
		if s.isTransient() {
			transients[name] = value
		} else {
			attributes[name] = value
		}
	}
	return attributes, ctx, nil
}

// setterMap preserves first-sighting order while letting later
// declarations for the same name win.
type setterMap struct {
	entries map[string]setter
	order   []string
}

func newSetterMap() *setterMap {
	return &setterMap{entries: make(map[string]setter)}
}

func (m *setterMap) put(name string, s setter) {
	if _, ok := m.entries[name]; !ok {
		m.order = append(m.order, name)
	}
	m.entries[name] = s
}

func (m *setterMap) get(name string) setter { return m.entries[name] }

func (m *setterMap) has(name string) bool {
	_, ok := m.entries[name]
	return ok
}

func (m *setterMap) len() int { return len(m.entries) }

func cloneOverrides(o Overrides) Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

func mergeOverrides(dst, src Overrides) {
	for k, v := range src {
		dst[k] = v
	}
}
