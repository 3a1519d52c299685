package fabrica

import (
	"fmt"
	"math/rand"
	"reflect"
	"time"
)

// Provider is a polymorphic value source for one attribute. Resolve
// is re-invoked once per instance built, never memoized across
// instances; stateful providers (Sequence, Cycle) advance on every
// call for as long as the same provider value is reused.
type Provider interface {
	// Dependencies names the context keys this provider reads.
	// Only declared dependencies participate in resolution order.
	Dependencies() []string
	// Resolve produces the next value given the context snapshot.
	Resolve(ctx Context) any
}

// Value returns a provider for a fixed value with no dependencies.
func Value(v any) Provider {
	return valueProvider{value: v}
}

type valueProvider struct {
	value any
}

func (p valueProvider) Dependencies() []string { return nil }
func (p valueProvider) Resolve(Context) any    { return p.value }

// Computed wraps fn, a non-variadic function whose parameters
// correspond positionally to deps. At resolution time each dependency
// is looked up in the context; an absent key yields the zero value of
// the parameter type. Computed panics at construction when fn is not
// a function, is variadic, has an arity different from len(deps), or
// does not return exactly one value: dependency names must be
// statically enumerable, so malformed functions are rejected before
// any build is attempted.
func Computed(fn any, deps ...string) Provider {
	return &computed{
		call: newReflectCall("Computed", fn, deps, false),
		deps: deps,
	}
}

type computed struct {
	call reflectCall
	deps []string
}

func (p *computed) Dependencies() []string { return p.deps }

func (p *computed) Resolve(ctx Context) any {
	return p.call.invoke(nil, ctx, p.deps)
}

// Sequence wraps fn like Computed, except that fn's first parameter
// must be an int: the provider's internal counter, starting at zero
// and incrementing on every Resolve. The counter lives on the
// provider value, so reusing one Sequence across build calls keeps
// counting where it left off. A nil fn yields the bare counter.
func Sequence(fn any, deps ...string) Provider {
	if fn == nil {
		fn = func(i int) int { return i }
	}
	return &sequence{
		call: newReflectCall("Sequence", fn, deps, true),
		deps: deps,
	}
}

type sequence struct {
	call reflectCall
	deps []string
	i    int
}

func (p *sequence) Dependencies() []string { return p.deps }

func (p *sequence) Resolve(ctx Context) any {
	defer func() { p.i++ }()
	index := reflect.ValueOf(p.i).Convert(p.call.typ.In(0))
	return p.call.invoke(&index, ctx, p.deps)
}

// Cycle returns a provider repeating over values in order, wrapping
// around forever. State persists across build calls like Sequence.
func Cycle(values ...any) Provider {
	if len(values) == 0 {
		panic("fabrica: Cycle requires at least one value")
	}
	return &cycleProvider{values: values}
}

type cycleProvider struct {
	values []any
	i      int
}

func (p *cycleProvider) Dependencies() []string { return nil }

func (p *cycleProvider) Resolve(Context) any {
	v := p.values[p.i%len(p.values)]
	p.i++
	return v
}

// RandomValue returns a provider picking a uniformly random element
// of values on each call, drawing from the owning registry's random
// source. Use RandomValueWith to inject an explicit source for
// reproducibility.
func RandomValue(values ...any) Provider {
	return RandomValueWith(nil, values...)
}

// RandomValueWith is RandomValue with an explicit random source.
func RandomValueWith(r *rand.Rand, values ...any) Provider {
	if len(values) == 0 {
		panic("fabrica: RandomValue requires at least one value")
	}
	return &randomValue{values: values, rand: r}
}

type randomValue struct {
	values []any
	rand   *rand.Rand
}

func (p *randomValue) Dependencies() []string { return nil }

func (p *randomValue) Resolve(ctx Context) any {
	r := p.rand
	if r == nil {
		r = ctx.source()
	}
	if r == nil {
		r = fallbackRand
	}
	return p.values[r.Intn(len(p.values))]
}

var fallbackRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// reflectCall validates and invokes a user-supplied function whose
// parameters are fed from the resolution context.
type reflectCall struct {
	fn  reflect.Value
	typ reflect.Type
}

func newReflectCall(kind string, fn any, deps []string, leadingIndex bool) reflectCall {
	typ := reflect.TypeOf(fn)
	if typ == nil || typ.Kind() != reflect.Func {
		panic(fmt.Sprintf("fabrica: %s requires a function, got %T", kind, fn))
	}
	if typ.IsVariadic() {
		panic(fmt.Sprintf("fabrica: %s does not accept variadic functions", kind))
	}
	want := len(deps)
	if leadingIndex {
		want++
	}
	if typ.NumIn() != want {
		panic(fmt.Sprintf("fabrica: %s function takes %d parameters, %d dependencies declared",
			kind, typ.NumIn(), len(deps)))
	}
	if leadingIndex && typ.In(0).Kind() != reflect.Int {
		panic(fmt.Sprintf("fabrica: %s function's first parameter must be int, got %s", kind, typ.In(0)))
	}
	if typ.NumOut() != 1 {
		panic(fmt.Sprintf("fabrica: %s function must return exactly one value, returns %d", kind, typ.NumOut()))
	}
	return reflectCall{fn: reflect.ValueOf(fn), typ: typ}
}

// invoke calls the wrapped function. A non-nil leading argument is
// prepended (the Sequence counter); dependency values follow, looked
// up by name with absent or incompatible values degrading to the
// parameter's zero value.
func (c reflectCall) invoke(leading *reflect.Value, ctx Context, deps []string) any {
	args := make([]reflect.Value, 0, c.typ.NumIn())
	offset := 0
	if leading != nil {
		args = append(args, *leading)
		offset = 1
	}
	for i, dep := range deps {
		args = append(args, contextArg(c.typ.In(i+offset), ctx, dep))
	}
	return c.fn.Call(args)[0].Interface()
}

func contextArg(t reflect.Type, ctx Context, name string) reflect.Value {
	v, ok := ctx.Lookup(name)
	if !ok || v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv
	case rv.Type().ConvertibleTo(t):
		return rv.Convert(t)
	default:
		return reflect.Zero(t)
	}
}
