package fabrica

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func ctxWith(attrs map[string]any) Context {
	return Context{attributes: attrs}
}

func TestValue(t *testing.T) {
	p := Value("hello")
	require.Empty(t, p.Dependencies())
	require.Equal(t, "hello", p.Resolve(Context{}))
	require.Equal(t, "hello", p.Resolve(Context{}), "constants do not advance")
}

func TestComputed(t *testing.T) {
	p := Computed(func(given, family string) string {
		return strings.ToLower(given + "." + family + "@example.com")
	}, "GivenName", "FamilyName")

	require.Equal(t, []string{"GivenName", "FamilyName"}, p.Dependencies())

	got := p.Resolve(ctxWith(map[string]any{"GivenName": "John", "FamilyName": "Doe"}))
	require.Equal(t, "john.doe@example.com", got)
}

func TestComputed_AbsentDependencyIsZero(t *testing.T) {
	p := Computed(func(name string) string { return "<" + name + ">" }, "Name")
	require.Equal(t, "<>", p.Resolve(Context{}))
}

func TestComputed_NoDependencies(t *testing.T) {
	p := Computed(func() int { return 42 })
	require.Empty(t, p.Dependencies())
	require.Equal(t, 42, p.Resolve(Context{}))
}

func TestComputed_ConstructionFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"not a function", func() { Computed(42) }},
		{"variadic", func() { Computed(func(vs ...string) string { return "" }) }},
		{"arity mismatch", func() { Computed(func(a, b string) string { return "" }, "A") }},
		{"no return", func() { Computed(func(a string) {}, "A") }},
		{"two returns", func() { Computed(func(a string) (string, error) { return "", nil }, "A") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Panics(t, tt.fn)
		})
	}
}

func TestSequence(t *testing.T) {
	p := Sequence(func(i int) string { return fmt.Sprintf("person%d@example.com", i) })

	require.Equal(t, "person0@example.com", p.Resolve(Context{}))
	require.Equal(t, "person1@example.com", p.Resolve(Context{}))
	require.Equal(t, "person2@example.com", p.Resolve(Context{}))
}

func TestSequence_NilFunctionYieldsIndex(t *testing.T) {
	p := Sequence(nil)
	require.Equal(t, 0, p.Resolve(Context{}))
	require.Equal(t, 1, p.Resolve(Context{}))
}

func TestSequence_WithDependencies(t *testing.T) {
	p := Sequence(func(i int, name string) string {
		return fmt.Sprintf("%s.%d@example.com", strings.ToLower(name), i)
	}, "Name")

	require.Equal(t, []string{"Name"}, p.Dependencies())
	require.Equal(t, "john.0@example.com", p.Resolve(ctxWith(map[string]any{"Name": "John"})))
	require.Equal(t, "john.1@example.com", p.Resolve(ctxWith(map[string]any{"Name": "John"})))
	require.Equal(t, "dave.2@example.com", p.Resolve(ctxWith(map[string]any{"Name": "Dave"})))
}

func TestSequence_ConstructionFailures(t *testing.T) {
	require.Panics(t, func() { Sequence(func(s string) string { return s }) }, "first parameter must be int")
	require.Panics(t, func() { Sequence(func(i int, vs ...string) int { return i }) }, "variadic")
}

func TestCycle(t *testing.T) {
	p := Cycle("a", "b", "c")
	got := make([]any, 0, 5)
	for i := 0; i < 5; i++ {
		got = append(got, p.Resolve(Context{}))
	}
	require.Equal(t, []any{"a", "b", "c", "a", "b"}, got)
}

func TestCycle_Empty(t *testing.T) {
	require.Panics(t, func() { Cycle() })
}

func TestRandomValue(t *testing.T) {
	p := RandomValueWith(rand.New(rand.NewSource(1)), "red", "green", "blue")
	for i := 0; i < 20; i++ {
		require.Contains(t, []any{"red", "green", "blue"}, p.Resolve(Context{}))
	}
}

func TestRandomValue_Reproducible(t *testing.T) {
	draw := func() []any {
		p := RandomValueWith(rand.New(rand.NewSource(7)), 1, 2, 3, 4, 5)
		out := make([]any, 0, 10)
		for i := 0; i < 10; i++ {
			out = append(out, p.Resolve(Context{}))
		}
		return out
	}
	require.Equal(t, draw(), draw(), "same seed, same draws")
}

func TestRandomValue_UsesRegistrySource(t *testing.T) {
	p := RandomValue("x", "y", "z")
	ctx := Context{rand: rand.New(rand.NewSource(3))}
	require.Contains(t, []any{"x", "y", "z"}, p.Resolve(ctx))
}

func TestRandomValue_Empty(t *testing.T) {
	require.Panics(t, func() { RandomValue() })
}
