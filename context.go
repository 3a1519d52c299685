package fabrica

import "math/rand"

// Context is the read-only view over already-resolved values that
// providers and hooks observe. It layers two maps: transient values
// shadow attribute values on lookup. Providers only ever see keys
// resolved before them in dependency order; looking up anything else
// reports absence rather than failing.
type Context struct {
	transients map[string]any
	attributes map[string]any
	rand       *rand.Rand
}

// Lookup returns the value for name and whether it is present,
// checking transients before attributes.
func (c Context) Lookup(name string) (any, bool) {
	if v, ok := c.transients[name]; ok {
		return v, true
	}
	if v, ok := c.attributes[name]; ok {
		return v, true
	}
	return nil, false
}

// Value returns the value for name, or nil when absent.
func (c Context) Value(name string) any {
	v, _ := c.Lookup(name)
	return v
}

// Has reports whether name has been resolved.
func (c Context) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Snapshot returns a copy of the combined transient and attribute
// maps. Mutating the copy has no effect on resolution.
func (c Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.transients)+len(c.attributes))
	for k, v := range c.attributes {
		out[k] = v
	}
	for k, v := range c.transients {
		out[k] = v
	}
	return out
}

func (c Context) source() *rand.Rand {
	return c.rand
}
