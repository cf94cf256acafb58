// Package capability synthesizes harmless stand-in values for identifiers
// that have no real binding, so declarative game-data source can execute
// without the live runtime it was written against.
package capability

import "strings"

// Callable is anything the evaluator may invoke as a function or constructor.
type Callable interface {
	Call(args []any) (any, error)
}

// Capability is a lazily synthesized stand-in for an unresolved identifier.
// Property access returns a cached child Capability, so repeated access
// through the same chain yields reference-identical values. Invoked as a
// function it forwards its first argument, which lets default-value
// expressions and helper calls like GameConstants.getDungeonIndex('X')
// execute and hand their payload straight through.
type Capability struct {
	path     string
	children map[string]any
}

// New returns a fresh Capability rooted at name.
func New(name string) *Capability {
	return &Capability{path: name}
}

// Path returns the dotted access chain that produced this Capability.
func (c *Capability) Path() string { return c.path }

// Base returns the final segment of the access chain.
func (c *Capability) Base() string {
	if i := strings.LastIndexByte(c.path, '.'); i >= 0 {
		return c.path[i+1:]
	}
	return c.path
}

// Get returns the member value cached under name, synthesizing a child
// Capability on first access.
func (c *Capability) Get(name string) any {
	if v, ok := c.children[name]; ok {
		return v
	}
	child := &Capability{path: c.path + "." + name}
	c.Set(name, child)
	return child
}

// Set overrides the cached member under name. Source code occasionally
// stores into objects it never declared (registration tables, caches);
// keeping the write visible preserves later reads through the same chain.
func (c *Capability) Set(name string, v any) {
	if c.children == nil {
		c.children = make(map[string]any)
	}
	c.children[name] = v
}

// Call implements Callable. The first non-nil argument is forwarded
// unchanged; with nothing to forward the Capability itself stands in, so
// chained calls keep resolving.
func (c *Capability) Call(args []any) (any, error) {
	for _, a := range args {
		if a != nil {
			return a, nil
		}
	}
	return c, nil
}
