package capability

import "strings"

// Binder is the mutable scope a Resolver memoizes synthesized values into.
// The evaluator's global environment implements it.
type Binder interface {
	Lookup(name string) (any, bool)
	Bind(name string, v any)
}

// NameRef is a lightweight reference carrying the display name recovered
// for an internal declaration identifier (an NPC constant, typically).
type NameRef struct {
	Ident   string
	Display string
}

// Family maps a structural variant-name suffix to a constructor factory, so
// an identifier like SomeNewRequirement still resolves to a constructor
// that captures its arguments instead of a bare Capability.
type Family struct {
	Suffix string
	Make   func(name string) Callable
}

// Resolver supplies a value for every free identifier the evaluator meets.
// Resolution order: existing binding, NameBinding table, variant-name
// suffix, synthesized Capability. Every synthesized value is memoized into
// the scope so two reads of the same name are reference-identical.
type Resolver struct {
	names    map[string]string
	families []Family
}

// NewResolver builds a Resolver over a NameBinding table and the
// variant-name families configured for the run's domain.
func NewResolver(names map[string]string, families []Family) *Resolver {
	return &Resolver{names: names, families: families}
}

// Resolve returns the value bound to name, synthesizing and memoizing a
// stand-in when no binding exists. It never fails.
func (r *Resolver) Resolve(scope Binder, name string) any {
	if v, ok := scope.Lookup(name); ok {
		return v
	}
	if display, ok := r.names[name]; ok {
		ref := &NameRef{Ident: name, Display: display}
		scope.Bind(name, ref)
		return ref
	}
	for _, f := range r.families {
		if strings.HasSuffix(name, f.Suffix) {
			ctor := f.Make(name)
			scope.Bind(name, ctor)
			return ctor
		}
	}
	c := New(name)
	scope.Bind(name, c)
	return c
}
