package interp

// Env is a lexical environment. The root Env is the run's global scope and
// doubles as the memoization target for the capability resolver, so every
// free identifier resolves to the same stand-in for the whole run.
type Env struct {
	vars   map[string]any
	parent *Env
}

// NewEnv returns an environment chained to parent (nil for the global).
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]any), parent: parent}
}

// Lookup walks the chain outward. It implements capability.Binder.
func (e *Env) Lookup(name string) (any, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Bind defines name in this environment.
func (e *Env) Bind(name string, v any) {
	e.vars[name] = v
}

// Assign sets name where it is bound, falling back to the global scope for
// undeclared assignment targets, which is how the source behaves.
func (e *Env) Assign(name string, v any) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return
		}
		if env.parent == nil {
			env.vars[name] = v
			return
		}
	}
}
