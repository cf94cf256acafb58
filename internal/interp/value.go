package interp

import (
	"fmt"
	"reflect"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/qaz17899/funbot/internal/capability"
)

// param is one formal parameter of a function value. pattern is non-nil
// for destructuring parameters; def holds a default-value expression.
type param struct {
	name    string
	rest    bool
	pattern *sitter.Node
	def     *sitter.Node
}

// funcValue is a function or arrow function captured from the source,
// closed over its defining environment. It implements capability.Callable
// so evaluated code can invoke it, but it is never serialized as data.
type funcValue struct {
	name   string
	params []param
	body   *sitter.Node
	env    *Env
	ev     *evaluator
	this   any
}

// bind returns a copy with a receiver attached.
func (f *funcValue) bind(this any) *funcValue {
	bound := *f
	bound.this = this
	return &bound
}

// Call implements capability.Callable.
func (f *funcValue) Call(args []any) (any, error) {
	env := NewEnv(f.env)
	if f.this != nil {
		env.Bind("this", f.this)
	}
	for i, p := range f.params {
		var v any
		switch {
		case p.rest:
			rest := make([]any, 0)
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			v = rest
		case i < len(args):
			v = args[i]
		}
		if v == nil && p.def != nil {
			dv, err := f.ev.eval(p.def, env)
			if err != nil {
				return nil, err
			}
			v = dv
		}
		if p.pattern != nil {
			if err := f.ev.bindPattern(p.pattern, v, env); err != nil {
				return nil, err
			}
			continue
		}
		env.Bind(p.name, v)
	}

	if f.body.Type() == "statement_block" {
		c, ret, err := f.ev.execBlock(f.body, env)
		if err != nil {
			return nil, err
		}
		if c == ctrlReturn {
			return ret, nil
		}
		return nil, nil
	}
	return f.ev.eval(f.body, env)
}

// classValue is a class declared by the source. Static members are the
// only ones the extraction path exercises; instances are supported just
// far enough that a stray `new LocalClass()` keeps executing.
type classValue struct {
	name    string
	statics map[string]any
	methods map[string]*funcValue
	fields  map[string]*sitter.Node
}

func (cv *classValue) member(name string) any {
	if v, ok := cv.statics[name]; ok {
		return v
	}
	c := capability.New(cv.name + "." + name)
	cv.statics[name] = c
	return c
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// equals implements loose-enough equality: primitives compare by value,
// everything else by reference when comparable. Capabilities memoized per
// access path make reference comparison meaningful for stand-ins too.
func equals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		return af == bf
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toDisplay renders a value the way template-string interpolation would.
func toDisplay(v any) string {
	switch t := v.(type) {
	case nil:
		return "undefined"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case *capability.NameRef:
		return t.Display
	case *capability.Capability:
		return t.Path()
	default:
		return fmt.Sprintf("%v", t)
	}
}
