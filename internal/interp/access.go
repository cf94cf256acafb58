package interp

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/qaz17899/funbot/internal/capability"
	"github.com/qaz17899/funbot/internal/registry"
)

// getMember resolves property access for every value kind the evaluator
// produces. Capabilities and classes synthesize-and-cache missing members;
// model types route through their own Member methods so builder chains
// keep working; plain data answers structurally.
func (ev *evaluator) getMember(obj any, name string) (any, error) {
	switch t := obj.(type) {
	case *capability.Capability:
		return t.Get(name), nil
	case *classValue:
		return t.member(name), nil
	case *registry.Quest:
		return t.Member(name), nil
	case *registry.Container:
		return t.Member(name), nil
	case *capability.NameRef:
		if name == "name" {
			return t.Display, nil
		}
		return nil, nil
	case map[string]any:
		return t[name], nil
	case []any:
		if name == "length" {
			return float64(len(t)), nil
		}
		return nil, nil
	case string:
		if name == "length" {
			return float64(len(t)), nil
		}
		return nil, nil
	case nil:
		return nil, fmt.Errorf("cannot read property %q of undefined", name)
	default:
		return nil, nil
	}
}

func (ev *evaluator) setMember(obj any, name string, v any) {
	switch t := obj.(type) {
	case *capability.Capability:
		t.Set(name, v)
	case *classValue:
		t.statics[name] = v
	case map[string]any:
		t[name] = v
	}
	// other targets swallow the write; declaration code never reads it back
}

func hasOptionalChain(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "optional_chain" {
			return true
		}
	}
	return false
}

func (ev *evaluator) evalMember(n *sitter.Node, env *Env) (any, error) {
	obj, err := ev.eval(n.ChildByFieldName("object"), env)
	if err != nil {
		return nil, err
	}
	if obj == nil && hasOptionalChain(n) {
		return nil, nil
	}
	return ev.getMember(obj, ev.text(n.ChildByFieldName("property")))
}

func (ev *evaluator) evalSubscript(n *sitter.Node, env *Env) (any, error) {
	obj, err := ev.eval(n.ChildByFieldName("object"), env)
	if err != nil {
		return nil, err
	}
	if obj == nil && hasOptionalChain(n) {
		return nil, nil
	}
	idx, err := ev.eval(n.ChildByFieldName("index"), env)
	if err != nil {
		return nil, err
	}
	if list, ok := obj.([]any); ok {
		if f, ok := numeric(idx); ok {
			if i := int(f); i >= 0 && i < len(list) {
				return list[i], nil
			}
			return nil, nil
		}
	}
	return ev.getMember(obj, toDisplay(idx))
}

func (ev *evaluator) evalArgs(n *sitter.Node, env *Env) ([]any, error) {
	argsNode := n.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil, nil
	}
	if argsNode.Type() == "template_string" {
		v, err := ev.evalTemplate(argsNode, env)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	var args []any
	for i := 0; i < int(argsNode.NamedChildCount()); i++ {
		a := argsNode.NamedChild(i)
		if a.Type() == "comment" {
			continue
		}
		if a.Type() == "spread_element" {
			v, err := ev.eval(firstNamed(a), env)
			if err != nil {
				return nil, err
			}
			if list, ok := v.([]any); ok {
				args = append(args, list...)
			} else {
				args = append(args, v)
			}
			continue
		}
		v, err := ev.eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (ev *evaluator) evalCall(n *sitter.Node, env *Env) (any, error) {
	callee := n.ChildByFieldName("function")

	var fn any
	var err error
	switch callee.Type() {
	case "member_expression":
		obj, oerr := ev.eval(callee.ChildByFieldName("object"), env)
		if oerr != nil {
			return nil, oerr
		}
		if obj == nil && hasOptionalChain(callee) {
			return nil, nil
		}
		fn, err = ev.getMember(obj, ev.text(callee.ChildByFieldName("property")))
		if err != nil {
			return nil, err
		}
		if fv, ok := fn.(*funcValue); ok {
			fn = fv.bind(obj)
		}
	case "subscript_expression":
		fn, err = ev.evalSubscript(callee, env)
		if err != nil {
			return nil, err
		}
	default:
		fn, err = ev.eval(callee, env)
		if err != nil {
			return nil, err
		}
	}

	args, err := ev.evalArgs(n, env)
	if err != nil {
		return nil, err
	}

	if fn == nil {
		if hasOptionalChain(n) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s is not a function", ev.text(callee))
	}
	if callable, ok := fn.(capability.Callable); ok {
		return callable.Call(args)
	}
	return nil, fmt.Errorf("%s is not callable", ev.text(callee))
}

func (ev *evaluator) evalNew(n *sitter.Node, env *Env) (any, error) {
	ctorNode := n.ChildByFieldName("constructor")
	ctor, err := ev.eval(ctorNode, env)
	if err != nil {
		return nil, err
	}
	args, err := ev.evalArgs(n, env)
	if err != nil {
		return nil, err
	}
	switch t := ctor.(type) {
	case *classValue:
		return ev.instantiate(t, args)
	case *funcValue:
		obj := make(map[string]any)
		if _, err := t.bind(obj).Call(args); err != nil {
			return nil, err
		}
		return obj, nil
	case capability.Callable:
		return t.Call(args)
	case nil:
		return nil, fmt.Errorf("%s is not a constructor", ev.text(ctorNode))
	default:
		return nil, fmt.Errorf("%s is not a constructor", ev.text(ctorNode))
	}
}

func (ev *evaluator) assign(left *sitter.Node, v any, env *Env) error {
	switch left.Type() {
	case "identifier":
		env.Assign(ev.text(left), v)
		return nil
	case "member_expression":
		obj, err := ev.eval(left.ChildByFieldName("object"), env)
		if err != nil {
			return err
		}
		ev.setMember(obj, ev.text(left.ChildByFieldName("property")), v)
		return nil
	case "subscript_expression":
		obj, err := ev.eval(left.ChildByFieldName("object"), env)
		if err != nil {
			return err
		}
		idx, err := ev.eval(left.ChildByFieldName("index"), env)
		if err != nil {
			return err
		}
		ev.setMember(obj, toDisplay(idx), v)
		return nil
	case "non_null_expression", "parenthesized_expression":
		return ev.assign(firstNamed(left), v, env)
	default:
		return ev.unsupported(left)
	}
}

func (ev *evaluator) evalAugmented(n *sitter.Node, env *Env) (any, error) {
	left := n.ChildByFieldName("left")
	cur, err := ev.eval(left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(n.ChildByFieldName("right"), env)
	if err != nil {
		return nil, err
	}
	op := ev.text(n.ChildByFieldName("operator"))
	var v any
	switch op {
	case "??=":
		if cur != nil {
			return cur, nil
		}
		v = right
	case "||=":
		if truthy(cur) {
			return cur, nil
		}
		v = right
	case "&&=":
		if !truthy(cur) {
			return cur, nil
		}
		v = right
	default:
		v, err = ev.binaryOp(op[:len(op)-1], cur, right)
		if err != nil {
			return nil, err
		}
	}
	return v, ev.assign(left, v, env)
}

func (ev *evaluator) evalBinary(n *sitter.Node, env *Env) (any, error) {
	op := ev.text(n.ChildByFieldName("operator"))
	left, err := ev.eval(n.ChildByFieldName("left"), env)
	if err != nil {
		return nil, err
	}
	switch op {
	case "&&":
		if !truthy(left) {
			return left, nil
		}
		return ev.eval(n.ChildByFieldName("right"), env)
	case "||":
		if truthy(left) {
			return left, nil
		}
		return ev.eval(n.ChildByFieldName("right"), env)
	case "??":
		if left != nil {
			return left, nil
		}
		return ev.eval(n.ChildByFieldName("right"), env)
	}
	right, err := ev.eval(n.ChildByFieldName("right"), env)
	if err != nil {
		return nil, err
	}
	return ev.binaryOp(op, left, right)
}

func (ev *evaluator) binaryOp(op string, left, right any) (any, error) {
	switch op {
	case "+":
		lf, lok := numeric(left)
		rf, rok := numeric(right)
		if lok && rok {
			return lf + rf, nil
		}
		return toDisplay(left) + toDisplay(right), nil
	case "-", "*", "/", "%", "**":
		lf, _ := numeric(left)
		rf, _ := numeric(right)
		switch op {
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "/":
			return lf / rf, nil
		case "%":
			if rf == 0 {
				return 0.0, nil
			}
			return float64(int64(lf) % int64(rf)), nil
		default:
			pow := 1.0
			for i := 0; i < int(rf); i++ {
				pow *= lf
			}
			return pow, nil
		}
	case "==", "===":
		return equals(left, right), nil
	case "!=", "!==":
		return !equals(left, right), nil
	case "<", "<=", ">", ">=":
		lf, lok := numeric(left)
		rf, rok := numeric(right)
		if lok && rok {
			switch op {
			case "<":
				return lf < rf, nil
			case "<=":
				return lf <= rf, nil
			case ">":
				return lf > rf, nil
			default:
				return lf >= rf, nil
			}
		}
		ls, rs := toDisplay(left), toDisplay(right)
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		default:
			return ls >= rs, nil
		}
	case "instanceof":
		return left != nil, nil
	case "in":
		if m, ok := right.(map[string]any); ok {
			_, present := m[toDisplay(left)]
			return present, nil
		}
		return false, nil
	default:
		return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedSyntax, op)
	}
}

func (ev *evaluator) evalUnary(n *sitter.Node, env *Env) (any, error) {
	v, err := ev.eval(n.ChildByFieldName("argument"), env)
	if err != nil {
		return nil, err
	}
	switch op := ev.text(n.ChildByFieldName("operator")); op {
	case "!":
		return !truthy(v), nil
	case "-":
		f, _ := numeric(v)
		return -f, nil
	case "+":
		f, _ := numeric(v)
		return f, nil
	case "typeof":
		return typeofString(v), nil
	case "void":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedSyntax, op)
	}
}

func typeofString(v any) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *funcValue, *classValue, capability.Callable:
		return "function"
	default:
		return "object"
	}
}

func (ev *evaluator) evalUpdate(n *sitter.Node, env *Env) (any, error) {
	target := n.ChildByFieldName("argument")
	cur, err := ev.eval(target, env)
	if err != nil {
		return nil, err
	}
	f, _ := numeric(cur)
	op := ev.text(n.ChildByFieldName("operator"))
	next := f + 1
	if op == "--" {
		next = f - 1
	}
	if err := ev.assign(target, next, env); err != nil {
		return nil, err
	}
	// postfix/prefix distinction does not matter to the data modules
	return next, nil
}
