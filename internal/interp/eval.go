package interp

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/qaz17899/funbot/internal/capability"
)

// ErrUnsupportedSyntax marks a construct the reduced execution path cannot
// run. It is fatal when hit in the main body, isolated when it surfaces
// inside an entry point.
var ErrUnsupportedSyntax = errors.New("unsupported syntax")

// Loop iterations are capped so a construct the stand-in environment keeps
// truthy forever cannot hang a run.
const maxLoopIterations = 1_000_000

type ctrl int

const (
	ctrlNone ctrl = iota
	ctrlReturn
	ctrlBreak
	ctrlContinue
)

// evaluator walks the parsed syntax tree of the target module, routing
// every free identifier through the capability resolver. It executes the
// declarative subset of the language the data modules actually use; any
// other construct raises ErrUnsupportedSyntax.
type evaluator struct {
	src      []byte
	resolver *capability.Resolver
	global   *Env
}

func newEvaluator(src []byte, resolver *capability.Resolver, global *Env) *evaluator {
	return &evaluator{src: src, resolver: resolver, global: global}
}

func (ev *evaluator) text(n *sitter.Node) string {
	return string(ev.src[n.StartByte():n.EndByte()])
}

func (ev *evaluator) unsupported(n *sitter.Node) error {
	pt := n.StartPoint()
	return fmt.Errorf("%w: %s at %d:%d", ErrUnsupportedSyntax, n.Type(), pt.Row+1, pt.Column+1)
}

func (ev *evaluator) execProgram(root *sitter.Node) error {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if c, _, err := ev.execStmt(child, ev.global); err != nil {
			return err
		} else if c != ctrlNone {
			break
		}
	}
	return nil
}

func (ev *evaluator) execStmt(n *sitter.Node, env *Env) (ctrl, any, error) {
	switch n.Type() {
	case "comment", "empty_statement", "hash_bang_line",
		"interface_declaration", "type_alias_declaration",
		"ambient_declaration", "import_statement":
		// type-only and module plumbing, no runtime effect
		return ctrlNone, nil, nil

	case "export_statement":
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			return ev.execStmt(decl, env)
		}
		if val := n.ChildByFieldName("value"); val != nil {
			_, err := ev.eval(val, env)
			return ctrlNone, nil, err
		}
		return ctrlNone, nil, nil

	case "lexical_declaration", "variable_declaration":
		return ctrlNone, nil, ev.execDeclaration(n, env)

	case "expression_statement":
		if expr := firstNamed(n); expr != nil {
			_, err := ev.eval(expr, env)
			return ctrlNone, nil, err
		}
		return ctrlNone, nil, nil

	case "function_declaration":
		fv, err := ev.newFunc(n, env)
		if err != nil {
			return ctrlNone, nil, err
		}
		env.Bind(fv.name, fv)
		return ctrlNone, nil, nil

	case "class_declaration", "abstract_class_declaration":
		return ctrlNone, nil, ev.execClass(n, env)

	case "enum_declaration":
		return ctrlNone, nil, ev.execEnum(n, env)

	case "statement_block":
		return ev.execBlock(n, NewEnv(env))

	case "if_statement":
		cond, err := ev.eval(n.ChildByFieldName("condition"), env)
		if err != nil {
			return ctrlNone, nil, err
		}
		if truthy(cond) {
			return ev.execStmt(n.ChildByFieldName("consequence"), env)
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			// else_clause wraps the actual statement
			if inner := firstNamed(alt); inner != nil {
				return ev.execStmt(inner, env)
			}
		}
		return ctrlNone, nil, nil

	case "for_in_statement":
		return ev.execForIn(n, env)

	case "for_statement":
		return ev.execFor(n, env)

	case "while_statement":
		return ev.execWhile(n, env)

	case "return_statement":
		var ret any
		if expr := firstNamed(n); expr != nil {
			v, err := ev.eval(expr, env)
			if err != nil {
				return ctrlNone, nil, err
			}
			ret = v
		}
		return ctrlReturn, ret, nil

	case "break_statement":
		return ctrlBreak, nil, nil

	case "continue_statement":
		return ctrlContinue, nil, nil

	case "throw_statement":
		v, err := ev.eval(firstNamed(n), env)
		if err != nil {
			return ctrlNone, nil, err
		}
		return ctrlNone, nil, fmt.Errorf("thrown: %s", toDisplay(v))

	default:
		return ctrlNone, nil, ev.unsupported(n)
	}
}

func (ev *evaluator) execBlock(n *sitter.Node, env *Env) (ctrl, any, error) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		c, ret, err := ev.execStmt(child, env)
		if err != nil || c != ctrlNone {
			return c, ret, err
		}
	}
	return ctrlNone, nil, nil
}

func (ev *evaluator) execDeclaration(n *sitter.Node, env *Env) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		var v any
		if valNode := decl.ChildByFieldName("value"); valNode != nil {
			val, err := ev.eval(valNode, env)
			if err != nil {
				return err
			}
			v = val
		}
		if err := ev.bindPattern(decl.ChildByFieldName("name"), v, env); err != nil {
			return err
		}
	}
	return nil
}

// bindPattern binds a declaration target: an identifier or a shallow
// object/array destructuring pattern.
func (ev *evaluator) bindPattern(pattern *sitter.Node, v any, env *Env) error {
	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		env.Bind(ev.text(pattern), v)
		return nil

	case "object_pattern":
		obj, _ := v.(map[string]any)
		for i := 0; i < int(pattern.NamedChildCount()); i++ {
			field := pattern.NamedChild(i)
			switch field.Type() {
			case "shorthand_property_identifier_pattern":
				name := ev.text(field)
				env.Bind(name, obj[name])
			case "pair_pattern":
				key := ev.text(field.ChildByFieldName("key"))
				if err := ev.bindPattern(field.ChildByFieldName("value"), obj[key], env); err != nil {
					return err
				}
			case "object_assignment_pattern":
				key := ev.text(field.ChildByFieldName("left"))
				if err := ev.bindPattern(field, obj[key], env); err != nil {
					return err
				}
			}
		}
		return nil

	case "assignment_pattern", "object_assignment_pattern":
		if v == nil {
			if def := pattern.ChildByFieldName("right"); def != nil {
				dv, err := ev.eval(def, env)
				if err != nil {
					return err
				}
				v = dv
			}
		}
		return ev.bindPattern(pattern.ChildByFieldName("left"), v, env)

	case "array_pattern":
		list, _ := v.([]any)
		for i := 0; i < int(pattern.NamedChildCount()); i++ {
			var item any
			if i < len(list) {
				item = list[i]
			}
			if err := ev.bindPattern(pattern.NamedChild(i), item, env); err != nil {
				return err
			}
		}
		return nil

	default:
		return ev.unsupported(pattern)
	}
}

func (ev *evaluator) execForIn(n *sitter.Node, env *Env) (ctrl, any, error) {
	right, err := ev.eval(n.ChildByFieldName("right"), env)
	if err != nil {
		return ctrlNone, nil, err
	}
	left := n.ChildByFieldName("left")
	body := n.ChildByFieldName("body")

	var items []any
	switch t := right.(type) {
	case []any:
		items = t
	case string:
		for _, r := range t {
			items = append(items, string(r))
		}
	case map[string]any:
		// for...in iterates keys, for...of over maps does not occur in
		// the sources; keys emitted sorted for determinism either way
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			items = append(items, k)
		}
	default:
		// stand-in iterables contribute nothing
		return ctrlNone, nil, nil
	}

	for _, item := range items {
		loopEnv := NewEnv(env)
		if err := ev.bindPattern(left, item, loopEnv); err != nil {
			return ctrlNone, nil, err
		}
		c, ret, err := ev.execStmt(body, loopEnv)
		if err != nil {
			return ctrlNone, nil, err
		}
		if c == ctrlReturn {
			return c, ret, nil
		}
		if c == ctrlBreak {
			break
		}
	}
	return ctrlNone, nil, nil
}

func (ev *evaluator) execFor(n *sitter.Node, env *Env) (ctrl, any, error) {
	loopEnv := NewEnv(env)
	if init := n.ChildByFieldName("initializer"); init != nil && init.Type() != "empty_statement" {
		if _, _, err := ev.execStmt(init, loopEnv); err != nil {
			return ctrlNone, nil, err
		}
	}
	cond := n.ChildByFieldName("condition")
	inc := n.ChildByFieldName("increment")
	body := n.ChildByFieldName("body")

	for i := 0; ; i++ {
		if i >= maxLoopIterations {
			return ctrlNone, nil, fmt.Errorf("%w: loop exceeded %d iterations", ErrUnsupportedSyntax, maxLoopIterations)
		}
		if cond != nil && cond.Type() != "empty_statement" {
			condExpr := cond
			if cond.Type() == "expression_statement" {
				condExpr = firstNamed(cond)
			}
			v, err := ev.eval(condExpr, loopEnv)
			if err != nil {
				return ctrlNone, nil, err
			}
			if !truthy(v) {
				break
			}
		}
		c, ret, err := ev.execStmt(body, loopEnv)
		if err != nil {
			return ctrlNone, nil, err
		}
		if c == ctrlReturn {
			return c, ret, nil
		}
		if c == ctrlBreak {
			break
		}
		if inc != nil {
			if _, err := ev.eval(inc, loopEnv); err != nil {
				return ctrlNone, nil, err
			}
		}
	}
	return ctrlNone, nil, nil
}

func (ev *evaluator) execWhile(n *sitter.Node, env *Env) (ctrl, any, error) {
	cond := n.ChildByFieldName("condition")
	body := n.ChildByFieldName("body")
	for i := 0; ; i++ {
		if i >= maxLoopIterations {
			return ctrlNone, nil, fmt.Errorf("%w: loop exceeded %d iterations", ErrUnsupportedSyntax, maxLoopIterations)
		}
		v, err := ev.eval(cond, env)
		if err != nil {
			return ctrlNone, nil, err
		}
		if !truthy(v) {
			break
		}
		c, ret, err := ev.execStmt(body, env)
		if err != nil {
			return ctrlNone, nil, err
		}
		if c == ctrlReturn {
			return c, ret, nil
		}
		if c == ctrlBreak {
			break
		}
	}
	return ctrlNone, nil, nil
}

func (ev *evaluator) execClass(n *sitter.Node, env *Env) error {
	name := ev.text(n.ChildByFieldName("name"))
	cv := &classValue{
		name:    name,
		statics: make(map[string]any),
		methods: make(map[string]*funcValue),
		fields:  make(map[string]*sitter.Node),
	}
	// bound before the body so static members can refer to the class
	env.Bind(name, cv)

	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			mname := ev.text(member.ChildByFieldName("name"))
			fv, err := ev.newFunc(member, env)
			if err != nil {
				return err
			}
			if hasStaticModifier(member) {
				cv.statics[mname] = fv.bind(cv)
			} else {
				cv.methods[mname] = fv
			}
		case "public_field_definition":
			fname := ev.text(member.ChildByFieldName("name"))
			valNode := member.ChildByFieldName("value")
			if valNode == nil {
				continue
			}
			if hasStaticModifier(member) {
				v, err := ev.eval(valNode, env)
				if err != nil {
					return err
				}
				cv.statics[fname] = v
			} else {
				cv.fields[fname] = valNode
			}
		}
	}
	return nil
}

func (ev *evaluator) execEnum(n *sitter.Node, env *Env) error {
	name := ev.text(n.ChildByFieldName("name"))
	body := n.ChildByFieldName("body")
	table := make(map[string]any)
	next := 0.0
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			switch member.Type() {
			case "enum_assignment":
				key := ev.text(member.ChildByFieldName("name"))
				v, err := ev.eval(member.ChildByFieldName("value"), env)
				if err != nil {
					return err
				}
				table[key] = v
				if f, ok := v.(float64); ok {
					next = f + 1
				}
			case "property_identifier":
				table[ev.text(member)] = next
				next++
			}
		}
	}
	env.Bind(name, table)
	return nil
}

func (ev *evaluator) instantiate(cv *classValue, args []any) (any, error) {
	obj := make(map[string]any)
	for fname, valNode := range cv.fields {
		v, err := ev.eval(valNode, ev.global)
		if err != nil {
			return nil, err
		}
		obj[fname] = v
	}
	for mname, m := range cv.methods {
		if mname != "constructor" {
			obj[mname] = m.bind(obj)
		}
	}
	if ctor, ok := cv.methods["constructor"]; ok {
		if _, err := ctor.bind(obj).Call(args); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// firstNamed returns the first named child that is not a comment.
func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			return c
		}
	}
	return nil
}

func hasStaticModifier(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "static" {
			return true
		}
	}
	return false
}

// newFunc builds a funcValue from a function declaration, method
// definition, arrow function or function expression node.
func (ev *evaluator) newFunc(n *sitter.Node, env *Env) (*funcValue, error) {
	fv := &funcValue{env: env, ev: ev}
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		fv.name = ev.text(nameNode)
	}
	fv.body = n.ChildByFieldName("body")
	if fv.body == nil {
		return nil, ev.unsupported(n)
	}

	if single := n.ChildByFieldName("parameter"); single != nil {
		fv.params = append(fv.params, param{name: ev.text(single)})
		return fv, nil
	}
	formals := n.ChildByFieldName("parameters")
	if formals == nil {
		return fv, nil
	}
	for i := 0; i < int(formals.NamedChildCount()); i++ {
		pn := formals.NamedChild(i)
		switch pn.Type() {
		case "comment":
		case "identifier":
			fv.params = append(fv.params, param{name: ev.text(pn)})
		case "required_parameter", "optional_parameter":
			p := param{def: pn.ChildByFieldName("value")}
			pat := pn.ChildByFieldName("pattern")
			if pat == nil {
				return nil, ev.unsupported(pn)
			}
			switch pat.Type() {
			case "identifier":
				p.name = ev.text(pat)
			case "rest_pattern":
				p.rest = true
				if inner := firstNamed(pat); inner != nil {
					p.name = ev.text(inner)
				}
			default:
				p.pattern = pat
			}
			fv.params = append(fv.params, p)
		case "rest_pattern":
			p := param{rest: true}
			if inner := firstNamed(pn); inner != nil {
				p.name = ev.text(inner)
			}
			fv.params = append(fv.params, p)
		case "object_pattern", "array_pattern":
			fv.params = append(fv.params, param{pattern: pn})
		default:
			return nil, ev.unsupported(pn)
		}
	}
	return fv, nil
}

func (ev *evaluator) lookupIdent(name string, env *Env) any {
	if v, ok := env.Lookup(name); ok {
		return v
	}
	if name == "undefined" {
		return nil
	}
	return ev.resolver.Resolve(ev.global, name)
}

func (ev *evaluator) eval(n *sitter.Node, env *Env) (any, error) {
	switch n.Type() {
	case "identifier":
		return ev.lookupIdent(ev.text(n), env), nil

	case "this":
		if v, ok := env.Lookup("this"); ok {
			return v, nil
		}
		return ev.resolver.Resolve(ev.global, "this"), nil

	case "number":
		return parseNumber(ev.text(n))

	case "string":
		return ev.decodeString(n), nil

	case "template_string":
		return ev.evalTemplate(n, env)

	case "regex":
		return ev.text(n), nil

	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil

	case "array":
		return ev.evalArray(n, env)

	case "object":
		return ev.evalObject(n, env)

	case "arrow_function", "function_expression", "function", "generator_function":
		return ev.newFunc(n, env)

	case "parenthesized_expression":
		return ev.eval(firstNamed(n), env)

	case "member_expression":
		return ev.evalMember(n, env)

	case "subscript_expression":
		return ev.evalSubscript(n, env)

	case "call_expression":
		return ev.evalCall(n, env)

	case "new_expression":
		return ev.evalNew(n, env)

	case "assignment_expression":
		v, err := ev.eval(n.ChildByFieldName("right"), env)
		if err != nil {
			return nil, err
		}
		return v, ev.assign(n.ChildByFieldName("left"), v, env)

	case "augmented_assignment_expression":
		return ev.evalAugmented(n, env)

	case "binary_expression":
		return ev.evalBinary(n, env)

	case "unary_expression":
		return ev.evalUnary(n, env)

	case "update_expression":
		return ev.evalUpdate(n, env)

	case "ternary_expression":
		cond, err := ev.eval(n.ChildByFieldName("condition"), env)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return ev.eval(n.ChildByFieldName("consequence"), env)
		}
		return ev.eval(n.ChildByFieldName("alternative"), env)

	case "sequence_expression":
		var last any
		for i := 0; i < int(n.NamedChildCount()); i++ {
			v, err := ev.eval(n.NamedChild(i), env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case "as_expression", "satisfies_expression", "non_null_expression",
		"type_assertion", "instantiation_expression", "await_expression":
		// type-level wrappers and awaits are neutralized to their operand
		return ev.eval(firstNamed(n), env)

	case "spread_element":
		return ev.eval(firstNamed(n), env)

	default:
		return nil, ev.unsupported(n)
	}
}

func (ev *evaluator) evalArray(n *sitter.Node, env *Env) (any, error) {
	out := make([]any, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		item := n.NamedChild(i)
		if item.Type() == "comment" {
			continue
		}
		if item.Type() == "spread_element" {
			v, err := ev.eval(firstNamed(item), env)
			if err != nil {
				return nil, err
			}
			if list, ok := v.([]any); ok {
				out = append(out, list...)
			} else if v != nil {
				out = append(out, v)
			}
			continue
		}
		v, err := ev.eval(item, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ev *evaluator) evalObject(n *sitter.Node, env *Env) (any, error) {
	obj := make(map[string]any)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		entry := n.NamedChild(i)
		switch entry.Type() {
		case "comment":
		case "pair":
			key, err := ev.objectKey(entry.ChildByFieldName("key"), env)
			if err != nil {
				return nil, err
			}
			v, err := ev.eval(entry.ChildByFieldName("value"), env)
			if err != nil {
				return nil, err
			}
			obj[key] = v
		case "shorthand_property_identifier":
			name := ev.text(entry)
			obj[name] = ev.lookupIdent(name, env)
		case "spread_element":
			v, err := ev.eval(firstNamed(entry), env)
			if err != nil {
				return nil, err
			}
			if m, ok := v.(map[string]any); ok {
				for k, mv := range m {
					obj[k] = mv
				}
			}
		case "method_definition":
			mname := ev.text(entry.ChildByFieldName("name"))
			fv, err := ev.newFunc(entry, env)
			if err != nil {
				return nil, err
			}
			obj[mname] = fv.bind(obj)
		default:
			return nil, ev.unsupported(entry)
		}
	}
	return obj, nil
}

func (ev *evaluator) objectKey(n *sitter.Node, env *Env) (string, error) {
	switch n.Type() {
	case "property_identifier", "number":
		return ev.text(n), nil
	case "string":
		return ev.decodeString(n), nil
	case "computed_property_name":
		v, err := ev.eval(firstNamed(n), env)
		if err != nil {
			return "", err
		}
		return toDisplay(v), nil
	default:
		return "", ev.unsupported(n)
	}
}

func (ev *evaluator) evalTemplate(n *sitter.Node, env *Env) (any, error) {
	var b strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		part := n.NamedChild(i)
		switch part.Type() {
		case "string_fragment":
			b.WriteString(ev.text(part))
		case "escape_sequence":
			b.WriteString(decodeEscape(ev.text(part)))
		case "template_substitution":
			v, err := ev.eval(firstNamed(part), env)
			if err != nil {
				return nil, err
			}
			b.WriteString(toDisplay(v))
		}
	}
	return b.String(), nil
}

func (ev *evaluator) decodeString(n *sitter.Node) string {
	var b strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		part := n.NamedChild(i)
		switch part.Type() {
		case "string_fragment":
			b.WriteString(ev.text(part))
		case "escape_sequence":
			b.WriteString(decodeEscape(ev.text(part)))
		}
	}
	return b.String()
}

func decodeEscape(s string) string {
	if len(s) < 2 || s[0] != '\\' {
		return s
	}
	switch s[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case 'u', 'x':
		if r, _, _, err := strconv.UnquoteChar(`\`+s[1:], 0); err == nil {
			return string(r)
		}
		return s[1:]
	default:
		return s[1:]
	}
}

func parseNumber(text string) (any, error) {
	text = strings.ReplaceAll(text, "_", "")
	text = strings.TrimSuffix(text, "n")
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return float64(i), nil
	}
	return nil, fmt.Errorf("%w: number literal %q", ErrUnsupportedSyntax, text)
}
