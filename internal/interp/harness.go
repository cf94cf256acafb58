// Package interp executes a declarative game-data module against the
// capability resolver and collects every container it constructs. The
// target module was written for a large live runtime that is not
// available; the harness substitutes stand-ins for every missing
// dependency and records what gets built.
package interp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"github.com/qaz17899/funbot/internal/capability"
	"github.com/qaz17899/funbot/internal/config"
	"github.com/qaz17899/funbot/internal/names"
	"github.com/qaz17899/funbot/internal/registry"
	"github.com/qaz17899/funbot/internal/serialize"
)

// State is the harness's position in one run.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateTranspiling
	StateExecuting
	StateCollected
	StateSerialized
	StateValidated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateTranspiling:
		return "transpiling"
	case StateExecuting:
		return "executing"
	case StateCollected:
		return "collected"
	case StateSerialized:
		return "serialized"
	case StateValidated:
		return "validated"
	default:
		return "idle"
	}
}

// EntryPoint is one discovered declarative registration routine.
type EntryPoint struct {
	Class  string
	Method string
}

func (e EntryPoint) Name() string { return e.Class + "." + e.Method }

// EntryResult records the outcome of one entry-point invocation.
type EntryResult struct {
	Name string
	Err  error
}

// Result summarizes a completed run. Entry-point failures and an output
// validation failure live here rather than in Run's error: partial success
// is an expected outcome, not degraded behavior.
type Result struct {
	EntryPoints   []EntryResult
	Failed        int
	Containers    []*registry.Container
	Document      []byte
	OutputPath    string
	ValidationErr error
}

// Harness drives one extraction run start to finish: load, transpile,
// execute, collect, serialize, validate. Each run is one-shot and fully
// synchronous; the only fatal failures are loading and transpiling.
type Harness struct {
	profile *config.Profile
	log     *zap.Logger
	state   State
}

// New builds a Harness for one profile.
func New(profile *config.Profile, log *zap.Logger) *Harness {
	return &Harness{profile: profile, log: log}
}

// State reports the current run state.
func (h *Harness) State() State { return h.state }

// Run performs the whole extraction. The returned error is non-nil only
// for fatal causes: unreadable inputs, unparseable source, a main-body
// execution failure, or failure to serialize or write the output.
func (h *Harness) Run(ctx context.Context) (*Result, error) {
	p := h.profile

	h.state = StateLoading
	src, err := os.ReadFile(p.Source)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	bindings := map[string]string{}
	if p.Names != "" {
		companion, err := os.ReadFile(p.Names)
		if err != nil {
			return nil, fmt.Errorf("load companion source: %w", err)
		}
		bindings = names.Bindings(companion, p.NameConstructors)
	}
	h.log.Info("sources loaded",
		zap.String("source", p.Source),
		zap.Int("nameBindings", len(bindings)))

	h.state = StateTranspiling
	parser := parserFor(p.Source)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	defer tree.Close()
	root := tree.RootNode()
	if bad := firstErrorNode(root); bad != nil {
		pt := bad.StartPoint()
		return nil, fmt.Errorf("%w: parse error at %d:%d", ErrUnsupportedSyntax, pt.Row+1, pt.Column+1)
	}

	pattern, err := regexp.Compile(p.EntryPointPattern)
	if err != nil {
		return nil, fmt.Errorf("entry-point pattern: %w", err)
	}
	entries := h.discoverEntryPoints(src, root, pattern)
	h.log.Info("entry points discovered", zap.Int("count", len(entries)))

	h.state = StateExecuting
	collector := registry.NewCollector()
	reg := registry.New(p, collector)
	resolver := capability.NewResolver(bindings, reg.Families())
	global := NewEnv(nil)
	reg.Seed(global)
	ev := newEvaluator(src, resolver, global)

	if err := runProtected(func() error { return ev.execProgram(root) }); err != nil {
		return nil, fmt.Errorf("main body: %w", err)
	}

	res := &Result{OutputPath: p.Output}
	for _, ep := range entries {
		mark := collector.Len()
		err := runProtected(func() error { return h.invokeEntry(ev, ep) })
		if err != nil {
			// the failed entry point's half-built containers are dropped;
			// everything collected before it stays
			collector.Truncate(mark)
			res.Failed++
			h.log.Warn("entry point failed",
				zap.String("entryPoint", ep.Name()),
				zap.Error(err))
		}
		res.EntryPoints = append(res.EntryPoints, EntryResult{Name: ep.Name(), Err: err})
	}

	h.state = StateCollected
	res.Containers = collector.Containers()
	children := 0
	for _, ct := range res.Containers {
		children += len(ct.Children)
	}
	h.log.Info("collection complete",
		zap.Int("containers", len(res.Containers)),
		zap.Int("children", children),
		zap.Int("failedEntryPoints", res.Failed))

	h.state = StateSerialized
	doc, err := serialize.Document(res.Containers)
	if err != nil {
		return nil, err
	}
	res.Document = doc
	if err := os.WriteFile(p.Output, doc, 0o644); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	h.state = StateValidated
	if err := serialize.Validate(doc); err != nil {
		// advisory: the written file stays for inspection
		res.ValidationErr = err
		h.log.Error("output validation failed", zap.Error(err))
	}
	h.log.Info("document written",
		zap.String("path", p.Output),
		zap.Int("bytes", len(doc)))
	return res, nil
}

func (h *Harness) invokeEntry(ev *evaluator, ep EntryPoint) error {
	cls, ok := ev.global.Lookup(ep.Class)
	if !ok {
		return fmt.Errorf("class %s was never declared", ep.Class)
	}
	cv, ok := cls.(*classValue)
	if !ok {
		return fmt.Errorf("%s is not a class", ep.Class)
	}
	member, ok := cv.statics[ep.Method]
	if !ok {
		return fmt.Errorf("%s has no static %s", ep.Class, ep.Method)
	}
	callable, ok := member.(capability.Callable)
	if !ok {
		return fmt.Errorf("%s is not callable", ep.Name())
	}
	_, err := callable.Call(nil)
	return err
}

func runProtected(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// discoverEntryPoints scans top-level classes for static methods whose
// name matches the entry-point convention. They are invoked after the
// main body, in source order, because the absent real runtime would
// otherwise call them on demand and nothing else ever does.
func (h *Harness) discoverEntryPoints(src []byte, root *sitter.Node, pattern *regexp.Regexp) []EntryPoint {
	var entries []EntryPoint
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		if decl.Type() == "export_statement" {
			if inner := decl.ChildByFieldName("declaration"); inner != nil {
				decl = inner
			}
		}
		if decl.Type() != "class_declaration" && decl.Type() != "abstract_class_declaration" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		body := decl.ChildByFieldName("body")
		if nameNode == nil || body == nil {
			continue
		}
		className := string(src[nameNode.StartByte():nameNode.EndByte()])
		for j := 0; j < int(body.NamedChildCount()); j++ {
			member := body.NamedChild(j)
			if member.Type() != "method_definition" || !hasStaticModifier(member) {
				continue
			}
			mn := member.ChildByFieldName("name")
			if mn == nil {
				continue
			}
			method := string(src[mn.StartByte():mn.EndByte()])
			if pattern.MatchString(method) {
				entries = append(entries, EntryPoint{Class: className, Method: method})
			}
		}
	}
	return entries
}

// parserFor picks the grammar by extension, TypeScript unless the file is
// plain JavaScript.
func parserFor(path string) *sitter.Parser {
	parser := sitter.NewParser()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		parser.SetLanguage(javascript.GetLanguage())
	default:
		parser.SetLanguage(typescript.GetLanguage())
	}
	return parser
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if !n.HasError() {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstErrorNode(n.Child(i)); bad != nil {
			return bad
		}
	}
	return n
}
