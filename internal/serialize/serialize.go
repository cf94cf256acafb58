// Package serialize turns collected container graphs into the output
// document. Serialization is pure and recursive: composite variants walk
// their children through the same procedure, function-valued fields become
// boolean presence flags, and emission order is deterministic so re-running
// extraction on unchanged inputs produces byte-identical documents.
package serialize

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/qaz17899/funbot/internal/capability"
	"github.com/qaz17899/funbot/internal/registry"
)

type containerDoc struct {
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	UnlockRequirement any            `json:"unlockRequirement"`
	Flags             map[string]any `json:"flags"`
	Children          []any          `json:"children"`
}

// Document renders the collected containers as an indented JSON array in
// collection order, with a trailing newline.
func Document(containers []*registry.Container) ([]byte, error) {
	docs := make([]containerDoc, 0, len(containers))
	for _, c := range containers {
		docs = append(docs, container(c))
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

func container(c *registry.Container) containerDoc {
	doc := containerDoc{
		Name:        c.Name,
		Description: c.Description,
		Flags:       map[string]any{},
		Children:    []any{},
	}
	if c.Requirement != nil {
		doc.UnlockRequirement = Requirement(c.Requirement)
	}
	for k, v := range c.Flags {
		doc.Flags[k] = value(v)
	}
	for _, child := range c.Children {
		doc.Children = append(doc.Children, value(child))
	}
	return doc
}

// Requirement renders one requirement node. The discriminator always
// matches the variant name; requiredValue is internal bookkeeping surfaced
// through the variant's own field, and comparisonMode appears only when it
// differs from the implicit "more" default.
func Requirement(r *registry.Requirement) map[string]any {
	doc := map[string]any{"type": r.Type}
	if !r.Known {
		for i, a := range r.Args {
			doc["arg"+strconv.Itoa(i)] = value(a)
		}
		return doc
	}
	for k, v := range r.Payload {
		doc[k] = value(v)
	}
	if len(r.Children) > 0 {
		children := make([]any, 0, len(r.Children))
		for _, child := range r.Children {
			children = append(children, Requirement(child))
		}
		doc["requirements"] = children
	}
	if r.Comparison != registry.More {
		doc["comparisonMode"] = r.Comparison.String()
	}
	return doc
}

// Quest renders one quest node.
func Quest(q *registry.Quest) map[string]any {
	doc := map[string]any{"type": q.Type}
	if !q.Known {
		for i, a := range q.Args {
			doc["arg"+strconv.Itoa(i)] = value(a)
		}
		return doc
	}
	doc["amount"] = q.Amount
	doc["pointsReward"] = q.PointsReward
	if q.Description != "" {
		doc["description"] = q.Description
	}
	for k, v := range q.Payload {
		doc[k] = value(v)
	}
	if len(q.Children) > 0 {
		children := make([]any, 0, len(q.Children))
		for _, child := range q.Children {
			children = append(children, Quest(child))
		}
		doc["quests"] = children
	}
	if q.InQuestLine {
		doc["inQuestLine"] = true
	}
	if q.CustomReward != nil {
		doc["hasCustomReward"] = true
	}
	if q.CompletionFn != nil {
		doc["hasCompletionCheck"] = true
	}
	for k, v := range q.Optional {
		if _, taken := doc[k]; !taken {
			doc[k] = value(v)
		}
	}
	return doc
}

func pokemon(p *registry.GymPokemon) map[string]any {
	doc := map[string]any{
		"name":   p.Name,
		"health": p.Health,
		"level":  p.Level,
	}
	if p.Shiny {
		doc["shiny"] = true
	}
	if p.Requirement != nil {
		doc["requirement"] = Requirement(p.Requirement)
	}
	for i, a := range p.Args {
		doc["arg"+strconv.Itoa(i)] = value(a)
	}
	return doc
}

// value renders an arbitrary captured value. Model instances recurse,
// name references collapse to their display name, stray capabilities keep
// their access path, and anything callable becomes a presence flag.
func value(v any) any {
	switch t := v.(type) {
	case nil, bool, string, float64, int, int64:
		return t
	case *registry.Requirement:
		return Requirement(t)
	case *registry.Quest:
		return Quest(t)
	case *registry.GymPokemon:
		return pokemon(t)
	case *registry.Container:
		return container(t)
	case *capability.NameRef:
		return t.Display
	case *capability.Capability:
		return t.Path()
	case capability.Callable:
		return true
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, value(item))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = value(item)
		}
		return out
	default:
		return fmt.Sprintf("%v", t)
	}
}
