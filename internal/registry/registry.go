// Package registry models the small tagged-variant family of Requirement,
// Quest and Container types the extraction engine knows how to capture
// with full field fidelity, plus a generic positional fallback for every
// variant name outside the known set. No game logic lives here; the
// records only hold what the constructors were called with.
package registry

import (
	"github.com/qaz17899/funbot/internal/capability"
	"github.com/qaz17899/funbot/internal/config"
)

// Registry binds known variant constructors into an execution scope and
// captures everything they construct into a run-scoped Collector.
type Registry struct {
	collector  *Collector
	regions    []string
	balls      []string
	containers []string
	knownReqs  []string
	knownQsts  []string
	enums      map[string]map[string]int
}

// New builds a Registry for one run from the domain profile.
func New(p *config.Profile, collector *Collector) *Registry {
	return &Registry{
		collector:  collector,
		regions:    p.Regions,
		balls:      p.Pokeballs,
		containers: p.ContainerTypes,
		knownReqs:  p.KnownRequirements,
		knownQsts:  p.KnownQuests,
		enums:      p.Enums,
	}
}

type ctorKind int

const (
	kindRequirement ctorKind = iota
	kindQuest
	kindContainer
	kindPokemon
)

type ctor struct {
	r    *Registry
	name string
	kind ctorKind
}

func (c ctor) Call(args []any) (any, error) {
	switch c.kind {
	case kindQuest:
		return c.r.buildQuest(c.name, args), nil
	case kindContainer:
		return c.r.buildContainer(c.name, args), nil
	case kindPokemon:
		return c.r.buildPokemon(args), nil
	default:
		return c.r.buildRequirement(c.name, args), nil
	}
}

// Seed binds the known variant constructors, the container constructors
// and the configured enum tables into scope before execution starts.
func (r *Registry) Seed(scope capability.Binder) {
	for _, name := range r.knownReqs {
		scope.Bind(name, ctor{r: r, name: name, kind: kindRequirement})
	}
	for _, name := range r.knownQsts {
		scope.Bind(name, ctor{r: r, name: name, kind: kindQuest})
	}
	for _, name := range r.containers {
		scope.Bind(name, ctor{r: r, name: name, kind: kindContainer})
	}
	scope.Bind("GymPokemon", ctor{r: r, kind: kindPokemon, name: "GymPokemon"})

	// GameConstants is a Capability rather than a plain table so member
	// access beyond the seeded enums still synthesizes stand-ins.
	gameConstants := capability.New("GameConstants")
	gameConstants.Set("Region", enumTable(r.regions))
	gameConstants.Set("Pokeball", enumTable(r.balls))
	gameConstants.Set("AchievementOption", map[string]any{"less": 0.0, "equal": 1.0, "more": 2.0})
	for path, table := range r.enums {
		root, rest := splitPath(path)
		m := map[string]any{}
		for k, v := range table {
			m[k] = float64(v)
		}
		switch {
		case root == "GameConstants" && rest != "":
			gameConstants.Set(rest, m)
		case rest == "":
			scope.Bind(root, m)
		default:
			holder := capability.New(root)
			holder.Set(rest, m)
			scope.Bind(root, holder)
		}
	}
	scope.Bind("GameConstants", gameConstants)
}

// Families returns the structural fallbacks for variant names outside the
// known set: any identifier ending in Requirement or Quest still resolves
// to a constructor that captures its arguments positionally.
func (r *Registry) Families() []capability.Family {
	return []capability.Family{
		{Suffix: "Requirement", Make: func(name string) capability.Callable {
			return ctor{r: r, name: name, kind: kindRequirement}
		}},
		{Suffix: "Quest", Make: func(name string) capability.Callable {
			return ctor{r: r, name: name, kind: kindQuest}
		}},
	}
}

func enumTable(names []string) map[string]any {
	m := make(map[string]any, len(names))
	for i, n := range names {
		m[n] = float64(i)
	}
	return m
}

func splitPath(path string) (root, rest string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}
