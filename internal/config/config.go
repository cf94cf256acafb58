// Package config loads extraction profiles. A profile names the target and
// companion sources, the output path, and the per-domain knowledge the
// engine must not bake in: known variant type names, container constructor
// names, entry-point naming convention, and enum tables seeded into the
// execution scope.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds all configuration for one extraction run.
type Profile struct {
	// Domain is a label for logs ("questlines", "battles").
	Domain string `yaml:"domain"`

	// Source is the path to the target module's source text.
	Source string `yaml:"source"`

	// Names is the path to the companion name-declarations source.
	// Empty disables the NameBinding table.
	Names string `yaml:"names"`

	// Output is the path the document is written to.
	Output string `yaml:"output"`

	// EntryPointPattern matches static method names that are declarative
	// entry points, invoked after the main body in discovery order.
	EntryPointPattern string `yaml:"entry_point_pattern"`

	// ContainerTypes are constructor names that register a container.
	ContainerTypes []string `yaml:"container_types"`

	// KnownRequirements and KnownQuests enumerate the variant names the
	// registry models with typed fields. Anything else ending in a family
	// suffix is captured generically.
	KnownRequirements []string `yaml:"known_requirements"`
	KnownQuests       []string `yaml:"known_quests"`

	// NameConstructors are the constructor spellings the name resolver
	// recognizes in the companion source.
	NameConstructors []string `yaml:"name_constructors"`

	// Regions maps region index to region name, in enum order.
	Regions []string `yaml:"regions"`

	// Pokeballs maps ball tier index to ball name, in enum order.
	Pokeballs []string `yaml:"pokeballs"`

	// Enums are extra tables seeded into scope before execution, keyed by
	// dotted access path, e.g. "GameConstants.BattleItemType".
	Enums map[string]map[string]int `yaml:"enums"`
}

// Default returns the profile defaults shared by both extraction domains.
func Default() *Profile {
	return &Profile{
		Domain:            "questlines",
		Output:            "quest_lines_data.json",
		EntryPointPattern: `^create`,
		ContainerTypes:    []string{"QuestLine"},
		NameConstructors:  []string{"NPC", "ProfNPC", "RoamerNPC", "GiftNPC"},
		Regions: []string{
			"kanto", "johto", "hoenn", "sinnoh", "unova",
			"kalos", "alola", "galar", "hisui", "paldea",
		},
		Pokeballs: []string{
			"Pokeball", "Greatball", "Ultraball", "Masterball",
			"Fastball", "Quickball", "Timerball", "Duskball",
			"Luxuryball", "Diveball", "Lureball", "Nestball",
			"Repeatball", "Beastball",
		},
	}
}

// Load reads a YAML profile over the defaults.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Source == "" {
		return nil, fmt.Errorf("profile %s: source is required", path)
	}
	return p, nil
}
