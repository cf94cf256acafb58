package registry

// Container is a named, ordered collection of quest or battle-roster
// entries: a QuestLine or a TemporaryBattle. Children receive a strictly
// increasing 1-based ordinal in declaration order.
type Container struct {
	Kind        string // constructor name that built it
	Name        string
	Description string
	Requirement *Requirement
	Flags       map[string]any
	Children    []any // *Quest or *GymPokemon, declaration order
}

// GymPokemon is one roster entry of a battle container.
type GymPokemon struct {
	Name        string
	Health      int64
	Level       int
	Shiny       bool
	Requirement *Requirement
	Args        []any
}

func (r *Registry) buildContainer(name string, args []any) *Container {
	ct := &Container{Kind: name, Flags: map[string]any{}}
	switch name {
	case "TemporaryBattle":
		ct.Name = asString(arg(args, 0))
		if list, ok := arg(args, 1).([]any); ok {
			for _, it := range list {
				if p, ok := it.(*GymPokemon); ok {
					ct.Children = append(ct.Children, p)
				}
			}
		}
		ct.Description = asString(arg(args, 2))
		if reqs := requirementList([]any{arg(args, 3)}); len(reqs) == 1 {
			ct.Requirement = reqs[0]
		} else if len(reqs) > 1 {
			ct.Requirement = &Requirement{
				Type: "MultiRequirement", Comparison: More,
				Children: reqs, Known: true,
			}
		}
		if bag, ok := arg(args, 4).(map[string]any); ok {
			for k, v := range bag {
				ct.Flags[k] = v
			}
		}

	default:
		// QuestLine-shaped: (name, description, requirement?, bulletinBoard?)
		ct.Name = asString(arg(args, 0))
		ct.Description = asString(arg(args, 1))
		if req, ok := arg(args, 2).(*Requirement); ok {
			ct.Requirement = req
		}
		if v := arg(args, 3); v != nil {
			ct.Flags["bulletinBoard"] = symbolName(v)
		}
	}
	r.collector.Add(ct)
	return ct
}

func (r *Registry) buildPokemon(args []any) *GymPokemon {
	p := &GymPokemon{
		Name:   asString(arg(args, 0)),
		Health: asInt64(arg(args, 1), 0),
		Level:  asInt(arg(args, 2), 0),
	}
	for _, extra := range args[min(3, len(args)):] {
		switch v := extra.(type) {
		case *Requirement:
			p.Requirement = v
		case bool:
			p.Shiny = v
		default:
			if v != nil {
				p.Args = append(p.Args, v)
			}
		}
	}
	return p
}

// AddQuest appends a quest, assigning the next 1-based ordinal.
func (c *Container) AddQuest(q *Quest) {
	q.Ordinal = len(c.Children) + 1
	q.InQuestLine = true
	c.Children = append(c.Children, q)
}

// Member resolves property access on a Container from evaluated source.
func (c *Container) Member(name string) any {
	switch name {
	case "name":
		return c.Name
	case "description":
		return c.Description
	default:
		return containerMethod{container: c, name: name}
	}
}

type containerMethod struct {
	container *Container
	name      string
}

func (m containerMethod) Call(args []any) (any, error) {
	switch m.name {
	case "addQuest":
		if len(args) > 0 {
			if q, ok := args[0].(*Quest); ok {
				m.container.AddQuest(q)
			}
		}
	}
	return m.container, nil
}
