package registry

// Quest is one entry of a quest line, tagged by the constructor name that
// built it. Builder-style mutators mutate in place and return the
// receiver, so declaration code can chain them in any order; each is
// idempotent.
type Quest struct {
	Type         string
	Amount       int
	PointsReward int
	Description  string
	Ordinal      int // 1-based position inside its container
	InQuestLine  bool
	Payload      map[string]any
	Children     []*Quest
	CustomReward any // callback value, never serialized as data
	CompletionFn any
	Optional     map[string]any
	Args         []any
	Known        bool
}

func (r *Registry) buildQuest(name string, args []any) *Quest {
	q := &Quest{Type: name, Amount: 1, Known: true}
	switch name {
	case "TalkToNPCQuest":
		q.Payload = map[string]any{"npc": asString(arg(args, 0))}
		q.Description = asString(arg(args, 1))
		q.PointsReward = asInt(arg(args, 2), 0)

	case "DefeatPokemonsQuest":
		q.Amount = asInt(arg(args, 0), 1)
		q.PointsReward = asInt(arg(args, 1), 0)
		q.Payload = map[string]any{
			"route":  asInt(arg(args, 2), 0),
			"region": r.regionName(arg(args, 3)),
		}
		q.Description = asString(arg(args, 4))

	case "CapturePokemonsQuest", "GainTokensQuest", "HatchEggsQuest":
		q.Amount = asInt(arg(args, 0), 1)
		q.PointsReward = asInt(arg(args, 1), 0)

	case "CaptureSpecificPokemonQuest":
		q.Payload = map[string]any{"pokemon": asString(arg(args, 0))}
		q.Amount = asInt(arg(args, 1), 1)
		if asBool(arg(args, 2)) {
			q.Payload["shiny"] = true
		}

	case "DefeatDungeonQuest":
		q.Amount = asInt(arg(args, 0), 1)
		q.PointsReward = asInt(arg(args, 1), 0)
		q.Payload = map[string]any{"dungeon": asString(arg(args, 2))}

	case "DefeatGymQuest":
		q.Amount = asInt(arg(args, 0), 1)
		q.PointsReward = asInt(arg(args, 1), 0)
		q.Payload = map[string]any{"gym": asString(arg(args, 2))}

	case "DefeatTemporaryBattleQuest":
		q.Payload = map[string]any{"battle": asString(arg(args, 0))}
		q.PointsReward = asInt(arg(args, 1), 0)

	case "BuyPokeballsQuest":
		q.Amount = asInt(arg(args, 0), 1)
		q.PointsReward = asInt(arg(args, 1), 0)
		q.Payload = map[string]any{"ball": r.ballName(arg(args, 2))}

	case "UsePokeballQuest":
		q.Payload = map[string]any{"ball": r.ballName(arg(args, 0))}
		q.Amount = asInt(arg(args, 1), 1)
		q.PointsReward = asInt(arg(args, 2), 0)

	case "MultipleQuestsQuest":
		q.Children = questList(arg(args, 0))
		q.Description = asString(arg(args, 1))

	case "CustomQuest":
		q.Amount = asInt(arg(args, 0), 1)
		q.PointsReward = asInt(arg(args, 1), 0)
		q.Description = asString(arg(args, 2))
		if len(args) > 3 && args[3] != nil {
			q.CompletionFn = args[3]
		}

	default:
		q.Known = false
		q.Args = append([]any{}, args...)
	}
	return q
}

func questList(v any) []*Quest {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []*Quest
	for _, it := range list {
		if q, ok := it.(*Quest); ok {
			out = append(out, q)
		}
	}
	return out
}

// Member resolves property access on a Quest from evaluated source. The
// three builder mutators are modeled; any other chained call is a no-op
// that keeps returning the receiver so unknown builder spellings never
// break a declaration chain.
func (q *Quest) Member(name string) any {
	return questMutator{quest: q, name: name}
}

type questMutator struct {
	quest *Quest
	name  string
}

func (m questMutator) Call(args []any) (any, error) {
	q := m.quest
	switch m.name {
	case "withDescription":
		if len(args) > 0 {
			q.Description = asString(args[0])
		}
	case "withCustomReward":
		if len(args) > 0 && args[0] != nil {
			q.CustomReward = args[0]
		}
	case "withOptionalArgs":
		if len(args) > 0 {
			if bag, ok := args[0].(map[string]any); ok {
				if q.Optional == nil {
					q.Optional = make(map[string]any, len(bag))
				}
				for k, v := range bag {
					q.Optional[k] = v
				}
			}
		}
	}
	return q, nil
}
