package registry

// ComparisonMode matches the AchievementOption enum the source passes as a
// trailing constructor argument: less, equal, more. The implicit default
// is More; the serializer only surfaces the other two.
type ComparisonMode int

const (
	Less ComparisonMode = iota
	Equal
	More
)

func (m ComparisonMode) String() string {
	switch m {
	case Less:
		return "less"
	case Equal:
		return "equal"
	default:
		return "more"
	}
}

// Requirement is one node of an unlock-condition tree, tagged by the
// constructor name that built it. Known variants carry their fields in
// Payload; composite variants carry Children; anything outside the known
// set keeps its constructor arguments positionally in Args.
type Requirement struct {
	Type          string
	RequiredValue int
	Comparison    ComparisonMode
	Payload       map[string]any
	Children      []*Requirement
	Args          []any
	Known         bool
}

func newRequirement(typ string) *Requirement {
	return &Requirement{Type: typ, Comparison: More, Known: true}
}

func (r *Registry) buildRequirement(name string, args []any) *Requirement {
	req := newRequirement(name)
	switch name {
	case "RouteKillRequirement":
		req.RequiredValue = asInt(arg(args, 0), 1)
		req.Payload = map[string]any{
			"kills":  req.RequiredValue,
			"region": r.regionName(arg(args, 1)),
			"route":  asInt(arg(args, 2), 0),
		}
		req.Comparison = optionAt(args, 3)

	case "GymBadgeRequirement":
		req.RequiredValue = asInt(arg(args, 1), 1)
		req.Payload = map[string]any{"badge": symbolName(arg(args, 0))}
		req.Comparison = optionAt(args, 2)

	case "ClearDungeonRequirement":
		req.RequiredValue = asInt(arg(args, 0), 1)
		req.Payload = map[string]any{
			"clears":  req.RequiredValue,
			"dungeon": asString(arg(args, 1)),
		}
		req.Comparison = optionAt(args, 2)

	case "TemporaryBattleRequirement":
		req.RequiredValue = asInt(arg(args, 1), 1)
		req.Payload = map[string]any{
			"battle":  asString(arg(args, 0)),
			"defeats": req.RequiredValue,
		}
		req.Comparison = optionAt(args, 2)

	case "QuestLineCompletedRequirement", "QuestLineStartedRequirement":
		req.Payload = map[string]any{"questLine": asString(arg(args, 0))}
		req.Comparison = optionAt(args, 1)

	case "QuestLineStepCompletedRequirement":
		req.Payload = map[string]any{
			"questLine": asString(arg(args, 0)),
			"step":      asInt(arg(args, 1), 0),
		}
		req.Comparison = optionAt(args, 2)

	case "ObtainedPokemonRequirement":
		req.Payload = map[string]any{"pokemon": asString(arg(args, 0))}
		if asBool(arg(args, 1)) {
			req.Payload["notObtained"] = true
		}

	case "MultiRequirement", "OneFromManyRequirement":
		req.Children = requirementList(args)

	case "NullRequirement":
		// always true, no payload

	default:
		req.Known = false
		req.Args = append([]any{}, args...)
	}
	return req
}

// requirementList accepts either a single array argument or a variadic
// spelling; both appear in the source.
func requirementList(args []any) []*Requirement {
	items := args
	if len(args) == 1 {
		if list, ok := args[0].([]any); ok {
			items = list
		}
	}
	var out []*Requirement
	for _, it := range items {
		if req, ok := it.(*Requirement); ok {
			out = append(out, req)
		}
	}
	return out
}

func optionAt(args []any, i int) ComparisonMode {
	if i >= len(args) {
		return More
	}
	switch v := asInt(args[i], int(More)); v {
	case int(Less):
		return Less
	case int(Equal):
		return Equal
	default:
		return More
	}
}
