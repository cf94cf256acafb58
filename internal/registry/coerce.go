package registry

import (
	"fmt"
	"strconv"

	"github.com/qaz17899/funbot/internal/capability"
)

// Argument coercion. Constructor arguments arrive as whatever the
// evaluator produced: literals, seeded enum numbers, Capability chains or
// NameRef bindings. These helpers flatten them into the field types the
// known variants declare, without ever failing.

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func asInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}

func asInt64(v any, def int64) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	}
	return def
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case *capability.NameRef:
		return s.Display
	case *capability.Capability:
		return s.Base()
	case *Container:
		return s.Name
	default:
		return fmt.Sprintf("%v", s)
	}
}

// symbolName renders an enum-style argument by its final identifier, so
// BadgeEnums.Earth becomes "Earth" even though the enum was never seeded.
func symbolName(v any) string {
	if c, ok := v.(*capability.Capability); ok {
		return c.Base()
	}
	return asString(v)
}

func (r *Registry) regionName(v any) string {
	if n, ok := v.(float64); ok {
		if i := int(n); i >= 0 && i < len(r.regions) {
			return r.regions[i]
		}
		return strconv.Itoa(int(n))
	}
	return symbolName(v)
}

func (r *Registry) ballName(v any) string {
	if n, ok := v.(float64); ok {
		if i := int(n); i >= 0 && i < len(r.balls) {
			return r.balls[i]
		}
		return strconv.Itoa(int(n))
	}
	return symbolName(v)
}
