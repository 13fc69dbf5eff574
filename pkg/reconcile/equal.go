package reconcile

import (
	"encoding/json"
	"strings"

	"github.com/sipeed/picoslash/pkg/api"
)

// CommandsEqual reports whether a registered command already matches the
// local declaration.
func CommandsEqual(remote api.ApplicationCommand, local api.CreateCommand) bool {
	if !stringsEqual(remote.Name, local.Name) {
		return false
	}
	if !stringsEqual(remote.Description, local.Description) {
		return false
	}
	return Equal(remote.Options, local.Options)
}

// Equal compares two serialized option trees.
//
// Subcommands are matched by name regardless of order, then compared
// recursively. Arguments are compared positionally since their order is part
// of the calling convention.
func Equal(a, b []api.Option) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if len(a) != len(b) {
		return false
	}

	aSub, bSub := a[0].Type.IsSubCommand(), b[0].Type.IsSubCommand()
	if aSub != bSub {
		return false
	}
	if aSub {
		return subcommandsEqual(a, b)
	}
	return argumentsEqual(a, b)
}

func subcommandsEqual(a, b []api.Option) bool {
	byName := make(map[string]api.Option, len(b))
	for _, opt := range b {
		byName[opt.Name] = opt
	}
	names := make(map[string]bool, len(a))
	for _, opt := range a {
		names[opt.Name] = true
	}
	if len(names) != len(byName) {
		return false
	}

	for _, opt := range a {
		other, ok := byName[opt.Name]
		if !ok {
			return false
		}
		if !Equal(opt.Options, other.Options) {
			return false
		}
	}
	return true
}

func argumentsEqual(a, b []api.Option) bool {
	for i := range a {
		x, y := a[i], b[i]
		if x.Type != y.Type {
			return false
		}
		if !stringsEqual(x.Name, y.Name) {
			return false
		}
		if !stringsEqual(x.Description, y.Description) {
			return false
		}
		// Absent default/required mean false on the registry side.
		if flag(x.Default) != flag(y.Default) {
			return false
		}
		if flag(x.Required) != flag(y.Required) {
			return false
		}
		if !choicesEqual(x.Choices, y.Choices) {
			return false
		}
	}
	return true
}

func choicesEqual(a, b []api.Choice) bool {
	if (len(a) == 0) != (len(b) == 0) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
		if !choiceValuesEqual(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// choiceValuesEqual compares choice values, treating every numeric
// representation of the same number as equal. Numbers decoded from the
// registry arrive as float64 while declarations usually use int.
func choiceValuesEqual(a, b any) bool {
	an, aNum := number(a)
	bn, bNum := number(b)
	if aNum || bNum {
		return aNum && bNum && an == bn
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	return aStr && bStr && as == bs
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func flag(b *bool) bool {
	return b != nil && *b
}

func stringsEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
