package routing

import (
	"github.com/sipeed/picoslash/pkg/api"
)

// Unflatten walks the nested option payload of an invocation. Each
// subcommand level contributes its name to path; the first argument level
// supplies args and ends the walk.
//
// A level is a subcommand level when its first entry is typed as a
// subcommand or group. Untyped entries are classified by shape: nested
// options or no value mean a subcommand.
func Unflatten(opts api.DataOptions) (path []string, args []string) {
	path = []string{}
	args = []string{}

	for len(opts) > 0 {
		first := opts[0]
		if !isSubcommandLevel(first) {
			args = make([]string, 0, len(opts))
			for _, o := range opts {
				args = append(args, o.Value)
			}
			break
		}
		path = append(path, first.Name)
		opts = first.Options
	}
	return path, args
}

func isSubcommandLevel(o api.DataOption) bool {
	if o.Type != 0 {
		return o.Type.IsSubCommand()
	}
	return len(o.Options) > 0 || o.Value == ""
}
