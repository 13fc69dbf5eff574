package reconcile

import (
	"github.com/sipeed/picoslash/pkg/api"
)

type Update struct {
	ID      string
	Command api.CreateCommand
}

type Delete struct {
	ID   string
	Name string
}

// Plan is the set of registry operations that converges the remote side to
// the local declaration. Unchanged maps the names of commands that need no
// operation to their existing remote id.
type Plan struct {
	Create    []api.CreateCommand
	Update    []Update
	Delete    []Delete
	Unchanged map[string]string
}

// Empty reports whether the plan has no operations.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Summary returns counts suitable for log fields.
func (p Plan) Summary() map[string]any {
	return map[string]any{
		"create":    len(p.Create),
		"update":    len(p.Update),
		"delete":    len(p.Delete),
		"unchanged": len(p.Unchanged),
	}
}

// Diff joins local and remote commands by name and classifies each one.
// Deletes and updates follow remote order, creates follow local order.
func Diff(local []api.CreateCommand, remote []api.ApplicationCommand) Plan {
	plan := Plan{Unchanged: make(map[string]string)}

	localByName := make(map[string]api.CreateCommand, len(local))
	for _, c := range local {
		if _, dup := localByName[c.Name]; !dup {
			localByName[c.Name] = c
		}
	}

	remoteNames := make(map[string]bool, len(remote))
	for _, prev := range remote {
		remoteNames[prev.Name] = true

		cur, ok := localByName[prev.Name]
		if !ok {
			plan.Delete = append(plan.Delete, Delete{ID: prev.ID, Name: prev.Name})
			continue
		}
		if CommandsEqual(prev, cur) {
			plan.Unchanged[prev.Name] = prev.ID
			continue
		}
		plan.Update = append(plan.Update, Update{ID: prev.ID, Command: cur})
	}

	queued := make(map[string]bool, len(local))
	for _, cur := range local {
		if remoteNames[cur.Name] || queued[cur.Name] {
			continue
		}
		queued[cur.Name] = true
		plan.Create = append(plan.Create, cur)
	}

	return plan
}
