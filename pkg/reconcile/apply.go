package reconcile

import (
	"context"
	"fmt"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/logger"
)

// Registrar is the remote command registry.
type Registrar interface {
	ListCommands(ctx context.Context) ([]api.ApplicationCommand, error)
	CreateCommand(ctx context.Context, cmd api.CreateCommand) (api.ApplicationCommand, error)
	DeleteCommand(ctx context.Context, id string) error
}

type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// OpError reports the registry operation that aborted a reconciliation.
type OpError struct {
	Op   Op
	Name string
	ID   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to %s commands: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s command %q: %v", e.Op, e.Name, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// IDs maps top-level command names to their remote ids.
type IDs map[string]string

// Apply executes plan against the registry: creates, then updates, then
// deletes, one call at a time. It stops at the first failure; operations
// already applied are not rolled back, and re-running the reconciliation
// computes the remaining diff.
//
// Updates are a delete followed by a create because PATCH does not reliably
// replace nested option trees. The command is unregistered between the two
// calls.
func Apply(ctx context.Context, reg Registrar, plan Plan) (IDs, error) {
	ids := make(IDs, len(plan.Unchanged)+len(plan.Create)+len(plan.Update))
	for name, id := range plan.Unchanged {
		ids[name] = id
	}

	if len(plan.Create) > 0 {
		logger.InfoCF("reconcile", "Creating commands", map[string]any{"count": len(plan.Create)})
		for _, cmd := range plan.Create {
			if err := ctx.Err(); err != nil {
				return ids, &OpError{Op: OpCreate, Name: cmd.Name, Err: err}
			}
			logger.InfoCF("reconcile", "Creating command", map[string]any{"name": cmd.Name})
			created, err := reg.CreateCommand(ctx, cmd)
			if err != nil {
				return ids, &OpError{Op: OpCreate, Name: cmd.Name, Err: err}
			}
			ids[cmd.Name] = created.ID
		}
	}

	if len(plan.Update) > 0 {
		logger.InfoCF("reconcile", "Editing commands", map[string]any{"count": len(plan.Update)})
		for _, u := range plan.Update {
			if err := ctx.Err(); err != nil {
				return ids, &OpError{Op: OpUpdate, Name: u.Command.Name, ID: u.ID, Err: err}
			}
			logger.WarnCF("reconcile", "Recreating command, it is unavailable until the create completes", map[string]any{
				"name": u.Command.Name,
				"id":   u.ID,
			})
			if err := reg.DeleteCommand(ctx, u.ID); err != nil {
				return ids, &OpError{Op: OpUpdate, Name: u.Command.Name, ID: u.ID, Err: fmt.Errorf("delete: %w", err)}
			}
			created, err := reg.CreateCommand(ctx, u.Command)
			if err != nil {
				return ids, &OpError{Op: OpUpdate, Name: u.Command.Name, ID: u.ID, Err: fmt.Errorf("create: %w", err)}
			}
			ids[u.Command.Name] = created.ID
		}
	}

	if len(plan.Delete) > 0 {
		logger.InfoCF("reconcile", "Deleting commands", map[string]any{"count": len(plan.Delete)})
		for _, d := range plan.Delete {
			if err := ctx.Err(); err != nil {
				return ids, &OpError{Op: OpDelete, Name: d.Name, ID: d.ID, Err: err}
			}
			logger.InfoCF("reconcile", "Deleting command", map[string]any{"name": d.Name, "id": d.ID})
			if err := reg.DeleteCommand(ctx, d.ID); err != nil {
				return ids, &OpError{Op: OpDelete, Name: d.Name, ID: d.ID, Err: err}
			}
		}
	}

	return ids, nil
}
