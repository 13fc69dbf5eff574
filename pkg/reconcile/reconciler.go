// Package reconcile keeps the remote application command registry in step
// with the locally declared command tree.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sipeed/picoslash/pkg/command"
	"github.com/sipeed/picoslash/pkg/logger"
	"github.com/sipeed/picoslash/pkg/tracing"
)

// ErrMissingRemoteID means a declared command has no id after a completed
// pass. The join by name makes this unreachable unless the registrar
// misbehaves.
var ErrMissingRemoteID = errors.New("command has no remote id after reconciliation")

type Reconciler struct {
	registrar Registrar
	registry  *command.Registry
}

func New(registrar Registrar, registry *command.Registry) *Reconciler {
	return &Reconciler{registrar: registrar, registry: registry}
}

// Plan lists the registry and computes the diff without applying it.
func (r *Reconciler) Plan(ctx context.Context) (Plan, error) {
	ctx, span := tracing.Tracer("picoslash/reconcile").Start(ctx, "reconcile.plan")
	defer span.End()

	plan, err := r.plan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return plan, err
}

func (r *Reconciler) plan(ctx context.Context) (Plan, error) {
	remote, err := r.registrar.ListCommands(ctx)
	if err != nil {
		return Plan{}, &OpError{Op: OpList, Err: err}
	}
	return Diff(r.registry.Serialize(), remote), nil
}

// Run reconciles the registry and assigns remote ids to every top-level
// command. The returned plan is what was applied.
func (r *Reconciler) Run(ctx context.Context) (Plan, error) {
	ctx, span := tracing.Tracer("picoslash/reconcile").Start(ctx, "reconcile.run")
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	plan, err := r.plan(ctx)
	if err != nil {
		return Plan{}, fail(err)
	}
	span.SetAttributes(
		attribute.Int("reconcile.create", len(plan.Create)),
		attribute.Int("reconcile.update", len(plan.Update)),
		attribute.Int("reconcile.delete", len(plan.Delete)),
	)
	logger.DebugCF("reconcile", "Computed command diff", plan.Summary())

	ids, err := Apply(ctx, r.registrar, plan)
	if err != nil {
		return plan, fail(err)
	}

	if err := AssignIDs(r.registry.Commands(), ids); err != nil {
		return plan, fail(err)
	}

	logger.InfoCF("reconcile", "All commands up to date", plan.Summary())
	return plan, nil
}

// AssignIDs records the remote id of every top-level command.
func AssignIDs(nodes []*command.Node, ids IDs) error {
	for _, n := range nodes {
		id, ok := ids[n.Name()]
		if !ok || id == "" {
			return fmt.Errorf("%s: %w", n.Name(), ErrMissingRemoteID)
		}
		if err := n.SetRemoteID(id); err != nil {
			return err
		}
	}
	return nil
}

// Adopt records the remote ids of declared commands that already exist
// remotely, by name, without changing the registry. It is used when
// reconciliation is disabled. Commands with no remote counterpart stay
// unroutable and are returned.
func (r *Reconciler) Adopt(ctx context.Context) ([]string, error) {
	remote, err := r.registrar.ListCommands(ctx)
	if err != nil {
		return nil, &OpError{Op: OpList, Err: err}
	}
	ids := make(map[string]string, len(remote))
	for _, rc := range remote {
		ids[rc.Name] = rc.ID
	}

	var missing []string
	for _, n := range r.registry.Commands() {
		id, ok := ids[n.Name()]
		if !ok || id == "" {
			missing = append(missing, n.Name())
			continue
		}
		if err := n.SetRemoteID(id); err != nil {
			return missing, err
		}
	}
	if len(missing) > 0 {
		logger.WarnCF("reconcile", "Commands not registered remotely", map[string]any{
			"commands": missing,
		})
	}
	return missing, nil
}
