package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/command"
	"github.com/sipeed/picoslash/pkg/logger"
	"github.com/sipeed/picoslash/pkg/tracing"
)

// Responder sends interaction responses.
type Responder interface {
	command.Replier
	// Acknowledge sends the immediate placeholder response. It must precede
	// any other response for the interaction.
	Acknowledge(ctx context.Context, interactionID, token string) error
	Pong(ctx context.Context, interactionID, token string) error
}

// Resolver looks up the entities an invocation refers to, from cache when
// possible.
type Resolver interface {
	Guild(ctx context.Context, guildID string) (any, error)
	Channel(ctx context.Context, channelID string) (any, error)
	Member(ctx context.Context, guildID, userID string) (any, error)
}

// State is a step in the lifecycle of one interaction.
type State int

const (
	StateReceived State = iota
	StateAcknowledged
	StateRouting
	StateDispatched
	StateRoutingFailed
	StateHandled
	StateHandlerFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateAcknowledged:
		return "acknowledged"
	case StateRouting:
		return "routing"
	case StateDispatched:
		return "dispatched"
	case StateRoutingFailed:
		return "routing-failed"
	case StateHandled:
		return "handled"
	case StateHandlerFailed:
		return "handler-failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Observer is notified of every lifecycle transition.
type Observer func(interactionID string, s State)

type DispatcherOption func(*Dispatcher)

func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// WithResolver sets the entity resolver. Without one, invocations carry ids only.
func WithResolver(r Resolver) DispatcherOption {
	return func(d *Dispatcher) { d.resolver = r }
}

// Dispatcher drives interactions through acknowledgement, routing and
// handler invocation. Failures stay local to the interaction.
type Dispatcher struct {
	router    *Router
	responder Responder
	resolver  Resolver
	observer  Observer

	wg sync.WaitGroup
}

func NewDispatcher(registry *command.Registry, responder Responder, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		router:    NewRouter(registry),
		responder: responder,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) notify(id string, s State) {
	if d.observer != nil {
		d.observer(id, s)
	}
}

// Go handles the interaction on its own goroutine.
func (d *Dispatcher) Go(ctx context.Context, in *api.Interaction) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Handle(ctx, in)
	}()
}

// GoDispatch is Go for interactions that were already acknowledged.
func (d *Dispatcher) GoDispatch(ctx context.Context, in *api.Interaction) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(ctx, in)
	}()
}

// Wait blocks until every interaction started with Go or GoDispatch is done.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle answers pings, acknowledges application commands and dispatches
// them. The returned error is for reporting only; it has already been logged.
func (d *Dispatcher) Handle(ctx context.Context, in *api.Interaction) error {
	d.notify(in.ID, StateReceived)

	switch in.Type {
	case api.InteractionPing:
		if err := d.responder.Pong(ctx, in.ID, in.Token); err != nil {
			logger.ErrorCF("routing", "Failed to answer ping", map[string]any{
				"interaction_id": in.ID,
				"error":          err.Error(),
			})
			return fmt.Errorf("failed to answer ping: %w", err)
		}
		return nil
	case api.InteractionApplicationCommand:
	default:
		logger.DebugCF("routing", "Ignoring interaction", map[string]any{
			"interaction_id": in.ID,
			"type":           int(in.Type),
		})
		return nil
	}

	if err := d.responder.Acknowledge(ctx, in.ID, in.Token); err != nil {
		logger.ErrorCF("routing", "Failed to acknowledge interaction", map[string]any{
			"interaction_id": in.ID,
			"error":          err.Error(),
		})
		return fmt.Errorf("failed to acknowledge interaction: %w", err)
	}
	return d.dispatch(ctx, in)
}

// Dispatch routes an interaction whose acknowledgement was already sent.
func (d *Dispatcher) Dispatch(ctx context.Context, in *api.Interaction) error {
	d.notify(in.ID, StateReceived)
	return d.dispatch(ctx, in)
}

func (d *Dispatcher) dispatch(ctx context.Context, in *api.Interaction) error {
	d.notify(in.ID, StateAcknowledged)

	traceID := uuid.NewString()
	ctx, span := tracing.Tracer("picoslash/routing").Start(ctx, "routing.route")
	defer span.End()

	fail := func(s State, err error) error {
		d.notify(in.ID, s)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	d.notify(in.ID, StateRouting)
	if in.Data == nil {
		logger.ErrorCF("routing", "Interaction has no command data", map[string]any{
			"interaction_id": in.ID,
			"trace_id":       traceID,
		})
		return fail(StateRoutingFailed, ErrNoCommandData)
	}

	path, args := Unflatten(in.Data.Options)
	span.SetAttributes(
		attribute.String("command.id", in.Data.ID),
		attribute.String("command.name", in.Data.Name),
		attribute.String("command.path", strings.Join(path, " ")),
	)

	leaf, err := d.router.Resolve(in.Data.ID, in.Data.Name, path)
	if err != nil {
		logger.ErrorCF("routing", "Unable to route interaction", map[string]any{
			"interaction_id": in.ID,
			"command_id":     in.Data.ID,
			"command":        in.Data.Name,
			"path":           strings.Join(path, " "),
			"trace_id":       traceID,
			"error":          err.Error(),
		})
		return fail(StateRoutingFailed, err)
	}

	inv := command.NewInvocation(d.params(ctx, in, path, args, traceID), d.responder)
	d.notify(in.ID, StateDispatched)

	logger.DebugCF("routing", "Dispatching interaction", map[string]any{
		"interaction_id": in.ID,
		"command":        in.Data.Name,
		"path":           strings.Join(path, " "),
		"args":           len(args),
		"trace_id":       traceID,
	})

	if err := Invoke(ctx, leaf, inv); err != nil {
		logger.ErrorCF("routing", "There was an error while executing command", map[string]any{
			"interaction_id": in.ID,
			"command":        in.Data.Name,
			"subcommand":     leaf.Name(),
			"trace_id":       traceID,
			"error":          err.Error(),
		})
		return fail(StateHandlerFailed, err)
	}

	d.notify(in.ID, StateHandled)
	return nil
}

func (d *Dispatcher) params(ctx context.Context, in *api.Interaction, path, args []string, traceID string) command.InvocationParams {
	p := command.InvocationParams{
		ID:          in.ID,
		Token:       in.Token,
		Command:     command.CommandRef{ID: in.Data.ID, Name: in.Data.Name},
		Args:        args,
		Subcommands: path,
		GuildID:     in.GuildID,
		ChannelID:   in.ChannelID,
		UserID:      in.Member.User.ID,
		TraceID:     traceID,
	}
	if d.resolver == nil {
		return p
	}

	var errs []error
	if in.GuildID != "" {
		g, err := d.resolver.Guild(ctx, in.GuildID)
		errs = append(errs, err)
		p.Guild = g
		if in.Member.User.ID != "" {
			m, err := d.resolver.Member(ctx, in.GuildID, in.Member.User.ID)
			errs = append(errs, err)
			p.Member = m
		}
	}
	if in.ChannelID != "" {
		c, err := d.resolver.Channel(ctx, in.ChannelID)
		errs = append(errs, err)
		p.Channel = c
	}
	if err := errors.Join(errs...); err != nil {
		logger.WarnCF("routing", "Failed to resolve interaction entities", map[string]any{
			"interaction_id": in.ID,
			"trace_id":       traceID,
			"error":          err.Error(),
		})
	}
	return p
}
