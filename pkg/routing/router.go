// Package routing resolves incoming invocations to the declared command
// tree and runs the matching leaf handler.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sipeed/picoslash/pkg/command"
)

var (
	ErrUnknownCommand   = errors.New("unknown command id")
	ErrPathTooShort     = errors.New("interaction path shorter than declared tree")
	ErrNoSuchSubcommand = errors.New("no such subcommand")
	ErrNoCommandData    = errors.New("interaction has no command data")
)

// RouteError describes where in the tree an invocation could not be routed.
type RouteError struct {
	CommandID   string
	CommandName string
	Path        []string
	Depth       int
	Err         error
}

func (e *RouteError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownCommand):
		return fmt.Sprintf("unable to find command with id %s (%s) to resolve interaction", e.CommandID, e.CommandName)
	case errors.Is(e.Err, ErrNoSuchSubcommand):
		return fmt.Sprintf("%s: %v %q", e.CommandName, e.Err, e.Path[e.Depth])
	default:
		return fmt.Sprintf("%s [%s]: %v", e.CommandName, strings.Join(e.Path, " "), e.Err)
	}
}

func (e *RouteError) Unwrap() error { return e.Err }

// HandlerError wraps a failure raised by a leaf handler.
type HandlerError struct {
	Command string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("error while executing %s: %v", e.Command, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

type Router struct {
	registry *command.Registry
}

func NewRouter(registry *command.Registry) *Router {
	return &Router{registry: registry}
}

// Resolve finds the leaf addressed by a command id and subcommand path.
// Path entries beyond the leaf are ignored.
func (r *Router) Resolve(commandID, commandName string, path []string) (*command.Node, error) {
	root, ok := r.registry.ByRemoteID(commandID)
	if !ok {
		return nil, &RouteError{CommandID: commandID, CommandName: commandName, Path: path, Err: ErrUnknownCommand}
	}

	node := root
	for depth := 0; !node.IsLeaf(); depth++ {
		if depth >= len(path) {
			return nil, &RouteError{CommandID: commandID, CommandName: root.Name(), Path: path, Depth: depth, Err: ErrPathTooShort}
		}
		child, ok := node.Child(path[depth])
		if !ok {
			return nil, &RouteError{CommandID: commandID, CommandName: root.Name(), Path: path, Depth: depth, Err: ErrNoSuchSubcommand}
		}
		node = child
	}
	return node, nil
}

// Invoke runs the leaf handler. Errors and panics raised by the handler are
// returned as *HandlerError.
func Invoke(ctx context.Context, leaf *command.Node, inv *command.Invocation) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &HandlerError{Command: leaf.Name(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if err := leaf.Invoke(ctx, inv); err != nil {
		return &HandlerError{Command: leaf.Name(), Err: err}
	}
	return nil
}
