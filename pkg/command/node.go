package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sipeed/picoslash/pkg/api"
)

var (
	// ErrNotImplemented is returned when a leaf without a handler is invoked.
	ErrNotImplemented = errors.New("command not implemented")
	ErrNotTopLevel    = errors.New("remote id can only be set on a top-level command")
	ErrEmptyRemoteID  = errors.New("remote id is empty")
)

// Handler runs a leaf command.
type Handler func(ctx context.Context, inv *Invocation) error

type kind int

const (
	leafKind kind = iota
	groupKind
)

// Node is a top-level command or a subcommand. A leaf holds arguments and a
// handler, a group holds children; the two are never mixed.
type Node struct {
	name        string
	description string
	kind        kind
	arguments   []Argument
	children    []*Node
	handler     Handler

	topLevel bool
	remoteID atomic.Pointer[string]
}

// NewLeaf declares a command that runs handler with the given arguments.
func NewLeaf(name, description string, handler Handler, args ...Argument) *Node {
	return &Node{
		name:        name,
		description: description,
		kind:        leafKind,
		arguments:   args,
		handler:     handler,
	}
}

// NewGroup declares a command whose invocations are routed to children.
func NewGroup(name, description string, children ...*Node) *Node {
	return &Node{
		name:        name,
		description: description,
		kind:        groupKind,
		children:    children,
	}
}

func (n *Node) Name() string        { return n.name }
func (n *Node) Description() string { return n.description }
func (n *Node) IsLeaf() bool        { return n.kind == leafKind }
func (n *Node) TopLevel() bool      { return n.topLevel }
func (n *Node) Handler() Handler    { return n.handler }

func (n *Node) Arguments() []Argument {
	return append([]Argument(nil), n.arguments...)
}

func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// RemoteID returns the id assigned by the registry, or "" before reconciliation.
func (n *Node) RemoteID() string {
	if p := n.remoteID.Load(); p != nil {
		return *p
	}
	return ""
}

// SetRemoteID records the id assigned by the registry for a top-level command.
func (n *Node) SetRemoteID(id string) error {
	if !n.topLevel {
		return fmt.Errorf("%s: %w", n.name, ErrNotTopLevel)
	}
	if id == "" {
		return fmt.Errorf("%s: %w", n.name, ErrEmptyRemoteID)
	}
	n.remoteID.Store(&id)
	return nil
}

// Invoke runs the leaf handler.
func (n *Node) Invoke(ctx context.Context, inv *Invocation) error {
	if n.handler == nil {
		return fmt.Errorf("%s: %w", n.name, ErrNotImplemented)
	}
	return n.handler(ctx, inv)
}

// Serialize produces the registry payload for a top-level command.
func (n *Node) Serialize() api.CreateCommand {
	return api.CreateCommand{
		Name:        n.name,
		Description: n.description,
		Options:     n.options(),
	}
}

// Option produces the option shape used when n is nested under another command.
func (n *Node) Option() api.Option {
	typ := api.OptionSubCommand
	if n.kind == groupKind {
		typ = api.OptionSubCommandGroup
	}
	return api.Option{
		Type:        typ,
		Name:        n.name,
		Description: n.description,
		Options:     n.options(),
	}
}

func (n *Node) options() []api.Option {
	var opts []api.Option
	if n.kind == groupKind {
		for _, c := range n.children {
			opts = append(opts, c.Option())
		}
		return opts
	}
	for _, a := range n.arguments {
		opts = append(opts, a.Serialize())
	}
	return opts
}

func (n *Node) validate(path string) error {
	if strings.TrimSpace(n.name) == "" {
		return fmt.Errorf("%scommand name is empty", path)
	}
	here := path + n.name

	if n.kind == leafKind {
		seen := make(map[string]bool, len(n.arguments))
		for _, a := range n.arguments {
			if err := a.validate(); err != nil {
				return fmt.Errorf("%s: %w", here, err)
			}
			if seen[a.Name] {
				return fmt.Errorf("%s: duplicate argument %q", here, a.Name)
			}
			seen[a.Name] = true
		}
		return nil
	}

	if len(n.children) == 0 {
		return fmt.Errorf("%s: group has no subcommands", here)
	}
	seen := make(map[string]bool, len(n.children))
	for _, c := range n.children {
		if c == nil {
			return fmt.Errorf("%s: nil subcommand", here)
		}
		if c.topLevel {
			return fmt.Errorf("%s: subcommand %q is registered as a top-level command", here, c.name)
		}
		if seen[c.name] {
			return fmt.Errorf("%s: duplicate subcommand %q", here, c.name)
		}
		seen[c.name] = true
		if err := c.validate(here + " "); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits n and its descendants depth first. path holds the names from
// the root down to the visited node.
func Walk(n *Node, fn func(path []string, node *Node)) {
	walk(nil, n, fn)
}

func walk(prefix []string, n *Node, fn func([]string, *Node)) {
	path := append(append([]string(nil), prefix...), n.name)
	fn(path, n)
	for _, c := range n.children {
		walk(path, c, fn)
	}
}
