package command

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sipeed/picoslash/pkg/api"
)

var ErrRegistrySealed = errors.New("command registry is sealed")

// Registry is the ordered set of top-level commands declared by the
// application. Names are unique; order only affects iteration.
type Registry struct {
	mu       sync.RWMutex
	commands []*Node
	sealed   bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register validates and adds top-level commands. Either every node is
// added or none is.
func (r *Registry) Register(nodes ...*Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}

	names := make(map[string]bool, len(r.commands)+len(nodes))
	for _, c := range r.commands {
		names[c.name] = true
	}
	for _, n := range nodes {
		if n == nil {
			return fmt.Errorf("cannot register nil command")
		}
		if n.topLevel {
			return fmt.Errorf("command %q is already registered", n.name)
		}
		if err := n.validate(""); err != nil {
			return fmt.Errorf("invalid command declaration: %w", err)
		}
		if names[n.name] {
			return fmt.Errorf("duplicate command name %q", n.name)
		}
		names[n.name] = true
	}

	for _, n := range nodes {
		n.topLevel = true
		r.commands = append(r.commands, n)
	}
	return nil
}

// MustRegister is Register for static declarations; it panics on error.
func (r *Registry) MustRegister(nodes ...*Node) *Registry {
	if err := r.Register(nodes...); err != nil {
		panic(err)
	}
	return r
}

// Seal fixes the registry membership. It is called before reconciliation.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

func (r *Registry) Commands() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Node(nil), r.commands...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

func (r *Registry) Lookup(name string) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.commands {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// ByRemoteID finds the top-level command the registry assigned id to.
func (r *Registry) ByRemoteID(id string) (*Node, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.commands {
		if c.RemoteID() == id {
			return c, true
		}
	}
	return nil, false
}

func (r *Registry) Serialize() []api.CreateCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]api.CreateCommand, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c.Serialize())
	}
	return out
}
