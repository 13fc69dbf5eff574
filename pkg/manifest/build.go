package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/command"
)

var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// ReplyData is what reply templates are rendered with.
type ReplyData struct {
	Command     string
	Subcommands []string
	Args        []string
	// Named maps declared argument names to the positional values received.
	Named   map[string]string
	User    string
	Guild   string
	Channel string
}

// Nodes converts the manifest into top-level command nodes ready to register.
func (m *Manifest) Nodes() ([]*command.Node, error) {
	nodes := make([]*command.Node, 0, len(m.Commands))
	for _, c := range m.Commands {
		n, err := c.node()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c Command) node() (*command.Node, error) {
	if len(c.Subcommands) > 0 {
		children := make([]*command.Node, 0, len(c.Subcommands))
		for _, sub := range c.Subcommands {
			child, err := sub.node()
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return command.NewGroup(c.Name, c.Description, children...), nil
	}

	args := make([]command.Argument, 0, len(c.Arguments))
	names := make([]string, 0, len(c.Arguments))
	for _, a := range c.Arguments {
		args = append(args, command.NewArgument(command.ArgumentOptions{
			Type:        command.ArgumentType(argType(a.Type)),
			Name:        a.Name,
			Description: a.Description,
			Default:     a.Default,
			Required:    a.Required,
			Choices:     choices(a.Choices),
		}))
		names = append(names, a.Name)
	}

	handler, err := replyHandler(c.Name, c.Reply, c.Fail, names)
	if err != nil {
		return nil, err
	}
	return command.NewLeaf(c.Name, c.Description, handler, args...), nil
}

func choices(in []Choice) []api.Choice {
	if in == nil {
		return nil
	}
	out := make([]api.Choice, len(in))
	for i, ch := range in {
		out[i] = api.Choice{Name: ch.Name, Value: ch.Value}
	}
	return out
}

func replyHandler(name, reply, fail string, argNames []string) (command.Handler, error) {
	var tmpl *template.Template
	if reply != "" {
		t, err := template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(reply)
		if err != nil {
			return nil, fmt.Errorf("command %q: invalid reply template: %w", name, err)
		}
		tmpl = t
	}

	return func(ctx context.Context, inv *command.Invocation) error {
		if tmpl != nil {
			var b strings.Builder
			if err := tmpl.Execute(&b, newReplyData(inv, argNames)); err != nil {
				return fmt.Errorf("failed to render reply: %w", err)
			}
			if _, err := inv.Say(ctx, b.String()); err != nil {
				return err
			}
		}
		if fail != "" {
			return errors.New(fail)
		}
		return nil
	}, nil
}

func newReplyData(inv *command.Invocation, argNames []string) ReplyData {
	named := make(map[string]string, len(argNames))
	for i, n := range argNames {
		if i < len(inv.Args) {
			named[n] = inv.Args[i]
		}
	}
	return ReplyData{
		Command:     inv.Command.Name,
		Subcommands: inv.Subcommands,
		Args:        inv.Args,
		Named:       named,
		User:        inv.UserID,
		Guild:       inv.GuildID,
		Channel:     inv.ChannelID,
	}
}
