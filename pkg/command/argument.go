package command

import (
	"fmt"
	"strings"

	"github.com/sipeed/picoslash/pkg/api"
)

type ArgumentType string

const (
	ArgString  ArgumentType = "string"
	ArgInteger ArgumentType = "integer"
	ArgBoolean ArgumentType = "boolean"
	ArgUser    ArgumentType = "user"
	ArgChannel ArgumentType = "channel"
	ArgRole    ArgumentType = "role"
)

var argumentWireTypes = map[ArgumentType]api.OptionType{
	ArgString:  api.OptionString,
	ArgInteger: api.OptionInteger,
	ArgBoolean: api.OptionBoolean,
	ArgUser:    api.OptionUser,
	ArgChannel: api.OptionChannel,
	ArgRole:    api.OptionRole,
}

// ArgumentOptions declares an argument. Type defaults to ArgString and
// Required defaults to true when left nil.
type ArgumentOptions struct {
	Type        ArgumentType
	Name        string
	Description string
	Default     bool
	Required    *bool
	Choices     []api.Choice
}

// Argument is a single typed parameter of a leaf command.
type Argument struct {
	Type        ArgumentType
	Name        string
	Description string
	Default     bool
	Required    bool
	Choices     []api.Choice
}

func NewArgument(opts ArgumentOptions) Argument {
	arg := Argument{
		Type:        opts.Type,
		Name:        opts.Name,
		Description: opts.Description,
		Default:     opts.Default,
		Required:    true,
		Choices:     opts.Choices,
	}
	if arg.Type == "" {
		arg.Type = ArgString
	}
	if opts.Required != nil {
		arg.Required = *opts.Required
	}
	return arg
}

// Serialize converts the argument to its registry option shape.
func (a Argument) Serialize() api.Option {
	opt := api.Option{
		Type:        argumentWireTypes[a.Type],
		Name:        a.Name,
		Description: a.Description,
		Default:     api.Bool(a.Default),
		Required:    api.Bool(a.Required),
	}
	if a.Choices != nil {
		opt.Choices = append([]api.Choice(nil), a.Choices...)
	}
	return opt
}

func (a Argument) validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("argument name is empty")
	}
	if _, ok := argumentWireTypes[a.Type]; !ok {
		return fmt.Errorf("argument %q has unknown type %q", a.Name, a.Type)
	}
	for _, c := range a.Choices {
		switch c.Value.(type) {
		case string, int, int32, int64, float32, float64:
		default:
			return fmt.Errorf("argument %q choice %q has unsupported value type %T", a.Name, c.Name, c.Value)
		}
	}
	return nil
}
