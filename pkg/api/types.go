// Package api holds the JSON shapes exchanged with the Discord application
// command registry and the interaction gateway.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type OptionType int

const (
	OptionSubCommand      OptionType = 1
	OptionSubCommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
)

// IsSubCommand reports whether the option is a subcommand or subcommand group.
func (t OptionType) IsSubCommand() bool {
	return t == OptionSubCommand || t == OptionSubCommandGroup
}

func (t OptionType) String() string {
	switch t {
	case OptionSubCommand:
		return "SUB_COMMAND"
	case OptionSubCommandGroup:
		return "SUB_COMMAND_GROUP"
	case OptionString:
		return "STRING"
	case OptionInteger:
		return "INTEGER"
	case OptionBoolean:
		return "BOOLEAN"
	case OptionUser:
		return "USER"
	case OptionChannel:
		return "CHANNEL"
	case OptionRole:
		return "ROLE"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// Choice is one discrete value an argument may take. Value is a string or a number.
type Choice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Option is a node of a serialized command tree: either an argument or a
// (nested) subcommand. Default and Required are pointers so that "absent"
// survives a round trip through the registry.
type Option struct {
	Type        OptionType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Default     *bool      `json:"default,omitempty"`
	Required    *bool      `json:"required,omitempty"`
	Choices     []Choice   `json:"choices,omitempty"`
	Options     []Option   `json:"options,omitempty"`
}

// CreateCommand is the payload used to register a top-level command.
type CreateCommand struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []Option `json:"options,omitempty"`
}

// ApplicationCommand is a command record as stored by the remote registry.
type ApplicationCommand struct {
	ID            string   `json:"id"`
	ApplicationID string   `json:"application_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Options       []Option `json:"options,omitempty"`
}

type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
)

type User struct {
	ID string `json:"id"`
}

type Member struct {
	User User `json:"user"`
}

// Interaction is an invocation event delivered by the gateway or the HTTP
// interactions endpoint.
type Interaction struct {
	ID        string           `json:"id"`
	Type      InteractionType  `json:"type"`
	Data      *InteractionData `json:"data,omitempty"`
	GuildID   string           `json:"guild_id"`
	ChannelID string           `json:"channel_id"`
	Member    Member           `json:"member"`
	Token     string           `json:"token"`
	Version   int              `json:"version"`
}

type InteractionData struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Options DataOptions `json:"options,omitempty"`
}

// DataOption is one level of the nested option payload of an invocation.
// Type is zero when the sender omitted it.
type DataOption struct {
	Name    string      `json:"name"`
	Type    OptionType  `json:"type,omitempty"`
	Value   string      `json:"value,omitempty"`
	Options DataOptions `json:"options,omitempty"`
}

func (o *DataOption) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string          `json:"name"`
		Type    OptionType      `json:"type"`
		Value   json.RawMessage `json:"value"`
		Options DataOptions     `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := scalarString(raw.Value)
	if err != nil {
		return fmt.Errorf("option %q: %w", raw.Name, err)
	}
	o.Name = raw.Name
	o.Type = raw.Type
	o.Value = value
	o.Options = raw.Options
	return nil
}

// scalarString flattens a JSON string, number or bool value to its text form.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("unsupported option value %s", raw)
		}
		return n.String(), nil
	}
}

// DataOptions accepts either a single option object or a list of them.
type DataOptions []DataOption

func (d *DataOptions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = nil
		return nil
	}
	if data[0] == '{' {
		var single DataOption
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*d = DataOptions{single}
		return nil
	}
	var list []DataOption
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*d = list
	return nil
}

type ResponseType int

const (
	ResponsePong                     ResponseType = 1
	ResponseAcknowledge              ResponseType = 2
	ResponseChannelMessage           ResponseType = 3
	ResponseChannelMessageWithSource ResponseType = 4
	ResponseAcknowledgeWithSource    ResponseType = 5
)

type InteractionResponse struct {
	Type ResponseType  `json:"type"`
	Data *CallbackData `json:"data,omitempty"`
}

type CallbackData struct {
	TTS             bool   `json:"tts,omitempty"`
	Content         string `json:"content"`
	Embeds          []any  `json:"embeds,omitempty"`
	AllowedMentions any    `json:"allowed_mentions,omitempty"`
}

// Placeholder is the blank braille character sent as the acknowledgement body;
// Discord rejects an empty content string.
const Placeholder = "⠀"

// AckResponse is the immediate response sent for every application command.
func AckResponse() InteractionResponse {
	return InteractionResponse{
		Type: ResponseChannelMessageWithSource,
		Data: &CallbackData{Content: Placeholder},
	}
}

// PongResponse answers a Ping interaction.
func PongResponse() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
