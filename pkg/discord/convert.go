package discord

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/sipeed/picoslash/pkg/api"
)

// FromInteraction converts a gateway interaction to the transport-neutral
// shape consumed by the dispatcher.
func FromInteraction(i *discordgo.Interaction) (*api.Interaction, error) {
	in := &api.Interaction{
		ID:        i.ID,
		Type:      api.InteractionType(i.Type),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Token:     i.Token,
		Version:   i.Version,
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		in.Member.User.ID = i.Member.User.ID
	case i.User != nil:
		in.Member.User.ID = i.User.ID
	}

	if i.Type != discordgo.InteractionApplicationCommand {
		return in, nil
	}

	data := i.ApplicationCommandData()
	opts, err := dataOptions(data.Options)
	if err != nil {
		return nil, err
	}
	in.Data = &api.InteractionData{
		ID:      data.ID,
		Name:    data.Name,
		Options: opts,
	}
	return in, nil
}

func dataOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) (api.DataOptions, error) {
	if len(opts) == 0 {
		return nil, nil
	}
	out := make(api.DataOptions, 0, len(opts))
	for _, o := range opts {
		if o == nil {
			continue
		}
		value, err := optionValue(o.Value)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", o.Name, err)
		}
		children, err := dataOptions(o.Options)
		if err != nil {
			return nil, err
		}
		out = append(out, api.DataOption{
			Name:    o.Name,
			Type:    api.OptionType(o.Type),
			Value:   value,
			Options: children,
		})
	}
	return out, nil
}

// optionValue renders a decoded option value in its text form.
func optionValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case json.Number:
		return val.String(), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", fmt.Errorf("unsupported option value of type %T", v)
	}
}

// ToEmbeds converts reply embeds to discordgo embeds. Values that are not
// already embeds are round-tripped through JSON.
func ToEmbeds(embeds []any) ([]*discordgo.MessageEmbed, error) {
	if len(embeds) == 0 {
		return nil, nil
	}
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for i, e := range embeds {
		switch v := e.(type) {
		case nil:
			continue
		case *discordgo.MessageEmbed:
			out = append(out, v)
		case discordgo.MessageEmbed:
			out = append(out, &v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode embed %d: %w", i, err)
			}
			var embed discordgo.MessageEmbed
			if err := json.Unmarshal(data, &embed); err != nil {
				return nil, fmt.Errorf("failed to decode embed %d: %w", i, err)
			}
			out = append(out, &embed)
		}
	}
	return out, nil
}
