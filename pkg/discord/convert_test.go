package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/routing"
)

func TestFromInteractionCommand(t *testing.T) {
	i := &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g",
		ChannelID: "c",
		Token:     "tok",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u"}},
		Data: discordgo.ApplicationCommandInteractionData{
			ID:   "7",
			Name: "git",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "add",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "file", Type: discordgo.ApplicationCommandOptionString, Value: "README.md"},
					{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(42)},
					{Name: "force", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
				},
			}},
		},
	}

	in, err := FromInteraction(i)
	require.NoError(t, err)

	assert.Equal(t, api.InteractionApplicationCommand, in.Type)
	assert.Equal(t, "u", in.Member.User.ID)
	require.NotNil(t, in.Data)
	assert.Equal(t, "7", in.Data.ID)

	path, args := routing.Unflatten(in.Data.Options)
	assert.Equal(t, []string{"add"}, path)
	assert.Equal(t, []string{"README.md", "42", "true"}, args)
}

func TestFromInteractionPing(t *testing.T) {
	in, err := FromInteraction(&discordgo.Interaction{ID: "p", Type: discordgo.InteractionPing, Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, api.InteractionPing, in.Type)
	assert.Nil(t, in.Data)
}

func TestFromInteractionDirectMessageUser(t *testing.T) {
	in, err := FromInteraction(&discordgo.Interaction{
		ID:   "d",
		Type: discordgo.InteractionApplicationCommand,
		User: &discordgo.User{ID: "dm-user"},
		Data: discordgo.ApplicationCommandInteractionData{ID: "1", Name: "hello-world"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dm-user", in.Member.User.ID)
	assert.Empty(t, in.Data.Options)
}

func TestOptionValue(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{in: nil, want: ""},
		{in: "x", want: "x"},
		{in: false, want: "false"},
		{in: float64(3.5), want: "3.5"},
		{in: float64(10), want: "10"},
		{in: int64(7), want: "7"},
		{in: map[string]any{}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := optionValue(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestToEmbeds(t *testing.T) {
	embeds, err := ToEmbeds([]any{
		&discordgo.MessageEmbed{Title: "a"},
		discordgo.MessageEmbed{Title: "b"},
		map[string]any{"title": "c", "description": "from map"},
		nil,
	})
	require.NoError(t, err)
	require.Len(t, embeds, 3)
	assert.Equal(t, "a", embeds[0].Title)
	assert.Equal(t, "b", embeds[1].Title)
	assert.Equal(t, "from map", embeds[2].Description)

	none, err := ToEmbeds(nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ToEmbeds([]any{func() {}})
	assert.Error(t, err)
}

func TestCommandsEndpointScope(t *testing.T) {
	s := NewFromSession(nil, "app", "")
	global, err := s.commandsEndpoint()
	require.NoError(t, err)
	assert.Equal(t, discordgo.EndpointApplicationGlobalCommands("app"), global)

	s = NewFromSession(nil, "app", "guild")
	scoped, err := s.commandsEndpoint()
	require.NoError(t, err)
	assert.Equal(t, discordgo.EndpointApplicationGuildCommands("app", "guild"), scoped)

	_, err = NewFromSession(nil, "", "").commandsEndpoint()
	assert.Error(t, err)
}
