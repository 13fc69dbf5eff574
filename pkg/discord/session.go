// Package discord adapts a discordgo session to the command registry,
// responder and entity resolver used by reconciliation and routing.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/command"
	"github.com/sipeed/picoslash/pkg/logger"
	"github.com/sipeed/picoslash/pkg/reconcile"
	"github.com/sipeed/picoslash/pkg/routing"
)

var (
	_ reconcile.Registrar = (*Session)(nil)
	_ routing.Responder   = (*Session)(nil)
	_ routing.Resolver    = (*Session)(nil)
)

// Session talks to Discord on behalf of one application. When GuildID is set
// commands are registered for that guild only.
type Session struct {
	dg      *discordgo.Session
	appID   string
	guildID string
}

func New(token, appID, guildID string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds
	return NewFromSession(dg, appID, guildID), nil
}

func NewFromSession(dg *discordgo.Session, appID, guildID string) *Session {
	return &Session{dg: dg, appID: appID, guildID: guildID}
}

func (s *Session) Raw() *discordgo.Session { return s.dg }

func (s *Session) ApplicationID() string { return s.appID }

// ResolveApplicationID looks up the application id of the bot token when none
// was configured.
func (s *Session) ResolveApplicationID(ctx context.Context) (string, error) {
	if s.appID != "" {
		return s.appID, nil
	}
	app, err := s.dg.Application("@me")
	if err != nil {
		return "", fmt.Errorf("failed to resolve application id: %w", err)
	}
	s.appID = app.ID
	logger.DebugCF("discord", "Resolved application id", map[string]any{
		"application_id": app.ID,
	})
	return s.appID, nil
}

// Open connects to the gateway.
func (s *Session) Open() error {
	logger.InfoC("discord", "Opening gateway session")
	if err := s.dg.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	if s.dg.State != nil && s.dg.State.User != nil {
		logger.InfoCF("discord", "Discord bot connected", map[string]any{
			"username": s.dg.State.User.Username,
			"user_id":  s.dg.State.User.ID,
		})
	}
	return nil
}

func (s *Session) Close() error {
	logger.InfoC("discord", "Closing gateway session")
	if err := s.dg.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

// OnInteraction forwards gateway interactions to fn. The returned function
// removes the handler.
func (s *Session) OnInteraction(fn func(in *api.Interaction)) func() {
	return s.dg.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Interaction == nil {
			return
		}
		in, err := FromInteraction(ic.Interaction)
		if err != nil {
			logger.WarnCF("discord", "Dropping malformed interaction", map[string]any{
				"interaction_id": ic.ID,
				"error":          err.Error(),
			})
			return
		}
		fn(in)
	})
}

func (s *Session) commandsEndpoint() (string, error) {
	if s.appID == "" {
		return "", fmt.Errorf("application id is not set")
	}
	if s.guildID != "" {
		return discordgo.EndpointApplicationGuildCommands(s.appID, s.guildID), nil
	}
	return discordgo.EndpointApplicationGlobalCommands(s.appID), nil
}

// ListCommands returns the commands currently registered for the application.
// The raw endpoint is used so that option flags survive unchanged.
func (s *Session) ListCommands(ctx context.Context) ([]api.ApplicationCommand, error) {
	endpoint, err := s.commandsEndpoint()
	if err != nil {
		return nil, err
	}
	body, err := s.dg.RequestWithBucketID(http.MethodGet, endpoint, nil, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	var cmds []api.ApplicationCommand
	if err := json.Unmarshal(body, &cmds); err != nil {
		return nil, fmt.Errorf("failed to decode application commands: %w", err)
	}
	return cmds, nil
}

func (s *Session) CreateCommand(ctx context.Context, cmd api.CreateCommand) (api.ApplicationCommand, error) {
	endpoint, err := s.commandsEndpoint()
	if err != nil {
		return api.ApplicationCommand{}, err
	}
	body, err := s.dg.RequestWithBucketID(http.MethodPost, endpoint, cmd, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		return api.ApplicationCommand{}, err
	}
	var created api.ApplicationCommand
	if err := json.Unmarshal(body, &created); err != nil {
		return api.ApplicationCommand{}, fmt.Errorf("failed to decode created command: %w", err)
	}
	return created, nil
}

func (s *Session) DeleteCommand(ctx context.Context, id string) error {
	if s.appID == "" {
		return fmt.Errorf("application id is not set")
	}
	return s.dg.ApplicationCommandDelete(s.appID, s.guildID, id, discordgo.WithContext(ctx))
}

func (s *Session) Acknowledge(ctx context.Context, interactionID, token string) error {
	return s.dg.InteractionRespond(
		&discordgo.Interaction{ID: interactionID, Token: token},
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: api.Placeholder},
		},
		discordgo.WithContext(ctx),
	)
}

func (s *Session) Pong(ctx context.Context, interactionID, token string) error {
	return s.dg.InteractionRespond(
		&discordgo.Interaction{ID: interactionID, Token: token},
		&discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong},
		discordgo.WithContext(ctx),
	)
}

func (s *Session) EditOriginal(ctx context.Context, token string, msg command.Message) (command.MessageRef, error) {
	embeds, err := ToEmbeds(msg.Embeds)
	if err != nil {
		return command.MessageRef{}, err
	}
	edit := &discordgo.WebhookEdit{Content: &msg.Content}
	if len(embeds) > 0 {
		edit.Embeds = &embeds
	}
	m, err := s.dg.InteractionResponseEdit(&discordgo.Interaction{AppID: s.appID, Token: token}, edit, discordgo.WithContext(ctx))
	if err != nil {
		return command.MessageRef{}, err
	}
	return command.MessageRef{ID: m.ID, ChannelID: m.ChannelID}, nil
}

func (s *Session) Send(ctx context.Context, channelID string, msg command.Message) (command.MessageRef, error) {
	if strings.TrimSpace(channelID) == "" {
		return command.MessageRef{}, fmt.Errorf("channel ID is empty")
	}
	embeds, err := ToEmbeds(msg.Embeds)
	if err != nil {
		return command.MessageRef{}, err
	}
	m, err := s.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: msg.Content,
		Embeds:  embeds,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return command.MessageRef{}, err
	}
	return command.MessageRef{ID: m.ID, ChannelID: m.ChannelID}, nil
}

// Guild returns the cached guild, fetching it when the cache misses.
func (s *Session) Guild(ctx context.Context, guildID string) (any, error) {
	if s.dg.State != nil {
		if g, err := s.dg.State.Guild(guildID); err == nil {
			return g, nil
		}
	}
	v, err := s.dg.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Session) Channel(ctx context.Context, channelID string) (any, error) {
	if s.dg.State != nil {
		if c, err := s.dg.State.Channel(channelID); err == nil {
			return c, nil
		}
	}
	v, err := s.dg.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Session) Member(ctx context.Context, guildID, userID string) (any, error) {
	if s.dg.State != nil {
		if m, err := s.dg.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	v, err := s.dg.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return v, nil
}
