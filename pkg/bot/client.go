// Package bot ties a declared command registry to Discord: it reconciles the
// remote registry on start and then routes interactions to handlers.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/command"
	"github.com/sipeed/picoslash/pkg/config"
	"github.com/sipeed/picoslash/pkg/discord"
	"github.com/sipeed/picoslash/pkg/logger"
	"github.com/sipeed/picoslash/pkg/reconcile"
	"github.com/sipeed/picoslash/pkg/routing"
	"github.com/sipeed/picoslash/pkg/server"
)

// Transport is the Discord connection the client drives.
type Transport interface {
	reconcile.Registrar
	routing.Responder
	routing.Resolver
	ResolveApplicationID(ctx context.Context) (string, error)
	Open() error
	Close() error
	OnInteraction(fn func(in *api.Interaction)) func()
}

type StartOptions struct {
	// NoReconcile skips updating the remote registry. Remote ids of commands
	// that already exist are still adopted so they can be routed.
	NoReconcile bool
}

type Client struct {
	cfg        *config.Config
	registry   *command.Registry
	transport  Transport
	dispatcher *routing.Dispatcher

	mu            sync.Mutex
	running       bool
	gatewayOpen   bool
	removeHandler func()
	server        *server.Server
	ctx           context.Context
	cancel        context.CancelFunc
}

func New(cfg *config.Config, registry *command.Registry, transport Transport) *Client {
	return &Client{
		cfg:       cfg,
		registry:  registry,
		transport: transport,
		dispatcher: routing.NewDispatcher(registry, transport,
			routing.WithResolver(transport),
			routing.WithObserver(func(id string, s routing.State) {
				logger.DebugCF("bot", "Interaction state", map[string]any{
					"interaction_id": id,
					"state":          s.String(),
				})
			}),
		),
	}
}

// NewFromConfig connects a client to Discord with the configured credentials.
func NewFromConfig(cfg *config.Config, registry *command.Registry) (*Client, error) {
	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("discord token is not configured")
	}
	session, err := discord.New(cfg.Discord.Token, cfg.Discord.ApplicationID, cfg.Discord.GuildID)
	if err != nil {
		return nil, err
	}
	return New(cfg, registry, session), nil
}

func (c *Client) Registry() *command.Registry { return c.registry }

func (c *Client) Dispatcher() *routing.Dispatcher { return c.dispatcher }

// Start seals the registry, reconciles it with the remote registry and then
// begins accepting interactions. No interaction is routed before
// reconciliation has finished.
func (c *Client) Start(ctx context.Context, opts StartOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("client already started")
	}

	c.registry.Seal()
	c.ctx, c.cancel = context.WithCancel(ctx)
	started := false
	defer func() {
		if !started {
			c.cancel()
			c.closeGateway()
		}
	}()

	appID, err := c.transport.ResolveApplicationID(ctx)
	if err != nil {
		return err
	}
	logger.InfoCF("bot", "Starting bot", map[string]any{
		"application_id": appID,
		"guild_id":       c.cfg.Discord.GuildID,
		"owner":          c.cfg.Discord.Owner,
		"intake":         c.cfg.Intake.Mode,
		"commands":       c.registry.Len(),
	})

	gateway := c.cfg.Intake.Mode != config.IntakeHTTP
	if gateway {
		if err := c.transport.Open(); err != nil {
			return err
		}
		c.gatewayOpen = true
	}

	if err := c.syncCommands(ctx, opts); err != nil {
		return err
	}

	if gateway {
		c.removeHandler = c.transport.OnInteraction(func(in *api.Interaction) {
			c.dispatcher.Go(c.ctx, in)
		})
	} else {
		srv, err := server.New(c.cfg.Intake.HTTP, c.cfg.Discord.PublicKey, c.dispatcher)
		if err != nil {
			return err
		}
		if err := srv.Start(c.ctx); err != nil {
			return err
		}
		c.server = srv
	}

	started = true
	c.running = true
	logger.InfoC("bot", "Bot started")
	return nil
}

func (c *Client) syncCommands(ctx context.Context, opts StartOptions) error {
	rec := reconcile.New(c.transport, c.registry)
	if opts.NoReconcile || !c.cfg.Sync.Enabled {
		logger.InfoC("bot", "Command reconciliation disabled, adopting existing ids")
		if _, err := rec.Adopt(ctx); err != nil {
			return fmt.Errorf("failed to adopt command ids: %w", err)
		}
		return nil
	}
	if _, err := rec.Run(ctx); err != nil {
		return fmt.Errorf("failed to reconcile commands: %w", err)
	}
	return nil
}

// Addr returns the HTTP intake address when the client runs in http mode.
func (c *Client) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server == nil {
		return ""
	}
	return c.server.Addr()
}

// Stop stops intake, waits for in-flight handlers and closes the connection.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	logger.InfoC("bot", "Stopping bot")

	if c.removeHandler != nil {
		c.removeHandler()
		c.removeHandler = nil
	}
	var stopErr error
	if c.server != nil {
		stopErr = c.server.Stop(ctx)
		c.server = nil
	}

	done := make(chan struct{})
	go func() {
		c.dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.WarnC("bot", "Timed out waiting for handlers")
	}
	c.cancel()

	if err := c.closeGateway(); err != nil && stopErr == nil {
		stopErr = err
	}
	c.running = false
	return stopErr
}

func (c *Client) closeGateway() error {
	if !c.gatewayOpen {
		return nil
	}
	c.gatewayOpen = false
	return c.transport.Close()
}
