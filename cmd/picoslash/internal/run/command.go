package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoslash/cmd/picoslash/internal"
	"github.com/sipeed/picoslash/pkg/bot"
	"github.com/sipeed/picoslash/pkg/logger"
)

func NewRunCommand() *cobra.Command {
	var noSync bool

	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"r"},
		Short:   "Sync commands and serve interactions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), noSync)
		},
	}

	cmd.Flags().BoolVar(&noSync, "no-sync", false, "Do not update the remote command registry")

	return cmd
}

func runBot(ctx context.Context, noSync bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	reg, err := internal.LoadRegistry()
	if err != nil {
		return fmt.Errorf("error loading manifest: %w", err)
	}

	stopTracing, err := internal.InitTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopTracing()

	client, err := bot.NewFromConfig(cfg, reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Start(ctx, bot.StartOptions{NoReconcile: noSync}); err != nil {
		return err
	}
	fmt.Printf("%s picoslash is running with %d commands. Press Ctrl+C to stop.\n", internal.Logo, reg.Len())

	<-ctx.Done()
	logger.InfoC("bot", "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Stop(shutdownCtx)
}
