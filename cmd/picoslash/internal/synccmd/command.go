package synccmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoslash/cmd/picoslash/internal"
	"github.com/sipeed/picoslash/pkg/discord"
	"github.com/sipeed/picoslash/pkg/reconcile"
)

func NewSyncCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Reconcile the remote command registry with the manifest",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return syncCmd(ctx, cmd.OutOrStdout(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the changes without applying them")

	return cmd
}

func syncCmd(ctx context.Context, out io.Writer, dryRun bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	reg, err := internal.LoadRegistry()
	if err != nil {
		return fmt.Errorf("error loading manifest: %w", err)
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token is not configured")
	}

	stopTracing, err := internal.InitTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopTracing()

	session, err := discord.New(cfg.Discord.Token, cfg.Discord.ApplicationID, cfg.Discord.GuildID)
	if err != nil {
		return err
	}
	if _, err := session.ResolveApplicationID(ctx); err != nil {
		return err
	}

	rec := reconcile.New(session, reg)
	if dryRun {
		plan, err := rec.Plan(ctx)
		if err != nil {
			return err
		}
		PrintPlan(out, plan)
		return nil
	}

	plan, err := rec.Run(ctx)
	if err != nil {
		return err
	}
	PrintPlan(out, plan)
	fmt.Fprintln(out, "All commands up to date")
	return nil
}

// PrintPlan writes one line per pending registry change.
func PrintPlan(out io.Writer, plan reconcile.Plan) {
	if plan.Empty() {
		fmt.Fprintf(out, "No changes (%d unchanged)\n", len(plan.Unchanged))
		return
	}
	for _, c := range plan.Create {
		fmt.Fprintf(out, "+ create %s\n", c.Name)
	}
	for _, u := range plan.Update {
		fmt.Fprintf(out, "~ update %s (%s)\n", u.Command.Name, u.ID)
	}
	for _, d := range plan.Delete {
		fmt.Fprintf(out, "- delete %s (%s)\n", d.Name, d.ID)
	}
}
