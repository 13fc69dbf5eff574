// picoslash keeps a Discord application's slash commands in sync with a
// declared command tree and answers the interactions they produce.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoslash/cmd/picoslash/internal"
	"github.com/sipeed/picoslash/cmd/picoslash/internal/run"
	"github.com/sipeed/picoslash/cmd/picoslash/internal/schema"
	"github.com/sipeed/picoslash/cmd/picoslash/internal/synccmd"
	"github.com/sipeed/picoslash/cmd/picoslash/internal/tree"
	"github.com/sipeed/picoslash/cmd/picoslash/internal/version"
)

func NewPicoslashCommand() *cobra.Command {
	short := fmt.Sprintf("%s picoslash - Discord slash command bot", internal.Logo)

	cmd := &cobra.Command{
		Use:          "picoslash",
		Short:        short,
		Example:      "picoslash run --manifest commands.yaml",
		SilenceUsage: true,
	}

	internal.AddPersistentFlags(cmd)

	cmd.AddCommand(
		run.NewRunCommand(),
		synccmd.NewSyncCommand(),
		tree.NewTreeCommand(),
		schema.NewSchemaCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewPicoslashCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
