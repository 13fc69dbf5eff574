package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoslash/cmd/picoslash/internal"
	"github.com/sipeed/picoslash/pkg/command"
)

func NewTreeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "tree",
		Aliases: []string{"t"},
		Short:   "Show the declared command tree",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := internal.LoadRegistry()
			if err != nil {
				return fmt.Errorf("error loading manifest: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reg.Serialize())
			}
			PrintTree(cmd.OutOrStdout(), reg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the registration payload as JSON")

	return cmd
}

// PrintTree writes the tree with one indented line per node.
func PrintTree(out io.Writer, reg *command.Registry) {
	for _, root := range reg.Commands() {
		command.Walk(root, func(path []string, n *command.Node) {
			indent := strings.Repeat("  ", len(path)-1)
			name := n.Name()
			if len(path) == 1 {
				name = "/" + name
			}
			fmt.Fprintf(out, "%s%s%s  %s\n", indent, name, formatArgs(n.Arguments()), n.Description())
		})
	}
}

func formatArgs(args []command.Argument) string {
	var b strings.Builder
	for _, a := range args {
		if a.Required {
			fmt.Fprintf(&b, " <%s:%s>", a.Name, a.Type)
		} else {
			fmt.Fprintf(&b, " [%s:%s]", a.Name, a.Type)
		}
	}
	return b.String()
}
