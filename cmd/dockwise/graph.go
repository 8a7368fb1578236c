package main

import (
	"github.com/aretw0/dockwise/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the flow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the dialog tree and the global stack.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		position, _ := cmd.Flags().GetString("position")
		return cli.Graph(deps, cmd.OutOrStdout(), position)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("position", "", "Highlight this dialog node")
}
