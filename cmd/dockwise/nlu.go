package main

import (
	"github.com/aretw0/dockwise/internal/cli"
	"github.com/spf13/cobra"
)

var nluCmd = &cobra.Command{
	Use:   "nlu",
	Short: "Inspect the NLU server",
}

var nluStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the model loaded by the NLU server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.NLUStatus(cmd.Context(), deps, cmd.OutOrStdout())
	},
}

func init() {
	nluCmd.AddCommand(nluStatusCmd)
	rootCmd.AddCommand(nluCmd)
}
