package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/dockwise"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dockwise",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dockwise version %s\n", strings.TrimSpace(dockwise.Version))
		if deps == nil {
			return
		}
		if server, err := deps.Ping(cmd.Context()); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "docker server %s\n", server)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
