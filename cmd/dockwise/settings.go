package main

import (
	"github.com/aretw0/dockwise/internal/cli"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage saved run settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List images with saved settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListSettings(cmd.Context(), deps, cmd.OutOrStdout())
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show <image>",
	Short: "Print the saved settings of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ShowSettings(cmd.Context(), deps, cmd.OutOrStdout(), args[0])
	},
}

var settingsRmCmd = &cobra.Command{
	Use:   "rm <image>",
	Short: "Forget the saved settings of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.DeleteSettings(cmd.Context(), deps, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd, settingsShowCmd, settingsRmCmd)
	rootCmd.AddCommand(settingsCmd)
}
