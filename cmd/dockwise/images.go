package main

import (
	"github.com/aretw0/dockwise/internal/cli"
	"github.com/spf13/cobra"
)

var imagesCmd = &cobra.Command{
	Use:     "images",
	Aliases: []string{"ls"},
	Short:   "List local images",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListImages(cmd.Context(), deps, cmd.OutOrStdout())
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull <image>",
	Short: "Pull an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PullImage(cmd.Context(), deps, cmd.OutOrStdout(), args[0])
	},
}

var runCmd = &cobra.Command{
	Use:   "run <image>",
	Short: "Start a container with the saved settings of an image",
	Long: `Starts a container from the image. Saved settings apply unless
overridden by flags; --save stores the resulting settings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, _ := cmd.Flags().GetStringSlice("port")
		name, _ := cmd.Flags().GetString("name")
		env, _ := cmd.Flags().GetStringArray("env")
		save, _ := cmd.Flags().GetBool("save")
		return cli.RunImage(cmd.Context(), deps, cmd.OutOrStdout(), cli.RunRequest{
			Image: args[0],
			Ports: ports,
			Name:  name,
			Env:   env,
			Save:  save,
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <image>...",
	Short: "Remove local images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RemoveImages(cmd.Context(), deps, cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(imagesCmd, pullCmd, runCmd, rmCmd)

	runCmd.Flags().StringSliceP("port", "p", nil, "Publish a port (PORT or HOST:CONTAINER)")
	runCmd.Flags().String("name", "", "Container name")
	runCmd.Flags().StringArrayP("env", "e", nil, "Environment variable (KEY=VALUE)")
	runCmd.Flags().Bool("save", false, "Save the settings used for this image")
}
