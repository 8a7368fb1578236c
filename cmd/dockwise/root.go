package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/dockwise/internal/cli"
	"github.com/aretw0/dockwise/internal/config"
	"github.com/spf13/cobra"
)

var (
	v    = config.New()
	deps *cli.Deps
)

var rootCmd = &cobra.Command{
	Use:   "dockwise",
	Short: "dockwise is a conversational assistant for container images",
	Long: `dockwise lists, pulls, runs and removes container images through a
conversation, and remembers the options you start each image with.

Without a subcommand it starts a chat. Flags can also be set in a YAML
config file or through DOCKWISE_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(v, file)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		deps, err = cli.Setup(cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if deps == nil {
			return nil
		}
		return deps.Close()
	},
	RunE: runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	if err := config.BindFlags(v, rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}
