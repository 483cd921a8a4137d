package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Marinerbyte/Ytmagic/internal/app"
)

// Version is set at build time via ldflags
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "ytmagic",
	Short:   "Telegram bot that downloads videos in the chosen quality",
	Version: Version,
	Args:    cobra.NoArgs,
	RunE:    serveRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot and its HTTP server",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webhookCmd)
}

func serveRun(_ *cobra.Command, _ []string) error {
	fxApp := fx.New(app.CreateApp())
	if err := fxApp.Err(); err != nil {
		return err
	}
	fxApp.Run()
	return nil
}
