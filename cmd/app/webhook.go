package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/logger"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/telegram"
)

const webhookTimeout = 30 * time.Second

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Register WEBHOOK_URL/<bot token> with Telegram",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBot(cmd.Context(), func(ctx context.Context, bot *telegram.Bot) error {
			url, err := bot.SetWebhook(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Webhook set to %s\n", url)
			return nil
		})
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the registered webhook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBot(cmd.Context(), func(ctx context.Context, bot *telegram.Bot) error {
			if err := bot.DeleteWebhook(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Webhook deleted")
			return nil
		})
	},
}

func init() {
	webhookCmd.AddCommand(webhookSetCmd)
	webhookCmd.AddCommand(webhookDeleteCmd)
}

// withBot builds a bot from the environment without starting the service
func withBot(parent context.Context, fn func(ctx context.Context, bot *telegram.Bot) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	bot, err := telegram.NewBot(&cfg.Telegram, log)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, webhookTimeout)
	defer cancel()

	return fn(ctx, bot)
}
