/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/assettrack/apiserver/config"
	"github.com/assettrack/apiserver/internal/logger"
	"github.com/assettrack/apiserver/internal/mq"
	"github.com/assettrack/apiserver/types"
)

// notifierCmd consumes reminders until interrupted. Delivery is a
// structured log line per reminder.
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consume published maintenance reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logger.New(cfg.Log.Level, cfg.Log.Format)

		queue, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_PROVIDER is required to consume reminders")
		}
		defer queue.Close()

		log.Info("notifier listening", "channel", cfg.MQ.RemindersChannel)
		err = queue.Subscribe(cmd.Context(), cfg.MQ.RemindersChannel, func(ctx context.Context, msg mq.Message) error {
			reminder, err := mq.Decode[types.Reminder](msg)
			if err != nil {
				// A malformed body will never decode; acknowledge and move on.
				log.Error("dropping reminder", "message_id", msg.ID, "error", err)
				return nil
			}
			log.InfoContext(ctx, "maintenance reminder",
				"user_id", reminder.UserID,
				"asset", reminder.AssetName,
				"service", reminder.Service,
				"status", reminder.Status.Status,
				"label", reminder.Status.Label,
				"expected_at", reminder.ExpectedAt,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
