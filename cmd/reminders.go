/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assettrack/apiserver/config"
	"github.com/assettrack/apiserver/internal/db"
	"github.com/assettrack/apiserver/internal/logger"
	"github.com/assettrack/apiserver/internal/mq"
	"github.com/assettrack/apiserver/internal/server"
	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/internal/store"
)

// remindersCmd runs one reminder pass. Schedule it with cron or a
// Kubernetes CronJob.
var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Publish reminders for overdue and upcoming maintenance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logger.New(cfg.Log.Level, cfg.Log.Format)

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		queue, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_PROVIDER is required to publish reminders")
		}
		defer queue.Close()

		dbConn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer dbConn.Close()

		reminders := services.NewReminderService(
			store.NewMaintenanceRepository(dbConn),
			queue,
			cfg.MQ.RemindersChannel,
			log,
		)
		sent, err := reminders.Run(cmd.Context(), server.Clock(loc)())
		if err != nil {
			log.Error("reminder pass failed", "sent", sent, "error", err)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %d reminders\n", sent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(remindersCmd)
}
