/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assettrack/apiserver/config"
	"github.com/assettrack/apiserver/internal/logger"
	"github.com/assettrack/apiserver/internal/server"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the asset tracker backend server",
	Long: `Starts the asset tracker backend server. Usage:

	assettrack server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logger.New(cfg.Log.Level, cfg.Log.Format)

		srv, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("failed to start server", "error", err)
			return fmt.Errorf("failed to start server: %w", err)
		}
		if err := srv.Run(cmd.Context()); err != nil {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
