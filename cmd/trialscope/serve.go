package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trialscope/trialscope/internal/server"
	"github.com/trialscope/trialscope/pkg/logger"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard model over HTTP",
		Long: `Starts the dashboard API using the config file. Environment variables
PORT, DATABASE_URL, SNAPSHOT_BUCKET and TRIALSCOPE_API_KEY override it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.ApplyEnv(os.Getenv)
			if port > 0 {
				cfg.Server.Port = port
			}

			log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to serve on (default: server.port from config)")

	return cmd
}
