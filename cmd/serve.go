package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/observability"
	"github.com/auditpipe/auditpipe/internal/server"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	var format string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API for analysis and report generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Serve until interrupted.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize pipeline components: %w", err)
			}
			defer components.Shutdown()

			reportSvc, err := components.Reports(format)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(cfg.Server, components.Analysis, reportSvc, schemas.Plan(cfg.Analyzer.DefaultPlan), logger)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	serveCmd.Flags().StringVarP(&format, "format", "f", "markdown", "Document format for generated reports: 'markdown' or 'pdf'.")

	return serveCmd
}
