package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/observability"
)

// newReportCmd creates and configures the `report` command.
func newReportCmd() *cobra.Command {
	var (
		scanID     string
		reportType string
		format     string
	)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generates an audience-specific report document from a stored scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			rt, err := schemas.ParseReportType(reportType)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize pipeline components: %w", err)
			}
			defer components.Shutdown()

			reportSvc, err := components.Reports(format)
			if err != nil {
				return err
			}

			path, err := reportSvc.GenerateReport(ctx, scanID, rt)
			if err != nil {
				logger.Error("Report generation failed", zap.Error(err), zap.String("scan_id", scanID))
				return err
			}

			fmt.Printf("\nReport written to: %s\n", path)
			return nil
		},
	}

	reportCmd.Flags().StringVar(&scanID, "scan-id", "", "Scan ID of the stored record to report on.")
	reportCmd.Flags().StringVarP(&reportType, "type", "t", string(schemas.ReportTechnicalOperational),
		"Report type: 'regulatory_compliance', 'technical_operational', or 'business_focused'.")
	reportCmd.Flags().StringVarP(&format, "format", "f", "markdown", "Document format: 'markdown' or 'pdf'.")
	_ = reportCmd.MarkFlagRequired("scan-id")

	return reportCmd
}
