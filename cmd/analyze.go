package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/enrich"
	"github.com/auditpipe/auditpipe/internal/observability"
)

// newAnalyzeCmd creates and configures the `analyze` command.
func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [repository-url]",
		Short: "Clones a repository, runs the security analysis, and stores the scan record",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so command-line values override config and env.
			if err := viper.BindPFlag("analyzer.default_plan", cmd.Flags().Lookup("plan")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			sectorHint := viper.GetString("sector")
			plan := schemas.Plan(cfg.Analyzer.DefaultPlan)

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize pipeline components: %w", err)
			}
			defer components.Shutdown()

			record, err := components.Analysis.AnalyzeRepository(ctx, args[0], sectorHint, plan)
			if err != nil {
				logger.Error("Analysis failed", zap.Error(err))
				return err
			}

			fmt.Printf("\nAnalysis Complete. Scan ID: %s\n", record.ScanID)
			fmt.Printf("Findings: %s\n", enrich.DescribeBreakdown(record.Summary))
			fmt.Printf("To generate a report, run: auditpipe report --scan-id %s\n", record.ScanID)
			return nil
		},
	}

	analyzeCmd.Flags().StringP("plan", "p", "", "Scan plan to use: 'basic' or 'full'. (Overrides config/env)")
	analyzeCmd.Flags().StringP("sector", "s", "", "Sector hint stored with the scan (e.g. 'healthcare', 'fintech').")

	return analyzeCmd
}
