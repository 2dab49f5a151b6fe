package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/analyzer"
	"github.com/auditpipe/auditpipe/internal/compose"
	"github.com/auditpipe/auditpipe/internal/config"
	"github.com/auditpipe/auditpipe/internal/enrich"
	"github.com/auditpipe/auditpipe/internal/generator"
	"github.com/auditpipe/auditpipe/internal/gitrepo"
	"github.com/auditpipe/auditpipe/internal/pipeline"
	"github.com/auditpipe/auditpipe/internal/render"
	"github.com/auditpipe/auditpipe/internal/repoinfo"
	"github.com/auditpipe/auditpipe/internal/store"
)

// components holds the initialized services shared by the commands.
type components struct {
	Analysis *pipeline.AnalysisService
	Reports  func(writerFormat string) (*pipeline.ReportService, error)
	Store    schemas.RecordStore
	DBPool   *pgxpool.Pool
}

// Shutdown releases held resources.
func (c *components) Shutdown() {
	if c.DBPool != nil {
		c.DBPool.Close()
	}
}

// initializeComponents handles dependency injection for the pipeline.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	recordStore, err := buildRecordStore(ctx, cfg, logger, c)
	if err != nil {
		return nil, err
	}
	c.Store = recordStore

	c.Analysis = pipeline.NewAnalysisService(
		gitrepo.NewCloner(cfg.Storage.DataDir, logger),
		repoinfo.NewExtractor(logger),
		analyzer.NewClient(cfg.Analyzer, logger),
		enrich.NewEnricher(logger),
		recordStore,
		cfg.Storage.KnowledgeBaseFile,
		logger,
	)

	var gen schemas.Generator
	if cfg.Generator.Enabled && cfg.Generator.APIKey != "" {
		gen, err = generator.NewGeminiClient(cfg.Generator, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing generator: %w", err)
		}
	} else {
		logger.Info("External generator disabled, reports compose locally")
	}
	composer := compose.NewComposer(gen, cfg.Generator.Timeout, logger)

	c.Reports = func(writerFormat string) (*pipeline.ReportService, error) {
		writer, err := render.WriterFor(writerFormat)
		if err != nil {
			return nil, err
		}
		return pipeline.NewReportService(
			recordStore,
			composer,
			writer,
			cfg.Storage.TemplatesDir,
			cfg.Storage.DataDir,
			logger,
		), nil
	}

	return c, nil
}

func buildRecordStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, c *components) (schemas.RecordStore, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		c.DBPool = pool
		pgStore, err := store.NewPostgresStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			c.DBPool = nil
			return nil, err
		}
		return pgStore, nil
	default:
		return store.NewFileStore(cfg.Storage.DataDir, logger)
	}
}
