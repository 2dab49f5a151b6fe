// Package pipeline wires the scan and report stages into the two top-level
// operations the CLI and the HTTP surface expose.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/analyzer"
	"github.com/auditpipe/auditpipe/internal/enrich"
)

// AnalysisService runs one full scan: clone, extract context, analyze,
// enrich, and persist. Each call is independent; the service holds no
// per-scan state.
type AnalysisService struct {
	provider  schemas.RepositoryProvider
	extractor schemas.RepositoryInfoExtractor
	analyzer  schemas.Analyzer
	enricher  *enrich.Enricher
	store     schemas.RecordStore
	kbFile    string
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewAnalysisService assembles the scan pipeline.
func NewAnalysisService(
	provider schemas.RepositoryProvider,
	extractor schemas.RepositoryInfoExtractor,
	anlz schemas.Analyzer,
	enricher *enrich.Enricher,
	store schemas.RecordStore,
	kbFile string,
	logger *zap.Logger,
) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		provider:  provider,
		extractor: extractor,
		analyzer:  anlz,
		enricher:  enricher,
		store:     store,
		kbFile:    kbFile,
		logger:    logger.Named("analysis"),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// AnalyzeRepository executes one scan against url and returns the persisted
// record. The plan name resolves per call: there is no process-wide current
// plan.
func (s *AnalysisService) AnalyzeRepository(ctx context.Context, url, sectorHint string, planName schemas.Plan) (*schemas.ScanRecord, error) {
	plan, err := analyzer.ResolvePlan(planName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Starting analysis",
		zap.String("url", url),
		zap.String("plan", string(planName)),
	)

	repoPath, err := s.provider.Clone(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cloning repository: %w", err)
	}

	info, err := s.extractor.Extract(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("extracting repository context: %w", err)
	}

	findings, err := s.analyzer.Analyze(ctx, repoPath, info, plan)
	if err != nil {
		return nil, fmt.Errorf("analyzing repository: %w", err)
	}

	kb := s.enricher.LoadKnowledgeBase(s.kbFile)
	enriched := s.enricher.Enrich(findings, kb)
	summary := enrich.Summarize(enriched)

	record := &schemas.ScanRecord{
		ScanID:         s.newID(),
		Timestamp:      schemas.NewTimestamp(s.now()),
		RepositoryPath: repoPath,
		SectorHint:     sectorHint,
		PlanUsed:       string(planName),
		RepositoryInfo: info,
		Findings:       enriched,
		Summary:        summary,
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("saving scan record: %w", err)
	}

	s.logger.Info("Analysis complete",
		zap.String("scan_id", record.ScanID),
		zap.String("summary", enrich.DescribeBreakdown(summary)),
	)
	return record, nil
}
