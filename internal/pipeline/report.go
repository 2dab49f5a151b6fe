package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/compose"
	"github.com/auditpipe/auditpipe/internal/render"
)

// templateFiles maps each report type to its template filename under the
// templates directory.
var templateFiles = map[schemas.ReportType]string{
	schemas.ReportRegulatoryCompliance: "regulatory_compliance_template.md",
	schemas.ReportTechnicalOperational: "technical_operational_template.md",
	schemas.ReportBusinessFocused:      "business_focused_template.md",
}

// ReportService turns a stored scan record into a generated report document
// on disk: load record, load template, compose, parse, write.
type ReportService struct {
	store        schemas.RecordStore
	composer     *compose.Composer
	writer       render.Writer
	templatesDir string
	reportsDir   string
	logger       *zap.Logger

	now func() time.Time
}

// NewReportService assembles the report pipeline. Generated documents land
// under <dataDir>/generated_reports/.
func NewReportService(store schemas.RecordStore, composer *compose.Composer, writer render.Writer, templatesDir, dataDir string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		store:        store,
		composer:     composer,
		writer:       writer,
		templatesDir: templatesDir,
		reportsDir:   filepath.Join(dataDir, "generated_reports"),
		logger:       logger.Named("report"),
		now:          time.Now,
	}
}

// GenerateReport produces a document for one stored scan and returns the
// written file path. All validation happens before any write: an unknown
// report type or missing record leaves the reports directory untouched.
func (s *ReportService) GenerateReport(ctx context.Context, scanID string, reportType schemas.ReportType) (string, error) {
	if _, err := schemas.ParseReportType(string(reportType)); err != nil {
		return "", err
	}

	record, err := s.store.Load(ctx, scanID)
	if err != nil {
		return "", err
	}

	template, err := s.loadTemplate(reportType)
	if err != nil {
		return "", err
	}

	content, err := s.composer.Compose(ctx, record, template, reportType)
	if err != nil {
		return "", err
	}

	doc := render.BuildDocument(content, reportType)

	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	path := filepath.Join(s.reportsDir, render.Filename(reportType, scanID, s.now(), s.writer.Ext()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := s.writer.Write(f, doc); err != nil {
		return "", fmt.Errorf("writing report document: %w", err)
	}

	s.logger.Info("Report generated",
		zap.String("scan_id", scanID),
		zap.String("report_type", string(reportType)),
		zap.String("path", path),
	)
	return path, nil
}

func (s *ReportService) loadTemplate(reportType schemas.ReportType) (string, error) {
	name, ok := templateFiles[reportType]
	if !ok {
		return "", &schemas.UnknownReportTypeError{ReportType: string(reportType)}
	}
	path := filepath.Join(s.templatesDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &schemas.NotFoundError{Kind: "template", ID: name}
		}
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	return string(data), nil
}
