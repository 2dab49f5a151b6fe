// Package server exposes the analysis and report pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/analyzer"
	"github.com/auditpipe/auditpipe/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AnalysisRunner runs one scan end to end.
type AnalysisRunner interface {
	AnalyzeRepository(ctx context.Context, url, sectorHint string, plan schemas.Plan) (*schemas.ScanRecord, error)
}

// ReportRunner generates one report document and returns its file path.
type ReportRunner interface {
	GenerateReport(ctx context.Context, scanID string, reportType schemas.ReportType) (string, error)
}

// Server routes the HTTP API. The only mutable state it holds is the default
// plan applied to analyze requests that do not name one; each request still
// resolves its own plan.
type Server struct {
	cfg      config.ServerConfig
	analysis AnalysisRunner
	reports  ReportRunner
	logger   *zap.Logger

	mu          sync.RWMutex
	defaultPlan schemas.Plan

	httpServer *http.Server
}

// NewServer wires the API. defaultPlan must be a known plan name.
func NewServer(cfg config.ServerConfig, analysis AnalysisRunner, reports ReportRunner, defaultPlan schemas.Plan, logger *zap.Logger) (*Server, error) {
	if _, err := analyzer.ResolvePlan(defaultPlan); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:         cfg,
		analysis:    analysis,
		reports:     reports,
		defaultPlan: defaultPlan,
		logger:      logger.Named("server"),
	}, nil
}

// Handler builds the route mux. Exposed separately so tests can drive it
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/generate-report", s.handleGenerateReport)
	mux.HandleFunc("/api/change-plan", s.handleChangePlan)
	mux.HandleFunc("/api/get-plan", s.handleGetPlan)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := s.cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err := <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type analyzeRequest struct {
	GithubURL  string `json:"github_url"`
	SectorHint string `json:"sector_hint"`
	Plan       string `json:"plan"`
}

type analyzeResponse struct {
	ScanID        string `json:"scan_id"`
	TotalFindings int    `json:"total_findings"`
	PlanUsed      string `json:"plan_used"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &schemas.ValidationError{Field: "body", Reason: "malformed JSON payload"})
		return
	}
	if req.GithubURL == "" {
		s.writeError(w, &schemas.ValidationError{Field: "github_url", Reason: "github_url is required"})
		return
	}

	plan := schemas.Plan(req.Plan)
	if req.Plan == "" {
		plan = s.currentPlan()
	}

	record, err := s.analysis.AnalyzeRepository(r.Context(), req.GithubURL, req.SectorHint, plan)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		ScanID:        record.ScanID,
		TotalFindings: record.Summary.TotalFindings,
		PlanUsed:      record.PlanUsed,
	})
}

type generateReportRequest struct {
	ScanID     string `json:"scan_id"`
	ReportType string `json:"report_type"`
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &schemas.ValidationError{Field: "body", Reason: "malformed JSON payload"})
		return
	}
	if req.ScanID == "" {
		s.writeError(w, &schemas.ValidationError{Field: "scan_id", Reason: "scan_id is required"})
		return
	}

	reportType, err := schemas.ParseReportType(req.ReportType)
	if err != nil {
		s.writeError(w, err)
		return
	}

	path, err := s.reports.GenerateReport(r.Context(), req.ScanID, reportType)
	if err != nil {
		s.writeError(w, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("Streaming report to client failed", zap.Error(err))
	}
}

type changePlanRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handleChangePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req changePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &schemas.ValidationError{Field: "body", Reason: "malformed JSON payload"})
		return
	}

	plan := schemas.Plan(req.Plan)
	if _, err := analyzer.ResolvePlan(plan); err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	s.defaultPlan = plan
	s.mu.Unlock()

	s.logger.Info("Default plan changed", zap.String("plan", string(plan)))
	s.writeJSON(w, http.StatusOK, map[string]string{"plan": string(plan)})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"plan": string(s.currentPlan())})
}

func (s *Server) currentPlan() schemas.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultPlan
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("Encoding response failed", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		vErr   *schemas.ValidationError
		rtErr  *schemas.UnknownReportTypeError
		nfErr  *schemas.NotFoundError
		extErr *schemas.ExternalServiceError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &rtErr):
		status = http.StatusBadRequest
	case errors.As(err, &nfErr):
		status = http.StatusNotFound
	case errors.As(err, &extErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	} else {
		s.logger.Warn("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
