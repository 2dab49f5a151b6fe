// Package analyzer resolves named scan plans and talks to the external
// static analysis engine over HTTP.
package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// analyzeRequest is the wire payload sent to the analysis engine.
type analyzeRequest struct {
	RepoPath       string                 `json:"repo_path"`
	RepositoryInfo schemas.RepositoryInfo `json:"repository_info"`
	PlanConfig     schemas.PlanConfig     `json:"plan_config"`
}

// analyzeResponse is the engine's reply.
type analyzeResponse struct {
	Findings []schemas.Finding `json:"findings"`
}

// Client implements schemas.Analyzer against a remote analysis engine.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ schemas.Analyzer = (*Client)(nil)

// NewClient builds an analyzer client from configuration.
func NewClient(cfg config.AnalyzerConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("analyzer"),
	}
}

// Analyze submits the repository and the resolved plan to the engine and
// returns its findings. Transport and status failures wrap into
// ExternalServiceError so callers can map them uniformly.
func (c *Client) Analyze(ctx context.Context, repoPath string, info schemas.RepositoryInfo, plan schemas.PlanConfig) ([]schemas.Finding, error) {
	body, err := json.Marshal(analyzeRequest{
		RepoPath:       repoPath,
		RepositoryInfo: info,
		PlanConfig:     plan,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &schemas.ExternalServiceError{Service: "analysis engine", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &schemas.ExternalServiceError{Service: "analysis engine", Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Analysis engine returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, &schemas.ExternalServiceError{
			Service: "analysis engine",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var payload analyzeResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, &schemas.ExternalServiceError{Service: "analysis engine", Err: fmt.Errorf("decoding response: %w", err)}
	}

	c.logger.Info("Analysis complete",
		zap.String("repo", repoPath),
		zap.Int("findings", len(payload.Findings)),
		zap.Duration("duration", time.Since(start)),
	)
	return payload.Findings, nil
}
