package analyzer

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/config"
)

func TestResolvePlanBasic(t *testing.T) {
	cfg, err := ResolvePlan(schemas.PlanBasic)
	require.NoError(t, err)

	assert.False(t, cfg.Regex.Enabled)
	assert.False(t, cfg.AST.Enabled)
	assert.True(t, cfg.ExternalTools.Enabled)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, 180, cfg.ExternalTools.TimeoutSeconds)
	assert.Equal(t, 2.00, cfg.LLM.MaxCost)
	assert.True(t, cfg.Deduplicate)
	assert.True(t, cfg.FilterLowConfidence)
}

func TestResolvePlanFull(t *testing.T) {
	cfg, err := ResolvePlan(schemas.PlanFull)
	require.NoError(t, err)

	assert.True(t, cfg.Regex.Enabled)
	assert.True(t, cfg.AST.Enabled)
	assert.True(t, cfg.ExternalTools.Enabled)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, 30, cfg.Regex.TimeoutSeconds)
	assert.Equal(t, 120, cfg.AST.TimeoutSeconds)
	assert.Equal(t, 120, cfg.LLM.TimeoutSeconds)
}

func TestResolvePlanUnknown(t *testing.T) {
	_, err := ResolvePlan("enterprise")

	var vErr *schemas.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "plan", vErr.Field)
}

func TestAnalyzePostsPlanAndDecodesFindings(t *testing.T) {
	var gotReq analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, stdjson.NewDecoder(r.Body).Decode(&gotReq))

		_ = stdjson.NewEncoder(w).Encode(analyzeResponse{Findings: []schemas.Finding{
			{ShortformKeyword: "sql_injection", Severity: schemas.SeverityCritical, FilePath: "app/db.py", LineNumber: 42},
		}})
	}))
	defer srv.Close()

	client := NewClient(config.AnalyzerConfig{Endpoint: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	plan, err := ResolvePlan(schemas.PlanFull)
	require.NoError(t, err)

	findings, err := client.Analyze(context.Background(), "/tmp/checkout", schemas.RepositoryInfo{Readme: "hi"}, plan)
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, "sql_injection", findings[0].ShortformKeyword)
	assert.Equal(t, "/tmp/checkout", gotReq.RepoPath)
	assert.Equal(t, "hi", gotReq.RepositoryInfo.Readme)
	assert.True(t, gotReq.PlanConfig.Regex.Enabled)
}

func TestAnalyzeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(config.AnalyzerConfig{Endpoint: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())

	_, err := client.Analyze(context.Background(), "/tmp/checkout", schemas.RepositoryInfo{}, schemas.PlanConfig{})
	var extErr *schemas.ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "analysis engine", extErr.Service)
	assert.Contains(t, extErr.Error(), "engine overloaded")
}

func TestAnalyzeUnreachableEndpoint(t *testing.T) {
	client := NewClient(config.AnalyzerConfig{Endpoint: "http://127.0.0.1:1/analyze", Timeout: time.Second}, zap.NewNop())

	_, err := client.Analyze(context.Background(), "/tmp/checkout", schemas.RepositoryInfo{}, schemas.PlanConfig{})
	var extErr *schemas.ExternalServiceError
	assert.True(t, errors.As(err, &extErr))
}
