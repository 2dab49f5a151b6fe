package schemas_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpipe/auditpipe/api/schemas"
)

func TestParseReportType(t *testing.T) {
	for _, valid := range []string{"regulatory_compliance", "technical_operational", "business_focused"} {
		rt, err := schemas.ParseReportType(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(rt))
	}

	_, err := schemas.ParseReportType("marketing_fluff")
	var rtErr *schemas.UnknownReportTypeError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, "marketing_fluff", rtErr.ReportType)
}

func TestReportTypeWords(t *testing.T) {
	assert.Equal(t, "regulatory compliance", schemas.ReportRegulatoryCompliance.Words())
	assert.Equal(t, "business focused", schemas.ReportBusinessFocused.Words())
}

func TestEffectiveSeverity(t *testing.T) {
	assert.Equal(t, schemas.SeverityUnknown, schemas.Finding{}.EffectiveSeverity())
	assert.Equal(t, schemas.SeverityHigh, schemas.Finding{Severity: schemas.SeverityHigh}.EffectiveSeverity())
	// Open enumeration: unlisted severities pass through untouched.
	assert.Equal(t, schemas.Severity("BLOCKER"), schemas.Finding{Severity: "BLOCKER"}.EffectiveSeverity())
}

func TestFindingJSONTags(t *testing.T) {
	f := schemas.Finding{
		ShortformKeyword: "sql_injection",
		Title:            "SQL Injection",
		Severity:         schemas.SeverityCritical,
		FilePath:         "app/db.py",
		LineNumber:       42,
		ContextSnippet:   "query = ...",
		Compliance:       []string{"CWE-89"},
	}

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "sql_injection", raw["shortform_keyword"])
	assert.Equal(t, "app/db.py", raw["file_path"])
	assert.Equal(t, float64(42), raw["line_number"])
	assert.Equal(t, "query = ...", raw["context_snippet"])
	assert.NotContains(t, raw, "description", "empty optional fields omitted")
}

func TestScanRecordRoundTrip(t *testing.T) {
	record := schemas.ScanRecord{
		ScanID:         "abc-123",
		Timestamp:      "2026-01-15T10:30:00Z",
		RepositoryPath: "/data/pulled_code/demo",
		PlanUsed:       "full",
		Findings:       []schemas.Finding{{ShortformKeyword: "xss"}},
		Summary: schemas.Summary{
			TotalFindings:     1,
			SeverityBreakdown: map[schemas.Severity]int{schemas.SeverityUnknown: 1},
		},
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded schemas.ScanRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, record, decoded)
}

func TestErrorMessagesAndUnwrap(t *testing.T) {
	assert.Equal(t, "scan record not found: abc", (&schemas.NotFoundError{Kind: "scan record", ID: "abc"}).Error())
	assert.Equal(t, `unknown report type: "x"`, (&schemas.UnknownReportTypeError{ReportType: "x"}).Error())
	assert.Equal(t, "invalid plan: unknown name", (&schemas.ValidationError{Field: "plan", Reason: "unknown name"}).Error())

	cause := errors.New("connection refused")
	extErr := &schemas.ExternalServiceError{Service: "analysis engine", Err: cause}
	assert.Equal(t, "analysis engine failed: connection refused", extErr.Error())
	assert.ErrorIs(t, extErr, cause)
}
