// Package enrich turns raw analyzer findings into knowledge-base-enriched
// findings plus a severity summary.
package enrich

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Enricher merges knowledge-base defaults into raw findings.
type Enricher struct {
	logger *zap.Logger
}

// NewEnricher creates a new Enricher instance.
func NewEnricher(logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{logger: logger.Named("enricher")}
}

// LoadKnowledgeBase reads the findings dictionary from path. A missing file
// degrades to an empty knowledge base with a warning; enrichment then passes
// every finding through unchanged.
func (e *Enricher) LoadKnowledgeBase(path string) schemas.KnowledgeBase {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("Findings dictionary unavailable; findings pass through unenriched",
			zap.String("path", path), zap.Error(err))
		return schemas.KnowledgeBase{}
	}

	var kb schemas.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		e.logger.Warn("Findings dictionary is malformed; findings pass through unenriched",
			zap.String("path", path), zap.Error(err))
		return schemas.KnowledgeBase{}
	}
	return kb
}

// Enrich merges knowledge-base entries into findings by shortform keyword.
// The output always has the same length and order as the input: findings
// without a dictionary entry pass through unchanged, and enrichment never
// drops or reorders anything. The inputs are not mutated.
func (e *Enricher) Enrich(findings []schemas.Finding, kb schemas.KnowledgeBase) []schemas.Finding {
	if len(kb) == 0 {
		e.logger.Warn("Enriching with an empty knowledge base; all findings pass through",
			zap.Int("findings", len(findings)))
	}

	enriched := make([]schemas.Finding, 0, len(findings))
	for _, finding := range findings {
		entry, ok := kb[finding.ShortformKeyword]
		if !ok {
			e.logger.Debug("Finding not in dictionary, keeping as-is",
				zap.String("keyword", finding.ShortformKeyword))
			enriched = append(enriched, finding)
			continue
		}
		enriched = append(enriched, Merge(finding, entry))
	}
	return enriched
}

// Merge overlays a knowledge-base entry under one finding and returns the
// result as a new value. Entry fields fill gaps only: wherever the finding
// already carries a value, the finding wins, because per-instance evidence
// outranks generic taxonomy data.
func Merge(finding schemas.Finding, entry schemas.KnowledgeBaseEntry) schemas.Finding {
	merged := finding
	if merged.Title == "" {
		merged.Title = entry.Title
	}
	if merged.Severity == "" {
		merged.Severity = entry.Severity
	}
	if merged.Description == "" {
		merged.Description = entry.Description
	}
	if merged.Remediation == "" {
		merged.Remediation = entry.Remediation
	}
	if len(merged.Compliance) == 0 && len(entry.Compliance) > 0 {
		merged.Compliance = append([]string(nil), entry.Compliance...)
	}
	return merged
}

// Summarize derives the severity summary for a findings sequence. Findings
// without a severity count under UNKNOWN. The result depends only on the
// input: identical findings always yield an identical summary.
func Summarize(findings []schemas.Finding) schemas.Summary {
	breakdown := make(map[schemas.Severity]int)
	for _, f := range findings {
		breakdown[f.EffectiveSeverity()]++
	}
	return schemas.Summary{
		TotalFindings:     len(findings),
		SeverityBreakdown: breakdown,
	}
}

// DescribeBreakdown renders a summary's severity counts for log lines.
func DescribeBreakdown(s schemas.Summary) string {
	return fmt.Sprintf("%d findings across %d severities", s.TotalFindings, len(s.SeverityBreakdown))
}
