// Package compose derives report text from a scan record and a template.
// The generator path returns external output verbatim; every failure on that
// path falls back to the deterministic local composition below.
package compose

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/auditpipe/auditpipe/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Truncation lengths for the local composition. These are contracts: report
// consumers rely on the excerpt sizes staying stable across releases.
const (
	readmeExcerptLimit  = 1200
	snippetExcerptLimit = 800
	policyExcerptLimit  = 1000
)

const (
	noReadmeLine      = "No README found; executive summary is derived from scan findings and templates."
	noFindingsLine    = "No findings detected during automated analysis."
	defaultRemedyLine = "Refer to template remediation."
	closingMarker     = "-- End of report (generated locally) --"
)

// DefaultGeneratorTimeout bounds a single external generation attempt when
// the caller does not configure one.
const DefaultGeneratorTimeout = 2 * time.Minute

// Composer assembles report content. A nil generator means local composition
// only.
type Composer struct {
	generator        schemas.Generator
	generatorTimeout time.Duration
	logger           *zap.Logger
}

// NewComposer builds a composer. generator may be nil; timeout <= 0 selects
// DefaultGeneratorTimeout.
func NewComposer(generator schemas.Generator, timeout time.Duration, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultGeneratorTimeout
	}
	return &Composer{
		generator:        generator,
		generatorTimeout: timeout,
		logger:           logger.Named("composer"),
	}
}

// Compose produces the report body for one scan record. Generator output is
// returned verbatim when the call succeeds; absence, timeout, or any error
// from the generator selects the local composition instead. Compose fails
// only on an invalid record, an empty template, or an unrecognized report
// type.
func (c *Composer) Compose(ctx context.Context, record *schemas.ScanRecord, template string, reportType schemas.ReportType) (string, error) {
	if err := validateInputs(record, template, reportType); err != nil {
		return "", err
	}

	if c.generator != nil {
		content, err := c.generate(ctx, record, template, reportType)
		if err == nil {
			return content, nil
		}
		c.logger.Warn("External generation failed, composing locally",
			zap.String("scan_id", record.ScanID), zap.Error(err))
	}

	return ComposeLocal(record, template, reportType), nil
}

func validateInputs(record *schemas.ScanRecord, template string, reportType schemas.ReportType) error {
	if record == nil {
		return &schemas.ValidationError{Field: "record", Reason: "scan record is required"}
	}
	if record.ScanID == "" {
		return &schemas.ValidationError{Field: "scan_id", Reason: "scan record is missing its scan_id"}
	}
	if record.Findings == nil {
		return &schemas.ValidationError{Field: "findings", Reason: "scan record is missing its findings container"}
	}
	if strings.TrimSpace(template) == "" {
		return &schemas.ValidationError{Field: "template", Reason: "report template is empty"}
	}
	if _, err := schemas.ParseReportType(string(reportType)); err != nil {
		return err
	}
	return nil
}

// generate runs one bounded external generation attempt.
func (c *Composer) generate(ctx context.Context, record *schemas.ScanRecord, template string, reportType schemas.ReportType) (string, error) {
	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing scan record: %w", err)
	}

	userPrompt := fmt.Sprintf(`Use the provided template and security scan data to create a comprehensive %s report.

TEMPLATE:
%s

SECURITY SCAN DATA:
%s

Instructions:
1. Follow the template structure exactly
2. Replace placeholders with actual data from the scan results
3. Write in professional, clear language
4. Include specific findings with file paths and line numbers where applicable
5. Provide actionable recommendations
6. Ensure compliance mappings are accurate

Generate the complete report:`, reportType.Words(), template, recordJSON)

	genCtx, cancel := context.WithTimeout(ctx, c.generatorTimeout)
	defer cancel()

	return c.generator.Generate(genCtx, schemas.GenerationRequest{
		SystemPrompt: "You are a professional security report generator.",
		UserPrompt:   userPrompt,
		Temperature:  0.2,
	})
}

// ComposeLocal assembles the deterministic report body. Each section comes
// from a pure function of one slice of the record; sections with no backing
// data are omitted entirely rather than emitted empty.
func ComposeLocal(record *schemas.ScanRecord, template string, reportType schemas.ReportType) string {
	var blocks []string
	blocks = append(blocks, titleSection(reportType)...)
	blocks = append(blocks, template)
	blocks = append(blocks, executiveSummarySection(record.RepositoryInfo)...)
	blocks = append(blocks, scanSummarySection(record.Summary)...)
	blocks = append(blocks, detailedFindingsSection(record.Findings)...)
	blocks = append(blocks, generatorAnalysisSection(record.GeneratorAnalysis)...)
	blocks = append(blocks, policyExcerptsSection(record.RepositoryInfo.Policies)...)
	blocks = append(blocks, methodologySection()...)
	blocks = append(blocks, limitationsSection()...)
	blocks = append(blocks, closingMarker)
	return strings.Join(blocks, "\n\n")
}

func titleSection(reportType schemas.ReportType) []string {
	// cases.Caser carries internal state, so build one per call rather than
	// sharing an instance between concurrent report requests.
	title := cases.Title(language.English).String(reportType.Words())
	return []string{fmt.Sprintf("# %s (Local Generated)", title)}
}

func executiveSummarySection(info schemas.RepositoryInfo) []string {
	blocks := []string{"## Executive Summary"}
	readme := strings.TrimSpace(info.Readme)
	if readme == "" {
		return append(blocks, noReadmeLine)
	}
	return append(blocks, "Context from repository README:", truncate(readme, readmeExcerptLimit))
}

func scanSummarySection(summary schemas.Summary) []string {
	blocks := []string{
		"## Scan Summary",
		fmt.Sprintf("- Total findings: %d", summary.TotalFindings),
	}
	for _, sev := range sortedSeverities(summary.SeverityBreakdown) {
		blocks = append(blocks, fmt.Sprintf("- %s: %d", sev, summary.SeverityBreakdown[sev]))
	}
	return blocks
}

func detailedFindingsSection(findings []schemas.Finding) []string {
	blocks := []string{"## Detailed Findings and Analysis"}
	if len(findings) == 0 {
		return append(blocks, noFindingsLine)
	}
	for i, f := range findings {
		blocks = append(blocks, findingBlocks(i+1, f)...)
	}
	return blocks
}

func findingBlocks(index int, f schemas.Finding) []string {
	title := f.Title
	if title == "" {
		title = f.ShortformKeyword
	}
	path := f.FilePath
	if path == "" {
		path = "N/A"
	}

	blocks := []string{
		fmt.Sprintf("### %d. %s (%s)", index, title, f.ShortformKeyword),
		fmt.Sprintf("- Severity: %s", f.EffectiveSeverity()),
		fmt.Sprintf("- Location: %s:%d", path, f.LineNumber),
	}
	if f.Description != "" {
		blocks = append(blocks, fmt.Sprintf("- Description: %s", f.Description))
	}
	if snippet := strings.TrimSpace(f.ContextSnippet); snippet != "" {
		blocks = append(blocks,
			"**Evidence (code snippet):**",
			fmt.Sprintf("```\n%s\n```", truncate(snippet, snippetExcerptLimit)),
		)
	}
	remediation := f.Remediation
	if remediation == "" {
		remediation = defaultRemedyLine
	}
	blocks = append(blocks, fmt.Sprintf("- Recommendation: %s", remediation))
	if len(f.Compliance) > 0 {
		blocks = append(blocks, fmt.Sprintf("- Compliance mappings: %s", strings.Join(f.Compliance, ", ")))
	}
	return blocks
}

func generatorAnalysisSection(analysis map[string]string) []string {
	if len(analysis) == 0 {
		return nil
	}
	blocks := []string{"## Generator Analysis"}
	for _, section := range sortedKeys(analysis) {
		blocks = append(blocks, fmt.Sprintf("### %s", section), analysis[section])
	}
	return blocks
}

func policyExcerptsSection(policies map[string]string) []string {
	if len(policies) == 0 {
		return nil
	}
	blocks := []string{"## Repository Policies (excerpts)"}
	for _, name := range sortedKeys(policies) {
		blocks = append(blocks,
			fmt.Sprintf("### %s", name),
			truncate(strings.TrimSpace(policies[name]), policyExcerptLimit),
		)
	}
	return blocks
}

func methodologySection() []string {
	return []string{
		"## Methodology",
		"Automated scanners used:",
		"- Static analysis heuristics (pattern and structural checks)",
		"- SCA heuristics scanning dependency manifests",
		"- Repository context extractor for README and policy files",
	}
}

func limitationsSection() []string {
	return []string{
		"## Limitations",
		"- Static analysis coverage varies by language; some languages may not be covered.",
		"- SCA is heuristic-based and does not perform CVE lookups or transitive analysis.",
		"- This automated report is intended as a starting point; manual review is recommended for high-severity findings.",
	}
}

// truncate caps s at limit characters, appending an ellipsis marker when
// anything was cut. Limits count runes, not bytes, so multibyte text is
// never split mid-rune and short multibyte strings gain no marker.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

// severityRank orders well-known severities most-severe-first; unknown
// severities sort after them alphabetically.
var severityRank = map[schemas.Severity]int{
	schemas.SeverityCritical: 0,
	schemas.SeverityHigh:     1,
	schemas.SeverityMedium:   2,
	schemas.SeverityLow:      3,
	schemas.SeverityInfo:     4,
	schemas.SeverityUnknown:  5,
}

func sortedSeverities(breakdown map[schemas.Severity]int) []schemas.Severity {
	severities := make([]schemas.Severity, 0, len(breakdown))
	for sev := range breakdown {
		severities = append(severities, sev)
	}
	sort.Slice(severities, func(i, j int) bool {
		ri, iKnown := severityRank[severities[i]]
		rj, jKnown := severityRank[severities[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return severities[i] < severities[j]
		}
	})
	return severities
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
