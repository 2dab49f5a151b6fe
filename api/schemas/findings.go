package schemas

// -- Finding Schemas --

// Severity classifies how serious a finding is. It is deliberately an open
// string enumeration: the knowledge base may introduce severities beyond the
// constants below, and the pipeline must carry them through untouched.
type Severity string

// Well-known severity levels. SeverityUnknown is the default applied when a
// finding carries no severity at all.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
	SeverityUnknown  Severity = "UNKNOWN"
)

// Finding is a single detected issue in a scanned repository, as produced by
// the external analyzer. Only ShortformKeyword is guaranteed to be present;
// every other field may be empty and is filled in (where possible) during
// enrichment against the knowledge base.
type Finding struct {
	// ShortformKeyword identifies the finding type and is the lookup key
	// into the knowledge base (e.g. "hardcoded_secret", "sql_injection").
	ShortformKeyword string `json:"shortform_keyword"`

	Title       string   `json:"title,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
	FilePath    string   `json:"file_path,omitempty"`
	LineNumber  int      `json:"line_number,omitempty"`
	Description string   `json:"description,omitempty"`

	// ContextSnippet is the evidence excerpt captured around the detection
	// site. Reports truncate it; the record stores it in full.
	ContextSnippet string `json:"context_snippet,omitempty"`

	Remediation string `json:"remediation,omitempty"`

	// Compliance lists control mappings (e.g. "HIPAA 164.312(a)") in the
	// order the analyzer or knowledge base reported them.
	Compliance []string `json:"compliance,omitempty"`
}

// EffectiveSeverity returns the finding's severity, defaulting to
// SeverityUnknown when none was set.
func (f Finding) EffectiveSeverity() Severity {
	if f.Severity == "" {
		return SeverityUnknown
	}
	return f.Severity
}

// KnowledgeBaseEntry holds the canonical descriptive data recorded for one
// finding type. Entry fields act as defaults: they fill gaps in a finding but
// never override data the analyzer reported for the specific instance.
type KnowledgeBaseEntry struct {
	Title       string   `json:"title,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
	Description string   `json:"description,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	Compliance  []string `json:"compliance,omitempty"`
}

// KnowledgeBase maps a finding's shortform keyword to its canonical entry.
// It is loaded once per enrichment pass and treated as immutable, so it is
// safe for concurrent readers.
type KnowledgeBase map[string]KnowledgeBaseEntry

// Summary aggregates a findings sequence. It is always derived from the
// findings it accompanies and never persisted independently of them.
type Summary struct {
	TotalFindings     int              `json:"total_findings"`
	SeverityBreakdown map[Severity]int `json:"severity_breakdown"`
}
