package schemas

import "time"

// -- Scan Record Schemas --

// ScanRecord is the immutable, persisted result of one analysis run. It is
// created once, identified by its caller-generated ScanID, and written as a
// single unit; no partial updates are ever made to a stored record.
type ScanRecord struct {
	ScanID         string `json:"scan_id"`
	Timestamp      string `json:"timestamp"` // RFC 3339
	RepositoryPath string `json:"repository_path"`
	SectorHint     string `json:"sector_hint,omitempty"`
	PlanUsed       string `json:"plan_used"`

	RepositoryInfo RepositoryInfo `json:"repository_info"`
	Findings       []Finding      `json:"findings"`
	Summary        Summary        `json:"summary"`

	// GeneratorAnalysis carries supplementary named output segments from the
	// external generator, when the analysis run produced any. Reports render
	// these as their own section; most records have none.
	GeneratorAnalysis map[string]string `json:"generator_analysis,omitempty"`
}

// NewTimestamp formats t the way scan records store it.
func NewTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// DependencyFile is one dependency manifest captured from the repository.
type DependencyFile struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

// RepositoryInfo is the descriptive context extracted from a repository
// before analysis. It is attached to the scan record verbatim and never
// mutated after extraction.
type RepositoryInfo struct {
	Readme        string                    `json:"readme,omitempty"`
	Policies      map[string]string         `json:"policies,omitempty"`
	Dependencies  map[string]DependencyFile `json:"dependencies,omitempty"`
	Documentation map[string]string         `json:"documentation,omitempty"`
}

// -- Plan Schemas --

// Plan names a configuration bundle controlling which detection strategies
// the external analyzer runs. The pipeline resolves a plan name to its
// PlanConfig and passes it through; it never interprets the options itself.
type Plan string

const (
	PlanBasic Plan = "basic"
	PlanFull  Plan = "full"
)

// StrategyConfig switches one detection strategy on or off and bounds it.
type StrategyConfig struct {
	Enabled        bool    `json:"enabled"`
	TimeoutSeconds int     `json:"timeout"`
	MaxCost        float64 `json:"max_cost,omitempty"`
}

// PlanConfig is the fully resolved analyzer configuration for one run.
type PlanConfig struct {
	Regex               StrategyConfig `json:"regex"`
	AST                 StrategyConfig `json:"ast"`
	ExternalTools       StrategyConfig `json:"external_tools"`
	LLM                 StrategyConfig `json:"llm"`
	Deduplicate         bool           `json:"deduplicate"`
	FilterLowConfidence bool           `json:"filter_low_confidence"`
}
