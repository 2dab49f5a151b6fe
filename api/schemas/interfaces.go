package schemas

import "context"

// -- Collaborator Interfaces --
//
// These decouple the pipeline from its external collaborators so every stage
// can be exercised against mocks in tests.

// RepositoryProvider turns a repository URL into a local checkout.
type RepositoryProvider interface {
	Clone(ctx context.Context, url string) (string, error)
}

// RepositoryInfoExtractor gathers descriptive context (README, policies,
// dependency manifests, documentation) from a cloned repository.
type RepositoryInfoExtractor interface {
	Extract(ctx context.Context, repoPath string) (RepositoryInfo, error)
}

// Analyzer runs the external detection strategies against a repository and
// returns raw findings. The plan is passed through uninterpreted.
type Analyzer interface {
	Analyze(ctx context.Context, repoPath string, info RepositoryInfo, plan PlanConfig) ([]Finding, error)
}

// GenerationRequest carries one prompt to the external generator.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
}

// Generator is the optional external model used to write report prose. Any
// failure selects the deterministic local composition path instead.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// RecordStore persists whole scan records keyed by caller-generated scan id.
// Records are write-once; Load of an unknown id fails with *NotFoundError.
type RecordStore interface {
	Save(ctx context.Context, record *ScanRecord) error
	Load(ctx context.Context, scanID string) (*ScanRecord, error)
}
