package analyzer

import (
	"github.com/auditpipe/auditpipe/api/schemas"
)

// ResolvePlan expands a named plan into its full strategy configuration.
// Plan names are opaque to the rest of the pipeline; only the expanded
// config ever reaches the analyzer.
func ResolvePlan(name schemas.Plan) (schemas.PlanConfig, error) {
	switch name {
	case schemas.PlanBasic:
		return schemas.PlanConfig{
			Regex:               schemas.StrategyConfig{Enabled: false, TimeoutSeconds: 30},
			AST:                 schemas.StrategyConfig{Enabled: false, TimeoutSeconds: 120},
			ExternalTools:       schemas.StrategyConfig{Enabled: true, TimeoutSeconds: 180},
			LLM:                 schemas.StrategyConfig{Enabled: false, TimeoutSeconds: 120, MaxCost: 2.00},
			Deduplicate:         true,
			FilterLowConfidence: true,
		}, nil
	case schemas.PlanFull:
		return schemas.PlanConfig{
			Regex:               schemas.StrategyConfig{Enabled: true, TimeoutSeconds: 30},
			AST:                 schemas.StrategyConfig{Enabled: true, TimeoutSeconds: 120},
			ExternalTools:       schemas.StrategyConfig{Enabled: true, TimeoutSeconds: 180},
			LLM:                 schemas.StrategyConfig{Enabled: true, TimeoutSeconds: 120, MaxCost: 2.00},
			Deduplicate:         true,
			FilterLowConfidence: true,
		}, nil
	default:
		return schemas.PlanConfig{}, &schemas.ValidationError{
			Field:  "plan",
			Reason: "unknown plan " + string(name) + " (valid plans: basic, full)",
		}
	}
}

// KnownPlans lists the plan names ResolvePlan accepts.
func KnownPlans() []schemas.Plan {
	return []schemas.Plan{schemas.PlanBasic, schemas.PlanFull}
}
