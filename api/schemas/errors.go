package schemas

import "fmt"

// -- Error Taxonomy --
//
// The pipeline exposes typed failures so callers (CLI, HTTP boundary) can
// map them without string matching. Wrap with %w and check with errors.As.

// NotFoundError reports a missing scan record or report template.
type NotFoundError struct {
	Kind string // "scan record", "template", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// UnknownReportTypeError reports a report_type outside the recognized set.
type UnknownReportTypeError struct {
	ReportType string
}

func (e *UnknownReportTypeError) Error() string {
	return fmt.Sprintf("unknown report type: %q", e.ReportType)
}

// ValidationError reports a malformed plan, request payload, or record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExternalServiceError reports a failure in a collaborator (repository
// clone, analyzer, external generator). Generator failures never escape the
// composer; clone and analyzer failures propagate as this type.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
