package schemas

import "strings"

// -- Report Schemas --

// ReportType selects the audience a generated report is written for.
type ReportType string

const (
	ReportRegulatoryCompliance ReportType = "regulatory_compliance"
	ReportTechnicalOperational ReportType = "technical_operational"
	ReportBusinessFocused      ReportType = "business_focused"
)

// ParseReportType validates a raw report type string. Unrecognized values
// fail with UnknownReportTypeError.
func ParseReportType(raw string) (ReportType, error) {
	switch rt := ReportType(raw); rt {
	case ReportRegulatoryCompliance, ReportTechnicalOperational, ReportBusinessFocused:
		return rt, nil
	default:
		return "", &UnknownReportTypeError{ReportType: raw}
	}
}

// Words returns the report type with underscores replaced by spaces, ready
// for title casing in headings ("regulatory compliance").
func (rt ReportType) Words() string {
	return strings.ReplaceAll(string(rt), "_", " ")
}

// BlockKind discriminates the two block shapes a document can hold.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
)

// Block is one element of a structured report document: either a heading
// with a level, or a plain paragraph.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text"`
	Level int       `json:"level,omitempty"` // headings only
}

// Document is the ordered block sequence produced by the report formatter.
// It carries no report semantics, only layout ready for serialization.
type Document struct {
	Title  string  `json:"title,omitempty"`
	Blocks []Block `json:"blocks"`
}
