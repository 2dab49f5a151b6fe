package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/auditpipe/auditpipe/api/schemas"
)

// Writer serializes a structured document to one output format.
type Writer interface {
	Write(w io.Writer, doc schemas.Document) error
	// Ext is the filename extension including the dot.
	Ext() string
}

// Filename builds the canonical report filename:
// {report_type}_{scan_id}_{timestamp}{ext}.
func Filename(reportType schemas.ReportType, scanID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s%s", reportType, scanID, at.Format("20060102_150405"), ext)
}

// -- Markdown --

// MarkdownWriter renders a document as plain markdown.
type MarkdownWriter struct{}

var _ Writer = (*MarkdownWriter)(nil)

func (MarkdownWriter) Ext() string { return ".md" }

func (MarkdownWriter) Write(w io.Writer, doc schemas.Document) error {
	var sb strings.Builder
	if doc.Title != "" {
		sb.WriteString("# ")
		sb.WriteString(doc.Title)
		sb.WriteString("\n\n")
	}
	for _, block := range doc.Blocks {
		switch block.Kind {
		case schemas.BlockHeading:
			sb.WriteString(strings.Repeat("#", block.Level))
			sb.WriteString(" ")
			sb.WriteString(block.Text)
		default:
			sb.WriteString(block.Text)
		}
		sb.WriteString("\n\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// -- PDF --

// PDFWriter renders a document as a PDF. Heading sizes step down with level;
// paragraphs wrap via MultiCell.
type PDFWriter struct{}

var _ Writer = (*PDFWriter)(nil)

func (PDFWriter) Ext() string { return ".pdf" }

func (PDFWriter) Write(w io.Writer, doc schemas.Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.SetTextColor(30, 30, 30)
		pdf.MultiCell(0, 9, doc.Title, "", "L", false)
		pdf.Ln(4)
	}

	for _, block := range doc.Blocks {
		switch block.Kind {
		case schemas.BlockHeading:
			size := headingFontSize(block.Level)
			pdf.SetFont("Helvetica", "B", size)
			pdf.SetTextColor(30, 30, 30)
			pdf.Ln(2)
			pdf.MultiCell(0, size/2, block.Text, "", "L", false)
			pdf.Ln(1)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(60, 60, 60)
			pdf.MultiCell(0, 5, block.Text, "", "L", false)
			pdf.Ln(2)
		}
	}

	return pdf.Output(w)
}

func headingFontSize(level int) float64 {
	switch {
	case level <= 1:
		return 16
	case level == 2:
		return 14
	case level == 3:
		return 12
	default:
		return 11
	}
}

// WriterFor returns the writer matching a format name. Recognized formats
// are "markdown" (alias "md") and "pdf".
func WriterFor(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return MarkdownWriter{}, nil
	case "pdf":
		return PDFWriter{}, nil
	default:
		return nil, &schemas.ValidationError{Field: "format", Reason: "unknown document format " + format}
	}
}
