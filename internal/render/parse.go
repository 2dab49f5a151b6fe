// Package render turns composed report text into structured documents and
// serializes them to markdown or PDF files.
package render

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/auditpipe/auditpipe/api/schemas"
)

const maxHeadingLevel = 6

// Parse splits report content on blank-line boundaries and classifies each
// block. Blocks starting with '#' become headings (level = number of leading
// markers, capped at maxHeadingLevel); everything else becomes a trimmed
// paragraph. Empty blocks are dropped. Parse knows nothing about report
// semantics.
func Parse(content string) []schemas.Block {
	raw := strings.Split(content, "\n\n")
	blocks := make([]schemas.Block, 0, len(raw))
	for _, chunk := range raw {
		text := strings.TrimSpace(chunk)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			level := 0
			for level < len(text) && text[level] == '#' {
				level++
			}
			if level > maxHeadingLevel {
				level = maxHeadingLevel
			}
			blocks = append(blocks, schemas.Block{
				Kind:  schemas.BlockHeading,
				Text:  strings.TrimSpace(strings.TrimLeft(text, "#")),
				Level: level,
			})
			continue
		}
		blocks = append(blocks, schemas.Block{Kind: schemas.BlockParagraph, Text: text})
	}
	return blocks
}

// BuildDocument parses content and attaches the standard document title for
// the report type ("Security Regulatory Compliance Report").
func BuildDocument(content string, reportType schemas.ReportType) schemas.Document {
	// A fresh Caser per call: cases.Caser is stateful and BuildDocument may
	// run for concurrent report requests.
	title := cases.Title(language.English).String(reportType.Words())
	return schemas.Document{
		Title:  "Security " + title + " Report",
		Blocks: Parse(content),
	}
}
