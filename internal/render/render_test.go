package render

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditpipe/auditpipe/api/schemas"
)

func TestParseHeadingAndParagraph(t *testing.T) {
	blocks := Parse("# Title\n\nSome text")

	require.Len(t, blocks, 2)
	assert.Equal(t, schemas.Block{Kind: schemas.BlockHeading, Text: "Title", Level: 1}, blocks[0])
	assert.Equal(t, schemas.Block{Kind: schemas.BlockParagraph, Text: "Some text"}, blocks[1])
}

func TestParseHeadingLevels(t *testing.T) {
	blocks := Parse("## Section\n\n### Subsection\n\n######## Deep")

	require.Len(t, blocks, 3)
	assert.Equal(t, 2, blocks[0].Level)
	assert.Equal(t, 3, blocks[1].Level)
	assert.Equal(t, 6, blocks[2].Level, "heading level capped")
	assert.Equal(t, "Deep", blocks[2].Text)
}

func TestParseDropsEmptyBlocks(t *testing.T) {
	blocks := Parse("first\n\n   \n\n\n\nsecond")

	require.Len(t, blocks, 2)
	assert.Equal(t, "first", blocks[0].Text)
	assert.Equal(t, "second", blocks[1].Text)
}

func TestParseTrimsParagraphs(t *testing.T) {
	blocks := Parse("  padded text  ")

	require.Len(t, blocks, 1)
	assert.Equal(t, "padded text", blocks[0].Text)
}

func TestParseEmptyContent(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("\n\n\n\n"))
}

func TestBuildDocumentTitle(t *testing.T) {
	doc := BuildDocument("# X\n\ny", schemas.ReportRegulatoryCompliance)
	assert.Equal(t, "Security Regulatory Compliance Report", doc.Title)
	assert.Len(t, doc.Blocks, 2)
}

func TestBuildDocumentConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				doc := BuildDocument("# X\n\ny", schemas.ReportTechnicalOperational)
				if doc.Title != "Security Technical Operational Report" {
					t.Error("concurrent title casing diverged")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 1, 15, 10, 30, 45, 0, time.UTC)
	name := Filename(schemas.ReportBusinessFocused, "abc-123", at, ".pdf")
	assert.Equal(t, "business_focused_abc-123_20260115_103045.pdf", name)
}

func TestMarkdownWriter(t *testing.T) {
	doc := schemas.Document{
		Title: "Security Report",
		Blocks: []schemas.Block{
			{Kind: schemas.BlockHeading, Text: "Summary", Level: 2},
			{Kind: schemas.BlockParagraph, Text: "All good."},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, MarkdownWriter{}.Write(&buf, doc))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Security Report\n\n"))
	assert.Contains(t, out, "## Summary\n\n")
	assert.Contains(t, out, "All good.\n\n")
}

func TestPDFWriterProducesValidHeader(t *testing.T) {
	doc := schemas.Document{
		Title: "Security Report",
		Blocks: []schemas.Block{
			{Kind: schemas.BlockHeading, Text: "Findings", Level: 1},
			{Kind: schemas.BlockParagraph, Text: strings.Repeat("long paragraph text ", 50)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, PDFWriter{}.Write(&buf, doc))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWriterFor(t *testing.T) {
	w, err := WriterFor("markdown")
	require.NoError(t, err)
	assert.Equal(t, ".md", w.Ext())

	w, err = WriterFor("PDF")
	require.NoError(t, err)
	assert.Equal(t, ".pdf", w.Ext())

	_, err = WriterFor("docx")
	var vErr *schemas.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
