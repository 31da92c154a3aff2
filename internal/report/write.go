package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Files lists what Write produced. PDF is empty when not requested.
type Files struct {
	Markdown string
	HTML     string
	PDF      string
}

// Write renders b into dir as <stem>.md and <stem>.html, plus <stem>.pdf
// when pdf is non-nil.
func Write(ctx context.Context, b *Builder, dir, stem string, pdf *PDFRenderer) (Files, error) {
	var files Files
	if stem == "" {
		stem = "dbmodel_report"
		if len(b.RunID) >= 8 {
			stem += "_" + b.RunID[:8]
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return files, fmt.Errorf("create output dir: %w", err)
	}

	md, err := b.Markdown()
	if err != nil {
		return files, err
	}
	files.Markdown = filepath.Join(dir, stem+".md")
	if err := os.WriteFile(files.Markdown, []byte(md), 0o644); err != nil {
		return files, err
	}

	doc, err := RenderHTML(b.Title, md)
	if err != nil {
		return files, err
	}
	doc = EmbedCharts(doc, b.ChartList())
	files.HTML = filepath.Join(dir, stem+".html")
	if err := os.WriteFile(files.HTML, []byte(doc), 0o644); err != nil {
		return files, err
	}

	if pdf == nil {
		return files, nil
	}
	out, err := pdf.Render(ctx, doc)
	if err != nil {
		return files, err
	}
	files.PDF = filepath.Join(dir, stem+".pdf")
	if err := os.WriteFile(files.PDF, out, 0o644); err != nil {
		return files, err
	}
	return files, nil
}
