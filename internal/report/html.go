package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

//go:embed assets
var assets embed.FS

// Writer renders the document to a standalone HTML file. Everything the page
// needs, styles, script, and the full data payload, is inlined so the report
// opens from disk with no network access.
type Writer struct {
	log *zap.Logger
}

func NewWriter(log *zap.Logger) *Writer {
	return &Writer{log: log}
}

type templateData struct {
	Doc         *Document
	PayloadJSON template.JS
	CSS         template.CSS
	JS          template.JS
}

// Render produces the HTML page for a document.
func (w *Writer) Render(doc *Document) ([]byte, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encoding report payload")
	}
	css, err := assets.ReadFile("assets/theme.css")
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded styles")
	}
	js, err := assets.ReadFile("assets/report.js")
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded script")
	}
	page, err := assets.ReadFile("assets/template.html")
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded template")
	}
	tpl, err := template.New("report").Funcs(template.FuncMap{
		"pct": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	}).Parse(string(page))
	if err != nil {
		return nil, errors.Wrap(err, "parsing report template")
	}

	var buf bytes.Buffer
	err = tpl.Execute(&buf, templateData{
		Doc:         doc,
		PayloadJSON: template.JS(payload),
		CSS:         template.CSS(css),
		JS:          template.JS(js),
	})
	if err != nil {
		return nil, errors.Wrap(err, "rendering report template")
	}
	return buf.Bytes(), nil
}

// Write renders the document into outputDir as Report_N.html, N being the
// first free index, and returns the full path.
func (w *Writer) Write(doc *Document, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating output directory %q", outputDir)
	}
	page, err := w.Render(doc)
	if err != nil {
		return "", err
	}
	path := nextReportPath(outputDir)
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing report to %q", path)
	}
	w.log.Info("report written",
		zap.String("path", path),
		zap.Int("bytes", len(page)))
	return path, nil
}

// nextReportPath returns Report_N.html for the first N not already taken.
func nextReportPath(dir string) string {
	for n := 1; ; n++ {
		path := filepath.Join(dir, fmt.Sprintf("Report_%d.html", n))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}
