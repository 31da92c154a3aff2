package output

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// HTMLFormatter produces a standalone HTML page from an embedded template.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"musd":  FormatMillions,
	"rate":  FormatRate,
	"ratio": FormatRatio,
	"mil":   func(v float64) float64 { return v / 1e6 },
	"dscr": func(v *float64) string {
		if v == nil {
			return "–"
		}
		return fmt.Sprintf("%.2f", *v)
	},
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		*domain.ModelResult
		Assumptions []string
	}{result, DefaultAssumptions}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
