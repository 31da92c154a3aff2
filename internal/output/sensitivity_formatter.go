package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// SensitivityFormatter defines a formatter for tornado and sweep analyses
type SensitivityFormatter interface {
	FormatSensitivityAnalysis(analysis interface{}) (string, error)
	Name() string
}

// formatMetric renders a tornado metric value in its natural unit
func formatMetric(metric domain.TornadoMetric, v *float64) string {
	if v == nil {
		return "n/a"
	}
	switch metric {
	case domain.MetricIRR:
		return fmt.Sprintf("%.2f%%", *v*100)
	case domain.MetricNPV:
		return FormatMillions(*v)
	default:
		return fmt.Sprintf("%.3fx", *v)
	}
}

func formatSwing(metric domain.TornadoMetric, swing float64) string {
	switch metric {
	case domain.MetricIRR:
		return fmt.Sprintf("%+.2f pts", swing*100)
	case domain.MetricNPV:
		return fmt.Sprintf("%+.2fM", swing/1e6)
	default:
		return fmt.Sprintf("%+.3fx", swing)
	}
}

// SensitivityConsoleFormatter formats sensitivity analysis output for console
type SensitivityConsoleFormatter struct{}

func (scf SensitivityConsoleFormatter) Name() string { return "console" }

func (scf SensitivityConsoleFormatter) FormatSensitivityAnalysis(analysis interface{}) (string, error) {
	var buf bytes.Buffer

	switch a := analysis.(type) {
	case *domain.TornadoResult:
		return scf.formatTornado(&buf, a)
	case *domain.SweepResult:
		return scf.formatSweep(&buf, a)
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}
}

func (scf SensitivityConsoleFormatter) formatTornado(buf *bytes.Buffer, tornado *domain.TornadoResult) (string, error) {
	if len(tornado.Bars) == 0 {
		return "", fmt.Errorf("no bars in tornado analysis")
	}

	fmt.Fprintf(buf, "TORNADO ANALYSIS: %s\n", strings.ToUpper(string(tornado.Metric)))
	fmt.Fprintf(buf, "=================================================================\n")
	fmt.Fprintf(buf, "Base Case: %s (sorted by %s)\n", formatMetric(tornado.Metric, tornado.BaseMetric), tornado.Sort)
	fmt.Fprintln(buf)

	maxAbs := 0.0
	for _, b := range tornado.Bars {
		maxAbs = max(maxAbs, b.AbsSwing)
	}

	fmt.Fprintf(buf, "%-20s %12s %12s %14s  %s\n", "Parameter", "Low", "High", "Swing", "")
	fmt.Fprintln(buf, strings.Repeat("-", 80))
	for _, b := range tornado.Bars {
		width := 0
		if maxAbs > 0 {
			width = int(b.AbsSwing / maxAbs * 20)
		}
		fmt.Fprintf(buf, "%-20s %12s %12s %14s  %s\n",
			b.Parameter,
			formatMetric(tornado.Metric, b.LowMetric),
			formatMetric(tornado.Metric, b.HighMetric),
			formatSwing(tornado.Metric, b.Swing),
			strings.Repeat("█", width))
	}
	fmt.Fprintln(buf)

	if name := tornado.MostSensitive(); name != "" {
		fmt.Fprintf(buf, "MOST SENSITIVE: %s\n", name)
	}

	return buf.String(), nil
}

func (scf SensitivityConsoleFormatter) formatSweep(buf *bytes.Buffer, sweep *domain.SweepResult) (string, error) {
	if len(sweep.Points) == 0 {
		return "", fmt.Errorf("no points in sweep")
	}

	param := sweep.Parameter
	fmt.Fprintf(buf, "SENSITIVITY SWEEP: %s\n", strings.ToUpper(strings.ReplaceAll(param.Name, "_", " ")))
	fmt.Fprintf(buf, "=================================================================\n")
	if param.Description != "" {
		fmt.Fprintf(buf, "Description: %s\n", param.Description)
	}
	fmt.Fprintf(buf, "Range: %g to %g (%d steps)\n", sweep.Points[0].Value, sweep.Points[len(sweep.Points)-1].Value, len(sweep.Points))
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "%-14s %-12s %-12s %-10s\n", param.Name, "Equity IRR", "NPV", "Min DSCR")
	fmt.Fprintln(buf, strings.Repeat("-", 52))
	for _, pt := range sweep.Points {
		fmt.Fprintf(buf, "%-14.4g %-12s %-12s %-10s\n",
			pt.Value,
			formatMetric(domain.MetricIRR, pt.EquityIRR),
			FormatMillions(pt.NPV),
			formatMetric(domain.MetricDSCR, pt.MinDSCR))
	}

	return buf.String(), nil
}

// SensitivityCSVFormatter formats sensitivity analysis output as CSV
type SensitivityCSVFormatter struct{}

func (scf SensitivityCSVFormatter) Name() string { return "csv" }

func (scf SensitivityCSVFormatter) FormatSensitivityAnalysis(analysis interface{}) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	switch a := analysis.(type) {
	case *domain.TornadoResult:
		_ = w.Write([]string{"parameter", "low_input", "high_input", "low_metric", "high_metric", "swing", "abs_swing"})
		for _, b := range a.Bars {
			_ = w.Write([]string{
				b.Parameter,
				fmt.Sprintf("%g", b.LowInput),
				fmt.Sprintf("%g", b.HighInput),
				optional(b.LowMetric),
				optional(b.HighMetric),
				fmt.Sprintf("%.6f", b.Swing),
				fmt.Sprintf("%.6f", b.AbsSwing),
			})
		}
	case *domain.SweepResult:
		_ = w.Write([]string{"parameter", "value", "equity_irr", "npv", "min_dscr"})
		for _, pt := range a.Points {
			_ = w.Write([]string{
				a.Parameter.Name,
				fmt.Sprintf("%g", pt.Value),
				optional(pt.EquityIRR),
				fmt.Sprintf("%.2f", pt.NPV),
				optional(pt.MinDSCR),
			})
		}
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}

	w.Flush()
	return buf.String(), w.Error()
}

// SensitivityJSONFormatter formats sensitivity analysis output as JSON
type SensitivityJSONFormatter struct{}

func (sjf SensitivityJSONFormatter) Name() string { return "json" }

func (sjf SensitivityJSONFormatter) FormatSensitivityAnalysis(analysis interface{}) (string, error) {
	switch analysis.(type) {
	case *domain.TornadoResult, *domain.SweepResult:
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewSensitivityFormatter creates a sensitivity formatter based on the format name
func NewSensitivityFormatter(format string) SensitivityFormatter {
	switch NormalizeFormatName(format) {
	case "console", "console-lite", "table":
		return SensitivityConsoleFormatter{}
	case "csv":
		return SensitivityCSVFormatter{}
	case "json":
		return SensitivityJSONFormatter{}
	default:
		return SensitivityConsoleFormatter{} // Default to console
	}
}
