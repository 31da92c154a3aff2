package output

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/domain"
)

func buildTestResult(t *testing.T) *domain.ModelResult {
	t.Helper()
	res, err := calculation.BuildFinancialModel(nil)
	require.NoError(t, err)
	return res
}

func buildNoDebtResult(t *testing.T) *domain.ModelResult {
	t.Helper()
	res, err := calculation.BuildFinancialModel(map[string]any{"debt": map[string]any{"debt_ratio": 0}})
	require.NoError(t, err)
	return res
}

func TestFormatterFunc_Format(t *testing.T) {
	called := false
	var received *domain.ModelResult

	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(result *domain.ModelResult) ([]byte, error) {
			called = true
			received = result
			return []byte("test output"), nil
		},
	}

	res := buildTestResult(t)
	out, err := formatter.Format(res)

	assert.NoError(t, err, "Should not error")
	assert.True(t, called, "Should call the function")
	assert.Same(t, res, received, "Should pass the result")
	assert.Equal(t, []byte("test output"), out, "Should return the function output")
	assert.Equal(t, "test-formatter", formatter.Name(), "Should return the ID")
}

func TestWriteFormatted(t *testing.T) {
	dir := t.TempDir()

	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(result *domain.ModelResult) ([]byte, error) {
			return []byte("test output content"), nil
		},
	}

	filename, err := WriteFormatted(formatter, buildTestResult(t), dir, "txt")

	require.NoError(t, err, "Should not error")
	assert.Contains(t, filename, "dbmodel_report_", "Should have correct prefix")
	assert.True(t, strings.HasSuffix(filename, ".txt"), "Should have correct extension")

	content, err := os.ReadFile(filename)
	require.NoError(t, err, "Should be able to read the file")
	assert.Equal(t, "test output content", string(content), "Should have correct content")
}

func TestWriteFormatted_FormatterError(t *testing.T) {
	formatter := FormatterFunc{
		ID: "error-formatter",
		F: func(result *domain.ModelResult) ([]byte, error) {
			return nil, fmt.Errorf("formatter error")
		},
	}

	filename, err := WriteFormatted(formatter, buildTestResult(t), t.TempDir(), "txt")

	assert.Error(t, err, "Should error when formatter fails")
	assert.Empty(t, filename, "Should return empty filename on error")
	assert.Contains(t, err.Error(), "formatter error", "Should propagate formatter error")
}

func TestConsoleFormatter_Format(t *testing.T) {
	formatter := ConsoleFormatter{}
	assert.Equal(t, "console-lite", formatter.Name())

	out, err := formatter.Format(buildTestResult(t))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "PROJECT FINANCE SUMMARY", "Should have header")
	assert.Contains(t, content, "Capex:            $155.00M")
	assert.Contains(t, content, "Debt / Equity:    $108.50M / $46.50M (70% gearing)")
	assert.Regexp(t, `Min / Avg DSCR:\s+\d+\.\d\dx / \d+\.\d\dx`, content)
}

func TestConsoleFormatter_Format_NoDebt(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildNoDebtResult(t))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "n/a (no debt service)")
	assert.NotContains(t, content, "Inf", "Should never print the infinite sentinel")
}

func TestConsoleVerboseFormatter_Format(t *testing.T) {
	formatter := ConsoleVerboseFormatter{}
	assert.Equal(t, "console", formatter.Name())

	out, err := formatter.Format(buildTestResult(t))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "DETAILED PROJECT FINANCE ANALYSIS", "Should have verbose header")
	assert.Contains(t, content, "KEY ASSUMPTIONS:")
	assert.Contains(t, content, "ANNUAL CASH FLOWS (USD millions)")
	assert.Contains(t, content, "SENIOR DEBT SCHEDULE (USD)")
	assert.Contains(t, content, "level repayment")
}

func TestCSVSummarizer_Format(t *testing.T) {
	formatter := CSVSummarizer{}
	assert.Equal(t, "csv", formatter.Name())

	out, err := formatter.Format(buildTestResult(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(SummaryHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "baseline,"))
}

func TestCSVSummarizer_Format_NoDebtRendersInf(t *testing.T) {
	out, err := CSVSummarizer{}.Format(buildNoDebtResult(t))
	require.NoError(t, err)

	fields := strings.Split(strings.TrimSpace(strings.Split(string(out), "\n")[1]), ",")
	assert.Equal(t, "inf", fields[4], "min_dscr")
	assert.Equal(t, "inf", fields[5], "avg_dscr")
	assert.Equal(t, "", fields[6], "year1_dscr")
}

func TestWriteAnnualCSV(t *testing.T) {
	rows := []domain.AnnualRow{
		{Year: 1, FXRate: 300, RevenueUSD: 100, DSCR: domain.Float64Ptr(1.5)},
		{Year: 2, FXRate: 309, RevenueUSD: 100},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAnnualCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "year,fx_rate,production_mwh"))
	assert.True(t, strings.HasPrefix(lines[1], "1,300.0000,0.00,100.00"))
	assert.True(t, strings.HasSuffix(lines[1], ",1.500000"))
	assert.True(t, strings.HasSuffix(lines[2], ","), "Undefined DSCR should be an empty cell")
}

func TestDetailedCSVFormatter_Format(t *testing.T) {
	res := buildTestResult(t)
	out, err := DetailedCSVFormatter{}.Format(res)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Len(t, lines, len(res.Annual)+1)
}

func TestJSONFormatter_Format(t *testing.T) {
	formatter := JSONFormatter{}
	assert.Equal(t, "json", formatter.Name())

	out, err := formatter.Format(buildNoDebtResult(t))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, `"annual_data"`)
	assert.Contains(t, content, `"dscr_defined"`)
	assert.NotContains(t, content, "Inf")
}

func TestWriteSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryJSON(&buf, "base", "run-1", buildTestResult(t)))

	content := buf.String()
	assert.Contains(t, content, `"scenario": "base"`)
	assert.Contains(t, content, `"run_id": "run-1"`)
	assert.Contains(t, content, `"equity_irr"`)
}

func TestMarkdownFormatter_Format(t *testing.T) {
	out, err := MarkdownFormatter{}.Format(buildTestResult(t))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "# Project Finance Summary")
	assert.Contains(t, content, "| Equity IRR |")
	assert.Contains(t, content, "| Minimum DSCR |")
	assert.Contains(t, content, "## Annual Cash Flows")
	assert.Contains(t, content, "| 20 |", "Should list the final year")
}

func TestHTMLFormatter_Format(t *testing.T) {
	formatter := HTMLFormatter{}
	assert.Equal(t, "html", formatter.Name())

	out, err := formatter.Format(buildTestResult(t))
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "<!DOCTYPE html>", "Should have HTML structure")
	assert.Contains(t, content, "<title>", "Should have title")
	assert.Contains(t, content, "Project Finance Analysis", "Should have main heading")
	assert.Contains(t, content, "Minimum DSCR")
}

func TestAvailableFormatterNames(t *testing.T) {
	names := AvailableFormatterNames()

	for _, want := range []string{"console", "console-lite", "csv", "detailed-csv", "html", "json", "markdown"} {
		assert.Contains(t, names, want)
	}
}

func TestAvailableFormatAliases(t *testing.T) {
	aliases := AvailableFormatAliases()

	assert.Contains(t, aliases, "verbose", "Should include verbose alias")
	assert.Contains(t, aliases, "console-verbose", "Should include console-verbose alias")
	assert.Contains(t, aliases, "md")
}

func TestGetFormatterByName(t *testing.T) {
	formatter := GetFormatterByName("console-lite")
	require.NotNil(t, formatter)
	assert.Equal(t, "console-lite", formatter.Name())

	formatter = GetFormatterByName(" Verbose ")
	require.NotNil(t, formatter)
	assert.Equal(t, "console", formatter.Name(), "Should resolve aliases")

	assert.Nil(t, GetFormatterByName("non-existent"))
}

func TestGenerateReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateReport(&buf, buildTestResult(t), "md"))
	assert.Contains(t, buf.String(), "# Project Finance Summary")

	err := GenerateReport(&buf, buildTestResult(t), "pdf")
	assert.EqualError(t, err, "unsupported format: pdf")
}

func TestSaveParams(t *testing.T) {
	path := t.TempDir() + "/params.yaml"
	p := domain.DefaultParams()
	p.Debt.Style = domain.AmortizationSculpted

	require.NoError(t, SaveParams(p, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded domain.Params
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, p, loaded)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "inf", FormatDSCR(math.Inf(1)))
	assert.Equal(t, "1.2500", FormatDSCR(1.25))
	assert.Equal(t, "n/a", FormatRate(nil))
	assert.Equal(t, "12.34%", FormatRate(domain.Float64Ptr(0.1234)))
	assert.Equal(t, "1.30x", FormatRatio(domain.Float64Ptr(1.3)))
	assert.Equal(t, "$2.50M", FormatMillions(2_500_000))
	assert.Equal(t, "$1235", FormatUSD(1234.6))
}

func TestSensitivityFormatters(t *testing.T) {
	tornado, err := calculation.NewSensitivityAnalyzer(nil).Tornado(nil, calculation.DefaultTornadoParameters(), domain.MetricIRR, domain.SortAbs)
	require.NoError(t, err)

	text, err := NewSensitivityFormatter("console").FormatSensitivityAnalysis(tornado)
	require.NoError(t, err)
	assert.Contains(t, text, "TORNADO ANALYSIS: IRR")
	assert.Contains(t, text, "MOST SENSITIVE: "+tornado.MostSensitive())

	text, err = NewSensitivityFormatter("csv").FormatSensitivityAnalysis(tornado)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(text), "\n"), len(tornado.Bars)+1)

	text, err = NewSensitivityFormatter("json").FormatSensitivityAnalysis(tornado)
	require.NoError(t, err)
	assert.Contains(t, text, `"bars"`)

	_, err = NewSensitivityFormatter("console").FormatSensitivityAnalysis("not an analysis")
	assert.Error(t, err)

	sweep, err := calculation.NewSensitivityAnalyzer(nil).Sweep(nil, calculation.SensitivityParameter{
		Name: "debt_ratio", Low: 0.5, High: 0.8, Steps: 4,
	})
	require.NoError(t, err)
	text, err = SensitivityConsoleFormatter{}.FormatSensitivityAnalysis(sweep)
	require.NoError(t, err)
	assert.Contains(t, text, "SENSITIVITY SWEEP: DEBT RATIO")
}

func TestMonteCarloFormatters(t *testing.T) {
	cfg := calculation.DefaultMonteCarloConfig(domain.DefaultParams(), 25)
	res, err := calculation.NewMonteCarloEngine(nil).Run(context.Background(), nil, cfg)
	require.NoError(t, err)

	text, err := NewMonteCarloFormatter("console").FormatMonteCarlo(res)
	require.NoError(t, err)
	assert.Contains(t, text, "MONTE CARLO SIMULATION")
	assert.Contains(t, text, "Trials:  25 (seed 42")
	assert.Contains(t, text, "P(min DSCR < 1.20x)")

	text, err = NewMonteCarloFormatter("csv").FormatMonteCarlo(res)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Len(t, lines, 26)
	assert.True(t, strings.HasPrefix(lines[0], "trial,cf_p50,fx_depr,opex_usd_mwh,tariff_lkr_kwh,total_capex,equity_irr"))

	text, err = NewMonteCarloFormatter("json").FormatMonteCarlo(res)
	require.NoError(t, err)
	assert.Contains(t, text, `"run_id"`)
}

func TestScheduleFormatters(t *testing.T) {
	res := buildTestResult(t)

	text, err := NewScheduleFormatter("table").FormatSchedule(res.Schedule)
	require.NoError(t, err)
	assert.Contains(t, text, "SENIOR DEBT SCHEDULE (USD)")
	assert.Contains(t, text, "108500000", "Opening balance of year 1")

	_, err = NewScheduleFormatter("table").FormatSchedule(nil)
	assert.Error(t, err)

	text, err = NewScheduleFormatter("json").FormatSchedule(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", text)
}
