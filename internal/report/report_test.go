package report

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/domain"
)

func baseResult(t *testing.T) *domain.ModelResult {
	t.Helper()
	res, err := calculation.NewModelEngine().Run(domain.DefaultParams())
	require.NoError(t, err)
	return res
}

func TestBuilder_Markdown_Baseline(t *testing.T) {
	b := NewBuilder("", baseResult(t))

	md, err := b.Markdown()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "# Project Finance Report\n"))
	assert.Contains(t, md, b.RunID)
	assert.Contains(t, md, "## Summary")
	assert.Contains(t, md, "## Financing Structure")
	assert.Contains(t, md, "70% of capex")
	assert.Contains(t, md, "level amortization at 8.00% interest")
	assert.Contains(t, md, "## Annual Cash Flows")
	assert.Contains(t, md, "## Assumptions")
	assert.NotContains(t, md, "## Monte Carlo")
	assert.NotContains(t, md, "## Sensitivity")
	assert.NotContains(t, md, "## Scenario Comparison")
}

func TestBuilder_Markdown_AllEquity(t *testing.T) {
	p := domain.DefaultParams()
	p.Debt.DebtRatio = 0
	res, err := calculation.NewModelEngine().Run(p)
	require.NoError(t, err)

	md, err := NewBuilder("Equity case", res).Markdown()
	require.NoError(t, err)
	assert.Contains(t, md, "# Equity case")
	assert.Contains(t, md, "All-equity funding")
}

func TestBuilder_Markdown_Sculpted(t *testing.T) {
	p := domain.DefaultParams()
	p.Debt.Style = domain.AmortizationSculpted
	res, err := calculation.NewModelEngine().Run(p)
	require.NoError(t, err)

	md, err := NewBuilder("", res).Markdown()
	require.NoError(t, err)
	assert.Contains(t, md, "sculpted to a 1.30x DSCR")
}

func TestBuilder_Markdown_OptionalSections(t *testing.T) {
	res := baseResult(t)
	raw := map[string]any{}

	mc, err := calculation.NewMonteCarloEngine(nil).Run(context.Background(), raw, calculation.DefaultMonteCarloConfig(res.Params, 50))
	require.NoError(t, err)

	tornado, err := calculation.NewSensitivityAnalyzer(nil).Tornado(raw, nil, domain.MetricIRR, domain.SortAbs)
	require.NoError(t, err)

	cmp, err := compare.NewCompareEngine(nil).Compare(context.Background(), raw, compare.CompareOptions{
		Templates: []string{"tariff_down_10"},
	})
	require.NoError(t, err)

	md, err := NewBuilder("", res).WithMonteCarlo(mc).WithTornado(tornado).WithComparison(cmp).Markdown()
	require.NoError(t, err)

	assert.Contains(t, md, "## Monte Carlo")
	assert.Contains(t, md, "50 trials (seed 42")
	assert.Contains(t, md, "Probability of minimum DSCR below 1.20x")
	assert.Contains(t, md, "## Sensitivity (IRR)")
	assert.Contains(t, md, "Most sensitive input: **"+tornado.MostSensitive()+"**")
	assert.Contains(t, md, "## Scenario Comparison")
	assert.Contains(t, md, "base_tariff_down_10")

	// Sections appear in a fixed order with the long table near the end
	assert.Less(t, strings.Index(md, "## Monte Carlo"), strings.Index(md, "## Sensitivity"))
	assert.Less(t, strings.Index(md, "## Scenario Comparison"), strings.Index(md, "## Annual Cash Flows"))
}

func TestBuilder_Markdown_NoResult(t *testing.T) {
	_, err := (&Builder{}).Markdown()
	assert.Error(t, err)
}

func TestRenderHTML(t *testing.T) {
	md, err := NewBuilder("Lender <Pack>", baseResult(t)).Markdown()
	require.NoError(t, err)

	doc, err := RenderHTML("Lender <Pack>", md)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!doctype html>"))
	assert.Contains(t, doc, "<title>Lender &lt;Pack&gt;</title>")
	assert.Contains(t, doc, "<table>")
	assert.Contains(t, doc, `data-page-break-before="true">Annual Cash Flows</h2>`)
}

func TestApplyPrintLayoutHooks(t *testing.T) {
	in := "<h2>Summary</h2><h2 id=\"x\">Annual Cash Flows</h2><p>Probability of minimum DSCR below 1.20x</p>"
	out := applyPrintLayoutHooks(in)

	assert.Contains(t, out, "<h2>Summary</h2>")
	assert.Contains(t, out, `<h2 id="x" data-page-break-before="true">Annual Cash Flows</h2>`)
	assert.Contains(t, out, `<p class="covenant-risk">Probability`)
}

func TestWrite_MarkdownAndHTML(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder("", baseResult(t))

	files, err := Write(context.Background(), b, dir, "", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "dbmodel_report_"+b.RunID[:8]+".md"), files.Markdown)
	assert.Empty(t, files.PDF)

	data, err := os.ReadFile(files.HTML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Project Finance Report")
}

func TestPDFRenderer_Render(t *testing.T) {
	r := NewPDFRenderer()
	if !r.Available() {
		t.Skip("no chromium found")
	}
	doc, err := RenderHTML("t", "# Hello")
	require.NoError(t, err)

	pdf, err := r.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestBuilder_Markdown_Charts(t *testing.T) {
	res := baseResult(t)
	tornado, err := calculation.NewSensitivityAnalyzer(nil).Tornado(map[string]any{}, nil, domain.MetricIRR, domain.SortAbs)
	require.NoError(t, err)

	plain, err := NewBuilder("", res).WithTornado(tornado).Markdown()
	require.NoError(t, err)
	assert.NotContains(t, plain, "## Charts")
	assert.NotContains(t, plain, "```chart-")

	md, err := NewBuilder("", res).WithTornado(tornado).WithCharts().Markdown()
	require.NoError(t, err)
	assert.Contains(t, md, "## Charts")
	assert.Contains(t, md, "```chart-dscr\nDSCR by year\n")
	assert.Contains(t, md, "```chart-equity_fcf\nEquity free cash flow (USD m)\n")
	assert.Contains(t, md, "```chart-tornado\nTornado (IRR change from base)\n")
	assert.Contains(t, md, "Y20 ")
	assert.Less(t, strings.Index(md, "## Sensitivity"), strings.Index(md, "```chart-tornado"))
}

func TestBuilder_ChartList_AllEquity(t *testing.T) {
	p := domain.DefaultParams()
	p.Debt.DebtRatio = 0
	res, err := calculation.NewModelEngine().Run(p)
	require.NoError(t, err)

	assert.Empty(t, NewBuilder("", res).ChartList(), "charts are opt-in")

	charts := NewBuilder("", res).WithCharts().ChartList()
	require.Len(t, charts, 1, "no DSCR chart without debt service")
	assert.Equal(t, "equity_fcf", charts[0].ID)
}

func TestChart_TextColumns(t *testing.T) {
	c := Chart{ID: "x", Title: "Series", Kind: ChartColumns,
		Labels: []string{"Y1", "Y2", "Y3"},
		Values: []float64{2, -1, math.NaN()},
		Format: func(v float64) string { return fmtOpt(&v) }}

	lines := strings.Split(strings.TrimSuffix(c.Text(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Series", lines[0])
	assert.Equal(t, textBarWidth, strings.Count(lines[1], "█"))
	assert.Equal(t, textBarWidth/2, strings.Count(lines[2], "░"))
	assert.True(t, strings.HasSuffix(lines[2], "-1.0000"))
	assert.True(t, strings.HasSuffix(lines[3], "n/a"))
}

func TestTornadoChart(t *testing.T) {
	tr := &domain.TornadoResult{
		Metric:     domain.MetricIRR,
		BaseMetric: domain.Float64Ptr(0.10),
		Bars: []domain.TornadoBar{
			{Parameter: "tariff_lkr_kwh", LowMetric: domain.Float64Ptr(0.08), HighMetric: domain.Float64Ptr(0.12)},
			{Parameter: "total_capex", HighMetric: domain.Float64Ptr(0.09)},
		},
	}

	c := TornadoChart(tr)
	assert.Equal(t, []string{"tariff_lkr_kwh", "total_capex"}, c.Labels)
	assert.InDelta(t, -0.02, c.Low[0], 1e-12)
	assert.InDelta(t, 0.02, c.High[0], 1e-12)
	assert.True(t, math.IsNaN(c.Low[1]))

	text := c.Text()
	assert.Contains(t, text, "low -2.00 pts, high +2.00 pts")
	assert.Contains(t, text, "low n/a, high -1.00 pts")

	svg := c.SVG()
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Equal(t, 3, strings.Count(svg, "<rect "), "two bars for the first input, one for the second")
}

func TestEmbedCharts(t *testing.T) {
	res := baseResult(t)
	tornado, err := calculation.NewSensitivityAnalyzer(nil).Tornado(map[string]any{}, nil, domain.MetricIRR, domain.SortAbs)
	require.NoError(t, err)
	b := NewBuilder("", res).WithTornado(tornado).WithCharts()

	md, err := b.Markdown()
	require.NoError(t, err)
	doc, err := RenderHTML(b.Title, md)
	require.NoError(t, err)
	require.Contains(t, doc, `class="language-chart-dscr"`)

	out := EmbedCharts(doc, b.ChartList())
	assert.Equal(t, 3, strings.Count(out, `<figure class="chart"><svg `))
	assert.NotContains(t, out, "language-chart-")
	assert.Contains(t, out, "<figcaption>DSCR by year</figcaption>")

	other := `<pre><code class="language-chart-other">x</code></pre>`
	assert.Equal(t, other, EmbedCharts(other, b.ChartList()), "unknown charts stay as text")
}

func TestWrite_Charts(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder("", baseResult(t)).WithCharts()

	files, err := Write(context.Background(), b, dir, "charts", nil)
	require.NoError(t, err)

	md, err := os.ReadFile(files.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "```chart-dscr")

	doc, err := os.ReadFile(files.HTML)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(doc), "<svg "))
}

func TestTornadoChart_TextKeepsDefinedSide(t *testing.T) {
	c := Chart{ID: "tornado", Kind: ChartTornado,
		Labels: []string{"a", "b"},
		Low:    []float64{-2, math.NaN()},
		High:   []float64{2, -1}}

	lines := strings.Split(strings.TrimSuffix(c.Text(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, textBarWidth, strings.Count(lines[1], "█"))
	assert.Equal(t, textBarWidth/4, strings.Count(lines[2], "█"), "an undefined low side still draws the high side")
}
