package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/output"
)

// Builder assembles a lender report in Markdown. Only Result is required;
// the optional sections are rendered when set.
type Builder struct {
	Title       string
	RunID       string
	GeneratedAt time.Time

	Result     *domain.ModelResult
	MonteCarlo *calculation.MonteCarloResult
	Tornado    *domain.TornadoResult
	Comparison *compare.ComparisonSet

	// Charts adds DSCR and equity FCF charts, and a tornado chart when
	// Tornado is set
	Charts bool
}

// NewBuilder starts a report over result with a fresh run ID
func NewBuilder(title string, result *domain.ModelResult) *Builder {
	if title == "" {
		title = "Project Finance Report"
	}
	return &Builder{
		Title:       title,
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Result:      result,
	}
}

func (b *Builder) WithMonteCarlo(mc *calculation.MonteCarloResult) *Builder {
	b.MonteCarlo = mc
	return b
}

func (b *Builder) WithTornado(t *domain.TornadoResult) *Builder {
	b.Tornado = t
	return b
}

func (b *Builder) WithComparison(c *compare.ComparisonSet) *Builder {
	b.Comparison = c
	return b
}

func (b *Builder) WithCharts() *Builder {
	b.Charts = true
	return b
}

// ChartList returns the charts the report draws, in page order
func (b *Builder) ChartList() []Chart {
	if !b.Charts || b.Result == nil {
		return nil
	}
	var charts []Chart
	if b.Result.HasDebtService() {
		charts = append(charts, DSCRChart(b.Result))
	}
	charts = append(charts, EquityFCFChart(b.Result))
	if b.Tornado != nil && len(b.Tornado.Bars) > 0 {
		charts = append(charts, TornadoChart(b.Tornado))
	}
	return charts
}

// Markdown renders the report
func (b *Builder) Markdown() (string, error) {
	if b.Result == nil {
		return "", fmt.Errorf("report has no model result")
	}
	var sb strings.Builder
	p := b.Result.Params

	fmt.Fprintf(&sb, "# %s\n\n", b.Title)
	fmt.Fprintf(&sb, "_Run %s, generated %s_\n\n", b.RunID, b.GeneratedAt.Format("2006-01-02 15:04 MST"))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(output.MarkdownSummaryTable(b.Result))
	sb.WriteString("\n")

	sb.WriteString("## Financing Structure\n\n")
	if p.Debt.DebtRatio == 0 {
		sb.WriteString("- All-equity funding, no senior debt\n")
	} else {
		fmt.Fprintf(&sb, "- Senior debt of %s (%.0f%% of capex) over %d years with %d year(s) of grace, %s\n",
			output.FormatMillions(b.Result.Debt), p.Debt.DebtRatio*100, p.Debt.TenorYears, p.Debt.GraceYears,
			strings.ReplaceAll(string(p.Debt.GracePolicy), "_", " "))
		fmt.Fprintf(&sb, "- %s amortization at %.2f%% interest", p.Debt.Style, p.Debt.InterestRate*100)
		if p.Debt.Style == domain.AmortizationSculpted {
			fmt.Fprintf(&sb, ", sculpted to a %.2fx DSCR", p.Debt.TargetDSCR)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "- Tariff %.2f LKR/kWh, FX %.1f LKR/USD depreciating %.1f%% a year\n\n", p.TariffLKRkWh, p.FXInitial, p.FXDepr*100)

	if b.Charts {
		sb.WriteString("## Charts\n\n")
		for _, c := range b.ChartList() {
			if c.Kind == ChartTornado {
				continue
			}
			sb.WriteString(c.Markdown())
			sb.WriteString("\n")
		}
	}

	if b.MonteCarlo != nil {
		b.writeMonteCarlo(&sb)
	}
	if b.Tornado != nil && len(b.Tornado.Bars) > 0 {
		b.writeTornado(&sb)
	}
	if b.Comparison != nil {
		b.writeComparison(&sb)
	}

	sb.WriteString("## Annual Cash Flows\n\n")
	sb.WriteString("USD millions.\n\n")
	sb.WriteString(output.MarkdownAnnualTable(b.Result.Annual))
	sb.WriteString("\n")

	sb.WriteString("## Assumptions\n\n")
	for _, a := range output.DefaultAssumptions {
		fmt.Fprintf(&sb, "- %s\n", a)
	}

	return sb.String(), nil
}

func (b *Builder) writeMonteCarlo(sb *strings.Builder) {
	mc := b.MonteCarlo
	sb.WriteString("## Monte Carlo\n\n")
	fmt.Fprintf(sb, "%d trials (seed %d, %d failed).\n\n", mc.NumTrials, mc.Seed, mc.Failed)
	sb.WriteString("| Metric | P10 | P50 | P90 |\n|---|---:|---:|---:|\n")

	row := func(label string, p calculation.Percentiles, f func(float64) string) {
		if p.Count == 0 {
			fmt.Fprintf(sb, "| %s | n/a | n/a | n/a |\n", label)
			return
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n", label, f(p.P10), f(p.P50), f(p.P90))
	}
	pct := func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }
	ratio := func(v float64) string { return fmt.Sprintf("%.2fx", v) }
	row("Equity IRR", mc.EquityIRR, pct)
	row("Project IRR", mc.ProjectIRR, pct)
	row("NPV", mc.NPV, output.FormatMillions)
	row("Min DSCR", mc.MinDSCR, ratio)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Probability of minimum DSCR below %.2fx: **%.1f%%**. Probability of an undefined equity IRR: %.1f%%.\n\n",
		mc.CovenantDSCR, mc.ProbDSCRBreach*100, mc.ProbIRRUndefined*100)
}

func (b *Builder) writeTornado(sb *strings.Builder) {
	t := b.Tornado
	fmt.Fprintf(sb, "## Sensitivity (%s)\n\n", strings.ToUpper(string(t.Metric)))
	sb.WriteString("| Parameter | Low input | High input | Low | High | Swing |\n|---|---:|---:|---:|---:|---:|\n")
	for _, bar := range t.Bars {
		fmt.Fprintf(sb, "| %s | %g | %g | %s | %s | %.4f |\n",
			bar.Parameter, bar.LowInput, bar.HighInput, fmtOpt(bar.LowMetric), fmtOpt(bar.HighMetric), bar.Swing)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Most sensitive input: **%s**.\n\n", t.MostSensitive())
	if b.Charts {
		sb.WriteString(TornadoChart(t).Markdown())
		sb.WriteString("\n")
	}
}

func (b *Builder) writeComparison(sb *strings.Builder) {
	c := b.Comparison
	sb.WriteString("## Scenario Comparison\n\n")
	sb.WriteString("| Scenario | Equity IRR | Min DSCR | NPV | Δ IRR (pts) |\n|---|---:|---:|---:|---:|\n")
	all := append([]compare.ComparisonResult{}, c.AlternativeResults...)
	if c.BaseResult != nil {
		all = append([]compare.ComparisonResult{*c.BaseResult}, all...)
	}
	for _, r := range all {
		delta := "–"
		if r.EquityIRRDiff != nil {
			delta = fmt.Sprintf("%+.2f", *r.EquityIRRDiff*100)
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s |\n",
			r.ScenarioName, output.FormatRate(r.EquityIRR), output.FormatRatio(r.MinDSCR), output.FormatMillions(r.NPV.InexactFloat64()), delta)
	}
	sb.WriteString("\n")
	for _, rec := range c.Recommendations {
		fmt.Fprintf(sb, "- %s\n", rec)
	}
	if len(c.Recommendations) > 0 {
		sb.WriteString("\n")
	}
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}
