package scenes

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/tui/components"
	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

// DefaultCovenantDSCR is the lock-up level drawn on the DSCR chart
const DefaultCovenantDSCR = 1.20

// ResultsModel represents the results display scene
type ResultsModel struct {
	result    *domain.ModelResult
	reference *domain.ModelResult // first run, for trends
	Covenant  float64
	width     int
	height    int
}

// NewResultsModel creates a new results scene model
func NewResultsModel() *ResultsModel {
	return &ResultsModel{Covenant: DefaultCovenantDSCR}
}

// SetResult updates the run to display. The first run becomes the
// reference the metric trends are measured against.
func (m *ResultsModel) SetResult(res *domain.ModelResult) {
	if m.reference == nil {
		m.reference = res
	}
	m.result = res
}

// ResetReference makes the next run the new reference
func (m *ResultsModel) ResetReference() {
	m.reference = nil
}

// SetSize updates the scene dimensions
func (m *ResultsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the results scene
func (m *ResultsModel) Update(msg tea.Msg) (*ResultsModel, tea.Cmd) {
	return m, nil
}

// View renders the results scene
func (m *ResultsModel) View() string {
	if m.result == nil {
		return "No results yet.\n\nAdjust an input on the Parameters screen (press 'p')."
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary).Render("Model Results")
	cards := components.MetricGrid(KeyMetricCards(m.result, m.reference, m.Covenant), 3)

	chartWidth := 64
	if m.width > 0 {
		chartWidth = max(40, min(m.width-6, 100))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		cards,
		"",
		DSCRChart(m.result, m.Covenant, chartWidth),
		"",
		renderAnnualSummary(m.result.Annual, 10),
		"",
		tuistyles.HelpStyle.Render("p parameters • c compare • o optimize • ESC back"),
	)
}

// KeyMetricCards builds the headline cards for res. When ref is non-nil
// each card shows the change against it; a positive covenant flags a min
// DSCR below it.
func KeyMetricCards(res, ref *domain.ModelResult, covenant float64) []*components.MetricCard {
	irr := components.NewMetricCard("Equity IRR", tuistyles.FormatRate(res.EquityIRR))
	proj := components.NewMetricCard("Project IRR", tuistyles.FormatRate(res.ProjectIRR))
	npv := components.NewMetricCard(fmt.Sprintf("NPV @ %.0f%%", res.Params.DiscountRate*100), tuistyles.FormatMillions(res.NPV))
	dscr := components.NewMetricCard("Min DSCR", tuistyles.FormatDSCR(res.MinDSCR))
	if covenant > 0 && res.HasDebtService() && res.MinDSCR < covenant {
		dscr.WithWarning(true).WithDescription(fmt.Sprintf("below %.2fx", covenant))
	}

	if ref != nil && ref != res {
		if d, ok := delta(res.EquityIRR, ref.EquityIRR); ok && d != 0 {
			irr.WithTrend(d > 0, fmt.Sprintf("%+.2f pts", d*100))
		}
		if d, ok := delta(res.ProjectIRR, ref.ProjectIRR); ok && d != 0 {
			proj.WithTrend(d > 0, fmt.Sprintf("%+.2f pts", d*100))
		}
		if d := res.NPV - ref.NPV; d != 0 {
			npv.WithTrend(d > 0, tuistyles.FormatMillions(d))
		}
		if res.HasDebtService() && ref.HasDebtService() {
			if d := res.MinDSCR - ref.MinDSCR; d != 0 {
				dscr.WithTrend(d > 0, fmt.Sprintf("%+.2fx", d))
			}
		}
	}

	return []*components.MetricCard{irr, proj, npv, dscr}
}

func delta(a, b *float64) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return *a - *b, true
}

// DSCRChart plots the yearly DSCR against the covenant
func DSCRChart(res *domain.ModelResult, covenant float64, width int) string {
	var points []float64
	var labels []string
	for _, row := range res.Annual {
		if row.DSCR == nil {
			continue
		}
		points = append(points, *row.DSCR)
		labels = append(labels, fmt.Sprintf("Y%d", row.Year))
	}
	if len(points) == 0 {
		return tuistyles.InfoStyle.Render("No debt service: DSCR undefined in every year")
	}

	chart := components.NewASCIIChart("DSCR by year").
		WithSize(width, 10).
		WithLabels(labels).
		WithValueFormat(func(v float64) string { return fmt.Sprintf("%.2fx", v) }).
		AddSeries("DSCR", points, tuistyles.ColorChartLine1)
	if covenant > 0 {
		line := make([]float64, len(points))
		for i := range line {
			line[i] = covenant
		}
		chart.AddSeries(fmt.Sprintf("covenant %.2fx", covenant), line, tuistyles.ColorChartLine2)
	}
	return chart.Render()
}

// renderAnnualSummary renders the first n years in USD millions
func renderAnnualSummary(rows []domain.AnnualRow, n int) string {
	var content strings.Builder
	header := fmt.Sprintf("%-5s %9s %9s %9s %9s %7s", "Year", "Revenue", "CFADS", "Debt Svc", "Equity", "DSCR")
	content.WriteString(tuistyles.TableHeaderStyle.Render(header))
	content.WriteString("\n")
	content.WriteString(strings.Repeat("─", len(header)))
	content.WriteString("\n")

	for i, r := range rows {
		if i >= n {
			break
		}
		dscr := "–"
		if r.DSCR != nil {
			dscr = fmt.Sprintf("%.2f", *r.DSCR)
		}
		fmt.Fprintf(&content, "%-5d %9.2f %9.2f %9.2f %9.2f %7s\n",
			r.Year, r.RevenueUSD/1e6, r.CFADSUSD/1e6, r.DebtServiceUSD/1e6, r.EquityFCFUSD/1e6, dscr)
	}
	if len(rows) > n {
		content.WriteString(tuistyles.SubtitleStyle.Render(fmt.Sprintf("... and %d more years", len(rows)-n)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tuistyles.ColorBorder).
		Padding(0, 1).
		Render(strings.TrimRight(content.String(), "\n"))
}
