package scenes

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/optimize"
	"github.com/dutchbay/dbmodel/internal/tui/tuimsg"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func baseline(t *testing.T) *domain.ModelResult {
	t.Helper()
	res, err := calculation.NewModelEngine().Run(domain.DefaultParams())
	require.NoError(t, err)
	return res
}

func TestParametersModel_SliderEmitsChangedParams(t *testing.T) {
	m := NewParametersModel()
	m.SetParams(domain.DefaultParams())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.NotNil(t, cmd)
	msg, ok := cmd().(tuimsg.ParamsChangedMsg)
	require.True(t, ok)
	assert.InDelta(t, 20.50, msg.Params.TariffLKRkWh, 1e-12)
	assert.True(t, m.Modified())

	// Untouched inputs keep their loaded values even when outside a slider range
	assert.Equal(t, domain.DefaultParams().Debt.DebtRatio, msg.Params.Debt.DebtRatio)
	assert.Equal(t, domain.DefaultParams().OpexUSDMWh, msg.Params.OpexUSDMWh)
}

func TestParametersModel_ResetAndSave(t *testing.T) {
	m := NewParametersModel()
	m.SetParams(domain.DefaultParams())

	// Save is ignored until something changed
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.InDelta(t, 0.39, m.Params().CFP50, 1e-12)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.IsType(t, tuimsg.SaveParamsMsg{}, cmd())

	m, cmd = m.Update(runes("x"))
	require.NotNil(t, cmd)
	assert.False(t, m.Modified())
	assert.Equal(t, domain.DefaultParams(), m.Params())
}

func TestParametersModel_IgnoresKeysBeforeLoad(t *testing.T) {
	m := NewParametersModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Nil(t, cmd)
	assert.Equal(t, "Loading parameters...", m.View())
}

func TestParametersModel_ViewShowsSlidersAndMetrics(t *testing.T) {
	m := NewParametersModel()
	m.SetParams(domain.DefaultParams())
	m.SetResult(baseline(t))

	out := m.View()
	assert.Contains(t, out, "Tariff")
	assert.Contains(t, out, "Interest rate")
	assert.Contains(t, out, "Equity IRR")
}

func TestKeyMetricCards_FlagsCovenantBreach(t *testing.T) {
	res := baseline(t)
	require.True(t, res.HasDebtService())

	cards := KeyMetricCards(res, nil, res.MinDSCR+0.5)
	require.Len(t, cards, 4)
	assert.True(t, cards[3].Warning)
	assert.Nil(t, cards[0].Trend)

	cards = KeyMetricCards(res, nil, 0)
	assert.False(t, cards[3].Warning)
}

func TestKeyMetricCards_TrendAgainstReference(t *testing.T) {
	ref := baseline(t)
	p := domain.DefaultParams()
	p.TariffLKRkWh += 2
	res, err := calculation.NewModelEngine().Run(p)
	require.NoError(t, err)

	cards := KeyMetricCards(res, ref, 0)
	require.NotNil(t, cards[0].Trend)
	assert.True(t, cards[0].Trend.IsPositive)
	require.NotNil(t, cards[2].Trend)
	assert.True(t, cards[2].Trend.IsPositive)
}

func TestDSCRChart_AllEquity(t *testing.T) {
	p := domain.DefaultParams()
	p.Debt.DebtRatio = 0
	res, err := calculation.NewModelEngine().Run(p)
	require.NoError(t, err)

	assert.Contains(t, DSCRChart(res, DefaultCovenantDSCR, 60), "No debt service")
	assert.Contains(t, DSCRChart(baseline(t), DefaultCovenantDSCR, 60), "DSCR by year")
}

func TestResultsModel_View(t *testing.T) {
	m := NewResultsModel()
	assert.Contains(t, m.View(), "No results yet")

	m.SetResult(baseline(t))
	out := m.View()
	assert.Contains(t, out, "Model Results")
	assert.Contains(t, out, "more years")
}

func TestCompareModel_SelectionAndRun(t *testing.T) {
	m := NewCompareModel([]string{"all_equity", "p90_yield", "tariff_down_10"})
	assert.Equal(t, []string{"all_equity", "p90_yield", "tariff_down_10"}, m.Selected())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(runes("x"))
	assert.Equal(t, []string{"p90_yield", "tariff_down_10"}, m.Selected())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	started, ok := cmd().(tuimsg.ComparisonStartedMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"p90_yield", "tariff_down_10"}, started.Templates)
	assert.Contains(t, m.View(), "Running cases")

	// Keys are ignored while a run is in flight
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestCompareModel_RendersComparison(t *testing.T) {
	irr := 0.14
	dscr := 1.05
	diffIRR := -0.012
	set := &compare.ComparisonSet{
		BaseResult: &compare.ComparisonResult{ScenarioName: "base", EquityIRR: &irr, NPV: decimal.NewFromInt(5_000_000)},
		AlternativeResults: []compare.ComparisonResult{{
			ScenarioName:  "base_p90_yield",
			Description:   "P90 energy yield",
			EquityIRR:     &irr,
			MinDSCR:       &dscr,
			NPV:           decimal.NewFromInt(-2_000_000),
			EquityIRRDiff: &diffIRR,
			BreachesCov:   true,
		}},
		Recommendations: []string{"Covenant Breach: base_p90_yield falls to 1.05x, below the 1.20x lock-up"},
		CovenantDSCR:    1.20,
	}

	m := NewCompareModel([]string{"p90_yield"})
	m.SetResult(set)
	m.SetSize(120, 40)
	out := m.View()
	assert.Contains(t, out, "base_p90_yield")
	assert.Contains(t, out, "covenant breach")
	assert.Contains(t, out, "Min DSCR 1.05x")
	assert.Contains(t, out, "Min DSCR: no debt")
	assert.Contains(t, out, "-1.20 pts")
	assert.Contains(t, out, "Covenant Breach:")
}

func TestOptimizeModel_StartsWithDefaultTarget(t *testing.T) {
	m := NewOptimizeModel()
	assert.False(t, m.Editing())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	started, ok := cmd().(tuimsg.OptimizationStartedMsg)
	require.True(t, ok)
	assert.Equal(t, DefaultTargetDSCR, started.TargetDSCR)
	assert.Contains(t, m.View(), "Sizing Debt")
}

func TestOptimizeModel_EditTarget(t *testing.T) {
	m := NewOptimizeModel()
	m, _ = m.Update(runes("e"))
	require.True(t, m.Editing())

	// Clear the field and type a bad value
	for range 4 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m, _ = m.Update(runes("abc"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.Editing())
	assert.Contains(t, m.View(), "target DSCR must be a positive number")

	m, _ = m.Update(runes("e"))
	for range 3 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m, _ = m.Update(runes("1.5"))
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	started := cmd().(tuimsg.OptimizationStartedMsg)
	assert.Equal(t, 1.5, started.TargetDSCR)
}

func TestOptimizeModel_RendersResults(t *testing.T) {
	irr := 0.15
	dscr := 1.31
	m := NewOptimizeModel()
	m.SetResults(
		&optimize.DebtSizingResult{Method: "bisection", TargetDSCR: 1.3, DebtRatio: 0.72, DebtAmount: 111.6e6, MinDSCR: &dscr, EquityIRR: &irr, Iterations: 17, Success: true},
		&optimize.ParetoResult{GridCount: 4, FrontierCount: 1, Frontier: []optimize.Point{{DebtRatio: 0.7, TenorYears: 15, GraceYears: 1, EquityIRR: &irr, MinDSCR: &dscr}}},
	)

	out := m.View()
	assert.Contains(t, out, "72.0%")
	assert.Contains(t, out, "$111.6M")
	assert.Contains(t, out, "Pareto frontier: 1 of 4 structures")
	assert.Contains(t, out, "1.31x")
}
