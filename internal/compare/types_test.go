package compare

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dutchbay/dbmodel/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func testResult(irr, npv, minDSCR float64) *domain.ModelResult {
	p := domain.DefaultParams()
	return &domain.ModelResult{
		Params:    p,
		Debt:      p.DebtAmount(),
		Equity:    p.Equity(),
		EquityIRR: ptr(irr),
		NPV:       npv,
		MinDSCR:   minDSCR,
		AvgDSCR:   minDSCR + 0.2,
		Annual: []domain.AnnualRow{
			{Year: 1, EquityFCFUSD: 30_000_000},
			{Year: 2, EquityFCFUSD: 40_000_000},
		},
	}
}

func TestMetricsCalculator_CalculateMetrics(t *testing.T) {
	calc := NewMetricsCalculator()

	result := calc.CalculateMetrics("Test Scenario", testResult(0.15, 1_000_000, 1.1))

	if result.ScenarioName != "Test Scenario" {
		t.Errorf("Expected scenario name 'Test Scenario', got %s", result.ScenarioName)
	}

	if !result.NPV.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("Expected NPV 1000000, got %s", result.NPV.String())
	}

	if result.MinDSCR == nil || *result.MinDSCR != 1.1 {
		t.Errorf("Expected min DSCR 1.1, got %v", result.MinDSCR)
	}

	if !result.BreachesCov {
		t.Error("Expected 1.1x to breach the default 1.20x covenant")
	}

	// Equity is 30% of 155M = 46.5M; 30M + 40M - 46.5M = 23.5M
	expected := decimal.NewFromInt(23_500_000)
	if !result.TotalEquity.Round(2).Equal(expected) {
		t.Errorf("Expected total equity cash flow %s, got %s", expected, result.TotalEquity)
	}

	if result.DebtRatio != 0.70 || result.TenorYears != 15 || result.Style != "level" {
		t.Errorf("Unexpected debt structure: %+v", result)
	}
}

func TestMetricsCalculator_CalculateMetrics_NoDebt(t *testing.T) {
	calc := NewMetricsCalculator()

	result := calc.CalculateMetrics("all equity", testResult(0.1, 0, math.Inf(1)))

	if result.MinDSCR != nil || result.AvgDSCR != nil {
		t.Errorf("Expected undefined DSCR without debt service, got %v/%v", result.MinDSCR, result.AvgDSCR)
	}
	if result.BreachesCov {
		t.Error("No debt cannot breach a covenant")
	}
}

func TestMetricsCalculator_CalculateComparison(t *testing.T) {
	calc := NewMetricsCalculator()

	base := calc.CalculateMetrics("base", testResult(0.15, 2_000_000, 1.4))
	alt := calc.CalculateMetrics("alt", testResult(0.12, 1_500_000, 1.25))

	result := calc.CalculateComparison(alt, base)

	if !result.NPVDiff.Equal(decimal.NewFromInt(-500_000)) {
		t.Errorf("Expected NPV diff -500000, got %s", result.NPVDiff)
	}
	if !result.NPVPctFromBase.Equal(decimal.NewFromInt(-25)) {
		t.Errorf("Expected NPV change -25%%, got %s", result.NPVPctFromBase)
	}
	if result.EquityIRRDiff == nil || math.Abs(*result.EquityIRRDiff+0.03) > 1e-12 {
		t.Errorf("Expected IRR diff -0.03, got %v", result.EquityIRRDiff)
	}
	if result.MinDSCRDiff == nil || math.Abs(*result.MinDSCRDiff+0.15) > 1e-12 {
		t.Errorf("Expected DSCR diff -0.15, got %v", result.MinDSCRDiff)
	}

	undefined := alt
	undefined.EquityIRR = nil
	result = calc.CalculateComparison(undefined, base)
	if result.EquityIRRDiff != nil {
		t.Error("Expected no IRR diff when the alternative IRR is undefined")
	}
}

func TestGenerateRecommendations(t *testing.T) {
	calc := NewMetricsCalculator()
	base := calc.CalculateMetrics("base", testResult(0.15, 2_000_000, 1.4))

	better := calc.CalculateComparison(calc.CalculateMetrics("better", testResult(0.17, 3_000_000, 1.3)), base)
	safer := calc.CalculateComparison(calc.CalculateMetrics("safer", testResult(0.13, 1_000_000, 1.8)), base)
	breach := calc.CalculateComparison(calc.CalculateMetrics("breach", testResult(0.16, 500_000, 1.05)), base)

	compSet := &ComparisonSet{
		BaseScenarioName:   "base",
		BaseResult:         &base,
		AlternativeResults: []ComparisonResult{better, safer, breach},
		CovenantDSCR:       DefaultCovenantDSCR,
	}

	recommendations := GenerateRecommendations(compSet)

	if len(recommendations) != 4 {
		t.Fatalf("Expected 4 recommendations, got %d: %v", len(recommendations), recommendations)
	}
	if !strings.Contains(recommendations[0], "Best Equity IRR: better") || !strings.Contains(recommendations[0], "2.00 points") {
		t.Errorf("Unexpected IRR recommendation: %s", recommendations[0])
	}
	if !strings.Contains(recommendations[1], "Strongest Coverage: safer") {
		t.Errorf("Unexpected coverage recommendation: %s", recommendations[1])
	}
	if !strings.Contains(recommendations[2], "Highest NPV: better adds $1000000") {
		t.Errorf("Unexpected NPV recommendation: %s", recommendations[2])
	}
	if !strings.Contains(recommendations[3], "Covenant Breach: breach falls to 1.05x") {
		t.Errorf("Unexpected covenant recommendation: %s", recommendations[3])
	}
}

func TestGenerateRecommendations_EmptyAlternatives(t *testing.T) {
	base := NewMetricsCalculator().CalculateMetrics("base", testResult(0.15, 1, 1.4))
	compSet := &ComparisonSet{BaseResult: &base}

	if recs := GenerateRecommendations(compSet); len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %v", recs)
	}
}

func TestGenerateRecommendations_NoBetterThanBase(t *testing.T) {
	calc := NewMetricsCalculator()
	base := calc.CalculateMetrics("base", testResult(0.15, 2_000_000, 1.4))
	worse := calc.CalculateMetrics("worse", testResult(0.12, 1_000_000, 1.3))

	compSet := &ComparisonSet{
		BaseResult:         &base,
		AlternativeResults: []ComparisonResult{worse},
		CovenantDSCR:       DefaultCovenantDSCR,
	}

	if recs := GenerateRecommendations(compSet); len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %v", recs)
	}
}

func TestCompareEngine_Compare(t *testing.T) {
	engine := NewCompareEngine(nil)

	compSet, err := engine.Compare(context.Background(), nil, CompareOptions{
		Templates:  []string{"tariff_down_10", "all_equity"},
		Transforms: []string{"shift:param=interest_rate,delta=-0.01"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if compSet.BaseScenarioName != "base" {
		t.Errorf("Expected default base name, got %s", compSet.BaseScenarioName)
	}
	if len(compSet.AlternativeResults) != 3 {
		t.Fatalf("Expected 3 alternatives, got %d", len(compSet.AlternativeResults))
	}

	tariff := compSet.AlternativeResults[0]
	if tariff.ScenarioName != "base_tariff_down_10" {
		t.Errorf("Unexpected name %s", tariff.ScenarioName)
	}
	if tariff.EquityIRRDiff == nil || *tariff.EquityIRRDiff >= 0 {
		t.Errorf("Expected lower tariff to cut equity IRR, got %v", tariff.EquityIRRDiff)
	}
	if !tariff.NPVDiff.IsNegative() {
		t.Errorf("Expected lower tariff to cut NPV, got %s", tariff.NPVDiff)
	}

	allEquity := compSet.AlternativeResults[1]
	if allEquity.MinDSCR != nil || allEquity.MinDSCRDiff != nil {
		t.Error("Expected no DSCR for the all-equity case")
	}

	cheaper := compSet.AlternativeResults[2]
	if cheaper.MinDSCRDiff == nil || *cheaper.MinDSCRDiff <= 0 {
		t.Errorf("Expected a lower rate to improve coverage, got %v", cheaper.MinDSCRDiff)
	}
}

func TestCompareEngine_CompareErrors(t *testing.T) {
	engine := NewCompareEngine(nil)

	if _, err := engine.Compare(context.Background(), nil, CompareOptions{Templates: []string{"nope"}}); err == nil {
		t.Error("Expected error for unknown template")
	}

	if _, err := engine.Compare(context.Background(), nil, CompareOptions{Transforms: []string{"scale:param=x"}}); err == nil {
		t.Error("Expected error for malformed transform")
	}

	_, err := engine.Compare(context.Background(), map[string]any{"total_capex": -1}, CompareOptions{})
	if !errors.Is(err, domain.ErrDomain) {
		t.Errorf("Expected domain error for negative capex, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Compare(ctx, nil, CompareOptions{Templates: []string{"sculpted"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation, got %v", err)
	}
}

func TestCompareEngine_CompareScenarios(t *testing.T) {
	engine := NewCompareEngine(nil)

	compSet, err := engine.CompareScenarios(context.Background(),
		Scenario{Name: "P50"},
		[]Scenario{
			{Name: "high gearing", Params: map[string]any{"debt": map[string]any{"debt_ratio": 0.8}}},
		},
		1.3)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if compSet.CovenantDSCR != 1.3 {
		t.Errorf("Expected covenant 1.3, got %v", compSet.CovenantDSCR)
	}
	alt := compSet.AlternativeResults[0]
	if alt.DebtRatio != 0.8 {
		t.Errorf("Expected debt ratio 0.8, got %v", alt.DebtRatio)
	}
	if alt.MinDSCRDiff == nil || *alt.MinDSCRDiff >= 0 {
		t.Errorf("Expected more debt to weaken coverage, got %v", alt.MinDSCRDiff)
	}

	_, err = engine.CompareScenarios(context.Background(), Scenario{Name: "base"},
		[]Scenario{{Name: "bad", Params: map[string]any{"nameplate_mw": 0}}}, 0)
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Errorf("Expected error naming the failing scenario, got %v", err)
	}
}
