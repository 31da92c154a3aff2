package compare

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// DefaultCovenantDSCR is the lock-up covenant used when none is given
const DefaultCovenantDSCR = 1.20

// Scenario is a named raw parameter mapping
type Scenario struct {
	Name   string         `json:"name" yaml:"name"`
	Params map[string]any `json:"params" yaml:"params"`
}

// ComparisonResult represents a single scenario comparison with calculated metrics
type ComparisonResult struct {
	ScenarioName string `json:"scenarioName"`
	Description  string `json:"description,omitempty"`

	// Key Metrics. Nil IRR means undefined; nil DSCR means no debt service.
	EquityIRR   *float64        `json:"equityIRR"`
	ProjectIRR  *float64        `json:"projectIRR"`
	NPV         decimal.Decimal `json:"npv"`
	MinDSCR     *float64        `json:"minDSCR"`
	AvgDSCR     *float64        `json:"avgDSCR"`
	LLCR        *float64        `json:"llcr"`
	DebtUSD     decimal.Decimal `json:"debtUSD"`
	EquityUSD   decimal.Decimal `json:"equityUSD"`
	TotalEquity decimal.Decimal `json:"totalEquityCashFlow"` // sum of equity FCF over the project life

	// Comparison to Base
	EquityIRRDiff  *float64        `json:"equityIRRDiff,omitempty"` // in IRR points, nil if either side undefined
	MinDSCRDiff    *float64        `json:"minDSCRDiff,omitempty"`
	NPVDiff        decimal.Decimal `json:"npvDiff"`
	NPVPctFromBase decimal.Decimal `json:"npvPctFromBase"`

	// Debt structure (extracted from the params for display)
	DebtRatio   float64 `json:"debtRatio"`
	TenorYears  int     `json:"tenorYears"`
	GraceYears  int     `json:"graceYears"`
	Style       string  `json:"amortization"`
	BreachesCov bool    `json:"breachesCovenant"`
}

// ComparisonSet represents a collection of scenario comparisons
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	CovenantDSCR       float64            `json:"covenantDSCR"`
	ConfigPath         string             `json:"configPath,omitempty"`
}

// MetricsCalculator extracts key metrics from model results
type MetricsCalculator struct {
	CovenantDSCR float64
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{CovenantDSCR: DefaultCovenantDSCR}
}

// CalculateMetrics computes all comparison metrics for one model result
func (mc *MetricsCalculator) CalculateMetrics(name string, res *domain.ModelResult) ComparisonResult {
	result := ComparisonResult{
		ScenarioName: name,
		EquityIRR:    res.EquityIRR,
		ProjectIRR:   res.ProjectIRR,
		NPV:          decimal.NewFromFloat(res.NPV),
		LLCR:         res.LLCR,
		DebtUSD:      decimal.NewFromFloat(res.Debt),
		EquityUSD:    decimal.NewFromFloat(res.Equity),
		TotalEquity:  mc.totalEquityCashFlow(res),
		DebtRatio:    res.Params.Debt.DebtRatio,
		TenorYears:   res.Params.Debt.TenorYears,
		GraceYears:   res.Params.Debt.GraceYears,
		Style:        string(res.Params.Debt.Style),
	}

	if res.HasDebtService() {
		result.MinDSCR = domain.Float64Ptr(res.MinDSCR)
		result.AvgDSCR = domain.Float64Ptr(res.AvgDSCR)
		result.BreachesCov = res.MinDSCR < mc.CovenantDSCR
	}

	return result
}

// CalculateComparison computes comparison metrics between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.NPVDiff = scenario.NPV.Sub(base.NPV)

	if !base.NPV.IsZero() {
		scenario.NPVPctFromBase = scenario.NPVDiff.
			Div(base.NPV.Abs()).
			Mul(decimal.NewFromInt(100))
	}

	scenario.EquityIRRDiff = diff(scenario.EquityIRR, base.EquityIRR)
	scenario.MinDSCRDiff = diff(scenario.MinDSCR, base.MinDSCR)

	return scenario
}

// totalEquityCashFlow sums the equity injection and every year's equity FCF
func (mc *MetricsCalculator) totalEquityCashFlow(res *domain.ModelResult) decimal.Decimal {
	total := decimal.NewFromFloat(res.Equity).Neg()
	for _, year := range res.Annual {
		total = total.Add(decimal.NewFromFloat(year.EquityFCFUSD))
	}
	return total
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return domain.Float64Ptr(*a - *b)
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}
	base := compSet.BaseResult

	// Best sponsor return
	bestIRR := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if greater(alt.EquityIRR, bestIRR.EquityIRR) {
			bestIRR = alt
		}
	}
	if bestIRR != base {
		msg := "Best Equity IRR: " + bestIRR.ScenarioName
		if d := diff(bestIRR.EquityIRR, base.EquityIRR); d != nil {
			msg += fmt.Sprintf(" adds %.2f points over the base case", *d*100)
		}
		recommendations = append(recommendations, msg)
	}

	// Strongest coverage among levered cases
	bestDSCR := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if greater(alt.MinDSCR, bestDSCR.MinDSCR) {
			bestDSCR = alt
		}
	}
	if bestDSCR != base {
		recommendations = append(recommendations,
			fmt.Sprintf("Strongest Coverage: %s has a minimum DSCR of %.2fx", bestDSCR.ScenarioName, *bestDSCR.MinDSCR))
	}

	// Highest NPV
	bestNPV := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.NPV.GreaterThan(bestNPV.NPV) {
			bestNPV = alt
		}
	}
	if bestNPV != base {
		gain := bestNPV.NPV.Sub(base.NPV)
		recommendations = append(recommendations,
			"Highest NPV: "+bestNPV.ScenarioName+" adds $"+gain.StringFixed(0)+" of project value")
	}

	// Covenant breaches
	for _, alt := range compSet.AlternativeResults {
		if alt.BreachesCov {
			recommendations = append(recommendations,
				fmt.Sprintf("Covenant Breach: %s falls to %.2fx, below the %.2fx lock-up", alt.ScenarioName, *alt.MinDSCR, compSet.CovenantDSCR))
		}
	}

	return recommendations
}

// greater reports a > b where nil (undefined) ranks below every value
func greater(a, b *float64) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a > *b
}
