package calculation

import (
	"fmt"
	"math"
	"sort"

	"github.com/dutchbay/dbmodel/internal/domain"
)

const defaultRelativeSwing = 0.10

// SensitivityParameter is a local type for the analyzer
type SensitivityParameter = domain.SensitivityParameter

// DefaultTornadoParameters returns the inputs a lender tornado swings
func DefaultTornadoParameters() []SensitivityParameter {
	return []SensitivityParameter{
		{Name: "tariff_lkr_kwh", Description: "Tariff"},
		{Name: "cf_p50", Description: "Capacity factor"},
		{Name: "total_capex", Description: "Capex"},
		{Name: "opex_usd_mwh", Description: "Opex"},
		{Name: "fx_depr", Description: "FX depreciation"},
		{Name: "interest_rate", Description: "Interest rate"},
		{Name: "debt_ratio", Description: "Debt ratio"},
		{Name: "tax_rate", Description: "Tax rate"},
	}
}

// SensitivityAnalyzer performs tornado and parameter sweep analysis
type SensitivityAnalyzer struct {
	model *ModelEngine
}

// NewSensitivityAnalyzer creates a new sensitivity analyzer
func NewSensitivityAnalyzer(model *ModelEngine) *SensitivityAnalyzer {
	if model == nil {
		model = NewModelEngine()
	}
	return &SensitivityAnalyzer{model: model}
}

// ParseTornadoMetric validates a metric name
func ParseTornadoMetric(s string) (domain.TornadoMetric, error) {
	switch m := domain.TornadoMetric(s); m {
	case domain.MetricIRR, domain.MetricNPV, domain.MetricDSCR:
		return m, nil
	}
	return "", fmt.Errorf("unknown tornado metric %q (want irr, npv or dscr)", s)
}

// ParseTornadoSort validates a sort order
func ParseTornadoSort(s string) (domain.TornadoSort, error) {
	switch o := domain.TornadoSort(s); o {
	case domain.SortAbs, domain.SortAsc, domain.SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("unknown tornado sort %q (want abs, asc or desc)", s)
}

// Tornado runs the model at the low and high value of each parameter and
// ranks the resulting swings in metric.
func (sa *SensitivityAnalyzer) Tornado(
	base map[string]any,
	params []SensitivityParameter,
	metric domain.TornadoMetric,
	order domain.TornadoSort,
) (*domain.TornadoResult, error) {
	if _, err := ParseTornadoMetric(string(metric)); err != nil {
		return nil, err
	}
	if _, err := ParseTornadoSort(string(order)); err != nil {
		return nil, err
	}
	if len(params) == 0 {
		params = DefaultTornadoParameters()
	}

	baseParams, err := DecodeParams(sa.model.Defaults, base)
	if err != nil {
		return nil, err
	}
	baseResult, err := sa.model.Run(baseParams)
	if err != nil {
		return nil, fmt.Errorf("failed to run base case: %w", err)
	}

	result := &domain.TornadoResult{
		Metric:     metric,
		Sort:       order,
		BaseMetric: metricValue(baseResult, metric),
		Bars:       make([]domain.TornadoBar, 0, len(params)),
	}

	for _, param := range params {
		low, high, err := swingBounds(baseParams, param)
		if err != nil {
			return nil, err
		}
		lowMetric, err := sa.evaluate(baseParams, param.Name, low, metric)
		if err != nil {
			return nil, err
		}
		highMetric, err := sa.evaluate(baseParams, param.Name, high, metric)
		if err != nil {
			return nil, err
		}

		bar := domain.TornadoBar{
			Parameter:   param.Name,
			LowInput:    low,
			HighInput:   high,
			LowMetric:   lowMetric,
			HighMetric:  highMetric,
			Description: param.Description,
		}
		if lowMetric != nil && highMetric != nil {
			bar.Swing = *highMetric - *lowMetric
			bar.AbsSwing = math.Abs(bar.Swing)
		}
		result.Bars = append(result.Bars, bar)
	}

	sortBars(result.Bars, order)
	return result, nil
}

// Sweep runs the model across an evenly spaced grid of one parameter
func (sa *SensitivityAnalyzer) Sweep(base map[string]any, param SensitivityParameter) (*domain.SweepResult, error) {
	baseParams, err := DecodeParams(sa.model.Defaults, base)
	if err != nil {
		return nil, err
	}
	low, high, err := swingBounds(baseParams, param)
	if err != nil {
		return nil, err
	}

	values := generateParameterValues(low, high, param.Steps)
	points := make([]domain.SweepPoint, 0, len(values))
	for _, v := range values {
		p := baseParams
		paramFields[param.Name].set(&p, v)
		res, err := sa.model.Run(p)
		if err != nil {
			return nil, fmt.Errorf("failed to run model for %s=%v: %w", param.Name, v, err)
		}
		points = append(points, domain.SweepPoint{
			Value:     v,
			EquityIRR: res.EquityIRR,
			NPV:       res.NPV,
			MinDSCR:   metricValue(res, domain.MetricDSCR),
		})
	}

	return &domain.SweepResult{Parameter: param, Points: points}, nil
}

func (sa *SensitivityAnalyzer) evaluate(base domain.Params, name string, value float64, metric domain.TornadoMetric) (*float64, error) {
	p := base
	paramFields[name].set(&p, value)
	res, err := sa.model.Run(p)
	if err != nil {
		return nil, fmt.Errorf("failed to run model for %s=%v: %w", name, value, err)
	}
	return metricValue(res, metric), nil
}

// swingBounds resolves the low/high inputs of param around base
func swingBounds(base domain.Params, param SensitivityParameter) (float64, float64, error) {
	f, ok := paramFields[param.Name]
	if !ok {
		return 0, 0, fmt.Errorf("unknown sensitivity parameter %q", param.Name)
	}
	if param.Low != 0 || param.High != 0 {
		if param.Low > param.High {
			return 0, 0, fmt.Errorf("parameter %s: low %v above high %v", param.Name, param.Low, param.High)
		}
		return param.Low, param.High, nil
	}
	swing := param.RelativeSwing
	if swing <= 0 {
		swing = defaultRelativeSwing
	}
	v := f.get(base)
	lo, hi := v*(1-swing), v*(1+swing)
	return min(lo, hi), max(lo, hi), nil
}

func generateParameterValues(low, high float64, steps int) []float64 {
	if steps <= 1 {
		return []float64{low}
	}
	values := make([]float64, 0, steps)
	step := (high - low) / float64(steps-1)
	for i := 0; i < steps; i++ {
		values = append(values, low+step*float64(i))
	}
	return values
}

func metricValue(res *domain.ModelResult, metric domain.TornadoMetric) *float64 {
	switch metric {
	case domain.MetricNPV:
		return domain.Float64Ptr(res.NPV)
	case domain.MetricDSCR:
		if math.IsInf(res.MinDSCR, 0) {
			return nil
		}
		return domain.Float64Ptr(res.MinDSCR)
	default:
		return res.EquityIRR
	}
}

func sortBars(bars []domain.TornadoBar, order domain.TornadoSort) {
	sort.SliceStable(bars, func(i, j int) bool {
		switch order {
		case domain.SortAsc:
			return bars[i].AbsSwing < bars[j].AbsSwing
		case domain.SortDesc:
			return bars[i].Swing > bars[j].Swing
		default:
			return bars[i].AbsSwing > bars[j].AbsSwing
		}
	})
}
