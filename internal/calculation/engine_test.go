package calculation

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbay/dbmodel/internal/domain"
)

func TestNewModelEngine(t *testing.T) {
	engine := NewModelEngine()

	assert.NotNil(t, engine, "Should create engine")
	assert.Equal(t, domain.DefaultParams(), engine.Defaults, "Should start from the baseline defaults")
	assert.NotNil(t, engine.Logger, "Should initialize logger")
}

func TestModelEngine_SetLogger(t *testing.T) {
	engine := NewModelEngine()

	customLogger := &TestLogger{}
	engine.SetLogger(customLogger)

	assert.Equal(t, customLogger, engine.Logger, "Should set custom logger")

	engine.SetLogger(nil)

	assert.NotNil(t, engine.Logger, "Should not be nil")
	assert.IsType(t, NopLogger{}, engine.Logger, "Should be no-op logger")
}

func TestBuildFinancialModel_Defaults(t *testing.T) {
	res, err := BuildFinancialModel(nil)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultParams(), res.Params)
	assert.Len(t, res.Annual, 20, "Should project every operating year")
	assert.Len(t, res.Schedule, 15, "Should schedule the full tenor")
	assert.InDelta(t, 155e6*0.7, res.Debt, 1e-3)
	assert.InDelta(t, 155e6*0.3, res.Equity, 1e-3)
	require.NotNil(t, res.EquityIRR, "Baseline equity IRR should be defined")
	require.NotNil(t, res.Year1DSCR)
	require.NotNil(t, res.Annual[0].DSCR)
	assert.Equal(t, *res.Annual[0].DSCR, *res.Year1DSCR)
	assert.True(t, res.HasDebtService())
}

func TestBuildFinancialModel_MergesNestedDebt(t *testing.T) {
	res, err := BuildFinancialModel(map[string]any{
		"tariff_lkr_kwh": 22.0,
		"debt": map[string]any{
			"tenor_years": 12,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 22.0, res.Params.TariffLKRkWh)
	assert.Equal(t, 12, res.Params.Debt.TenorYears, "Should override the nested field")
	assert.Equal(t, 0.70, res.Params.Debt.DebtRatio, "Should keep the other debt defaults")
	assert.Equal(t, domain.AmortizationLevel, res.Params.Debt.Style)
	assert.Len(t, res.Schedule, 12)
}

func TestBuildFinancialModel_IgnoresUnknownKeys(t *testing.T) {
	withExtra, err := BuildFinancialModel(map[string]any{"not_a_param": 1, "notes": "x"})
	require.NoError(t, err)
	plain, err := BuildFinancialModel(nil)
	require.NoError(t, err)

	assert.Equal(t, plain, withExtra)
}

func TestBuildFinancialModel_DomainErrors(t *testing.T) {
	cases := map[string]map[string]any{
		"zero capacity":    {"nameplate_mw": 0},
		"negative capex":   {"total_capex": -1},
		"zero life":        {"project_life_years": 0},
		"bad ratio":        {"debt": map[string]any{"debt_ratio": 1.5}},
		"grace over tenor": {"debt": map[string]any{"tenor_years": 5, "grace_years": 5}},
		"discount rate":    {"discount_rate": -1},
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := BuildFinancialModel(raw)

			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrDomain), "Should be a domain error: %v", err)
		})
	}
}

func TestBuildFinancialModel_TypeMismatch(t *testing.T) {
	_, err := BuildFinancialModel(map[string]any{"total_capex": "lots"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDomain))
	assert.Contains(t, err.Error(), "failed to decode parameters")
}

func TestBuildFinancialModel_Deterministic(t *testing.T) {
	raw := map[string]any{"cf_p50": 0.38, "debt": map[string]any{"style": "sculpted"}}

	first, err := BuildFinancialModel(raw)
	require.NoError(t, err)
	second, err := BuildFinancialModel(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestModelEngine_ConcurrentRuns(t *testing.T) {
	engine := NewModelEngine()
	want, err := engine.Run(domain.DefaultParams())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*domain.ModelResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := engine.Run(domain.DefaultParams())
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NotNil(t, res, "run %d failed", i)
		assert.Equal(t, want, res)
	}
}

func TestModelEngine_DebugLogsRows(t *testing.T) {
	engine := NewModelEngine()
	logger := &TestLogger{}
	engine.SetLogger(logger)
	engine.Debug = true

	_, err := engine.Run(domain.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, 20, logger.count("DEBUG: "), "Should log one line per year")
	assert.Zero(t, logger.count("WARN: "))
}

func TestModelEngine_WarnsOnUndefinedIRR(t *testing.T) {
	engine := NewModelEngine()
	logger := &TestLogger{}
	engine.SetLogger(logger)

	p := domain.DefaultParams()
	p.TariffLKRkWh = 0

	res, err := engine.Run(p)
	require.NoError(t, err)

	assert.Nil(t, res.EquityIRR)
	assert.Equal(t, 1, logger.count("WARN: equity IRR undefined"))
}

// singleYearRaw describes a one-year plant with EBIT of 20 and no tax,
// financed 70% over ten years with level amortization
func singleYearRaw() map[string]any {
	return map[string]any{
		"project_life_years": 1,
		"total_capex":        100.0,
		"nameplate_mw":       1.0,
		"hours_per_year":     1000.0,
		"cf_p50":             1.0,
		"yearly_degradation": 0.0,
		"fx_initial":         1.0,
		"fx_depr":            0.0,
		"tariff_lkr_kwh":     20.0 / 1e6,
		"opex_usd_mwh":       0.0,
		"sscl_rate":          0.0,
		"tax_rate":           0.0,
		"debt": map[string]any{
			"debt_ratio":    0.7,
			"tenor_years":   10,
			"grace_years":   0,
			"interest_rate": 0.08,
		},
	}
}

func TestBuildFinancialModel_SingleYearLevelService(t *testing.T) {
	res, err := BuildFinancialModel(singleYearRaw())
	require.NoError(t, err)
	require.Len(t, res.Annual, 1)

	row := res.Annual[0]
	assert.InDelta(t, 20, row.EBITUSD, 1e-9)
	assert.InDelta(t, 7, row.PrincipalUSD, 1e-9, "level installment over the full tenor, no balloon")
	assert.InDelta(t, 5.6, row.InterestUSD, 1e-9)
	assert.InDelta(t, 12.6, row.DebtServiceUSD, 1e-9)
	require.NotNil(t, row.DSCR)
	assert.InDelta(t, 20/12.6, *row.DSCR, 1e-9)
	assert.InDelta(t, 20/12.6, res.MinDSCR, 1e-9)
	assert.Len(t, res.Schedule, 10)
}

func TestBuildFinancialModel_CappedSingleYearBalloon(t *testing.T) {
	raw := singleYearRaw()
	raw["debt"].(map[string]any)["cap_to_project_life"] = true

	res, err := BuildFinancialModel(raw)
	require.NoError(t, err)

	assert.InDelta(t, 70, res.Annual[0].PrincipalUSD, 1e-9)
	assert.Len(t, res.Schedule, 1)
}

func TestModelEngine_WarnsOnUnpaidDebt(t *testing.T) {
	engine := NewModelEngine()
	logger := &TestLogger{}
	engine.SetLogger(logger)

	raw := singleYearRaw()
	raw["project_life_years"] = 5
	res, err := engine.BuildFinancialModel(raw)
	require.NoError(t, err)
	assert.Len(t, res.Schedule, 10)
	assert.InDelta(t, 35, unpaidAtProjectEnd(res.Params, res.Schedule), 1e-9, "five of ten installments paid")
	assert.Equal(t, 1, logger.count("WARN: tenor of %d years outlives"))

	raw["debt"].(map[string]any)["cap_to_project_life"] = true
	logger.messages = nil
	res, err = engine.BuildFinancialModel(raw)
	require.NoError(t, err)
	assert.Zero(t, unpaidAtProjectEnd(res.Params, res.Schedule))
	assert.Zero(t, logger.count("WARN: tenor of"))
}

func TestModelResult_JSONWithoutDebt(t *testing.T) {
	res, err := BuildFinancialModel(map[string]any{"debt": map[string]any{"debt_ratio": 0}})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["min_dscr"])
	assert.Nil(t, decoded["avg_dscr"])
	assert.Equal(t, false, decoded["dscr_defined"])
	assert.Contains(t, decoded, "annual_data")
	assert.Contains(t, decoded, "npv_12pct")
}

// TestLogger is a simple logger for testing
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}

func (tl *TestLogger) count(prefix string) int {
	n := 0
	for _, m := range tl.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}
