package calculation

import (
	"fmt"
	"math"
	"sort"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// paramField reads and writes one numeric model input by its external name.
// Debt terms are addressed by their flat names (debt_ratio, tenor_years...).
type paramField struct {
	get func(p domain.Params) float64
	set func(p *domain.Params, v float64)
}

var paramFields = map[string]paramField{
	"total_capex": {
		get: func(p domain.Params) float64 { return p.TotalCapex },
		set: func(p *domain.Params, v float64) { p.TotalCapex = v },
	},
	"project_life_years": {
		get: func(p domain.Params) float64 { return float64(p.ProjectLifeYears) },
		set: func(p *domain.Params, v float64) { p.ProjectLifeYears = int(math.Round(v)) },
	},
	"nameplate_mw": {
		get: func(p domain.Params) float64 { return p.NameplateMW },
		set: func(p *domain.Params, v float64) { p.NameplateMW = v },
	},
	"hours_per_year": {
		get: func(p domain.Params) float64 { return p.HoursPerYear },
		set: func(p *domain.Params, v float64) { p.HoursPerYear = v },
	},
	"cf_p50": {
		get: func(p domain.Params) float64 { return p.CFP50 },
		set: func(p *domain.Params, v float64) { p.CFP50 = v },
	},
	"yearly_degradation": {
		get: func(p domain.Params) float64 { return p.YearlyDegradation },
		set: func(p *domain.Params, v float64) { p.YearlyDegradation = v },
	},
	"fx_initial": {
		get: func(p domain.Params) float64 { return p.FXInitial },
		set: func(p *domain.Params, v float64) { p.FXInitial = v },
	},
	"fx_depr": {
		get: func(p domain.Params) float64 { return p.FXDepr },
		set: func(p *domain.Params, v float64) { p.FXDepr = v },
	},
	"tariff_lkr_kwh": {
		get: func(p domain.Params) float64 { return p.TariffLKRkWh },
		set: func(p *domain.Params, v float64) { p.TariffLKRkWh = v },
	},
	"opex_usd_mwh": {
		get: func(p domain.Params) float64 { return p.OpexUSDMWh },
		set: func(p *domain.Params, v float64) { p.OpexUSDMWh = v },
	},
	"opex_esc_usd": {
		get: func(p domain.Params) float64 { return p.OpexEscUSD },
		set: func(p *domain.Params, v float64) { p.OpexEscUSD = v },
	},
	"opex_esc_lkr": {
		get: func(p domain.Params) float64 { return p.OpexEscLKR },
		set: func(p *domain.Params, v float64) { p.OpexEscLKR = v },
	},
	"sscl_rate": {
		get: func(p domain.Params) float64 { return p.SSCLRate },
		set: func(p *domain.Params, v float64) { p.SSCLRate = v },
	},
	"tax_rate": {
		get: func(p domain.Params) float64 { return p.TaxRate },
		set: func(p *domain.Params, v float64) { p.TaxRate = v },
	},
	"discount_rate": {
		get: func(p domain.Params) float64 { return p.DiscountRate },
		set: func(p *domain.Params, v float64) { p.DiscountRate = v },
	},
	"debt_ratio": {
		get: func(p domain.Params) float64 { return p.Debt.DebtRatio },
		set: func(p *domain.Params, v float64) { p.Debt.DebtRatio = v },
	},
	"tenor_years": {
		get: func(p domain.Params) float64 { return float64(p.Debt.TenorYears) },
		set: func(p *domain.Params, v float64) { p.Debt.TenorYears = int(math.Round(v)) },
	},
	"grace_years": {
		get: func(p domain.Params) float64 { return float64(p.Debt.GraceYears) },
		set: func(p *domain.Params, v float64) { p.Debt.GraceYears = int(math.Round(v)) },
	},
	"interest_rate": {
		get: func(p domain.Params) float64 { return p.Debt.InterestRate },
		set: func(p *domain.Params, v float64) { p.Debt.InterestRate = v },
	},
	"target_dscr": {
		get: func(p domain.Params) float64 { return p.Debt.TargetDSCR },
		set: func(p *domain.Params, v float64) { p.Debt.TargetDSCR = v },
	},
}

// ParamValue returns the numeric input called name
func ParamValue(p domain.Params, name string) (float64, error) {
	f, ok := paramFields[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	return f.get(p), nil
}

// SetParamValue overwrites the numeric input called name. Integer inputs
// are rounded.
func SetParamValue(p *domain.Params, name string, v float64) error {
	f, ok := paramFields[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	f.set(p, v)
	return nil
}

// ParamNames lists the addressable inputs in sorted order
func ParamNames() []string {
	names := make([]string, 0, len(paramFields))
	for name := range paramFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
