package domain

import (
	"fmt"
	"math"
)

// AmortizationStyle selects how principal is repaid after the grace period
type AmortizationStyle string

const (
	AmortizationLevel    AmortizationStyle = "level"
	AmortizationSculpted AmortizationStyle = "sculpted"
)

// GracePolicy selects what happens to interest during the grace period
type GracePolicy string

const (
	GraceInterestOnly GracePolicy = "interest_only" // interest is paid, principal deferred
	GraceCapitalize   GracePolicy = "capitalize"    // interest accrues onto the balance
)

// DebtTerms describes the senior debt facility
type DebtTerms struct {
	DebtRatio    float64           `json:"debt_ratio" yaml:"debt_ratio"`
	TenorYears   int               `json:"tenor_years" yaml:"tenor_years"`
	GraceYears   int               `json:"grace_years" yaml:"grace_years"`
	InterestRate float64           `json:"interest_rate" yaml:"interest_rate"`
	Style        AmortizationStyle `json:"style" yaml:"style"`
	GracePolicy  GracePolicy       `json:"grace_policy" yaml:"grace_policy"`

	// TargetDSCR is only used by the sculpted style
	TargetDSCR float64 `json:"target_dscr" yaml:"target_dscr"`

	// CapToProjectLife truncates the schedule at the project life and
	// repays any remaining balance as a balloon in the final project year.
	// Off by default: a tenor longer than the project keeps level
	// installments and the balance after the last project year stays unpaid.
	CapToProjectLife bool `json:"cap_to_project_life" yaml:"cap_to_project_life"`
}

// Params holds every technical, commercial and tax input of one model run.
// Rates are fractions (0.08 means 8%).
type Params struct {
	TotalCapex        float64 `json:"total_capex" yaml:"total_capex"`               // USD
	ProjectLifeYears  int     `json:"project_life_years" yaml:"project_life_years"` // operating years
	NameplateMW       float64 `json:"nameplate_mw" yaml:"nameplate_mw"`
	HoursPerYear      float64 `json:"hours_per_year" yaml:"hours_per_year"`
	CFP50             float64 `json:"cf_p50" yaml:"cf_p50"` // P50 capacity factor
	YearlyDegradation float64 `json:"yearly_degradation" yaml:"yearly_degradation"`

	FXInitial float64 `json:"fx_initial" yaml:"fx_initial"` // LKR per USD in year 1
	FXDepr    float64 `json:"fx_depr" yaml:"fx_depr"`       // annual LKR depreciation

	TariffLKRkWh float64 `json:"tariff_lkr_kwh" yaml:"tariff_lkr_kwh"`

	OpexUSDMWh   float64 `json:"opex_usd_mwh" yaml:"opex_usd_mwh"` // year-1 opex per MWh, in USD
	OpexSplitUSD float64 `json:"opex_split_usd" yaml:"opex_split_usd"`
	OpexSplitLKR float64 `json:"opex_split_lkr" yaml:"opex_split_lkr"`
	OpexEscUSD   float64 `json:"opex_esc_usd" yaml:"opex_esc_usd"`
	OpexEscLKR   float64 `json:"opex_esc_lkr" yaml:"opex_esc_lkr"`

	SSCLRate     float64 `json:"sscl_rate" yaml:"sscl_rate"` // turnover tax on revenue
	TaxRate      float64 `json:"tax_rate" yaml:"tax_rate"`
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`

	Debt DebtTerms `json:"debt" yaml:"debt"`
}

// DefaultDebtTerms returns the baseline facility: 70% gearing, 15 years,
// one year interest-only grace, level amortization.
func DefaultDebtTerms() DebtTerms {
	return DebtTerms{
		DebtRatio:        0.70,
		TenorYears:       15,
		GraceYears:       1,
		InterestRate:     0.08,
		Style:            AmortizationLevel,
		GracePolicy:      GraceInterestOnly,
		TargetDSCR:       1.30,
		CapToProjectLife: false,
	}
}

// DefaultParams returns a fresh copy of the baseline parameter set. Callers
// may modify the returned value freely.
func DefaultParams() Params {
	return Params{
		TotalCapex:        155_000_000,
		ProjectLifeYears:  20,
		NameplateMW:       150,
		HoursPerYear:      8760,
		CFP50:             0.40,
		YearlyDegradation: 0.006,
		FXInitial:         300,
		FXDepr:            0.03,
		TariffLKRkWh:      20.36,
		OpexUSDMWh:        10.5,
		OpexSplitUSD:      0.30,
		OpexSplitLKR:      0.70,
		OpexEscUSD:        0.02,
		OpexEscLKR:        0.05,
		SSCLRate:          0.025,
		TaxRate:           0.24,
		DiscountRate:      0.12,
		Debt:              DefaultDebtTerms(),
	}
}

// Equity returns the sponsor contribution, capex × (1 − debt_ratio)
func (p Params) Equity() float64 {
	return p.TotalCapex - p.DebtAmount()
}

// DebtAmount returns the senior debt principal, capex × debt_ratio
func (p Params) DebtAmount() float64 {
	return p.TotalCapex * p.Debt.DebtRatio
}

// Validate enforces the invariants the model relies on. It is not a
// substitute for schema validation of user input: it only rejects values
// for which the projection would be meaningless.
func (p Params) Validate() error {
	fail := func(msg string, args ...any) error {
		return &DomainError{Operation: "validate_params", Message: fmt.Sprintf(msg, args...)}
	}

	if p.ProjectLifeYears < 1 {
		return fail("project_life_years must be at least 1, got %d", p.ProjectLifeYears)
	}
	if !(p.NameplateMW > 0) {
		return fail("nameplate_mw must be positive, got %v", p.NameplateMW)
	}
	if p.TotalCapex < 0 || math.IsNaN(p.TotalCapex) {
		return fail("total_capex cannot be negative, got %v", p.TotalCapex)
	}
	if p.HoursPerYear < 0 || p.CFP50 < 0 || p.OpexUSDMWh < 0 || p.TariffLKRkWh < 0 {
		return fail("hours_per_year, cf_p50, opex_usd_mwh and tariff_lkr_kwh cannot be negative")
	}
	if !(p.FXInitial > 0) {
		return fail("fx_initial must be positive, got %v", p.FXInitial)
	}
	if p.FXDepr <= -1 {
		return fail("fx_depr must be greater than -1, got %v", p.FXDepr)
	}
	if p.YearlyDegradation < 0 || p.YearlyDegradation > 1 {
		return fail("yearly_degradation must be between 0 and 1, got %v", p.YearlyDegradation)
	}
	if p.DiscountRate <= -1 {
		return fail("discount_rate must be greater than -1, got %v", p.DiscountRate)
	}
	if err := p.Debt.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the debt terms for internal consistency
func (d DebtTerms) Validate() error {
	fail := func(msg string, args ...any) error {
		return &DomainError{Operation: "validate_debt", Message: fmt.Sprintf(msg, args...)}
	}

	if d.DebtRatio < 0 || d.DebtRatio > 1 || math.IsNaN(d.DebtRatio) {
		return fail("debt_ratio must be between 0 and 1, got %v", d.DebtRatio)
	}
	if d.DebtRatio == 0 {
		return nil
	}
	if d.TenorYears < 1 {
		return fail("tenor_years must be at least 1, got %d", d.TenorYears)
	}
	if d.GraceYears < 0 || d.GraceYears >= d.TenorYears {
		return fail("grace_years must be between 0 and tenor_years-1, got %d", d.GraceYears)
	}
	if d.InterestRate < 0 {
		return fail("interest_rate cannot be negative, got %v", d.InterestRate)
	}
	switch d.Style {
	case AmortizationLevel:
	case AmortizationSculpted:
		if !(d.TargetDSCR > 0) {
			return fail("target_dscr must be positive for sculpted amortization, got %v", d.TargetDSCR)
		}
	default:
		return fail("unknown amortization style %q", d.Style)
	}
	switch d.GracePolicy {
	case GraceInterestOnly, GraceCapitalize:
	default:
		return fail("unknown grace policy %q", d.GracePolicy)
	}
	return nil
}
