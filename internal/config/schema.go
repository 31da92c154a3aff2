package config

import (
	"math"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// FieldKind is the expected type of a parameter value
type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindInt    FieldKind = "int"
	KindBool   FieldKind = "bool"
	KindEnum   FieldKind = "enum"
)

// FieldSpec describes one accepted parameter key
type FieldSpec struct {
	Kind        FieldKind
	Min, Max    float64
	Values      []string // enum members
	Unit        string
	Description string
}

// ParamSchema lists every top-level parameter key and its admissible range
var ParamSchema = map[string]FieldSpec{
	"total_capex":        {Kind: KindNumber, Min: 0, Max: 1e10, Unit: "USD", Description: "Total project capex"},
	"project_life_years": {Kind: KindInt, Min: 1, Max: 60, Unit: "years", Description: "Operating life"},
	"nameplate_mw":       {Kind: KindNumber, Min: 0.1, Max: 10000, Unit: "MW", Description: "Installed capacity"},
	"hours_per_year":     {Kind: KindNumber, Min: 0, Max: 8784, Unit: "h", Description: "Hours in an operating year"},
	"cf_p50":             {Kind: KindNumber, Min: 0, Max: 1, Description: "P50 capacity factor"},
	"yearly_degradation": {Kind: KindNumber, Min: 0, Max: 0.2, Description: "Annual output degradation"},
	"fx_initial":         {Kind: KindNumber, Min: 0.0001, Max: 1e6, Unit: "LKR/USD", Description: "Year-1 exchange rate"},
	"fx_depr":            {Kind: KindNumber, Min: -0.5, Max: 1, Description: "Annual LKR depreciation"},
	"tariff_lkr_kwh":     {Kind: KindNumber, Min: 0, Max: 1000, Unit: "LKR/kWh", Description: "Energy tariff"},
	"opex_usd_mwh":       {Kind: KindNumber, Min: 0, Max: 1000, Unit: "USD/MWh", Description: "Year-1 opex rate"},
	"opex_split_usd":     {Kind: KindNumber, Min: 0, Max: 1, Description: "USD-denominated share of opex"},
	"opex_split_lkr":     {Kind: KindNumber, Min: 0, Max: 1, Description: "LKR-denominated share of opex"},
	"opex_esc_usd":       {Kind: KindNumber, Min: -0.5, Max: 1, Description: "USD opex escalation"},
	"opex_esc_lkr":       {Kind: KindNumber, Min: -0.5, Max: 1, Description: "LKR opex escalation"},
	"sscl_rate":          {Kind: KindNumber, Min: 0, Max: 1, Description: "Turnover levy on revenue"},
	"tax_rate":           {Kind: KindNumber, Min: 0, Max: 1, Description: "Corporate tax rate"},
	"discount_rate":      {Kind: KindNumber, Min: 0, Max: 1, Description: "Project NPV discount rate"},
}

// DebtSchema lists the keys of the nested debt mapping
var DebtSchema = map[string]FieldSpec{
	"debt_ratio":          {Kind: KindNumber, Min: 0, Max: 1, Description: "Debt share of capex"},
	"tenor_years":         {Kind: KindInt, Min: 1, Max: 40, Unit: "years", Description: "Loan tenor"},
	"grace_years":         {Kind: KindInt, Min: 0, Max: 10, Unit: "years", Description: "Years before principal repayment"},
	"interest_rate":       {Kind: KindNumber, Min: 0, Max: 1, Description: "Annual interest rate"},
	"style":               {Kind: KindEnum, Values: []string{string(domain.AmortizationLevel), string(domain.AmortizationSculpted)}},
	"grace_policy":        {Kind: KindEnum, Values: []string{string(domain.GraceInterestOnly), string(domain.GraceCapitalize)}},
	"target_dscr":         {Kind: KindNumber, Min: 0.5, Max: 5, Description: "Sculpting DSCR target"},
	"cap_to_project_life": {Kind: KindBool, Description: "Repay any balance outstanding at the end of project life"},
}

// CompositeConstraint is a rule across several parameters
type CompositeConstraint struct {
	Message string
	Check   func(p domain.Params) bool
}

// CompositeConstraints are checked on the merged parameter set
var CompositeConstraints = []CompositeConstraint{
	{
		Message: "opex_split_usd + opex_split_lkr must equal 1",
		Check: func(p domain.Params) bool {
			return math.Abs(p.OpexSplitUSD+p.OpexSplitLKR-1) <= 1e-6
		},
	},
	{
		Message: "debt.grace_years must be shorter than debt.tenor_years",
		Check: func(p domain.Params) bool {
			return p.Debt.DebtRatio == 0 || p.Debt.GraceYears < p.Debt.TenorYears
		},
	},
	{
		Message: "debt.tenor_years cannot exceed project_life_years unless cap_to_project_life is set",
		Check: func(p domain.Params) bool {
			return p.Debt.DebtRatio == 0 || p.Debt.CapToProjectLife || p.Debt.TenorYears <= p.ProjectLifeYears
		},
	},
}
