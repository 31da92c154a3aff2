package domain

import (
	"math"

	"github.com/goccy/go-json"
)

// DebtServiceEpsilon is the debt service below which DSCR is undefined
const DebtServiceEpsilon = 1e-9

// AmortizationRow is one year of the senior debt schedule
type AmortizationRow struct {
	Year           int     `json:"year"`
	OpeningBalance float64 `json:"opening_balance"`
	Interest       float64 `json:"interest"`  // cash interest paid
	Principal      float64 `json:"principal"` // principal repaid
	Capitalized    float64 `json:"capitalized,omitempty"`
	ClosingBalance float64 `json:"closing_balance"`
}

// DebtService returns interest plus principal for the year
func (r AmortizationRow) DebtService() float64 {
	return r.Interest + r.Principal
}

// AnnualRow is one operating year of the cash-flow projection. Monetary
// fields are in USD.
type AnnualRow struct {
	Year           int      `json:"year"`
	FXRate         float64  `json:"fx_rate"`
	ProductionMWh  float64  `json:"production_mwh"`
	RevenueUSD     float64  `json:"revenue_usd"`
	OpexUSD        float64  `json:"opex_usd"`
	SSCLUSD        float64  `json:"sscl_usd"`
	EBITUSD        float64  `json:"ebit_usd"`
	InterestUSD    float64  `json:"interest_usd"`
	PrincipalUSD   float64  `json:"principal_usd"`
	EBTUSD         float64  `json:"ebt_usd"`
	TaxUSD         float64  `json:"tax_usd"`
	CFADSUSD       float64  `json:"cfads_usd"`
	EquityFCFUSD   float64  `json:"equity_fcf_usd"`
	DebtServiceUSD float64  `json:"debt_service_usd"`
	DSCR           *float64 `json:"dscr"` // nil when debt service is zero
}

// ModelResult is the output of one model run. It is built once by the
// engine and must be treated as read-only afterwards.
//
// MinDSCR and AvgDSCR are +Inf when no year carries debt service. That is a
// sentinel, not a good coverage figure; check HasDebtService before using
// them.
type ModelResult struct {
	Params   Params            `json:"params"`
	Annual   []AnnualRow       `json:"annual_data"`
	Schedule []AmortizationRow `json:"debt_schedule"`

	Debt   float64 `json:"debt_usd"`
	Equity float64 `json:"equity_usd"`

	EquityIRR  *float64 `json:"equity_irr"`
	ProjectIRR *float64 `json:"project_irr"`
	NPV        float64  `json:"npv_12pct"`
	MinDSCR    float64  `json:"min_dscr"`
	AvgDSCR    float64  `json:"avg_dscr"`
	Year1DSCR  *float64 `json:"year1_dscr"`
	LLCR       *float64 `json:"llcr"`
	PLCR       *float64 `json:"plcr"`
}

// HasDebtService reports whether at least one year has a defined DSCR
func (r *ModelResult) HasDebtService() bool {
	return !math.IsInf(r.MinDSCR, 1)
}

// Summary returns the flat scalar view of the result
func (r *ModelResult) Summary() Summary {
	return Summary{
		EquityIRR:  r.EquityIRR,
		ProjectIRR: r.ProjectIRR,
		NPV:        r.NPV,
		MinDSCR:    r.MinDSCR,
		AvgDSCR:    r.AvgDSCR,
		Year1DSCR:  r.Year1DSCR,
		LLCR:       r.LLCR,
		PLCR:       r.PLCR,
	}
}

// MarshalJSON renders the infinite DSCR sentinel as null plus an explicit
// dscr_defined flag, since JSON has no infinity.
func (r *ModelResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultWire{
		Params:      r.Params,
		Annual:      r.Annual,
		Schedule:    r.Schedule,
		Debt:        r.Debt,
		Equity:      r.Equity,
		EquityIRR:   r.EquityIRR,
		ProjectIRR:  r.ProjectIRR,
		NPV:         r.NPV,
		MinDSCR:     finite(r.MinDSCR),
		AvgDSCR:     finite(r.AvgDSCR),
		DSCRDefined: r.HasDebtService(),
		Year1DSCR:   r.Year1DSCR,
		LLCR:        r.LLCR,
		PLCR:        r.PLCR,
	})
}

type resultWire struct {
	Params      Params            `json:"params"`
	Annual      []AnnualRow       `json:"annual_data"`
	Schedule    []AmortizationRow `json:"debt_schedule"`
	Debt        float64           `json:"debt_usd"`
	Equity      float64           `json:"equity_usd"`
	EquityIRR   *float64          `json:"equity_irr"`
	ProjectIRR  *float64          `json:"project_irr"`
	NPV         float64           `json:"npv_12pct"`
	MinDSCR     *float64          `json:"min_dscr"`
	AvgDSCR     *float64          `json:"avg_dscr"`
	DSCRDefined bool              `json:"dscr_defined"`
	Year1DSCR   *float64          `json:"year1_dscr"`
	LLCR        *float64          `json:"llcr"`
	PLCR        *float64          `json:"plcr"`
}

// Summary is the scalar part of a ModelResult, one row per scenario in
// batch outputs.
type Summary struct {
	EquityIRR  *float64
	ProjectIRR *float64
	NPV        float64
	MinDSCR    float64
	AvgDSCR    float64
	Year1DSCR  *float64
	LLCR       *float64
	PLCR       *float64
}

// DSCRDefined reports whether MinDSCR/AvgDSCR hold real values
func (s Summary) DSCRDefined() bool {
	return !math.IsInf(s.MinDSCR, 1)
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryWire{
		EquityIRR:   s.EquityIRR,
		ProjectIRR:  s.ProjectIRR,
		NPV:         s.NPV,
		MinDSCR:     finite(s.MinDSCR),
		AvgDSCR:     finite(s.AvgDSCR),
		DSCRDefined: s.DSCRDefined(),
		Year1DSCR:   s.Year1DSCR,
		LLCR:        s.LLCR,
		PLCR:        s.PLCR,
	})
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var w summaryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Summary{
		EquityIRR:  w.EquityIRR,
		ProjectIRR: w.ProjectIRR,
		NPV:        w.NPV,
		MinDSCR:    math.Inf(1),
		AvgDSCR:    math.Inf(1),
		Year1DSCR:  w.Year1DSCR,
		LLCR:       w.LLCR,
		PLCR:       w.PLCR,
	}
	if w.MinDSCR != nil {
		s.MinDSCR = *w.MinDSCR
	}
	if w.AvgDSCR != nil {
		s.AvgDSCR = *w.AvgDSCR
	}
	return nil
}

type summaryWire struct {
	EquityIRR   *float64 `json:"equity_irr"`
	ProjectIRR  *float64 `json:"project_irr"`
	NPV         float64  `json:"npv_12pct"`
	MinDSCR     *float64 `json:"min_dscr"`
	AvgDSCR     *float64 `json:"avg_dscr"`
	DSCRDefined bool     `json:"dscr_defined"`
	Year1DSCR   *float64 `json:"year1_dscr"`
	LLCR        *float64 `json:"llcr"`
	PLCR        *float64 `json:"plcr"`
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
