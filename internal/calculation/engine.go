package calculation

import (
	"fmt"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// ModelEngine orchestrates a model run: parameter defaulting, the debt
// schedule, the annual cash flows and the result assembly. It holds no
// per-run state, so one engine may serve concurrent runs.
type ModelEngine struct {
	Defaults domain.Params
	Logger   Logger
	Debug    bool // log every annual row
}

// NewModelEngine creates an engine over the baseline defaults
func NewModelEngine() *ModelEngine {
	return NewModelEngineWithDefaults(domain.DefaultParams())
}

// NewModelEngineWithDefaults creates an engine whose raw inputs merge over
// defaults instead of the baseline.
func NewModelEngineWithDefaults(defaults domain.Params) *ModelEngine {
	return &ModelEngine{
		Defaults: defaults,
		Logger:   NopLogger{},
	}
}

// SetLogger installs a logger; nil restores the no-op logger
func (me *ModelEngine) SetLogger(l Logger) {
	if l == nil {
		me.Logger = NopLogger{}
		return
	}
	me.Logger = l
}

func (me *ModelEngine) logger() Logger {
	if me.Logger == nil {
		return NopLogger{}
	}
	return me.Logger
}

// BuildFinancialModel is the entry point used by every driver: raw is a
// parameter mapping (optionally with a nested "debt" mapping) merged over
// the engine defaults.
func (me *ModelEngine) BuildFinancialModel(raw map[string]any) (*domain.ModelResult, error) {
	p, err := DecodeParams(me.Defaults, raw)
	if err != nil {
		return nil, err
	}
	return me.Run(p)
}

// Run executes the model for fully typed parameters
func (me *ModelEngine) Run(p domain.Params) (*domain.ModelResult, error) {
	log := me.logger()

	cf, err := Build(p)
	if err != nil {
		return nil, fmt.Errorf("failed to build cash flows: %w", err)
	}

	result := &domain.ModelResult{
		Params:     p,
		Annual:     cf.Rows,
		Schedule:   cf.Schedule,
		Debt:       p.DebtAmount(),
		Equity:     p.Equity(),
		EquityIRR:  cf.EquityIRR,
		ProjectIRR: cf.ProjectIRR,
		NPV:        cf.NPV,
		MinDSCR:    cf.MinDSCR,
		AvgDSCR:    cf.AvgDSCR,
		LLCR:       cf.LLCR,
		PLCR:       cf.PLCR,
	}
	if len(cf.Rows) > 0 && cf.Rows[0].DSCR != nil {
		result.Year1DSCR = domain.Float64Ptr(*cf.Rows[0].DSCR)
	}

	if me.Debug {
		for _, row := range cf.Rows {
			log.Debugf("year %d: revenue=%.0f ebit=%.0f cfads=%.0f debt_service=%.0f", row.Year, row.RevenueUSD, row.EBITUSD, row.CFADSUSD, row.DebtServiceUSD)
		}
	}
	if result.EquityIRR == nil {
		log.Warnf("equity IRR undefined for capex=%.0f debt_ratio=%.2f", p.TotalCapex, p.Debt.DebtRatio)
	}
	if !result.HasDebtService() && p.Debt.DebtRatio > 0 {
		log.Warnf("debt ratio %.2f but no year carries debt service", p.Debt.DebtRatio)
	}
	if unpaid := unpaidAtProjectEnd(p, cf.Schedule); unpaid > 0 {
		log.Warnf("tenor of %d years outlives the %d-year project: %.0f of debt is never repaid (set debt.cap_to_project_life for a balloon)",
			p.Debt.TenorYears, p.ProjectLifeYears, unpaid)
	}

	return result, nil
}

// unpaidAtProjectEnd returns the balance still outstanding after the last
// project year, which is zero unless an uncapped tenor outlives the project
func unpaidAtProjectEnd(p domain.Params, schedule []domain.AmortizationRow) float64 {
	if p.Debt.CapToProjectLife || len(schedule) <= p.ProjectLifeYears {
		return 0
	}
	return schedule[p.ProjectLifeYears-1].ClosingBalance
}

// BuildFinancialModel runs raw over the baseline defaults without logging
func BuildFinancialModel(raw map[string]any) (*domain.ModelResult, error) {
	return NewModelEngine().BuildFinancialModel(raw)
}
