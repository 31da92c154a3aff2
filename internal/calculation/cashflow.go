package calculation

import (
	"math"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// CashflowResult is the output of the annual cash-flow builder
type CashflowResult struct {
	Rows     []domain.AnnualRow
	Schedule []domain.AmortizationRow

	// ProjectCashflows and EquityCashflows start with the year-0 outlay
	ProjectCashflows []float64
	EquityCashflows  []float64

	EquityIRR  *float64
	ProjectIRR *float64
	NPV        float64
	MinDSCR    float64 // +Inf when no year has a defined DSCR
	AvgDSCR    float64 // +Inf when no year has a defined DSCR
	LLCR       *float64
	PLCR       *float64
}

// operatingYear holds the pre-financing lines of one year
type operatingYear struct {
	fx         float64
	production float64
	revenue    float64
	opex       float64
	sscl       float64
	ebit       float64
	taxOnEBIT  float64
	cfads      float64
}

func fxAt(p domain.Params, year int) float64 {
	return p.FXInitial * math.Pow(1+p.FXDepr, float64(year-1))
}

func productionMWh(p domain.Params, year int) float64 {
	cf := p.CFP50 * math.Pow(1-p.YearlyDegradation, float64(year-1))
	return p.NameplateMW * p.HoursPerYear * cf
}

// opexUSD splits the opex rate into a hard-currency part that escalates in
// USD and a local part that escalates in LKR and is divided by the year's FX.
// The local part takes the rate as-is, with no conversion at year-1 FX.
func opexUSD(p domain.Params, year int, production, fx float64) float64 {
	t := float64(year - 1)
	usdPart := p.OpexUSDMWh * p.OpexSplitUSD * math.Pow(1+p.OpexEscUSD, t)
	lkrPart := p.OpexUSDMWh * p.OpexSplitLKR * math.Pow(1+p.OpexEscLKR, t)
	return (usdPart + lkrPart/fx) * production
}

func revenueUSD(p domain.Params, production, fx float64) float64 {
	kwh := production * 1000
	return kwh * p.TariffLKRkWh / fx
}

func taxOn(base, rate float64) float64 {
	return max(base, 0) * rate
}

func operations(p domain.Params) []operatingYear {
	ops := make([]operatingYear, p.ProjectLifeYears)
	for i := range ops {
		y := i + 1
		fx := fxAt(p, y)
		prod := productionMWh(p, y)
		rev := revenueUSD(p, prod, fx)
		opex := opexUSD(p, y, prod, fx)
		sscl := p.SSCLRate * rev
		ebit := rev - opex - sscl
		tax := taxOn(ebit, p.TaxRate)
		ops[i] = operatingYear{
			fx:         fx,
			production: prod,
			revenue:    rev,
			opex:       opex,
			sscl:       sscl,
			ebit:       ebit,
			taxOnEBIT:  tax,
			cfads:      ebit - tax,
		}
	}
	return ops
}

// debtSchedule picks the amortization style. CFADS is computed before
// financing (tax on EBIT, not EBT), so a sculpted schedule does not feed
// back into the cash flow it is sculpted on and needs a single pass.
func debtSchedule(p domain.Params, principal float64, ops []operatingYear) ([]domain.AmortizationRow, error) {
	if p.Debt.Style == domain.AmortizationSculpted {
		cfads := make([]float64, len(ops))
		for i, op := range ops {
			cfads[i] = op.cfads
		}
		return SculptedSchedule(principal, p.Debt, cfads, p.ProjectLifeYears)
	}
	return AmortizationSchedule(principal, p.Debt, p.ProjectLifeYears)
}

// Build projects the annual cash flows of p and derives the return and
// coverage metrics.
func Build(p domain.Params) (*CashflowResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	debt := p.DebtAmount()
	equity := p.Equity()
	ops := operations(p)

	sched, err := debtSchedule(p, debt, ops)
	if err != nil {
		return nil, err
	}

	years := p.ProjectLifeYears
	res := &CashflowResult{
		Rows:             make([]domain.AnnualRow, 0, years),
		Schedule:         sched,
		ProjectCashflows: make([]float64, 0, years+1),
		EquityCashflows:  make([]float64, 0, years+1),
	}
	res.ProjectCashflows = append(res.ProjectCashflows, -p.TotalCapex)
	res.EquityCashflows = append(res.EquityCashflows, -equity)

	var dscrs []float64
	for i, op := range ops {
		y := i + 1
		var interest, principal float64
		if i < len(sched) {
			interest = sched[i].Interest
			principal = sched[i].Principal
		}
		service := interest + principal

		ebt := op.ebit - interest
		taxOnEBT := taxOn(ebt, p.TaxRate)
		equityFCF := op.ebit - interest - principal - taxOnEBT

		var dscr *float64
		if service > domain.DebtServiceEpsilon {
			v := op.cfads / service
			dscr = &v
			dscrs = append(dscrs, v)
		}

		res.Rows = append(res.Rows, domain.AnnualRow{
			Year:           y,
			FXRate:         op.fx,
			ProductionMWh:  op.production,
			RevenueUSD:     op.revenue,
			OpexUSD:        op.opex,
			SSCLUSD:        op.sscl,
			EBITUSD:        op.ebit,
			InterestUSD:    interest,
			PrincipalUSD:   principal,
			EBTUSD:         ebt,
			TaxUSD:         taxOnEBT,
			CFADSUSD:       op.cfads,
			EquityFCFUSD:   equityFCF,
			DebtServiceUSD: service,
			DSCR:           dscr,
		})

		res.ProjectCashflows = append(res.ProjectCashflows, op.ebit-op.taxOnEBIT-principal)
		res.EquityCashflows = append(res.EquityCashflows, equityFCF)
	}

	res.EquityIRR = IRR(res.EquityCashflows)
	res.ProjectIRR = IRR(res.ProjectCashflows)
	res.NPV, err = NPV(p.DiscountRate, res.ProjectCashflows)
	if err != nil {
		return nil, err
	}
	res.MinDSCR, res.AvgDSCR = aggregateDSCR(dscrs)
	res.LLCR, res.PLCR = coverageRatios(p, debt, ops, len(sched))

	return res, nil
}

// aggregateDSCR returns min and mean of the defined DSCR values, or +Inf
// for both when there are none.
func aggregateDSCR(values []float64) (float64, float64) {
	if len(values) == 0 {
		return math.Inf(1), math.Inf(1)
	}
	minV := math.Inf(1)
	sum := 0.0
	for _, v := range values {
		minV = min(minV, v)
		sum += v
	}
	return minV, sum / float64(len(values))
}

// coverageRatios computes the loan life and project life coverage ratios
// at financial close, discounting CFADS at the loan rate.
func coverageRatios(p domain.Params, debt float64, ops []operatingYear, loanYears int) (*float64, *float64) {
	if debt <= domain.DebtServiceEpsilon {
		return nil, nil
	}
	var loanPV, projectPV float64
	factor := 1.0
	for i, op := range ops {
		factor /= 1 + p.Debt.InterestRate
		pv := op.cfads * factor
		projectPV += pv
		if i < loanYears {
			loanPV += pv
		}
	}
	llcr := loanPV / debt
	plcr := projectPV / debt
	return &llcr, &plcr
}
