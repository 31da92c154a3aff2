package optimize

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/domain"
)

// Solver searches capital structures
type Solver struct {
	Model   *calculation.ModelEngine
	Options SolverOptions
	Logger  calculation.Logger
}

// NewSolver creates a new capital structure solver
func NewSolver(model *calculation.ModelEngine, options SolverOptions) *Solver {
	if model == nil {
		model = calculation.NewModelEngine()
	}
	return &Solver{
		Model:   model,
		Options: options,
		Logger:  calculation.NopLogger{},
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(model *calculation.ModelEngine) *Solver {
	return NewSolver(model, DefaultSolverOptions())
}

func (s *Solver) logger() calculation.Logger {
	if s.Logger == nil {
		return calculation.NopLogger{}
	}
	return s.Logger
}

// Pareto evaluates every grid point over base and returns the points on
// the equity IRR / min DSCR frontier. Grid points whose terms are invalid
// (grace not shorter than tenor) are reported with an error and never
// reach the frontier.
func (s *Solver) Pareto(ctx context.Context, base map[string]any, grid Grid) (*ParetoResult, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	baseParams, err := calculation.DecodeParams(s.Model.Defaults, base)
	if err != nil {
		return nil, &OptimizeError{Operation: "pareto", Message: "invalid base parameters", Cause: err}
	}

	points := make([]Point, 0, grid.Size())
	for _, ratio := range grid.DebtRatios {
		for _, tenor := range grid.Tenors {
			for _, grace := range grid.Graces {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				default:
				}

				p := baseParams
				p.Debt.DebtRatio = ratio
				p.Debt.TenorYears = tenor
				p.Debt.GraceYears = grace
				points = append(points, s.evaluate(p))
			}
		}
	}

	frontier := paretoFrontier(points)
	result := &ParetoResult{
		RunID:         uuid.New().String(),
		GridCount:     len(points),
		FrontierCount: len(frontier),
		Points:        points,
		Frontier:      frontier,
	}
	s.logger().Infof("pareto %s: %d frontier points of %d", result.RunID, result.FrontierCount, result.GridCount)
	return result, nil
}

func (s *Solver) evaluate(p domain.Params) Point {
	pt := Point{
		DebtRatio:  p.Debt.DebtRatio,
		TenorYears: p.Debt.TenorYears,
		GraceYears: p.Debt.GraceYears,
	}
	res, err := s.Model.Run(p)
	if err != nil {
		pt.Err = err.Error()
		return pt
	}
	pt.EquityIRR = res.EquityIRR
	pt.ProjectIRR = res.ProjectIRR
	pt.NPV = res.NPV
	if res.HasDebtService() {
		pt.MinDSCR = domain.Float64Ptr(res.MinDSCR)
		pt.AvgDSCR = domain.Float64Ptr(res.AvgDSCR)
	}
	return pt
}

// paretoFrontier returns the feasible points no other point dominates
func paretoFrontier(points []Point) []Point {
	var frontier []Point
	for i, p := range points {
		if !p.Feasible() {
			continue
		}
		dominated := false
		for j, q := range points {
			if i != j && q.Dominates(p) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, p)
		}
	}
	sort.SliceStable(frontier, func(i, j int) bool {
		return *frontier[i].EquityIRR < *frontier[j].EquityIRR
	})
	return frontier
}

// MaxDebtForDSCR finds the largest debt ratio whose minimum DSCR stays at
// or above target, by binary search over [0, Options.MaxDebtRatio]. Tenor,
// grace and amortization style are taken from base.
func (s *Solver) MaxDebtForDSCR(ctx context.Context, base map[string]any, target float64) (*DebtSizingResult, error) {
	if !(target > 0) {
		return nil, &OptimizeError{Operation: "max_debt_for_dscr", Message: fmt.Sprintf("target DSCR must be positive, got %v", target)}
	}
	baseParams, err := calculation.DecodeParams(s.Model.Defaults, base)
	if err != nil {
		return nil, &OptimizeError{Operation: "max_debt_for_dscr", Message: "invalid base parameters", Cause: err}
	}

	run := func(ratio float64) (*domain.ModelResult, error) {
		p := baseParams
		p.Debt.DebtRatio = ratio
		res, err := s.Model.Run(p)
		if err != nil {
			return nil, &OptimizeError{Operation: "max_debt_for_dscr", Message: fmt.Sprintf("failed to run model at debt ratio %.4f", ratio), Cause: err}
		}
		return res, nil
	}
	meets := func(res *domain.ModelResult) bool {
		return res.MinDSCR >= target
	}

	lo, hi := 0.0, s.Options.MaxDebtRatio
	best, err := run(lo)
	if err != nil {
		return nil, err
	}
	bestRatio := lo

	top, err := run(hi)
	if err != nil {
		return nil, err
	}
	if meets(top) {
		return sizingResult("bisection", target, hi, baseParams.TotalCapex, top, 1,
			fmt.Sprintf("Upper bound %.2f already meets the target", hi)), nil
	}

	iterations := 0
	for iterations < s.Options.MaxIterations {
		iterations++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mid := (lo + hi) / 2
		res, err := run(mid)
		if err != nil {
			return nil, err
		}
		if meets(res) {
			lo, best, bestRatio = mid, res, mid
		} else {
			hi = mid
		}

		if hi-lo < s.Options.Tolerance {
			return sizingResult("bisection", target, bestRatio, baseParams.TotalCapex, best, iterations,
				"Binary search converged"), nil
		}
	}

	r := sizingResult("bisection", target, bestRatio, baseParams.TotalCapex, best, iterations,
		fmt.Sprintf("Max iterations (%d) reached", s.Options.MaxIterations))
	r.Success = false
	return r, nil
}

// SculptedCapacity sizes debt so that a sculpted repayment profile holds
// DSCR exactly at target. The result is capped at the solver's maximum
// debt ratio.
func (s *Solver) SculptedCapacity(base map[string]any, target float64) (*DebtSizingResult, error) {
	if !(target > 0) {
		return nil, &OptimizeError{Operation: "sculpted_capacity", Message: fmt.Sprintf("target DSCR must be positive, got %v", target)}
	}
	p, err := calculation.DecodeParams(s.Model.Defaults, base)
	if err != nil {
		return nil, &OptimizeError{Operation: "sculpted_capacity", Message: "invalid base parameters", Cause: err}
	}
	p.Debt.Style = domain.AmortizationSculpted
	p.Debt.TargetDSCR = target

	// CFADS does not depend on financing, so any ratio gives the same series
	unlevered := p
	unlevered.Debt.DebtRatio = 0
	cf, err := calculation.Build(unlevered)
	if err != nil {
		return nil, &OptimizeError{Operation: "sculpted_capacity", Message: "failed to build cash flows", Cause: err}
	}
	cfads := make([]float64, len(cf.Rows))
	for i, row := range cf.Rows {
		cfads[i] = row.CFADSUSD
	}

	capacity := calculation.SculptedDebtCapacity(p.Debt, cfads, p.ProjectLifeYears)
	ratio := 0.0
	if p.TotalCapex > 0 {
		ratio = math.Min(capacity/p.TotalCapex, s.Options.MaxDebtRatio)
	}
	p.Debt.DebtRatio = ratio
	res, err := s.Model.Run(p)
	if err != nil {
		return nil, &OptimizeError{Operation: "sculpted_capacity", Message: "failed to run model at capacity", Cause: err}
	}
	return sizingResult("sculpted", target, ratio, p.TotalCapex, res, 1, "Closed form"), nil
}

func sizingResult(method string, target, ratio, capex float64, res *domain.ModelResult, iterations int, info string) *DebtSizingResult {
	r := &DebtSizingResult{
		Method:          method,
		TargetDSCR:      target,
		DebtRatio:       ratio,
		DebtAmount:      ratio * capex,
		EquityIRR:       res.EquityIRR,
		Iterations:      iterations,
		Success:         true,
		ConvergenceInfo: info,
	}
	if res.HasDebtService() {
		r.MinDSCR = domain.Float64Ptr(res.MinDSCR)
	}
	return r
}
