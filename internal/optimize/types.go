package optimize

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default grid specs, lo:hi:step inclusive
const (
	DefaultDebtRatioGrid = "0.50:0.90:0.05"
	DefaultTenorGrid     = "8:20:1"
	DefaultGraceGrid     = "0:3:1"
)

// Grid is the debt_ratio × tenor × grace search space
type Grid struct {
	DebtRatios []float64 `yaml:"debt_ratio" json:"debt_ratio"`
	Tenors     []int     `yaml:"tenor_years" json:"tenor_years"`
	Graces     []int     `yaml:"grace_years" json:"grace_years"`
}

// Size returns the number of grid points
func (g Grid) Size() int {
	return len(g.DebtRatios) * len(g.Tenors) * len(g.Graces)
}

// Validate checks that every dimension is non-empty and in range
func (g Grid) Validate() error {
	if g.Size() == 0 {
		return &OptimizeError{Operation: "validate_grid", Message: "every grid dimension needs at least one value"}
	}
	for _, r := range g.DebtRatios {
		if r < 0 || r > 1 {
			return &OptimizeError{Operation: "validate_grid", Message: fmt.Sprintf("debt ratio %v outside [0, 1]", r)}
		}
	}
	for _, t := range g.Tenors {
		if t < 1 {
			return &OptimizeError{Operation: "validate_grid", Message: fmt.Sprintf("tenor %d must be at least 1", t)}
		}
	}
	for _, gr := range g.Graces {
		if gr < 0 {
			return &OptimizeError{Operation: "validate_grid", Message: fmt.Sprintf("grace %d cannot be negative", gr)}
		}
	}
	return nil
}

// DefaultGrid returns the standard search space
func DefaultGrid() Grid {
	g, err := BuildGrid(DefaultDebtRatioGrid, DefaultTenorGrid, DefaultGraceGrid)
	if err != nil {
		panic(err)
	}
	return g
}

// BuildGrid parses the three dimension specs
func BuildGrid(ratios, tenors, graces string) (Grid, error) {
	dr, err := ParseGrid(ratios)
	if err != nil {
		return Grid{}, fmt.Errorf("debt ratio grid: %w", err)
	}
	tn, err := ParseIntGrid(tenors)
	if err != nil {
		return Grid{}, fmt.Errorf("tenor grid: %w", err)
	}
	gr, err := ParseIntGrid(graces)
	if err != nil {
		return Grid{}, fmt.Errorf("grace grid: %w", err)
	}
	return Grid{DebtRatios: dr, Tenors: tn, Graces: gr}, nil
}

// ParseGrid expands "lo:hi:step" into an inclusive list. A comma separated
// list or a single number is also accepted.
func ParseGrid(spec string) ([]float64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty grid")
	}
	if !strings.Contains(spec, ":") {
		var values []float64
		for _, part := range strings.Split(spec, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid grid value %q", part)
			}
			values = append(values, v)
		}
		return values, nil
	}

	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("grid %q must be lo:hi:step", spec)
	}
	var bounds [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid grid value %q", part)
		}
		bounds[i] = v
	}
	lo, hi, step := bounds[0], bounds[1], bounds[2]
	if step <= 0 {
		return nil, fmt.Errorf("grid step must be positive, got %v", step)
	}
	if hi < lo {
		return nil, fmt.Errorf("grid upper bound %v below lower bound %v", hi, lo)
	}

	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		// round away the accumulated binary error so 0.5+4*0.05 prints as 0.7
		values[i] = math.Round((lo+float64(i)*step)*1e10) / 1e10
	}
	return values, nil
}

// ParseIntGrid is ParseGrid for integer dimensions
func ParseIntGrid(spec string) ([]int, error) {
	values, err := ParseGrid(spec)
	if err != nil {
		return nil, err
	}
	ints := make([]int, len(values))
	for i, v := range values {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("grid value %v is not an integer", v)
		}
		ints[i] = int(v)
	}
	return ints, nil
}

// LoadGridFile reads a YAML grid:
//
//	debt_ratio: [0.6, 0.7, 0.8]
//	tenor_years: [10, 12, 15]
//	grace_years: [0, 1]
//
// Missing dimensions fall back to the default grid.
func LoadGridFile(path string) (Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Grid{}, fmt.Errorf("failed to read grid file %s: %w", path, err)
	}
	var g Grid
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Grid{}, fmt.Errorf("failed to parse grid file %s: %w", path, err)
	}
	def := DefaultGrid()
	if len(g.DebtRatios) == 0 {
		g.DebtRatios = def.DebtRatios
	}
	if len(g.Tenors) == 0 {
		g.Tenors = def.Tenors
	}
	if len(g.Graces) == 0 {
		g.Graces = def.Graces
	}
	return g, g.Validate()
}

// Point is one evaluated capital structure
type Point struct {
	DebtRatio  float64  `json:"debt_ratio"`
	TenorYears int      `json:"tenor_years"`
	GraceYears int      `json:"grace_years"`
	EquityIRR  *float64 `json:"equity_irr"`
	ProjectIRR *float64 `json:"project_irr"`
	NPV        float64  `json:"npv"`
	MinDSCR    *float64 `json:"min_dscr"` // nil when no year carries debt service
	AvgDSCR    *float64 `json:"avg_dscr"`
	Err        string   `json:"error,omitempty"`
}

// Feasible reports whether the point ran and has a defined equity IRR
func (p Point) Feasible() bool {
	return p.Err == "" && p.EquityIRR != nil
}

func (p Point) dscr() float64 {
	if p.MinDSCR == nil {
		return math.Inf(1)
	}
	return *p.MinDSCR
}

// Dominates reports whether p is at least as good as q in equity IRR and
// min DSCR, and strictly better in one of them. Infeasible points dominate
// nothing and are dominated by every feasible point.
func (p Point) Dominates(q Point) bool {
	if !p.Feasible() {
		return false
	}
	if !q.Feasible() {
		return true
	}
	pi, qi := *p.EquityIRR, *q.EquityIRR
	pd, qd := p.dscr(), q.dscr()
	return pi >= qi && pd >= qd && (pi > qi || pd > qd)
}

// ParetoResult holds a full grid evaluation
type ParetoResult struct {
	RunID         string  `json:"run_id"`
	GridCount     int     `json:"grid_count"`
	FrontierCount int     `json:"frontier_count"`
	Points        []Point `json:"points"`
	Frontier      []Point `json:"frontier"` // sorted by equity IRR ascending
}

// DebtSizingResult is the outcome of sizing debt against a DSCR target
type DebtSizingResult struct {
	Method          string   `json:"method"` // "bisection" or "sculpted"
	TargetDSCR      float64  `json:"target_dscr"`
	DebtRatio       float64  `json:"debt_ratio"`
	DebtAmount      float64  `json:"debt_amount"`
	MinDSCR         *float64 `json:"min_dscr"`
	EquityIRR       *float64 `json:"equity_irr"`
	Iterations      int      `json:"iterations"`
	Success         bool     `json:"success"`
	ConvergenceInfo string   `json:"convergence_info"`
}

// SolverOptions configures the bisection
type SolverOptions struct {
	MaxIterations int
	Tolerance     float64 // on debt ratio
	MaxDebtRatio  float64 // upper end of the search
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		MaxIterations: 60,
		Tolerance:     1e-5,
		MaxDebtRatio:  0.95,
	}
}

// OptimizeError represents errors from the capital structure solver
type OptimizeError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *OptimizeError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *OptimizeError) Unwrap() error {
	return e.Cause
}
