package calculation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// DistributionKind names the shape of an uncertain input
type DistributionKind string

const (
	DistNormal     DistributionKind = "normal"
	DistTriangular DistributionKind = "triangular"
	DistUniform    DistributionKind = "uniform"
)

// Distribution describes how one input is drawn. Normal uses Mean and
// StdDev; triangular uses Low, Mode and High; uniform uses Low and High.
// When Min < Max the draw is clamped to [Min, Max].
type Distribution struct {
	Kind   DistributionKind `json:"kind" yaml:"kind"`
	Mean   float64          `json:"mean,omitempty" yaml:"mean,omitempty"`
	StdDev float64          `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`
	Low    float64          `json:"low,omitempty" yaml:"low,omitempty"`
	Mode   float64          `json:"mode,omitempty" yaml:"mode,omitempty"`
	High   float64          `json:"high,omitempty" yaml:"high,omitempty"`
	Min    float64          `json:"min,omitempty" yaml:"min,omitempty"`
	Max    float64          `json:"max,omitempty" yaml:"max,omitempty"`
}

// UncertainParameter binds a distribution to a model input
type UncertainParameter struct {
	Name         string       `json:"name" yaml:"name"`
	Distribution Distribution `json:"distribution" yaml:"distribution"`
}

// MonteCarloConfig holds the settings of one simulation run
type MonteCarloConfig struct {
	Trials       int
	Seed         uint64
	Workers      int     // defaults to runtime.NumCPU()
	CovenantDSCR float64 // breach threshold for min DSCR
	Variables    []UncertainParameter
}

// MonteCarloTrial is the outcome of one draw
type MonteCarloTrial struct {
	Trial      int                `json:"trial"`
	Inputs     map[string]float64 `json:"inputs"`
	EquityIRR  *float64           `json:"equity_irr"`
	ProjectIRR *float64           `json:"project_irr"`
	NPV        float64            `json:"npv"`
	MinDSCR    *float64           `json:"min_dscr"` // nil when no year carries debt service
	Err        string             `json:"error,omitempty"`
}

// Percentiles summarises a sample
type Percentiles struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P10   float64 `json:"p10"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	P90   float64 `json:"p90"`
}

// MonteCarloResult aggregates a simulation run
type MonteCarloResult struct {
	RunID            string            `json:"run_id"`
	Seed             uint64            `json:"seed"`
	NumTrials        int               `json:"num_trials"`
	Failed           int               `json:"failed"`
	CovenantDSCR     float64           `json:"covenant_dscr"`
	EquityIRR        Percentiles       `json:"equity_irr"`
	ProjectIRR       Percentiles       `json:"project_irr"`
	NPV              Percentiles       `json:"npv"`
	MinDSCR          Percentiles       `json:"min_dscr"`
	ProbDSCRBreach   float64           `json:"prob_dscr_breach"`
	ProbIRRUndefined float64           `json:"prob_irr_undefined"`
	Trials           []MonteCarloTrial `json:"trials"`
}

// MonteCarloEngine runs the model over randomised inputs
type MonteCarloEngine struct {
	model  *ModelEngine
	Logger Logger
}

// NewMonteCarloEngine creates a Monte Carlo engine on top of model
func NewMonteCarloEngine(model *ModelEngine) *MonteCarloEngine {
	if model == nil {
		model = NewModelEngine()
	}
	return &MonteCarloEngine{model: model, Logger: model.logger()}
}

// DefaultUncertainParameters returns the standard risk set around base:
// tariff, capacity factor, FX depreciation, capex and opex.
func DefaultUncertainParameters(base domain.Params) []UncertainParameter {
	return []UncertainParameter{
		{Name: "tariff_lkr_kwh", Distribution: Distribution{
			Kind: DistTriangular, Low: base.TariffLKRkWh * 0.9, Mode: base.TariffLKRkWh, High: base.TariffLKRkWh * 1.05,
		}},
		{Name: "cf_p50", Distribution: Distribution{
			Kind: DistNormal, Mean: base.CFP50, StdDev: 0.03, Min: 0.05, Max: 0.95,
		}},
		{Name: "fx_depr", Distribution: Distribution{
			Kind: DistNormal, Mean: base.FXDepr, StdDev: 0.015, Min: -0.10, Max: 0.25,
		}},
		{Name: "total_capex", Distribution: Distribution{
			Kind: DistTriangular, Low: base.TotalCapex * 0.95, Mode: base.TotalCapex, High: base.TotalCapex * 1.15,
		}},
		{Name: "opex_usd_mwh", Distribution: Distribution{
			Kind: DistTriangular, Low: base.OpexUSDMWh * 0.9, Mode: base.OpexUSDMWh, High: base.OpexUSDMWh * 1.2,
		}},
	}
}

// DefaultMonteCarloConfig returns n trials over the standard risk set
func DefaultMonteCarloConfig(base domain.Params, n int) MonteCarloConfig {
	return MonteCarloConfig{
		Trials:       n,
		Seed:         42,
		CovenantDSCR: 1.20,
		Variables:    DefaultUncertainParameters(base),
	}
}

// Draw samples d with rng
func (d Distribution) Draw(rng *rand.Rand) float64 {
	var v float64
	switch d.Kind {
	case DistNormal:
		v = d.Mean + d.StdDev*rng.NormFloat64()
	case DistUniform:
		v = d.Low + rng.Float64()*(d.High-d.Low)
	default:
		v = drawTriangular(rng.Float64(), d.Low, d.Mode, d.High)
	}
	if d.Min < d.Max {
		v = math.Min(math.Max(v, d.Min), d.Max)
	}
	return v
}

func drawTriangular(u, low, mode, high float64) float64 {
	span := high - low
	if span <= 0 {
		return mode
	}
	if u < (mode-low)/span {
		return low + math.Sqrt(u*span*(mode-low))
	}
	return high - math.Sqrt((1-u)*span*(high-mode))
}

// validate checks the config before any trial runs
func (cfg MonteCarloConfig) validate() error {
	if cfg.Trials < 1 {
		return fmt.Errorf("number of trials must be positive, got %d", cfg.Trials)
	}
	for _, v := range cfg.Variables {
		if _, ok := paramFields[v.Name]; !ok {
			return fmt.Errorf("unknown uncertain parameter %q", v.Name)
		}
		switch v.Distribution.Kind {
		case DistNormal, DistTriangular, DistUniform:
		default:
			return fmt.Errorf("parameter %q: unknown distribution %q", v.Name, v.Distribution.Kind)
		}
	}
	return nil
}

// Run executes cfg.Trials model runs over base. Trial i draws from its own
// PCG stream seeded with (cfg.Seed, i), so results do not depend on the
// number of workers.
func (mce *MonteCarloEngine) Run(ctx context.Context, base map[string]any, cfg MonteCarloConfig) (*MonteCarloResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	baseParams, err := DecodeParams(mce.model.Defaults, base)
	if err != nil {
		return nil, err
	}
	if err := baseParams.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base parameters: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, cfg.Trials)

	// per-trial warnings would drown the run summary
	trialEngine := &ModelEngine{Defaults: mce.model.Defaults, Logger: NopLogger{}}
	trials := make([]MonteCarloTrial, cfg.Trials)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				trials[i] = runTrial(trialEngine, baseParams, cfg, i)
			}
		}()
	}

	var cancelled error
feed:
	for i := 0; i < cfg.Trials; i++ {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if cancelled != nil {
		return nil, fmt.Errorf("monte carlo run cancelled: %w", cancelled)
	}

	result := summarizeTrials(trials, cfg)
	result.RunID = uuid.New().String()
	mce.logger().Infof("monte carlo %s: %d trials, %d failed, P50 equity IRR %.4f", result.RunID, result.NumTrials, result.Failed, result.EquityIRR.P50)
	return result, nil
}

func (mce *MonteCarloEngine) logger() Logger {
	if mce.Logger == nil {
		return NopLogger{}
	}
	return mce.Logger
}

func runTrial(engine *ModelEngine, base domain.Params, cfg MonteCarloConfig, i int) MonteCarloTrial {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
	p := base
	trial := MonteCarloTrial{Trial: i + 1, Inputs: make(map[string]float64, len(cfg.Variables))}
	for _, v := range cfg.Variables {
		x := v.Distribution.Draw(rng)
		trial.Inputs[v.Name] = x
		paramFields[v.Name].set(&p, x)
	}

	res, err := engine.Run(p)
	if err != nil {
		trial.Err = err.Error()
		return trial
	}
	trial.EquityIRR = res.EquityIRR
	trial.ProjectIRR = res.ProjectIRR
	trial.NPV = res.NPV
	if !math.IsInf(res.MinDSCR, 1) {
		trial.MinDSCR = domain.Float64Ptr(res.MinDSCR)
	}
	return trial
}

func summarizeTrials(trials []MonteCarloTrial, cfg MonteCarloConfig) *MonteCarloResult {
	result := &MonteCarloResult{
		Seed:         cfg.Seed,
		NumTrials:    len(trials),
		CovenantDSCR: cfg.CovenantDSCR,
		Trials:       trials,
	}

	var equity, project, npv, dscr []float64
	ok, breaches, undefined := 0, 0, 0
	for _, t := range trials {
		if t.Err != "" {
			result.Failed++
			continue
		}
		ok++
		npv = append(npv, t.NPV)
		if t.EquityIRR != nil {
			equity = append(equity, *t.EquityIRR)
		} else {
			undefined++
		}
		if t.ProjectIRR != nil {
			project = append(project, *t.ProjectIRR)
		}
		if t.MinDSCR != nil {
			dscr = append(dscr, *t.MinDSCR)
			if *t.MinDSCR < cfg.CovenantDSCR {
				breaches++
			}
		}
	}

	result.EquityIRR = calculatePercentiles(equity)
	result.ProjectIRR = calculatePercentiles(project)
	result.NPV = calculatePercentiles(npv)
	result.MinDSCR = calculatePercentiles(dscr)
	if ok > 0 {
		result.ProbDSCRBreach = float64(breaches) / float64(ok)
		result.ProbIRRUndefined = float64(undefined) / float64(ok)
	}
	return result
}

func calculatePercentiles(values []float64) Percentiles {
	if len(values) == 0 {
		return Percentiles{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return Percentiles{
		Count: len(sorted),
		Mean:  sum / float64(len(sorted)),
		P10:   getPercentile(sorted, 0.10),
		P25:   getPercentile(sorted, 0.25),
		P50:   getPercentile(sorted, 0.50),
		P75:   getPercentile(sorted, 0.75),
		P90:   getPercentile(sorted, 0.90),
	}
}

// getPercentile interpolates linearly between the closest ranks of a
// sorted sample.
func getPercentile(sorted []float64, percentile float64) float64 {
	index := percentile * float64(len(sorted)-1)
	lo := int(index)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	fraction := index - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*fraction
}
