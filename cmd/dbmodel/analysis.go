package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/output"
	"github.com/dutchbay/dbmodel/internal/report"
)

type monteCarloOptions struct {
	Params   string
	Trials   int
	Seed     uint64
	Workers  int
	Covenant float64
	Format   string
	OutDir   string // empty writes no trial file
}

// runMonteCarlo simulates opts.Trials draws around the parameters
func runMonteCarlo(ctx context.Context, w io.Writer, engine *calculation.ModelEngine, opts monteCarloOptions) (*calculation.MonteCarloResult, error) {
	raw, err := loadRaw(opts.Params)
	if err != nil {
		return nil, err
	}
	base, err := calculation.DecodeParams(engine.Defaults, raw)
	if err != nil {
		return nil, err
	}

	cfg := calculation.DefaultMonteCarloConfig(base, opts.Trials)
	cfg.Seed = opts.Seed
	cfg.Workers = opts.Workers
	if opts.Covenant > 0 {
		cfg.CovenantDSCR = opts.Covenant
	}

	mc := calculation.NewMonteCarloEngine(engine)
	result, err := mc.Run(ctx, raw, cfg)
	if err != nil {
		return nil, fmt.Errorf("monte carlo failed: %w", err)
	}

	text, err := output.NewMonteCarloFormatter(opts.Format).FormatMonteCarlo(result)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(w, text)

	if opts.OutDir != "" {
		trials, err := output.MonteCarloCSVFormatter{}.FormatMonteCarlo(result)
		if err != nil {
			return nil, err
		}
		path, err := writeOutput(opts.OutDir, "mc_"+stamp()+".csv", []byte(trials))
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(w, path)
	}
	return result, nil
}

var monteCarloCmd = &cobra.Command{
	Use:     "montecarlo",
	Aliases: []string{"monte-carlo", "mc"},
	Short:   "Simulate tariff, yield, FX, capex and opex risk",
	Long: `Run N seeded trials over the standard risk set and report percentiles of
equity IRR, project IRR, NPV and minimum DSCR, plus the probability of a
covenant breach. Trial rows are written to <outdir>/mc_<timestamp>.csv.

Examples:
  dbmodel montecarlo --n 1000
  dbmodel montecarlo --n 5000 --seed 7 --covenant 1.25 --format json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		n, _ := cmd.Flags().GetInt("n")
		seed, _ := cmd.Flags().GetUint64("seed")
		workers, _ := cmd.Flags().GetInt("workers")
		covenant, _ := cmd.Flags().GetFloat64("covenant")
		format, _ := cmd.Flags().GetString("format")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err := runMonteCarlo(ctx, cmd.OutOrStdout(), newEngine(cmd), monteCarloOptions{
			Params:   paramsPath(cmd),
			Trials:   n,
			Seed:     seed,
			Workers:  workers,
			Covenant: covenant,
			Format:   format,
			OutDir:   outDir(cmd),
		})
		exitOnError(err)
	},
}

type sensitivityOptions struct {
	Params string
	Metric string
	Sort   string
	Swing  float64 // relative swing, 0 for the default
	Sweep  string  // name:low-high:steps runs a sweep instead of a tornado
	Format string
	Charts bool   // tornado chart as text, plus an SVG file when OutDir is set
	OutDir string // empty writes no file
}

// parseSweepSpec parses "name:low-high:steps"
func parseSweepSpec(spec string) (calculation.SensitivityParameter, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return calculation.SensitivityParameter{}, fmt.Errorf("invalid sweep %q, expected name:low-high:steps", spec)
	}
	bounds := strings.SplitN(parts[1], "-", 2)
	if len(bounds) != 2 {
		return calculation.SensitivityParameter{}, fmt.Errorf("invalid sweep range %q, expected low-high", parts[1])
	}
	low, err := strconv.ParseFloat(bounds[0], 64)
	if err != nil {
		return calculation.SensitivityParameter{}, fmt.Errorf("invalid sweep low value: %w", err)
	}
	high, err := strconv.ParseFloat(bounds[1], 64)
	if err != nil {
		return calculation.SensitivityParameter{}, fmt.Errorf("invalid sweep high value: %w", err)
	}
	steps, err := strconv.Atoi(parts[2])
	if err != nil || steps < 2 {
		return calculation.SensitivityParameter{}, fmt.Errorf("invalid sweep steps %q, need an integer >= 2", parts[2])
	}
	return calculation.SensitivityParameter{Name: parts[0], Low: low, High: high, Steps: steps}, nil
}

// runSensitivity swings each default tornado input and ranks the effect,
// or sweeps one input across a grid when opts.Sweep is set
func runSensitivity(w io.Writer, engine *calculation.ModelEngine, opts sensitivityOptions) error {
	if opts.Sweep != "" {
		return runSweep(w, engine, opts)
	}

	metric, err := calculation.ParseTornadoMetric(opts.Metric)
	if err != nil {
		return err
	}
	order, err := calculation.ParseTornadoSort(opts.Sort)
	if err != nil {
		return err
	}
	raw, err := loadRaw(opts.Params)
	if err != nil {
		return err
	}

	params := calculation.DefaultTornadoParameters()
	if opts.Swing > 0 {
		for i := range params {
			params[i].RelativeSwing = opts.Swing
		}
	}

	tornado, err := calculation.NewSensitivityAnalyzer(engine).Tornado(raw, params, metric, order)
	if err != nil {
		return fmt.Errorf("sensitivity analysis failed: %w", err)
	}

	text, err := output.NewSensitivityFormatter(opts.Format).FormatSensitivityAnalysis(tornado)
	if err != nil {
		return err
	}
	fmt.Fprint(w, text)

	chart := report.TornadoChart(tornado)
	if opts.Charts {
		fmt.Fprintln(w)
		fmt.Fprint(w, chart.Text())
	}

	if opts.OutDir != "" {
		ts := stamp()
		csvText, err := output.SensitivityCSVFormatter{}.FormatSensitivityAnalysis(tornado)
		if err != nil {
			return err
		}
		path, err := writeOutput(opts.OutDir, fmt.Sprintf("tornado_%s_%s.csv", metric, ts), []byte(csvText))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, path)

		if opts.Charts {
			path, err := writeOutput(opts.OutDir, fmt.Sprintf("tornado_%s_%s.svg", metric, ts), []byte(chart.SVG()))
			if err != nil {
				return err
			}
			fmt.Fprintln(w, path)
		}
	}
	return nil
}

func runSweep(w io.Writer, engine *calculation.ModelEngine, opts sensitivityOptions) error {
	param, err := parseSweepSpec(opts.Sweep)
	if err != nil {
		return err
	}
	raw, err := loadRaw(opts.Params)
	if err != nil {
		return err
	}
	sweep, err := calculation.NewSensitivityAnalyzer(engine).Sweep(raw, param)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	text, err := output.NewSensitivityFormatter(opts.Format).FormatSensitivityAnalysis(sweep)
	if err != nil {
		return err
	}
	fmt.Fprint(w, text)
	return nil
}

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity",
	Short: "Tornado analysis of the key inputs",
	Long: `Move each key input to its low and high value and rank the swing in the
chosen metric.

Examples:
  dbmodel sensitivity
  dbmodel sensitivity --tornado-metric dscr --tornado-sort desc
  dbmodel sensitivity --swing 0.2 --format csv
  dbmodel sensitivity --charts
  dbmodel sensitivity --sweep tariff_lkr_kwh:15-25:6`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		metric, _ := cmd.Flags().GetString("tornado-metric")
		order, _ := cmd.Flags().GetString("tornado-sort")
		swing, _ := cmd.Flags().GetFloat64("swing")
		sweep, _ := cmd.Flags().GetString("sweep")
		format, _ := cmd.Flags().GetString("format")
		charts, _ := cmd.Flags().GetBool("charts")

		exitOnError(runSensitivity(cmd.OutOrStdout(), newEngine(cmd), sensitivityOptions{
			Params: paramsPath(cmd),
			Metric: metric,
			Sort:   order,
			Swing:  swing,
			Sweep:  sweep,
			Format: format,
			Charts: charts,
			OutDir: outDir(cmd),
		}))
	},
}

func init() {
	monteCarloCmd.Flags().Int("n", 1000, "Number of trials")
	monteCarloCmd.Flags().Uint64("seed", 42, "Random seed")
	monteCarloCmd.Flags().Int("workers", 0, "Parallel workers (0 uses every CPU)")
	monteCarloCmd.Flags().Float64("covenant", 1.20, "Lock-up DSCR for the breach probability")
	monteCarloCmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv)")

	sensitivityCmd.Flags().String("tornado-metric", "irr", "Metric to measure (irr, npv, dscr)")
	sensitivityCmd.Flags().String("tornado-sort", "abs", "Bar order (abs, asc, desc)")
	sensitivityCmd.Flags().Float64("swing", 0, "Relative swing for every input (default 0.10)")
	sensitivityCmd.Flags().String("sweep", "", "Sweep one input instead, as name:low-high:steps")
	sensitivityCmd.Flags().StringP("format", "f", "console", "Output format (console, csv, json)")
	sensitivityCmd.Flags().Bool("charts", false, "Also draw the tornado chart (SVG file in --outdir)")

	rootCmd.AddCommand(monteCarloCmd)
	rootCmd.AddCommand(sensitivityCmd)
}
