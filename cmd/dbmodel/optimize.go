package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/optimize"
)

type optimizeOptions struct {
	Params     string
	Pareto     bool
	GridDR     string
	GridTenor  string
	GridGrace  string
	GridFile   string // overrides the three grid specs
	TargetDSCR float64
	Method     string // bisection or sculpted
	OutDir     string // empty writes no frontier file
}

func (o optimizeOptions) grid() (optimize.Grid, error) {
	if o.GridFile != "" {
		return optimize.LoadGridFile(o.GridFile)
	}
	return optimize.BuildGrid(o.GridDR, o.GridTenor, o.GridGrace)
}

// runOptimize either sizes debt against a DSCR target or evaluates a grid of
// debt structures and prints its Pareto frontier
func runOptimize(ctx context.Context, w io.Writer, engine *calculation.ModelEngine, opts optimizeOptions) error {
	raw, err := loadRaw(opts.Params)
	if err != nil {
		return err
	}
	solver := optimize.NewDefaultSolver(engine)
	formatter := &optimize.TableFormatter{}

	if !opts.Pareto {
		var sizing *optimize.DebtSizingResult
		switch opts.Method {
		case "", "bisection":
			sizing, err = solver.MaxDebtForDSCR(ctx, raw, opts.TargetDSCR)
		case "sculpted":
			sizing, err = solver.SculptedCapacity(raw, opts.TargetDSCR)
		default:
			return fmt.Errorf("unknown sizing method %q (use bisection or sculpted)", opts.Method)
		}
		if err != nil {
			return err
		}
		fmt.Fprint(w, formatter.FormatSizing(sizing))
		return nil
	}

	grid, err := opts.grid()
	if err != nil {
		return err
	}
	result, err := solver.Pareto(ctx, raw, grid)
	if err != nil {
		return err
	}
	fmt.Fprint(w, formatter.FormatPareto(result))

	if opts.OutDir != "" {
		var buf bytes.Buffer
		if err := optimize.WriteParetoCSV(&buf, result); err != nil {
			return err
		}
		path, err := writeOutput(opts.OutDir, "pareto_"+stamp()+".csv", buf.Bytes())
		if err != nil {
			return err
		}
		fmt.Fprintln(w, path)
	}
	return nil
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Size debt or search debt structures",
	Long: `Without --pareto, find the largest debt ratio whose minimum DSCR still
meets --target-dscr (bisection), or the debt that sculpted repayments at that
DSCR can carry (--method sculpted).

With --pareto, evaluate every combination of debt ratio, tenor and grace in
the grid and print the structures no other structure beats on both equity IRR
and minimum DSCR. Grid specs are start:stop:step or comma lists. The full grid
is written to <outdir>/pareto_<timestamp>.csv.

Examples:
  dbmodel optimize --target-dscr 1.35
  dbmodel optimize --target-dscr 1.30 --method sculpted
  dbmodel optimize --pareto
  dbmodel optimize --pareto --grid-dr 0.6:0.8:0.1 --grid-tenor 10,12,15 --grid-grace 0,1
  dbmodel optimize --pareto --grid-file inputs/grid.yaml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		pareto, _ := cmd.Flags().GetBool("pareto")
		gridDR, _ := cmd.Flags().GetString("grid-dr")
		gridTenor, _ := cmd.Flags().GetString("grid-tenor")
		gridGrace, _ := cmd.Flags().GetString("grid-grace")
		gridFile, _ := cmd.Flags().GetString("grid-file")
		target, _ := cmd.Flags().GetFloat64("target-dscr")
		method, _ := cmd.Flags().GetString("method")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		exitOnError(runOptimize(ctx, cmd.OutOrStdout(), newEngine(cmd), optimizeOptions{
			Params:     paramsPath(cmd),
			Pareto:     pareto,
			GridDR:     gridDR,
			GridTenor:  gridTenor,
			GridGrace:  gridGrace,
			GridFile:   gridFile,
			TargetDSCR: target,
			Method:     method,
			OutDir:     outDir(cmd),
		}))
	},
}

func init() {
	optimizeCmd.Flags().Bool("pareto", false, "Evaluate a debt structure grid and print the Pareto frontier")
	optimizeCmd.Flags().String("grid-dr", optimize.DefaultDebtRatioGrid, "Debt ratio grid")
	optimizeCmd.Flags().String("grid-tenor", optimize.DefaultTenorGrid, "Tenor grid in years")
	optimizeCmd.Flags().String("grid-grace", optimize.DefaultGraceGrid, "Grace grid in years")
	optimizeCmd.Flags().String("grid-file", "", "YAML or JSON file with debt_ratio, tenor_years and grace_years grids")
	optimizeCmd.Flags().Float64("target-dscr", 1.30, "Minimum DSCR the sized debt must meet")
	optimizeCmd.Flags().String("method", "bisection", "Sizing method (bisection, sculpted)")

	rootCmd.AddCommand(optimizeCmd)
}
