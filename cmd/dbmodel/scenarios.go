package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/scenario"
	"github.com/dutchbay/dbmodel/internal/transform"
)

// Default scenario sources, tried in order
var (
	defaultMatrixFile  = filepath.Join("inputs", "scenario_matrix.yaml")
	defaultScenarioDir = filepath.Join("inputs", "scenarios")
)

// withParamsDefaults returns engine with its defaults replaced by the
// parameter file at path, so overrides apply on top of it
func withParamsDefaults(engine *calculation.ModelEngine, path string) (*calculation.ModelEngine, error) {
	if path == "" {
		return engine, nil
	}
	raw, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	p, err := calculation.DecodeParams(engine.Defaults, raw)
	if err != nil {
		return nil, err
	}
	engine.Defaults = p
	return engine, nil
}

type scenariosOptions struct {
	Params     string // base the scenario overrides apply to
	Matrix     string
	Dir        string
	Format     string // csv, jsonl or both
	SaveAnnual bool
	OutDir     string
	Logger     calculation.Logger
}

// source picks the matrix or directory to run. An explicit flag wins, then
// the default matrix if it exists, then the default directory.
func (o scenariosOptions) source() (matrix, dir string) {
	switch {
	case o.Matrix != "":
		return o.Matrix, ""
	case o.Dir != "":
		return "", o.Dir
	case fileExists(defaultMatrixFile):
		return defaultMatrixFile, ""
	}
	return "", defaultScenarioDir
}

// runScenarios runs a scenario matrix or directory and prints one line per
// scenario followed by the files written
func runScenarios(ctx context.Context, w io.Writer, engine *calculation.ModelEngine, opts scenariosOptions) (*scenario.Batch, error) {
	engine, err := withParamsDefaults(engine, opts.Params)
	if err != nil {
		return nil, err
	}
	runner := scenario.NewRunner(engine)
	if opts.Logger != nil {
		runner.Logger = opts.Logger
	}
	runOpts := scenario.Options{OutDir: opts.OutDir, Format: opts.Format, SaveAnnual: opts.SaveAnnual}

	var batch *scenario.Batch
	matrix, dir := opts.source()
	if matrix != "" {
		batch, err = runner.RunMatrix(ctx, matrix, runOpts)
	} else {
		batch, err = runner.RunDir(ctx, dir, runOpts)
	}
	if err != nil {
		return nil, err
	}

	if len(batch.Rows) == 0 {
		fmt.Fprintln(w, "No scenarios found")
		return batch, nil
	}
	fmt.Fprintf(w, "%-28s %12s %12s %14s %10s\n", "Scenario", "Equity IRR", "Project IRR", "NPV", "Min DSCR")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, row := range batch.Rows {
		s := row.Summary
		dscr := "n/a"
		if s.DSCRDefined() {
			dscr = fmt.Sprintf("%.2fx", s.MinDSCR)
		}
		fmt.Fprintf(w, "%-28s %12s %12s %14.0f %10s\n",
			truncate(row.Scenario, 28), pct(s.EquityIRR), pct(s.ProjectIRR), s.NPV, dscr)
	}
	for _, f := range batch.Files {
		fmt.Fprintln(w, f)
	}
	return batch, nil
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Run a batch of scenarios",
	Long: `Run every scenario of a matrix file (scenarios: [{name, params}]) or every
*.yaml file of a directory. Each scenario overrides the parameter file (or the
built-in baseline). Without --matrix or --dir, inputs/scenario_matrix.yaml is
used if present, else inputs/scenarios.

Per-scenario summaries and the combined results are written to --outdir.

Examples:
  dbmodel scenarios
  dbmodel scenarios --matrix inputs/lenders.yaml --format csv
  dbmodel scenarios --dir inputs/scenarios --save-annual`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		matrix, _ := cmd.Flags().GetString("matrix")
		dir, _ := cmd.Flags().GetString("dir")
		format, _ := cmd.Flags().GetString("format")
		saveAnnual, _ := cmd.Flags().GetBool("save-annual")

		opts := scenariosOptions{
			Params:     paramsPath(cmd),
			Matrix:     matrix,
			Dir:        dir,
			Format:     format,
			SaveAnnual: saveAnnual,
			OutDir:     outDir(cmd),
		}
		if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
			opts.Logger = simpleCLILogger{}
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err := runScenarios(ctx, cmd.OutOrStdout(), newEngine(cmd), opts)
		exitOnError(err)
	},
}

type compareOptions struct {
	Params     string
	Templates  []string
	Transforms []string
	Format     string // table, compact, csv or json
	Covenant   float64
}

// runCompare runs the base case against each template and transform
func runCompare(ctx context.Context, w io.Writer, engine *calculation.ModelEngine, opts compareOptions) (*compare.ComparisonSet, error) {
	if len(opts.Templates) == 0 && len(opts.Transforms) == 0 {
		return nil, fmt.Errorf("nothing to compare: pass --with and/or --transform (see --list-templates)")
	}
	raw, err := loadRaw(opts.Params)
	if err != nil {
		return nil, err
	}

	set, err := compare.NewCompareEngine(engine).Compare(ctx, raw, compare.CompareOptions{
		BaseScenarioName: "base",
		Templates:        opts.Templates,
		Transforms:       opts.Transforms,
		CovenantDSCR:     opts.Covenant,
	})
	if err != nil {
		return nil, err
	}
	set.ConfigPath = opts.Params

	var text string
	switch strings.ToLower(opts.Format) {
	case "", "table":
		text = (&compare.TableFormatter{}).Format(set)
	case "compact":
		text = (&compare.TableFormatter{}).FormatCompact(set)
	case "csv":
		text, err = (&compare.CSVFormatter{}).Format(set)
	case "json":
		text, err = (&compare.JSONFormatter{Pretty: true}).Format(set)
		text += "\n"
	default:
		return nil, fmt.Errorf("unknown format %q (use table, compact, csv or json)", opts.Format)
	}
	if err != nil {
		return nil, err
	}
	fmt.Fprint(w, text)
	return set, nil
}

func listTemplates(w io.Writer) {
	registry := transform.CreateBuiltInTemplates()
	fmt.Fprintln(w, "Built-in templates:")
	for _, name := range registry.List() {
		t, _ := registry.Get(name)
		fmt.Fprintf(w, "  %-20s %s\n", name, t.Description)
	}
	fmt.Fprintln(w, "\nTransforms (--transform name:key=value,...):")
	for _, name := range transform.NewTransformRegistry().List() {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the base case against stress cases and debt structures",
	Long: `Run the base case, then one alternative per built-in template (--with) or
ad hoc transform (--transform), and show the change in equity IRR, NPV and
minimum DSCR against the base.

Examples:
  dbmodel compare --list-templates
  dbmodel compare --with tariff_down_10,p90_yield,fx_stress
  dbmodel compare --with sculpted --transform scale:param=opex_usd_mwh,factor=1.1
  dbmodel compare --with combined_downside --covenant 1.25 --format csv`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if list, _ := cmd.Flags().GetBool("list-templates"); list {
			listTemplates(cmd.OutOrStdout())
			return
		}
		templates, _ := cmd.Flags().GetStringSlice("with")
		transforms, _ := cmd.Flags().GetStringArray("transform")
		format, _ := cmd.Flags().GetString("format")
		covenant, _ := cmd.Flags().GetFloat64("covenant")

		_, err := runCompare(cmd.Context(), cmd.OutOrStdout(), newEngine(cmd), compareOptions{
			Params:     paramsPath(cmd),
			Templates:  templates,
			Transforms: transforms,
			Format:     format,
			Covenant:   covenant,
		})
		exitOnError(err)
	},
}

func init() {
	scenariosCmd.Flags().String("matrix", "", "Scenario matrix file")
	scenariosCmd.Flags().String("dir", "", "Directory of scenario YAML files")
	scenariosCmd.Flags().String("format", scenario.FormatBoth, "Batch result format (csv, jsonl, both)")
	scenariosCmd.Flags().Bool("save-annual", false, "Also write each scenario's annual table")

	compareCmd.Flags().StringSlice("with", nil, "Templates to compare, comma separated")
	compareCmd.Flags().StringArray("transform", nil, "Ad hoc transform spec, repeatable")
	compareCmd.Flags().Bool("list-templates", false, "List templates and transforms, then exit")
	compareCmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	compareCmd.Flags().Float64("covenant", compare.DefaultCovenantDSCR, "Lock-up DSCR used to flag breaches")

	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(compareCmd)
}
