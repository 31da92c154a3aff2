package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/config"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/output"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultOutDir = "outputs"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dbmodel %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// stamp is the UTC timestamp embedded in output file names
func stamp() string {
	return time.Now().UTC().Format("20060102-150405")
}

// exitOnError prints err and exits non-zero
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dbmodel",
	Short: "Project finance model CLI",
	Long: `Project finance model for a utility-scale power asset: debt sizing,
annual cash flows, equity and project IRR, NPV and lender coverage ratios,
with Monte Carlo, tornado, debt optimisation and scenario batch drivers.

Settings may also come from a .env file: DBMODEL_PARAMS (parameter file),
DBMODEL_OUTDIR (output directory) and PORT (API port).`,
}

// newEngine creates a model engine, logging to stderr when --debug is set
func newEngine(cmd *cobra.Command) *calculation.ModelEngine {
	engine := calculation.NewModelEngine()
	if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
		engine.SetLogger(simpleCLILogger{})
		engine.Debug = true
	}
	return engine
}

// paramsPath resolves --params, then DBMODEL_PARAMS. Empty means the
// built-in baseline.
func paramsPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("params"); p != "" {
		return p
	}
	return os.Getenv("DBMODEL_PARAMS")
}

// outDir resolves --outdir, then DBMODEL_OUTDIR, then the default
func outDir(cmd *cobra.Command) string {
	if cmd.Flags().Changed("outdir") {
		dir, _ := cmd.Flags().GetString("outdir")
		return dir
	}
	if dir := os.Getenv("DBMODEL_OUTDIR"); dir != "" {
		return dir
	}
	return defaultOutDir
}

// loadRaw reads and validates a parameter file into a raw mapping the
// drivers merge over the defaults. An empty path yields an empty mapping.
func loadRaw(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	parser := config.NewInputParser()
	raw, err := parser.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return parser.ValidateParams(raw, filepath.Base(path))
}

// writeOutput creates dir and writes data to dir/name, returning the path
func writeOutput(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

type baselineOptions struct {
	Params     string
	Format     string
	OutDir     string // empty writes no files
	SaveAnnual bool
}

// runBaseline runs the model once and prints it in opts.Format
func runBaseline(w io.Writer, engine *calculation.ModelEngine, opts baselineOptions) error {
	raw, err := loadRaw(opts.Params)
	if err != nil {
		return err
	}
	res, err := engine.BuildFinancialModel(raw)
	if err != nil {
		return err
	}

	f := output.GetFormatterByName(opts.Format)
	if f == nil {
		return fmt.Errorf("unknown format %q (available: %v)", opts.Format, output.AvailableFormatterNames())
	}
	data, err := f.Format(res)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	if opts.OutDir == "" {
		return nil
	}
	ts := stamp()
	full, err := output.JSONFormatter{}.Format(res)
	if err != nil {
		return err
	}
	path, err := writeOutput(opts.OutDir, "baseline_"+ts+".json", full)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, path)

	if opts.SaveAnnual {
		annual, err := os.Create(filepath.Join(opts.OutDir, "baseline_annual_"+ts+".csv"))
		if err != nil {
			return err
		}
		defer annual.Close()
		if err := output.WriteAnnualCSV(annual, res.Annual); err != nil {
			return err
		}
		fmt.Fprintln(w, annual.Name())
	}
	return nil
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Run the model once and print the result",
	Long: `Run the model for the parameter file (or the built-in baseline) and print
the result. With --outdir the full result is also written as JSON.

Examples:
  dbmodel baseline
  dbmodel baseline --params inputs/baseline.yaml --format markdown
  dbmodel baseline --outdir outputs --save-annual`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		saveAnnual, _ := cmd.Flags().GetBool("save-annual")
		opts := baselineOptions{Params: paramsPath(cmd), Format: format, SaveAnnual: saveAnnual}
		if cmd.Flags().Changed("outdir") || os.Getenv("DBMODEL_OUTDIR") != "" {
			opts.OutDir = outDir(cmd)
		}
		exitOnError(runBaseline(cmd.OutOrStdout(), newEngine(cmd), opts))
	},
}

// runValidate checks a parameter file and the parameters it produces
func runValidate(w io.Writer, path string) error {
	p, err := config.NewInputParser().LoadParams(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Parameter file %s is valid\n", path)
	fmt.Fprintf(w, "  capex %s, %d years, debt ratio %.0f%% (%s)\n",
		output.FormatMillions(p.TotalCapex), p.ProjectLifeYears, p.Debt.DebtRatio*100, describeDebt(p.Debt))
	return nil
}

func describeDebt(d domain.DebtTerms) string {
	if d.DebtRatio == 0 {
		return "all equity"
	}
	return fmt.Sprintf("%s, %d-year tenor, %d grace", d.Style, d.TenorYears, d.GraceYears)
}

var validateCmd = &cobra.Command{
	Use:   "validate [params-file]",
	Short: "Validate a parameter file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runValidate(cmd.OutOrStdout(), args[0]))
	},
}

func init() {
	rootCmd.PersistentFlags().String("params", "", "Parameter file (YAML, JSON or HJSON); default is the built-in baseline")
	rootCmd.PersistentFlags().String("outdir", defaultOutDir, "Output directory for result files")
	rootCmd.PersistentFlags().Bool("debug", false, "Log model internals to stderr")

	baselineCmd.Flags().StringP("format", "f", "console", "Output format (console, console-lite, csv, detailed-csv, json, markdown, html)")
	baselineCmd.Flags().Bool("save-annual", false, "Also write the annual table as CSV")

	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := godotenv.Load(); err != nil && fileExists(".env") {
		log.Printf("Warning: could not load .env: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
