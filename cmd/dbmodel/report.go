package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dutchbay/dbmodel/internal/api"
	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/report"
)

type reportOptions struct {
	Params    string
	Title     string
	Stem      string // file name stem; empty derives one from the run ID
	Trials    int    // 0 skips the Monte Carlo section
	Tornado   bool
	Templates []string
	Charts    bool
	PDF       bool
	OutDir    string
}

// runReport builds the lender report and writes Markdown, HTML and,
// when requested and Chromium is available, PDF
func runReport(ctx context.Context, w io.Writer, engine *calculation.ModelEngine, opts reportOptions) (report.Files, error) {
	raw, err := loadRaw(opts.Params)
	if err != nil {
		return report.Files{}, err
	}
	res, err := engine.BuildFinancialModel(raw)
	if err != nil {
		return report.Files{}, err
	}
	b := report.NewBuilder(opts.Title, res)
	if opts.Charts {
		b.WithCharts()
	}

	if opts.Trials > 0 {
		cfg := calculation.DefaultMonteCarloConfig(res.Params, opts.Trials)
		mc, err := calculation.NewMonteCarloEngine(engine).Run(ctx, raw, cfg)
		if err != nil {
			return report.Files{}, fmt.Errorf("monte carlo failed: %w", err)
		}
		b.WithMonteCarlo(mc)
	}
	if opts.Tornado {
		tornado, err := calculation.NewSensitivityAnalyzer(engine).Tornado(
			raw, calculation.DefaultTornadoParameters(), domain.MetricIRR, domain.SortAbs)
		if err != nil {
			return report.Files{}, fmt.Errorf("sensitivity analysis failed: %w", err)
		}
		b.WithTornado(tornado)
	}
	if len(opts.Templates) > 0 {
		set, err := compare.NewCompareEngine(engine).Compare(ctx, raw, compare.CompareOptions{Templates: opts.Templates})
		if err != nil {
			return report.Files{}, err
		}
		b.WithComparison(set)
	}

	var pdf *report.PDFRenderer
	if opts.PDF {
		pdf = report.NewPDFRenderer()
		if !pdf.Available() {
			fmt.Fprintln(w, "Warning: Chromium not found, skipping PDF")
			pdf = nil
		}
	}

	files, err := report.Write(ctx, b, opts.OutDir, opts.Stem, pdf)
	if err != nil {
		if pdf == nil || files.HTML == "" {
			return files, err
		}
		fmt.Fprintf(w, "Warning: PDF rendering failed: %v\n", err)
	}
	for _, f := range []string{files.Markdown, files.HTML, files.PDF} {
		if f != "" {
			fmt.Fprintln(w, f)
		}
	}
	return files, nil
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a lender report",
	Long: `Write a Markdown and HTML report of the base case, optionally with Monte
Carlo percentiles, a tornado table and a scenario comparison. --charts adds DSCR,
equity FCF and tornado charts: text in the Markdown, SVG in the HTML and PDF.
--pdf prints the HTML to PDF through a local Chromium.

Examples:
  dbmodel report
  dbmodel report --mc 2000 --tornado --compare p90_yield,fx_stress --pdf
  dbmodel report --tornado --charts
  dbmodel report --title "Dutch Bay 150MW - Lender Case"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		title, _ := cmd.Flags().GetString("title")
		trials, _ := cmd.Flags().GetInt("mc")
		tornado, _ := cmd.Flags().GetBool("tornado")
		templates, _ := cmd.Flags().GetStringSlice("compare")
		charts, _ := cmd.Flags().GetBool("charts")
		pdf, _ := cmd.Flags().GetBool("pdf")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err := runReport(ctx, cmd.OutOrStdout(), newEngine(cmd), reportOptions{
			Params:    paramsPath(cmd),
			Title:     title,
			Trials:    trials,
			Tornado:   tornado,
			Templates: templates,
			Charts:    charts,
			PDF:       pdf,
			OutDir:    outDir(cmd),
		})
		exitOnError(err)
	},
}

// apiAddr resolves --port, then PORT, then 8080
func apiAddr(cmd *cobra.Command) string {
	port, _ := cmd.Flags().GetString("port")
	if !cmd.Flags().Changed("port") {
		if env := os.Getenv("PORT"); env != "" {
			port = env
		}
	}
	return ":" + port
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the model over HTTP",
	Long: `Serve POST /v1/model, /v1/scenarios and /v1/tornado plus GET /healthz.

Examples:
  dbmodel api
  dbmodel api --port 9000`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		srv := api.NewServer(newEngine(cmd))
		srv.Logger = simpleCLILogger{}
		exitOnError(srv.ListenAndServe(apiAddr(cmd)))
	},
}

func init() {
	reportCmd.Flags().String("title", "", "Report title")
	reportCmd.Flags().Int("mc", 0, "Monte Carlo trials to include (0 skips the section)")
	reportCmd.Flags().Bool("tornado", false, "Include an equity IRR tornado")
	reportCmd.Flags().StringSlice("compare", nil, "Templates to include in a comparison section")
	reportCmd.Flags().Bool("charts", false, "Draw DSCR, equity FCF and tornado charts")
	reportCmd.Flags().Bool("pdf", false, "Also render a PDF with Chromium")

	apiCmd.Flags().String("port", "8080", "Listen port (env PORT)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(apiCmd)
}
