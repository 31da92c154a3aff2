// Package scenario runs batches of named parameter sets through the model
// and writes their results as flat files.
package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/config"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/output"
)

// StampLayout is the UTC timestamp embedded in output file names
const StampLayout = "20060102-150405"

// Output formats for batch result files
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
	FormatBoth  = "both"
)

// Options controls where and how results are written. An empty OutDir
// writes nothing.
type Options struct {
	OutDir     string
	Format     string // csv, jsonl or both; empty means both
	SaveAnnual bool   // also write the annual table of every scenario
}

// Row is the summary of one scenario run
type Row struct {
	Scenario string              `json:"scenario"`
	RunID    string              `json:"run_id"`
	Summary  domain.Summary      `json:"summary"`
	Result   *domain.ModelResult `json:"-"`
}

// Batch is the outcome of RunDir or RunMatrix
type Batch struct {
	Rows  []Row
	Files []string // batch result files, empty when nothing was written
}

// Runner validates and runs scenarios
type Runner struct {
	Model  *calculation.ModelEngine
	Parser *config.InputParser
	Logger calculation.Logger
	Now    func() time.Time
}

// NewRunner creates a runner over model; nil uses the baseline engine
func NewRunner(model *calculation.ModelEngine) *Runner {
	if model == nil {
		model = calculation.NewModelEngine()
	}
	return &Runner{
		Model:  model,
		Parser: config.NewInputParser(),
		Logger: calculation.NopLogger{},
		Now:    time.Now,
	}
}

func (r *Runner) stamp() string {
	return r.Now().UTC().Format(StampLayout)
}

func checkFormat(f string) (string, error) {
	switch f = strings.ToLower(f); f {
	case "":
		return FormatBoth, nil
	case FormatCSV, FormatJSONL, FormatBoth:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want csv, jsonl or both)", f)
}

// RunScenario validates params, runs the model and, when opts.OutDir is
// set, writes <name>_summary_<ts>.json and optionally <name>_annual_<ts>.csv.
func (r *Runner) RunScenario(name string, params map[string]any, opts Options) (Row, error) {
	clean, err := r.Parser.ValidateParams(params, "scenario:"+name)
	if err != nil {
		return Row{}, err
	}
	res, err := r.Model.BuildFinancialModel(clean)
	if err != nil {
		return Row{}, fmt.Errorf("scenario %s: %w", name, err)
	}
	row := Row{
		Scenario: name,
		RunID:    uuid.New().String(),
		Summary:  res.Summary(),
		Result:   res,
	}
	r.Logger.Debugf("scenario %s run %s done", name, row.RunID)

	if opts.OutDir == "" {
		return row, nil
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return Row{}, fmt.Errorf("create output dir: %w", err)
	}
	ts := r.stamp()
	if opts.SaveAnnual {
		if err := writeFile(filepath.Join(opts.OutDir, fmt.Sprintf("%s_annual_%s.csv", name, ts)), func(f *os.File) error {
			return output.WriteAnnualCSV(f, res.Annual)
		}); err != nil {
			return Row{}, err
		}
	}
	if err := writeFile(filepath.Join(opts.OutDir, fmt.Sprintf("%s_summary_%s.json", name, ts)), func(f *os.File) error {
		return output.WriteSummaryJSON(f, name, row.RunID, res)
	}); err != nil {
		return Row{}, err
	}
	return row, nil
}

// RunDir runs every *.yaml file of dir in name order; each file stem names
// its scenario.
func (r *Runner) RunDir(ctx context.Context, dir string, opts Options) (*Batch, error) {
	format, err := checkFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	scenarios := make([]Scenario, 0, len(paths))
	for _, path := range paths {
		raw, err := r.Parser.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, Scenario{
			Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Params: raw,
		})
	}
	r.Logger.Infof("running %d scenario file(s) from %s", len(scenarios), dir)
	return r.runAll(ctx, scenarios, "scenario_dir_results", format, opts)
}

// RunMatrix runs the scenarios listed in a matrix YAML file
func (r *Runner) RunMatrix(ctx context.Context, file string, opts Options) (*Batch, error) {
	format, err := checkFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix %s: %w", file, err)
	}
	scenarios, err := ParseMatrix(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	r.Logger.Infof("running %d scenario(s) from %s", len(scenarios), file)
	return r.runAll(ctx, scenarios, "scenario_matrix_results", format, opts)
}

// RunAll runs scenarios without writing batch files
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]Row, error) {
	b, err := r.runAll(ctx, scenarios, "", FormatBoth, Options{})
	if err != nil {
		return nil, err
	}
	return b.Rows, nil
}

func (r *Runner) runAll(ctx context.Context, scenarios []Scenario, prefix, format string, opts Options) (*Batch, error) {
	batch := &Batch{Rows: make([]Row, 0, len(scenarios))}
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.RunScenario(sc.Name, sc.Params, opts)
		if err != nil {
			return nil, err
		}
		batch.Rows = append(batch.Rows, row)
	}

	if opts.OutDir == "" || len(batch.Rows) == 0 {
		return batch, nil
	}
	files, err := writeBatch(opts.OutDir, prefix+"_"+r.stamp(), format, batch.Rows)
	if err != nil {
		return nil, err
	}
	batch.Files = files
	return batch, nil
}
