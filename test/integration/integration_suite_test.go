package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/config"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/output"
	"github.com/dutchbay/dbmodel/internal/scenario"
)

const (
	lenderCase     = "../testdata/lender_case.yaml"
	scenarioMatrix = "../testdata/scenario_matrix.yaml"
	invalidParams  = "../testdata/invalid_params.yaml"
)

// loadLenderCase returns the validated raw mapping of the lender case
func loadLenderCase(t *testing.T) map[string]any {
	t.Helper()
	parser := config.NewInputParser()
	raw, err := parser.LoadFromFile(lenderCase)
	require.NoError(t, err)
	clean, err := parser.ValidateParams(raw, "lender_case")
	require.NoError(t, err)
	return clean
}

// TestIntegrationSmokeTest runs a quick smoke test of core functionality
func TestIntegrationSmokeTest(t *testing.T) {
	t.Run("basic_calculation", func(t *testing.T) {
		engine := calculation.NewModelEngine()
		res, err := engine.BuildFinancialModel(loadLenderCase(t))
		require.NoError(t, err)

		assert.Len(t, res.Annual, 20)
		assert.InDelta(t, 105e6, res.Debt, 1)
		assert.InDelta(t, 45e6, res.Equity, 1)
		require.NotNil(t, res.EquityIRR)
		require.NotNil(t, res.ProjectIRR)
		assert.True(t, res.HasDebtService())
		assert.Greater(t, res.MinDSCR, 0.0)
	})

	t.Run("every_output_format", func(t *testing.T) {
		res, err := calculation.NewModelEngine().BuildFinancialModel(loadLenderCase(t))
		require.NoError(t, err)

		for _, name := range output.AvailableFormatterNames() {
			t.Run(name, func(t *testing.T) {
				f := output.GetFormatterByName(name)
				require.NotNil(t, f)
				data, err := f.Format(res)
				require.NoError(t, err)
				assert.NotEmpty(t, data)
			})
		}
	})
}

// TestIntegrationRegression checks that runs are reproducible
func TestIntegrationRegression(t *testing.T) {
	raw := loadLenderCase(t)

	t.Run("calculation_consistency", func(t *testing.T) {
		engine := calculation.NewModelEngine()

		first, err := engine.BuildFinancialModel(raw)
		require.NoError(t, err)
		second, err := engine.BuildFinancialModel(raw)
		require.NoError(t, err)

		assert.Equal(t, first.Summary(), second.Summary())
		assert.Equal(t, first.Annual, second.Annual)
	})

	t.Run("monte_carlo_seed", func(t *testing.T) {
		engine := calculation.NewModelEngine()
		base, err := calculation.DecodeParams(engine.Defaults, raw)
		require.NoError(t, err)

		run := func(workers int) *calculation.MonteCarloResult {
			cfg := calculation.DefaultMonteCarloConfig(base, 60)
			cfg.Seed = 2024
			cfg.Workers = workers
			res, err := calculation.NewMonteCarloEngine(engine).Run(context.Background(), raw, cfg)
			require.NoError(t, err)
			return res
		}

		single, parallel := run(1), run(4)
		assert.Equal(t, single.EquityIRR, parallel.EquityIRR, "the worker count must not change the draws")
		assert.Equal(t, single.NPV, parallel.NPV)
		assert.Equal(t, single.ProbDSCRBreach, parallel.ProbDSCRBreach)
	})
}

// TestIntegrationScenarioBatch runs the scenario matrix end to end
func TestIntegrationScenarioBatch(t *testing.T) {
	base, err := config.NewInputParser().LoadParams(lenderCase)
	require.NoError(t, err)

	outDir := t.TempDir()
	runner := scenario.NewRunner(calculation.NewModelEngineWithDefaults(base))
	runner.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	batch, err := runner.RunMatrix(context.Background(), scenarioMatrix, scenario.Options{
		OutDir:     outDir,
		Format:     scenario.FormatBoth,
		SaveAnnual: true,
	})
	require.NoError(t, err)
	require.Len(t, batch.Rows, 4)

	byName := make(map[string]domain.Summary, len(batch.Rows))
	for _, row := range batch.Rows {
		byName[row.Scenario] = row.Summary
	}
	require.NotNil(t, byName["lender_base"].EquityIRR)
	require.NotNil(t, byName["p90"].EquityIRR)
	assert.Less(t, *byName["p90"].EquityIRR, *byName["lender_base"].EquityIRR, "lower yield lowers the sponsor return")
	assert.Less(t, byName["p90"].NPV, byName["lender_base"].NPV)
	assert.False(t, byName["all_equity"].DSCRDefined())
	assert.True(t, byName["sculpted"].DSCRDefined())
	assert.Greater(t, byName["sculpted"].MinDSCR, 0.0)

	assert.ElementsMatch(t, []string{
		filepath.Join(outDir, "scenario_matrix_results_20260102-030405.csv"),
		filepath.Join(outDir, "scenario_matrix_results_20260102-030405.jsonl"),
	}, batch.Files)
	for _, name := range []string{"lender_base", "p90", "sculpted", "all_equity"} {
		assert.FileExists(t, filepath.Join(outDir, fmt.Sprintf("%s_summary_20260102-030405.json", name)))
		assert.FileExists(t, filepath.Join(outDir, fmt.Sprintf("%s_annual_20260102-030405.csv", name)))
	}
}

// TestIntegrationErrorHandling checks that bad inputs fail cleanly
func TestIntegrationErrorHandling(t *testing.T) {
	parser := config.NewInputParser()

	t.Run("missing_file", func(t *testing.T) {
		_, err := parser.LoadParams(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid_values", func(t *testing.T) {
		_, err := parser.LoadParams(invalidParams)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tariff_lkr_kwh")
	})

	t.Run("malformed_yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("debt: [unclosed\n"), 0o644))
		_, err := parser.LoadParams(path)
		assert.Error(t, err)
	})
}

// TestIntegrationBenchmarks bounds the cost of the heavier drivers
func TestIntegrationBenchmarks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping benchmarks in short mode")
	}
	raw := loadLenderCase(t)
	engine := calculation.NewModelEngine()

	t.Run("calculation_performance", func(t *testing.T) {
		start := time.Now()
		for i := 0; i < 100; i++ {
			_, err := engine.BuildFinancialModel(raw)
			require.NoError(t, err)
		}
		duration := time.Since(start)
		assert.Less(t, duration, 10*time.Second, "100 model runs should complete within 10 seconds")
		t.Logf("100 model runs completed in %v", duration)
	})

	t.Run("tornado_performance", func(t *testing.T) {
		start := time.Now()
		_, err := calculation.NewSensitivityAnalyzer(engine).Tornado(
			raw, calculation.DefaultTornadoParameters(), domain.MetricIRR, domain.SortAbs)
		require.NoError(t, err)
		duration := time.Since(start)
		assert.Less(t, duration, 5*time.Second)
		t.Logf("tornado completed in %v", duration)
	})
}
