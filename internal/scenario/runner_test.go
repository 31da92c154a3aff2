package scenario

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbay/dbmodel/internal/config"
	"github.com/dutchbay/dbmodel/internal/output"
)

func fixedRunner() *Runner {
	r := NewRunner(nil)
	r.Now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	return r
}

const stamp = "20250304-050607"

func writeYAML(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunScenario_NoOutput(t *testing.T) {
	row, err := fixedRunner().RunScenario("base", map[string]any{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "base", row.Scenario)
	assert.NotEmpty(t, row.RunID)
	require.NotNil(t, row.Result)
	assert.Equal(t, row.Result.Summary(), row.Summary)
	assert.True(t, row.Summary.DSCRDefined())
}

func TestRunScenario_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	row, err := fixedRunner().RunScenario("low_tariff", map[string]any{"tariff_lkr_kwh": 18.0}, Options{OutDir: dir, SaveAnnual: true})
	require.NoError(t, err)
	assert.Equal(t, 18.0, row.Result.Params.TariffLKRkWh)

	annual := filepath.Join(dir, "low_tariff_annual_"+stamp+".csv")
	summary := filepath.Join(dir, "low_tariff_summary_"+stamp+".json")
	assert.FileExists(t, annual)
	require.FileExists(t, summary)

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	var doc output.ScenarioSummary
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "low_tariff", doc.Scenario)
	assert.Equal(t, row.RunID, doc.RunID)
	assert.InDelta(t, row.Summary.NPV, doc.Summary.NPV, 1e-6)
}

func TestRunScenario_SummaryOnlyWithoutSaveAnnual(t *testing.T) {
	dir := t.TempDir()
	_, err := fixedRunner().RunScenario("s", nil, Options{OutDir: dir})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s_summary_"+stamp+".json", entries[0].Name())
}

func TestRunScenario_ValidationError(t *testing.T) {
	_, err := fixedRunner().RunScenario("bad", map[string]any{
		"cf_p50": 2.0,
		"bogus":  1,
		"debt":   map[string]any{"style": "balloon"},
	}, Options{})
	require.Error(t, err)

	var verr *config.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "scenario:bad", verr.Where)
	assert.Len(t, verr.Problems, 3)
}

func TestRunDir(t *testing.T) {
	scen := t.TempDir()
	out := t.TempDir()
	writeYAML(t, scen, "b_high.yaml", "tariff_lkr_kwh: 24\n")
	writeYAML(t, scen, "a_low.yaml", "tariff_lkr_kwh: 17\n")
	writeYAML(t, scen, "notes.txt", "ignored")

	batch, err := fixedRunner().RunDir(context.Background(), scen, Options{OutDir: out})
	require.NoError(t, err)

	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "a_low", batch.Rows[0].Scenario)
	assert.Equal(t, "b_high", batch.Rows[1].Scenario)
	assert.Less(t, batch.Rows[0].Summary.NPV, batch.Rows[1].Summary.NPV)

	assert.Equal(t, []string{
		filepath.Join(out, "scenario_dir_results_"+stamp+".csv"),
		filepath.Join(out, "scenario_dir_results_"+stamp+".jsonl"),
	}, batch.Files)

	f, err := os.Open(batch.Files[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, output.SummaryHeader, records[0])
	assert.Equal(t, "a_low", records[1][0])
}

func TestRunDir_Empty(t *testing.T) {
	out := t.TempDir()
	batch, err := fixedRunner().RunDir(context.Background(), t.TempDir(), Options{OutDir: out})
	require.NoError(t, err)
	assert.Empty(t, batch.Rows)
	assert.Empty(t, batch.Files)
}

func TestRunMatrix_JSONL(t *testing.T) {
	dir := t.TempDir()
	matrix := filepath.Join(dir, "matrix.yaml")
	writeYAML(t, dir, "matrix.yaml", `scenarios:
  - name: base
  - name: sculpted
    params:
      debt:
        style: sculpted
        target_dscr: 1.35
  - params:
      cf_p50: 0.36
`)
	out := filepath.Join(dir, "out")

	batch, err := fixedRunner().RunMatrix(context.Background(), matrix, Options{OutDir: out, Format: "jsonl"})
	require.NoError(t, err)

	require.Len(t, batch.Rows, 3)
	assert.Equal(t, "scenario_3", batch.Rows[2].Scenario)
	require.Equal(t, []string{filepath.Join(out, "scenario_matrix_results_"+stamp+".jsonl")}, batch.Files)

	f, err := os.Open(batch.Files[0])
	require.NoError(t, err)
	defer f.Close()
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		assert.Contains(t, row, "summary")
		lines++
	}
	assert.Equal(t, 3, lines)
}

func TestRunMatrix_BadFormat(t *testing.T) {
	_, err := fixedRunner().RunMatrix(context.Background(), "unused.yaml", Options{Format: "xlsx"})
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fixedRunner().RunAll(ctx, []Scenario{{Name: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseMatrix(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    int
		wantErr string
	}{
		{"empty document", "", 0, ""},
		{"no scenarios key", "other: 1\n", 0, ""},
		{"list", "scenarios:\n  - name: a\n  - name: b\n", 2, ""},
		{"json body", `{"scenarios":[{"name":"a","params":{"tax_rate":0.3}}]}`, 1, ""},
		{"not a list", "scenarios: 3\n", 0, "scenarios: [ ... ]"},
		{"entry not a mapping", "scenarios:\n  - 5\n", 0, "scenarios[0] must be a mapping"},
		{"params not a mapping", "scenarios:\n  - params: [1]\n", 0, "scenarios[0].params"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMatrix([]byte(tt.doc))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
