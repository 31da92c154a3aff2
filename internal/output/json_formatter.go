package output

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// JSONFormatter writes the full result, annual rows and schedule included
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(result *domain.ModelResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// ScenarioSummary is the per-scenario JSON document of batch runs
type ScenarioSummary struct {
	Scenario string         `json:"scenario"`
	RunID    string         `json:"run_id,omitempty"`
	Params   domain.Params  `json:"params"`
	Summary  domain.Summary `json:"summary"`
}

// WriteSummaryJSON writes the scalar results of one scenario
func WriteSummaryJSON(w io.Writer, name, runID string, result *domain.ModelResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ScenarioSummary{
		Scenario: name,
		RunID:    runID,
		Params:   result.Params,
		Summary:  result.Summary(),
	})
}
