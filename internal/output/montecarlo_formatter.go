package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dutchbay/dbmodel/internal/calculation"
)

// MonteCarloConsoleFormatter formats a simulation summary for console
type MonteCarloConsoleFormatter struct{}

func (mcf MonteCarloConsoleFormatter) Name() string { return "console" }

func (mcf MonteCarloConsoleFormatter) FormatMonteCarlo(result *calculation.MonteCarloResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "MONTE CARLO SIMULATION")
	fmt.Fprintln(&buf, strings.Repeat("=", 80))
	fmt.Fprintf(&buf, "Run:     %s\n", result.RunID)
	fmt.Fprintf(&buf, "Trials:  %d (seed %d, %d failed)\n", result.NumTrials, result.Seed, result.Failed)
	fmt.Fprintln(&buf)

	fmt.Fprintf(&buf, "%-12s %10s %10s %10s %10s %10s %10s\n", "Metric", "Mean", "P10", "P25", "P50", "P75", "P90")
	fmt.Fprintln(&buf, strings.Repeat("-", 80))
	pct := func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }
	musd := func(v float64) string { return fmt.Sprintf("%.2fM", v/1e6) }
	ratio := func(v float64) string { return fmt.Sprintf("%.3fx", v) }
	writeRow := func(label string, p calculation.Percentiles, f func(float64) string) {
		if p.Count == 0 {
			fmt.Fprintf(&buf, "%-12s %10s\n", label, "n/a")
			return
		}
		fmt.Fprintf(&buf, "%-12s %10s %10s %10s %10s %10s %10s\n", label, f(p.Mean), f(p.P10), f(p.P25), f(p.P50), f(p.P75), f(p.P90))
	}
	writeRow("Equity IRR", result.EquityIRR, pct)
	writeRow("Project IRR", result.ProjectIRR, pct)
	writeRow("NPV", result.NPV, musd)
	writeRow("Min DSCR", result.MinDSCR, ratio)
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "RISK:")
	fmt.Fprintf(&buf, "  P(min DSCR < %.2fx):   %.1f%%\n", result.CovenantDSCR, result.ProbDSCRBreach*100)
	fmt.Fprintf(&buf, "  P(equity IRR undefined): %.1f%%\n", result.ProbIRRUndefined*100)

	return buf.String(), nil
}

// MonteCarloJSONFormatter writes the whole result, trials included
type MonteCarloJSONFormatter struct{}

func (mjf MonteCarloJSONFormatter) Name() string { return "json" }

func (mjf MonteCarloJSONFormatter) FormatMonteCarlo(result *calculation.MonteCarloResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MonteCarloCSVFormatter writes one row per trial
type MonteCarloCSVFormatter struct{}

func (mcf MonteCarloCSVFormatter) Name() string { return "csv" }

func (mcf MonteCarloCSVFormatter) FormatMonteCarlo(result *calculation.MonteCarloResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	// input columns sorted by name
	var inputs []string
	if len(result.Trials) > 0 {
		for name := range result.Trials[0].Inputs {
			inputs = append(inputs, name)
		}
		sort.Strings(inputs)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := append([]string{"trial"}, inputs...)
	header = append(header, "equity_irr", "project_irr", "npv", "min_dscr", "error")
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, t := range result.Trials {
		row := []string{strconv.Itoa(t.Trial)}
		for _, name := range inputs {
			row = append(row, strconv.FormatFloat(t.Inputs[name], 'g', 10, 64))
		}
		row = append(row, optional(t.EquityIRR), optional(t.ProjectIRR), strconv.FormatFloat(t.NPV, 'f', 2, 64), optional(t.MinDSCR), t.Err)
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// MonteCarloFormatter renders a simulation result
type MonteCarloFormatter interface {
	FormatMonteCarlo(result *calculation.MonteCarloResult) (string, error)
	Name() string
}

// NewMonteCarloFormatter creates a Monte Carlo formatter based on the format name
func NewMonteCarloFormatter(format string) MonteCarloFormatter {
	switch NormalizeFormatName(format) {
	case "json":
		return MonteCarloJSONFormatter{}
	case "csv", "detailed-csv":
		return MonteCarloCSVFormatter{}
	default:
		return MonteCarloConsoleFormatter{}
	}
}
