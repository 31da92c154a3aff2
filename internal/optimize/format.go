package optimize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// TableFormatter formats optimisation results as console tables
type TableFormatter struct{}

// FormatPareto renders the frontier of a grid search
func (tf *TableFormatter) FormatPareto(result *ParetoResult) string {
	var sb strings.Builder

	sb.WriteString("DEBT PARETO FRONTIER (equity IRR vs min DSCR)\n")
	sb.WriteString(strings.Repeat("=", 72) + "\n")
	sb.WriteString(fmt.Sprintf("Grid points:     %d\n", result.GridCount))
	sb.WriteString(fmt.Sprintf("Frontier points: %d\n\n", result.FrontierCount))

	sb.WriteString(fmt.Sprintf("%-12s %-8s %-8s %14s %10s %18s\n", "Debt Ratio", "Tenor", "Grace", "Equity IRR", "Min DSCR", "NPV (USD)"))
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for _, p := range result.Frontier {
		sb.WriteString(fmt.Sprintf("%-12s %-8d %-8d %14s %10s %18s\n",
			tf.formatPercent(p.DebtRatio),
			p.TenorYears,
			p.GraceYears,
			tf.formatOptPercent(p.EquityIRR),
			tf.formatRatio(p.MinDSCR),
			decimal.NewFromFloat(p.NPV).StringFixed(0)))
	}
	return sb.String()
}

// FormatSizing renders a debt sizing result
func (tf *TableFormatter) FormatSizing(result *DebtSizingResult) string {
	var sb strings.Builder

	sb.WriteString("DEBT SIZING RESULT\n")
	sb.WriteString(strings.Repeat("=", 72) + "\n")
	sb.WriteString(fmt.Sprintf("Method:       %s\n", result.Method))
	sb.WriteString(fmt.Sprintf("Status:       %s\n", tf.formatStatus(result.Success)))
	sb.WriteString(fmt.Sprintf("Iterations:   %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:  %s\n", result.ConvergenceInfo))
	}
	sb.WriteString(fmt.Sprintf("Target DSCR:  %sx\n", decimal.NewFromFloat(result.TargetDSCR).StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Debt Ratio:   %s\n", tf.formatPercent(result.DebtRatio)))
	sb.WriteString(fmt.Sprintf("Debt Amount:  $%s\n", decimal.NewFromFloat(result.DebtAmount).StringFixed(0)))
	sb.WriteString(fmt.Sprintf("Min DSCR:     %s\n", tf.formatRatio(result.MinDSCR)))
	sb.WriteString(fmt.Sprintf("Equity IRR:   %s\n", tf.formatOptPercent(result.EquityIRR)))
	return sb.String()
}

func (tf *TableFormatter) formatStatus(success bool) string {
	if success {
		return "✓ Success"
	}
	return "✗ Did not converge"
}

func (tf *TableFormatter) formatPercent(v float64) string {
	return decimal.NewFromFloat(v*100).StringFixed(2) + "%"
}

func (tf *TableFormatter) formatOptPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return tf.formatPercent(*v)
}

func (tf *TableFormatter) formatRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*v).StringFixed(3) + "x"
}

// WriteParetoCSV writes every grid point with a frontier flag
func WriteParetoCSV(w io.Writer, result *ParetoResult) error {
	onFrontier := make(map[[3]string]bool, len(result.Frontier))
	key := func(p Point) [3]string {
		return [3]string{strconv.FormatFloat(p.DebtRatio, 'f', -1, 64), strconv.Itoa(p.TenorYears), strconv.Itoa(p.GraceYears)}
	}
	for _, p := range result.Frontier {
		onFrontier[key(p)] = true
	}

	cw := csv.NewWriter(w)
	header := []string{"debt_ratio", "tenor_years", "grace_years", "equity_irr", "project_irr", "npv", "min_dscr", "avg_dscr", "frontier", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range result.Points {
		record := []string{
			strconv.FormatFloat(p.DebtRatio, 'f', -1, 64),
			strconv.Itoa(p.TenorYears),
			strconv.Itoa(p.GraceYears),
			optFloat(p.EquityIRR),
			optFloat(p.ProjectIRR),
			decimal.NewFromFloat(p.NPV).StringFixed(2),
			optFloat(p.MinDSCR),
			optFloat(p.AvgDSCR),
			strconv.FormatBool(onFrontier[key(p)]),
			p.Err,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
