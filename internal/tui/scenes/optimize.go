package scenes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/optimize"
	"github.com/dutchbay/dbmodel/internal/tui/tuimsg"
	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

// DefaultTargetDSCR is the sizing target offered when the scene opens
const DefaultTargetDSCR = 1.30

var keyEdit = key.NewBinding(key.WithKeys("e"))

// OptimizeMode represents what the optimize scene is showing
type OptimizeMode int

const (
	ModeSetTarget OptimizeMode = iota
	ModeShowResults
)

// OptimizeModel sizes debt against a DSCR target and shows the Pareto
// frontier of the default grid
type OptimizeModel struct {
	mode        OptimizeMode
	targetInput textinput.Model
	optimizing  bool
	inputErr    string
	sizing      *optimize.DebtSizingResult
	pareto      *optimize.ParetoResult
	width       int
	height      int
}

// NewOptimizeModel creates a new optimize scene model
func NewOptimizeModel() *OptimizeModel {
	ti := textinput.New()
	ti.Placeholder = "e.g., 1.30"
	ti.CharLimit = 6
	ti.Width = 10
	ti.SetValue(strconv.FormatFloat(DefaultTargetDSCR, 'f', 2, 64))

	return &OptimizeModel{
		mode:        ModeSetTarget,
		targetInput: ti,
	}
}

// SetSize updates the model dimensions
func (m *OptimizeModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Editing reports whether the target field has keyboard focus, in which
// case global shortcuts must not fire
func (m *OptimizeModel) Editing() bool {
	return m.targetInput.Focused()
}

// Target parses the DSCR target field
func (m *OptimizeModel) Target() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(m.targetInput.Value()), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("target DSCR must be a positive number, got %q", m.targetInput.Value())
	}
	return v, nil
}

// SetResults stores the sizing and frontier
func (m *OptimizeModel) SetResults(sizing *optimize.DebtSizingResult, pareto *optimize.ParetoResult) {
	m.sizing = sizing
	m.pareto = pareto
	m.optimizing = false
	m.mode = ModeShowResults
}

// SetFailed clears the in-progress state after an error
func (m *OptimizeModel) SetFailed() {
	m.optimizing = false
}

// Update handles messages for the optimize scene
func (m *OptimizeModel) Update(msg tea.Msg) (*OptimizeModel, tea.Cmd) {
	if m.optimizing {
		return m, nil
	}
	if m.Editing() {
		return m.updateTargetInput(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, keyEdit):
		m.mode = ModeSetTarget
		m.inputErr = ""
		m.targetInput.Focus()
		return m, textinput.Blink
	case key.Matches(keyMsg, keyEnter):
		return m, m.start()
	}
	return m, nil
}

// updateTargetInput handles the target field while it has focus
func (m *OptimizeModel) updateTargetInput(msg tea.Msg) (*OptimizeModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			m.targetInput.Blur()
			return m, m.start()
		case tea.KeyEsc:
			m.targetInput.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.targetInput, cmd = m.targetInput.Update(msg)
	return m, cmd
}

func (m *OptimizeModel) start() tea.Cmd {
	target, err := m.Target()
	if err != nil {
		m.inputErr = err.Error()
		return nil
	}
	m.inputErr = ""
	m.optimizing = true
	return func() tea.Msg { return tuimsg.OptimizationStartedMsg{TargetDSCR: target} }
}

// View renders the optimize scene
func (m *OptimizeModel) View() string {
	if m.optimizing {
		return m.renderOptimizing()
	}

	sections := []string{m.renderTargetInput()}
	if m.mode == ModeShowResults {
		sections = append(sections, "", m.renderResults())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTargetInput shows the DSCR target field
func (m *OptimizeModel) renderTargetInput() string {
	var content strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary)
	content.WriteString(titleStyle.Render("Debt Sizing"))
	content.WriteString("\n\n")

	subtleStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
	content.WriteString(subtleStyle.Render("Largest debt ratio whose minimum DSCR meets the target:"))
	content.WriteString("\n\n")

	border := tuistyles.ColorBorder
	if m.Editing() {
		border = tuistyles.ColorPrimary
	}
	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	content.WriteString(inputStyle.Render("Target DSCR " + m.targetInput.View() + "x"))
	content.WriteString("\n")

	if m.inputErr != "" {
		content.WriteString(tuistyles.ErrorStyle.Render(m.inputErr))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	help := "e edit target • Enter size debt • ESC back"
	if m.Editing() {
		help = "Enter size debt • ESC stop editing"
	}
	content.WriteString(subtleStyle.Render(help))

	return tuistyles.BorderStyle.Render(content.String())
}

// renderOptimizing shows optimization progress
func (m *OptimizeModel) renderOptimizing() string {
	var content strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary)
	content.WriteString(titleStyle.Render("Sizing Debt..."))
	content.WriteString("\n\n")
	content.WriteString("⠋ Bisecting the debt ratio and evaluating the structure grid...")

	return tuistyles.BorderStyle.Render(content.String())
}

// renderResults shows the sizing outcome and the frontier
func (m *OptimizeModel) renderResults() string {
	var content strings.Builder
	labelStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
	valueStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorSuccess).Bold(true)

	if s := m.sizing; s != nil {
		status := valueStyle.Render("converged")
		if !s.Success {
			status = tuistyles.ErrorStyle.Render("not met")
		}
		fmt.Fprintf(&content, "%s %s (%s, %d iterations)\n",
			labelStyle.Render("Target:"), fmt.Sprintf("%.2fx", s.TargetDSCR), status, s.Iterations)
		fmt.Fprintf(&content, "%s %s\n", labelStyle.Render("Debt ratio:"), valueStyle.Render(fmt.Sprintf("%.1f%%", s.DebtRatio*100)))
		fmt.Fprintf(&content, "%s %s\n", labelStyle.Render("Debt amount:"), tuistyles.FormatMillions(s.DebtAmount))
		fmt.Fprintf(&content, "%s %s\n", labelStyle.Render("Min DSCR:"), formatOptRatio(s.MinDSCR))
		fmt.Fprintf(&content, "%s %s\n", labelStyle.Render("Equity IRR:"), tuistyles.FormatRate(s.EquityIRR))
		if s.ConvergenceInfo != "" {
			content.WriteString(labelStyle.Render(s.ConvergenceInfo))
			content.WriteString("\n")
		}
	}

	if p := m.pareto; p != nil {
		content.WriteString("\n")
		content.WriteString(renderFrontier(p, 12))
	}

	return tuistyles.BorderStyle.Render(strings.TrimRight(content.String(), "\n"))
}

// renderFrontier lists up to n frontier points, highest equity IRR first
func renderFrontier(p *optimize.ParetoResult, n int) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("Pareto frontier: %d of %d structures\n", p.FrontierCount, p.GridCount))
	header := fmt.Sprintf("%-7s %-6s %-6s %11s %9s", "Debt", "Tenor", "Grace", "Equity IRR", "Min DSCR")
	content.WriteString(tuistyles.TableHeaderStyle.Render(header))
	content.WriteString("\n")

	shown := 0
	for i := len(p.Frontier) - 1; i >= 0 && shown < n; i-- {
		pt := p.Frontier[i]
		fmt.Fprintf(&content, "%-7s %-6d %-6d %11s %9s\n",
			fmt.Sprintf("%.0f%%", pt.DebtRatio*100), pt.TenorYears, pt.GraceYears,
			tuistyles.FormatRate(pt.EquityIRR), formatOptRatio(pt.MinDSCR))
		shown++
	}
	if len(p.Frontier) > n {
		content.WriteString(tuistyles.SubtitleStyle.Render(fmt.Sprintf("... and %d more", len(p.Frontier)-n)))
	}
	return strings.TrimRight(content.String(), "\n")
}

func formatOptRatio(v *float64) string {
	if v == nil {
		return "no debt"
	}
	return fmt.Sprintf("%.2fx", *v)
}
