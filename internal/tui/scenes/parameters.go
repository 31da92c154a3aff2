package scenes

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/tui/components"
	"github.com/dutchbay/dbmodel/internal/tui/tuimsg"
	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

var (
	keyUp    = key.NewBinding(key.WithKeys("up", "k"))
	keyDown  = key.NewBinding(key.WithKeys("down", "j"))
	keyLeft  = key.NewBinding(key.WithKeys("left", "h"))
	keyRight = key.NewBinding(key.WithKeys("right", "l"))
	keyReset = key.NewBinding(key.WithKeys("x"))
	keySave  = key.NewBinding(key.WithKeys("ctrl+s"))
	keyEnter = key.NewBinding(key.WithKeys("enter"))
)

// ParametersModel represents the parameter editing scene
type ParametersModel struct {
	base          domain.Params
	params        domain.Params
	loaded        bool
	sliders       []*components.ParameterSlider
	focusedSlider int
	result        *domain.ModelResult
	width         int
	height        int
	modified      bool
}

// NewParametersModel creates a new parameters scene model
func NewParametersModel() *ParametersModel {
	return &ParametersModel{}
}

// DefaultSliders returns the inputs the TUI lets a user move, set to p
func DefaultSliders(p domain.Params) []*components.ParameterSlider {
	return []*components.ParameterSlider{
		components.NewParameterSlider("tariff_lkr_kwh", "Tariff", p.TariffLKRkWh, 10, 35, 0.25).
			WithUnit(" LKR/kWh").
			WithDescription("Energy price paid by the offtaker"),
		components.NewParameterSlider("cf_p50", "Capacity factor", p.CFP50, 0.20, 0.60, 0.01).
			WithScale(100).WithFormat("%.0f").WithUnit("%").
			WithDescription("P50 net capacity factor"),
		components.NewParameterSlider("total_capex", "Capex", p.TotalCapex, 80e6, 250e6, 5e6).
			WithScale(1e-6).WithFormat("%.0f").WithUnit(" $M").
			WithDescription("Total project cost, USD"),
		components.NewParameterSlider("debt_ratio", "Debt ratio", p.Debt.DebtRatio, 0, 0.90, 0.05).
			WithScale(100).WithFormat("%.0f").WithUnit("%").
			WithDescription("Senior debt as a share of capex"),
		components.NewParameterSlider("tenor_years", "Tenor", float64(p.Debt.TenorYears), 5, 25, 1).
			WithFormat("%.0f").WithUnit(" years").
			WithDescription("Loan tenor including grace"),
		components.NewParameterSlider("interest_rate", "Interest rate", p.Debt.InterestRate, 0.03, 0.15, 0.0025).
			WithScale(100).WithUnit("%").
			WithDescription("All-in annual interest rate"),
	}
}

// SetParams replaces the parameters being edited and makes them the reset
// point
func (m *ParametersModel) SetParams(p domain.Params) {
	m.base = p
	m.params = p
	m.loaded = true
	m.modified = false
	m.buildSliders()
}

// Params returns the parameters with every slider applied
func (m *ParametersModel) Params() domain.Params {
	return m.params
}

// Modified reports whether any slider moved since SetParams
func (m *ParametersModel) Modified() bool {
	return m.modified
}

// SetResult stores the latest model run for the live metric strip
func (m *ParametersModel) SetResult(res *domain.ModelResult) {
	m.result = res
}

func (m *ParametersModel) buildSliders() {
	m.sliders = DefaultSliders(m.params)
	m.focusedSlider = min(m.focusedSlider, len(m.sliders)-1)
	m.sliders[m.focusedSlider].SetFocused(true)
}

// SetSize updates the scene dimensions
func (m *ParametersModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the parameters scene
func (m *ParametersModel) Update(msg tea.Msg) (*ParametersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeyPress(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m *ParametersModel) handleKeyPress(msg tea.KeyMsg) (*ParametersModel, tea.Cmd) {
	if !m.loaded || len(m.sliders) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, keyUp):
		m.moveFocus(-1)
	case key.Matches(msg, keyDown):
		m.moveFocus(1)
	case key.Matches(msg, keyLeft):
		if s := m.sliders[m.focusedSlider]; s.Decrement() {
			return m, m.applyChange(s)
		}
	case key.Matches(msg, keyRight):
		if s := m.sliders[m.focusedSlider]; s.Increment() {
			return m, m.applyChange(s)
		}
	case key.Matches(msg, keyReset):
		m.params = m.base
		m.modified = false
		m.buildSliders()
		return m, m.changedCmd()
	case key.Matches(msg, keyEnter):
		return m, m.changedCmd()
	case key.Matches(msg, keySave):
		if m.modified {
			return m, func() tea.Msg { return tuimsg.SaveParamsMsg{} }
		}
	}
	return m, nil
}

func (m *ParametersModel) moveFocus(delta int) {
	next := m.focusedSlider + delta
	if next < 0 || next >= len(m.sliders) {
		return
	}
	m.sliders[m.focusedSlider].SetFocused(false)
	m.focusedSlider = next
	m.sliders[m.focusedSlider].SetFocused(true)
}

// applyChange writes the moved slider into the parameters and asks for a
// recalculation
func (m *ParametersModel) applyChange(s *components.ParameterSlider) tea.Cmd {
	p := m.params
	if err := s.ApplyTo(&p); err != nil {
		return func() tea.Msg { return tuimsg.ErrorMsg{Err: err} }
	}
	m.params = p
	m.modified = true
	return m.changedCmd()
}

func (m *ParametersModel) changedCmd() tea.Cmd {
	p := m.params
	return func() tea.Msg { return tuimsg.ParamsChangedMsg{Params: p} }
}

// View renders the parameters scene
func (m *ParametersModel) View() string {
	if !m.loaded {
		return "Loading parameters..."
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(tuistyles.ColorPrimary).
		Render("Model Inputs")

	rendered := make([]string, 0, len(m.sliders))
	for _, s := range m.sliders {
		rendered = append(rendered, s.Render())
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tuistyles.ColorBorder).
		Padding(1, 2).
		Render(strings.Join(rendered, "\n\n"))

	sections := []string{title, "", box, ""}
	if m.result != nil {
		sections = append(sections, components.MetricGrid(KeyMetricCards(m.result, nil, 0), 4), "")
	}
	if m.modified {
		sections = append(sections, tuistyles.WarnStyle.Render("Modified • x to reset • Ctrl+S to save"))
	}
	sections = append(sections, tuistyles.HelpStyle.Render("↑/↓ select • ←/→ adjust • Enter recalculate • x reset • ESC back"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
