package scenes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/compare"
	"github.com/dutchbay/dbmodel/internal/tui/components"
	"github.com/dutchbay/dbmodel/internal/tui/tuimsg"
	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

var (
	keyToggle = key.NewBinding(key.WithKeys(" ", "x"))
	keyClear  = key.NewBinding(key.WithKeys("backspace"))
)

// CompareModel runs the built-in stress cases against the current inputs
type CompareModel struct {
	templates []string
	selected  map[int]bool
	cursor    int
	result    *compare.ComparisonSet
	comparing bool
	width     int
	height    int
}

// NewCompareModel creates a compare scene over the given template names
func NewCompareModel(templates []string) *CompareModel {
	return &CompareModel{
		templates: templates,
		selected:  make(map[int]bool),
	}
}

// SetResult stores comparison results
func (m *CompareModel) SetResult(set *compare.ComparisonSet) {
	m.result = set
	m.comparing = false
}

// SetFailed clears the in-progress state after an error
func (m *CompareModel) SetFailed() {
	m.comparing = false
}

// SetSize updates the model dimensions
func (m *CompareModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Selected returns the chosen template names in list order; none chosen
// means all of them
func (m *CompareModel) Selected() []string {
	var names []string
	for i, name := range m.templates {
		if m.selected[i] {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return append([]string(nil), m.templates...)
	}
	return names
}

// Update handles messages for the compare scene
func (m *CompareModel) Update(msg tea.Msg) (*CompareModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.comparing {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keyUp):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keyDown):
		if m.cursor < len(m.templates)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keyToggle):
		m.selected[m.cursor] = !m.selected[m.cursor]
	case key.Matches(keyMsg, keyClear):
		m.selected = make(map[int]bool)
		m.result = nil
	case key.Matches(keyMsg, keyEnter):
		m.comparing = true
		names := m.Selected()
		return m, func() tea.Msg { return tuimsg.ComparisonStartedMsg{Templates: names} }
	}
	return m, nil
}

// View renders the compare scene
func (m *CompareModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary).Render("Stress Cases")
	sections := []string{title, "", m.renderSelection()}

	switch {
	case m.comparing:
		sections = append(sections, "", tuistyles.InfoStyle.Render("⠋ Running cases..."))
	case m.result != nil:
		sections = append(sections, "", m.renderComparison())
	}
	sections = append(sections, "", tuistyles.HelpStyle.Render("↑/↓ move • Space select • Enter run (none selected runs all) • Backspace clear • ESC back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *CompareModel) renderSelection() string {
	var content strings.Builder
	for i, name := range m.templates {
		cursor := "  "
		if i == m.cursor {
			cursor = lipgloss.NewStyle().Foreground(tuistyles.ColorPrimary).Render("❯ ")
		}
		box := "[ ] "
		if m.selected[i] {
			box = tuistyles.SelectedItemStyle.Render("[✓] ")
		}
		content.WriteString(cursor + box + name + "\n")
	}
	return strings.TrimRight(content.String(), "\n")
}

func (m *CompareModel) renderComparison() string {
	set := m.result
	cards := make([]*components.ScenarioCard, 0, len(set.AlternativeResults)+1)
	if set.BaseResult != nil {
		cards = append(cards, comparisonCard(*set.BaseResult).SetSelected(true))
	}
	for _, r := range set.AlternativeResults {
		cards = append(cards, comparisonCard(r))
	}

	columns := 3
	if m.width > 0 {
		columns = max(1, m.width/38)
	}
	sections := []string{components.ScenarioGrid(cards, columns)}
	for _, rec := range set.Recommendations {
		sections = append(sections, "• "+rec)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func comparisonCard(r compare.ComparisonResult) *components.ScenarioCard {
	card := components.NewScenarioCard(r.ScenarioName).
		WithDescription(r.Description).
		SetBreach(r.BreachesCov).
		AddHighlight("Equity IRR " + tuistyles.FormatRate(r.EquityIRR)).
		AddHighlight("NPV " + tuistyles.FormatMillions(r.NPV.InexactFloat64()))

	if r.MinDSCR != nil {
		card.AddHighlight(fmt.Sprintf("Min DSCR %.2fx", *r.MinDSCR))
	} else {
		card.AddHighlight("Min DSCR: no debt")
	}
	if r.EquityIRRDiff != nil {
		card.AddHighlight(fmt.Sprintf("Δ IRR %+.2f pts", *r.EquityIRRDiff*100))
	}
	return card
}
