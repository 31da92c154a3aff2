package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

// ScenarioCard displays a compact overview of one stress case or debt
// structure
type ScenarioCard struct {
	Name        string
	Description string
	Highlights  []string // Key metrics
	IsSelected  bool
	Breach      bool // the case falls below the DSCR covenant
	Width       int
}

// NewScenarioCard creates a new scenario card
func NewScenarioCard(name string) *ScenarioCard {
	return &ScenarioCard{
		Name:       name,
		Highlights: []string{},
		Width:      36,
	}
}

// WithDescription adds a description
func (s *ScenarioCard) WithDescription(desc string) *ScenarioCard {
	s.Description = desc
	return s
}

// AddHighlight adds a key metric
func (s *ScenarioCard) AddHighlight(highlight string) *ScenarioCard {
	s.Highlights = append(s.Highlights, highlight)
	return s
}

// SetSelected marks the card as selected
func (s *ScenarioCard) SetSelected(selected bool) *ScenarioCard {
	s.IsSelected = selected
	return s
}

// SetBreach flags a covenant breach
func (s *ScenarioCard) SetBreach(breach bool) *ScenarioCard {
	s.Breach = breach
	return s
}

// WithWidth sets the card width
func (s *ScenarioCard) WithWidth(width int) *ScenarioCard {
	s.Width = width
	return s
}

// Render returns the styled scenario card
func (s *ScenarioCard) Render() string {
	var content strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tuistyles.ColorPrimary)
	content.WriteString(titleStyle.Render(s.Name))
	if s.Breach {
		content.WriteString(" ")
		content.WriteString(tuistyles.ErrorStyle.Render("covenant breach"))
	}
	content.WriteString("\n")

	if s.Description != "" {
		content.WriteString(tuistyles.SubtitleStyle.Render(s.Description))
		content.WriteString("\n")
	}

	highlightStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorForeground)
	for _, h := range s.Highlights {
		content.WriteString(highlightStyle.Render("• " + h))
		content.WriteString("\n")
	}

	border := tuistyles.ColorBorder
	if s.IsSelected {
		border = tuistyles.ColorPrimary
	}
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(s.Width)

	return cardStyle.Render(strings.TrimRight(content.String(), "\n"))
}

// RenderCompact returns a compact single-line version
func (s *ScenarioCard) RenderCompact() string {
	parts := []string{lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary).Render(s.Name)}
	if len(s.Highlights) > 0 {
		parts = append(parts, tuistyles.HelpStyle.Render("• "+s.Highlights[0]))
	}
	return strings.Join(parts, " ")
}

// ScenarioGrid renders cards in rows of columns
func ScenarioGrid(cards []*ScenarioCard, columns int) string {
	if len(cards) == 0 {
		return tuistyles.InfoStyle.Render("No scenarios available")
	}
	if columns < 1 {
		columns = 1
	}

	var rows []string
	for start := 0; start < len(cards); start += columns {
		end := min(start+columns, len(cards))
		rendered := make([]string, 0, end-start)
		for _, card := range cards[start:end] {
			rendered = append(rendered, card.Render())
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// ScenarioListCompact renders a compact list for selection menus
func ScenarioListCompact(cards []*ScenarioCard, selectedIndex int) string {
	if len(cards) == 0 {
		return tuistyles.InfoStyle.Render("No scenarios available")
	}

	rendered := make([]string, len(cards))
	for i, card := range cards {
		prefix := "  "
		style := lipgloss.NewStyle()
		if i == selectedIndex {
			prefix = "▸ "
			style = tuistyles.SelectedItemStyle
		}
		rendered[i] = style.Render(fmt.Sprintf("%s%s", prefix, card.RenderCompact()))
	}

	return strings.Join(rendered, "\n")
}
