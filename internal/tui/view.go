package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

// View renders the current state of the application
func (m Model) View() string {
	if m.loading {
		return m.renderLoading()
	}

	var content string
	switch m.currentScene {
	case SceneParameters:
		content = m.parametersModel.View()
	case SceneResults:
		content = m.resultsModel.View()
	case SceneCompare:
		content = m.compareModel.View()
	case SceneOptimize:
		content = m.optimizeModel.View()
	case SceneHelp:
		content = m.renderHelp()
	default:
		content = "Unknown scene"
	}

	return m.renderApp(content)
}

// renderApp wraps content with title bar, status bar, and main container
func (m Model) renderApp(content string) string {
	titleBar := m.renderTitleBar()
	statusBar := m.renderStatusBar()

	sections := []string{titleBar}
	if m.err != nil {
		sections = append(sections, m.renderError())
	} else if m.notice != "" {
		sections = append(sections, tuistyles.InfoStyle.Render(m.notice))
	}

	// Title (2) + status (1) + padding (1)
	contentHeight := max(0, m.height-4-len(sections)+1)
	sections = append(sections,
		lipgloss.NewStyle().Height(contentHeight).Render(content),
		statusBar,
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTitleBar renders the application title and breadcrumb
func (m Model) renderTitleBar() string {
	title := tuistyles.TitleStyle.Render("DUTCH BAY - Project Finance Model")

	crumb := m.currentScene.String()
	if m.source != "" {
		crumb = fmt.Sprintf("%s / %s", crumb, m.source)
	} else if m.loaded {
		crumb += " / baseline"
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		tuistyles.SubtitleStyle.Render(crumb),
	)
}

// renderStatusBar renders the bottom status bar with keyboard shortcuts
func (m Model) renderStatusBar() string {
	shortcuts := []string{
		formatShortcut("p", "parameters"),
		formatShortcut("r", "results"),
		formatShortcut("c", "compare"),
		formatShortcut("o", "optimize"),
		formatShortcut("?", "help"),
		formatShortcut("q", "quit"),
	}
	statusText := strings.Join(shortcuts, " • ")

	if m.result != nil {
		irr := tuistyles.SubtitleStyle.Render("Equity IRR " + tuistyles.FormatRate(m.result.EquityIRR))
		width := m.width - lipgloss.Width(statusText) - lipgloss.Width(irr) - 4
		statusText = statusText + strings.Repeat(" ", max(0, width)) + irr
	}

	return tuistyles.StatusBarStyle.Width(m.width).Render(statusText)
}

// formatShortcut formats a keyboard shortcut with key and description
func formatShortcut(key, desc string) string {
	return tuistyles.StatusKeyStyle.Render(key) + " " + desc
}

// renderLoading renders a loading message
func (m Model) renderLoading() string {
	message := m.loadingMessage
	if message == "" {
		message = "Loading..."
	}
	return m.renderApp(tuistyles.BorderStyle.Render("⠋ " + message))
}

// renderError renders the current error above the scene
func (m Model) renderError() string {
	return tuistyles.ErrorStyle.Render(fmt.Sprintf("Error: %s (press any key to dismiss)", m.err))
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	helpText := `DUTCH BAY PROJECT FINANCE MODEL

KEYBOARD SHORTCUTS:
  p        Parameters (move inputs, see headline metrics)
  r        Results (metric trends, DSCR chart, annual table)
  c        Compare against built-in stress cases
  o        Size debt to a DSCR target
  ?        Show this help
  ESC      Go back
  q/Ctrl+C Quit

PARAMETERS:
  ↑/↓      Select an input
  ←/→      Adjust it by one step (the model reruns)
  x        Reset to the loaded values
  Ctrl+S   Save the inputs as YAML

COMPARE:
  Space    Select a case
  Enter    Run the selected cases, or all of them

OPTIMIZE:
  e        Edit the target DSCR
  Enter    Size debt and search the structure grid
`
	return tuistyles.BorderStyle.Render(helpText)
}
