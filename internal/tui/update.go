package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dutchbay/dbmodel/internal/tui/tuimsg"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.parametersModel.SetSize(msg.Width, msg.Height)
		m.resultsModel.SetSize(msg.Width, msg.Height)
		m.compareModel.SetSize(msg.Width, msg.Height)
		m.optimizeModel.SetSize(msg.Width, msg.Height)
		return m, nil

	case NavigateMsg:
		if msg.Scene != m.currentScene {
			m.previousScene = m.currentScene
			m.currentScene = msg.Scene
		}
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case tuimsg.ErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case tuimsg.ParamsLoadedMsg:
		m.loaded = true
		m.params = msg.Params
		m.source = msg.Source
		m.parametersModel.SetParams(msg.Params)
		m.loading = true
		m.loadingMessage = "Running model..."
		return m, calculateCmd(msg.Params)

	case tuimsg.ParamsChangedMsg:
		m.params = msg.Params
		m.err = nil
		return m, calculateCmd(msg.Params)

	case tuimsg.CalculationCompleteMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.result = msg.Result
		m.parametersModel.SetResult(msg.Result)
		m.resultsModel.SetResult(msg.Result)
		return m, nil

	case tuimsg.ComparisonStartedMsg:
		return m, compareCmd(m.params, msg.Templates)

	case tuimsg.ComparisonCompleteMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.compareModel.SetFailed()
			return m, nil
		}
		m.compareModel.SetResult(msg.Set)
		return m, nil

	case tuimsg.OptimizationStartedMsg:
		return m, optimizeCmd(m.params, msg.TargetDSCR)

	case tuimsg.OptimizationCompleteMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.optimizeModel.SetFailed()
			return m, nil
		}
		m.optimizeModel.SetResults(msg.Sizing, msg.Pareto)
		return m, nil

	case tuimsg.SaveParamsMsg:
		return m, saveCmd(m.params, m.saveTarget(msg.Filename))

	case tuimsg.SaveCompleteMsg:
		if msg.Err != nil {
			m.err = msg.Err
		} else {
			m.notice = "Saved " + msg.Filename
		}
		return m, nil
	}

	// Delegate to scene-specific update handlers
	return m.updateCurrentScene(msg)
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// An error or notice is dismissed by the next key
	if m.err != nil || m.notice != "" {
		m.err = nil
		m.notice = ""
	}

	// The target field owns the keyboard while it is being edited
	if m.currentScene == SceneOptimize && m.optimizeModel.Editing() {
		return m.updateCurrentScene(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "?":
		return m, navigate(SceneHelp)

	case "esc":
		if m.currentScene != SceneParameters {
			back := m.previousScene
			if back == m.currentScene {
				back = SceneParameters
			}
			return m, navigate(back)
		}
		return m, nil

	case "p":
		return m, navigate(SceneParameters)

	case "r":
		return m, navigate(SceneResults)

	case "c":
		return m, navigate(SceneCompare)

	case "o":
		return m, navigate(SceneOptimize)
	}

	// Let the current scene handle other keys
	return m.updateCurrentScene(msg)
}

func navigate(s Scene) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Scene: s} }
}

// updateCurrentScene delegates updates to the current scene's model
func (m Model) updateCurrentScene(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentScene {
	case SceneParameters:
		m.parametersModel, cmd = m.parametersModel.Update(msg)
	case SceneResults:
		m.resultsModel, cmd = m.resultsModel.Update(msg)
	case SceneCompare:
		m.compareModel, cmd = m.compareModel.Update(msg)
	case SceneOptimize:
		m.optimizeModel, cmd = m.optimizeModel.Update(msg)
	}
	return m, cmd
}
