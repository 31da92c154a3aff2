package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/dutchbay/dbmodel/internal/tui"
)

func main() {
	_ = godotenv.Load()

	// Optional parameter file; the built-in baseline is used without one
	paramsPath := os.Getenv("DBMODEL_PARAMS")
	if len(os.Args) > 1 {
		paramsPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		fmt.Println("Usage: dbmodel-tui [params-file]")
		os.Exit(1)
	}

	if paramsPath != "" {
		if _, err := os.Stat(paramsPath); os.IsNotExist(err) {
			fmt.Printf("Error: Params file not found: %s\n", paramsPath)
			os.Exit(1)
		}
	}

	model := tui.NewModel(paramsPath)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
