// Package tuistyles holds the lipgloss palette shared by the TUI scenes and
// components.
package tuistyles

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPrimary   = lipgloss.Color("#0F766E")
	ColorSecondary = lipgloss.Color("#0369A1")
	ColorAccent    = lipgloss.Color("#F59E0B")
	ColorSuccess   = lipgloss.Color("#16A34A")
	ColorDanger    = lipgloss.Color("#DC2626")
	ColorInfo      = lipgloss.Color("#2563EB")

	ColorBackground = lipgloss.Color("#0B1120")
	ColorForeground = lipgloss.Color("#E5E7EB")
	ColorMuted      = lipgloss.Color("#6B7280")
	ColorBorder     = lipgloss.Color("#374151")

	ColorChartLine1 = lipgloss.Color("#14B8A6")
	ColorChartLine2 = lipgloss.Color("#F87171")
)

var (
	AppStyle = lipgloss.NewStyle().Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorForeground).
			Background(ColorBorder).
			Padding(0, 1)

	StatusKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	MetricLabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	MetricValueStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorForeground)

	ParameterLabelStyle = lipgloss.NewStyle().Bold(true)
	ParameterValueStyle = lipgloss.NewStyle().Foreground(ColorSecondary)

	SliderTrackStyle = lipgloss.NewStyle().Foreground(ColorBorder)
	SliderThumbStyle = lipgloss.NewStyle().Foreground(ColorPrimary)

	HelpStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	InfoStyle  = lipgloss.NewStyle().Foreground(ColorInfo)
	WarnStyle  = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
)

// MetricTrendStyle colours a change by direction
func MetricTrendStyle(positive bool) lipgloss.Style {
	if positive {
		return lipgloss.NewStyle().Foreground(ColorSuccess)
	}
	return lipgloss.NewStyle().Foreground(ColorDanger)
}

// TrendIndicator returns an up or down arrow
func TrendIndicator(positive bool) string {
	if positive {
		return "▲"
	}
	return "▼"
}

// FormatMillions renders USD in millions, e.g. "$12.3M"
func FormatMillions(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.1fM", -v/1e6)
	}
	return fmt.Sprintf("$%.1fM", v/1e6)
}

// FormatRate renders an optional fraction as a percentage
func FormatRate(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// FormatDSCR renders a coverage ratio; +Inf means no debt service
func FormatDSCR(v float64) string {
	if math.IsInf(v, 1) {
		return "no debt"
	}
	return fmt.Sprintf("%.2fx", v)
}
