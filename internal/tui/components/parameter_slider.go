package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

// ParameterSlider displays an adjustable model input with a visual slider.
// Value is in model units; Scale converts it for display (100 shows a
// fraction as a percentage).
type ParameterSlider struct {
	Key         string // model parameter name, e.g. "tariff_lkr_kwh"
	Label       string
	Value       float64
	Min         float64
	Max         float64
	Step        float64
	Scale       float64
	Unit        string // e.g., "%", " years", "M"
	Format      string // e.g., "%.2f", "%.0f"
	Width       int    // Total width of slider bar
	IsFocused   bool
	Description string
}

// NewParameterSlider creates a new parameter slider
func NewParameterSlider(key, label string, value, min, max, step float64) *ParameterSlider {
	p := &ParameterSlider{
		Key:    key,
		Label:  label,
		Min:    min,
		Max:    max,
		Step:   step,
		Scale:  1,
		Format: "%.2f",
		Width:  30,
	}
	p.SetValue(value)
	return p
}

// WithUnit sets the unit suffix
func (p *ParameterSlider) WithUnit(unit string) *ParameterSlider {
	p.Unit = unit
	return p
}

// WithFormat sets the value format string
func (p *ParameterSlider) WithFormat(format string) *ParameterSlider {
	p.Format = format
	return p
}

// WithScale sets the display multiplier
func (p *ParameterSlider) WithScale(scale float64) *ParameterSlider {
	p.Scale = scale
	return p
}

// WithWidth sets the slider width
func (p *ParameterSlider) WithWidth(width int) *ParameterSlider {
	p.Width = width
	return p
}

// SetFocused sets the focus state
func (p *ParameterSlider) SetFocused(focused bool) *ParameterSlider {
	p.IsFocused = focused
	return p
}

// WithDescription adds a description/help text
func (p *ParameterSlider) WithDescription(desc string) *ParameterSlider {
	p.Description = desc
	return p
}

// Increment increases the value by step, stopping at Max
func (p *ParameterSlider) Increment() bool {
	return p.move(1)
}

// Decrement decreases the value by step, stopping at Min
func (p *ParameterSlider) Decrement() bool {
	return p.move(-1)
}

// move shifts by n steps on the Min-anchored grid so repeated float
// additions cannot drift off the end points. It reports whether the value
// changed.
func (p *ParameterSlider) move(n int) bool {
	if p.Step <= 0 {
		return false
	}
	idx := math.Round((p.Value-p.Min)/p.Step) + float64(n)
	v := p.Min + idx*p.Step
	if v > p.Max+p.Step*1e-9 || v < p.Min-p.Step*1e-9 {
		return false
	}
	old := p.Value
	p.Value = math.Max(p.Min, math.Min(p.Max, v))
	return p.Value != old
}

// SetValue sets the value directly, clamping to min/max
func (p *ParameterSlider) SetValue(value float64) {
	p.Value = math.Max(p.Min, math.Min(p.Max, value))
}

// Percentage returns the value as a percentage of the range
func (p *ParameterSlider) Percentage() float64 {
	if p.Max == p.Min {
		return 0
	}
	return (p.Value - p.Min) / (p.Max - p.Min)
}

// ApplyTo writes the slider value into params
func (p *ParameterSlider) ApplyTo(params *domain.Params) error {
	return calculation.SetParamValue(params, p.Key, p.Value)
}

// DisplayValue formats v for display with the slider's scale and unit
func (p *ParameterSlider) DisplayValue(v float64) string {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}
	return fmt.Sprintf(p.Format, v*scale) + p.Unit
}

// Render returns the styled parameter slider
func (p *ParameterSlider) Render() string {
	var content strings.Builder

	labelStyle := tuistyles.ParameterLabelStyle
	valueStyle := tuistyles.ParameterValueStyle
	if p.IsFocused {
		labelStyle = labelStyle.Foreground(tuistyles.ColorPrimary)
		valueStyle = valueStyle.Foreground(tuistyles.ColorAccent)
	}
	content.WriteString(labelStyle.Render(p.Label))
	content.WriteString("  ")
	content.WriteString(valueStyle.Render(p.DisplayValue(p.Value)))
	content.WriteString("\n")

	content.WriteString(p.renderSliderBar())

	rangeStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
	content.WriteString(" ")
	content.WriteString(rangeStyle.Render(fmt.Sprintf("%s ─ %s", p.DisplayValue(p.Min), p.DisplayValue(p.Max))))

	if p.Description != "" && p.IsFocused {
		content.WriteString("\n")
		descStyle := lipgloss.NewStyle().
			Foreground(tuistyles.ColorMuted).
			Italic(true)
		content.WriteString(descStyle.Render(p.Description))
	}

	return content.String()
}

// renderSliderBar creates the visual slider bar
func (p *ParameterSlider) renderSliderBar() string {
	filled := int(math.Round(float64(p.Width) * p.Percentage()))
	filled = max(0, min(p.Width, filled))
	empty := p.Width - filled

	trackStyle := tuistyles.SliderTrackStyle
	thumbStyle := tuistyles.SliderThumbStyle
	if p.IsFocused {
		thumbStyle = thumbStyle.Foreground(tuistyles.ColorAccent)
	}

	var bar strings.Builder
	bar.WriteString("[")
	if filled > 1 {
		bar.WriteString(thumbStyle.Render(strings.Repeat("━", filled-1)))
	}
	bar.WriteString(thumbStyle.Render("●"))
	if empty > 1 {
		bar.WriteString(trackStyle.Render(strings.Repeat("─", empty-1)))
	}
	bar.WriteString("]")

	return bar.String()
}

// RenderCompact returns a compact single-line version
func (p *ParameterSlider) RenderCompact() string {
	labelStyle := tuistyles.ParameterLabelStyle
	valueStyle := tuistyles.ParameterValueStyle
	if p.IsFocused {
		labelStyle = labelStyle.Foreground(tuistyles.ColorPrimary)
		valueStyle = valueStyle.Foreground(tuistyles.ColorAccent)
	}
	return fmt.Sprintf("%s %s", labelStyle.Render(p.Label+":"), valueStyle.Render(p.DisplayValue(p.Value)))
}
