package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dutchbay/dbmodel/internal/tui/tuistyles"
)

// DataSeries represents a single line in a chart
type DataSeries struct {
	Name   string
	Points []float64
	Color  lipgloss.Color
}

// ASCIIChart displays a simple line chart
type ASCIIChart struct {
	Title       string
	Series      []*DataSeries
	Labels      []string // X-axis labels
	Width       int
	Height      int
	ShowLegend  bool
	XAxisLabel  string
	ValueFormat func(float64) string // Y-axis labels
}

// NewASCIIChart creates a new ASCII chart
func NewASCIIChart(title string) *ASCIIChart {
	return &ASCIIChart{
		Title:       title,
		Series:      []*DataSeries{},
		Labels:      []string{},
		Width:       60,
		Height:      12,
		ShowLegend:  true,
		ValueFormat: func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
}

// AddSeries adds a data series to the chart
func (c *ASCIIChart) AddSeries(name string, points []float64, color lipgloss.Color) *ASCIIChart {
	c.Series = append(c.Series, &DataSeries{
		Name:   name,
		Points: points,
		Color:  color,
	})
	return c
}

// WithLabels sets the X-axis labels
func (c *ASCIIChart) WithLabels(labels []string) *ASCIIChart {
	c.Labels = labels
	return c
}

// WithSize sets the chart dimensions
func (c *ASCIIChart) WithSize(width, height int) *ASCIIChart {
	c.Width = width
	c.Height = height
	return c
}

// WithValueFormat sets the Y-axis label format
func (c *ASCIIChart) WithValueFormat(f func(float64) string) *ASCIIChart {
	c.ValueFormat = f
	return c
}

// WithXAxisLabel sets the X-axis caption
func (c *ASCIIChart) WithXAxisLabel(label string) *ASCIIChart {
	c.XAxisLabel = label
	return c
}

func (c *ASCIIChart) hasData() bool {
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return true
		}
	}
	return false
}

// Render returns the styled chart
func (c *ASCIIChart) Render() string {
	if !c.hasData() {
		return tuistyles.InfoStyle.Render("No data to display")
	}

	var content strings.Builder

	if c.Title != "" {
		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(tuistyles.ColorPrimary)
		content.WriteString(titleStyle.Render(c.Title))
		content.WriteString("\n\n")
	}

	globalMin, globalMax := c.getGlobalMinMax()
	content.WriteString(c.renderGrid(globalMin, globalMax))

	if c.XAxisLabel != "" {
		content.WriteString("\n")
		labelStyle := lipgloss.NewStyle().
			Foreground(tuistyles.ColorMuted).
			Italic(true)
		content.WriteString(labelStyle.Render(c.XAxisLabel))
	}

	if c.ShowLegend && len(c.Series) > 1 {
		content.WriteString("\n")
		content.WriteString(c.renderLegend())
	}

	return content.String()
}

// getGlobalMinMax finds the padded min and max across all series. A flat
// range is widened so every point maps to a row.
func (c *ASCIIChart) getGlobalMinMax() (float64, float64) {
	globalMin := math.Inf(1)
	globalMax := math.Inf(-1)

	for _, series := range c.Series {
		for _, point := range series.Points {
			globalMin = math.Min(globalMin, point)
			globalMax = math.Max(globalMax, point)
		}
	}
	if math.IsInf(globalMin, 0) || math.IsInf(globalMax, 0) {
		return 0, 1
	}

	padding := (globalMax - globalMin) * 0.1
	if padding == 0 {
		padding = math.Max(math.Abs(globalMax)*0.1, 1)
	}
	return globalMin - padding, globalMax + padding
}

// column maps point i of n to a chart column
func column(i, n, chartWidth int) int {
	if n <= 1 {
		return 0
	}
	return int(float64(i) / float64(n-1) * float64(chartWidth-1))
}

func (c *ASCIIChart) row(v, minVal, maxVal float64) int {
	return c.Height - 1 - int((v-minVal)/(maxVal-minVal)*float64(c.Height-1))
}

// renderGrid renders the chart grid with data points
func (c *ASCIIChart) renderGrid(minVal, maxVal float64) string {
	yAxisWidth := 8
	chartWidth := max(c.Width-yAxisWidth, 2)
	height := max(c.Height, 2)
	c.Height = height

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", chartWidth))
	}

	for seriesIdx, series := range c.Series {
		n := len(series.Points)
		pointChar := c.getSeriesChar(seriesIdx)

		for i, point := range series.Points {
			x := column(i, n, chartWidth)
			y := c.row(point, minVal, maxVal)

			if i > 0 {
				prevX := column(i-1, n, chartWidth)
				prevY := c.row(series.Points[i-1], minVal, maxVal)
				c.drawLine(grid, prevX, prevY, x, y, pointChar)
			}
			if x >= 0 && x < chartWidth && y >= 0 && y < height {
				grid[y][x] = pointChar
			}
		}
	}

	var output strings.Builder
	valueRange := maxVal - minVal
	yAxisStyle := lipgloss.NewStyle().
		Foreground(tuistyles.ColorMuted).
		Width(yAxisWidth).
		Align(lipgloss.Right)

	for i, row := range grid {
		yValue := maxVal - (float64(i)/float64(height-1))*valueRange
		output.WriteString(yAxisStyle.Render(c.ValueFormat(yValue)))
		output.WriteString(" │ ")
		output.WriteString(string(row))
		output.WriteString("\n")
	}

	output.WriteString(strings.Repeat(" ", yAxisWidth))
	output.WriteString(" └")
	output.WriteString(strings.Repeat("─", chartWidth))
	output.WriteString("\n")

	if len(c.Labels) > 0 {
		output.WriteString(c.renderXAxisLabels(yAxisWidth, chartWidth))
	}

	return output.String()
}

// getSeriesChar returns the character to use for a series
func (c *ASCIIChart) getSeriesChar(index int) rune {
	chars := []rune{'●', '·', '▲', '♦'}
	return chars[index%len(chars)]
}

// drawLine draws a line between two points using Bresenham's algorithm
func (c *ASCIIChart) drawLine(grid [][]rune, x0, y0, x1, y1 int, char rune) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)

	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}

	err := dx - dy
	x, y := x0, y0

	for {
		if x >= 0 && x < len(grid[0]) && y >= 0 && y < len(grid) {
			if grid[y][x] == ' ' {
				grid[y][x] = char
			}
		}

		if x == x1 && y == y1 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// renderXAxisLabels places up to five labels under their columns
func (c *ASCIIChart) renderXAxisLabels(yAxisWidth, chartWidth int) string {
	maxLabels := 5
	step := max(1, len(c.Labels)/maxLabels)

	line := []rune(strings.Repeat(" ", chartWidth+1))
	for i := 0; i < len(c.Labels); i += step {
		x := column(i, len(c.Labels), chartWidth)
		for j, r := range c.Labels[i] {
			if x+j < len(line) {
				line[x+j] = r
			}
		}
	}

	labelStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
	return strings.Repeat(" ", yAxisWidth+3) + labelStyle.Render(strings.TrimRight(string(line), " "))
}

// renderLegend renders the chart legend
func (c *ASCIIChart) renderLegend() string {
	var items []string

	for i, series := range c.Series {
		symbol := lipgloss.NewStyle().Foreground(series.Color).Render(string(c.getSeriesChar(i)))
		name := lipgloss.NewStyle().Foreground(tuistyles.ColorForeground).Render(series.Name)
		items = append(items, fmt.Sprintf("%s %s", symbol, name))
	}

	return lipgloss.NewStyle().
		Foreground(tuistyles.ColorMuted).
		Render("Legend: " + strings.Join(items, " • "))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
