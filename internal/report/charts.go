package report

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// ChartKind selects how a chart is drawn
type ChartKind int

const (
	// ChartColumns draws one signed bar per label
	ChartColumns ChartKind = iota
	// ChartTornado draws low and high deltas either side of the base case
	ChartTornado
)

// Chart is a data series drawn as text in Markdown and as inline SVG in HTML
type Chart struct {
	ID     string // [a-z_]+, used to match the Markdown block to its SVG
	Title  string
	Kind   ChartKind
	Labels []string
	Values []float64 // ChartColumns; NaN leaves a gap
	Low    []float64 // ChartTornado deltas; NaN when undefined
	High   []float64
	Format func(float64) string
}

const (
	textBarWidth = 40
	svgWidth     = 640.0
	svgColumnsH  = 220.0
	svgRowH      = 22.0
	colorPos     = "#0f766e"
	colorNeg     = "#b91c1c"
	colorAxis    = "#a8a29e"
)

// DSCRChart plots the DSCR of every year; years without debt service are gaps
func DSCRChart(res *domain.ModelResult) Chart {
	c := Chart{ID: "dscr", Title: "DSCR by year", Kind: ChartColumns,
		Format: func(v float64) string { return fmt.Sprintf("%.2fx", v) }}
	for _, row := range res.Annual {
		c.Labels = append(c.Labels, fmt.Sprintf("Y%d", row.Year))
		if row.DSCR == nil {
			c.Values = append(c.Values, math.NaN())
			continue
		}
		c.Values = append(c.Values, *row.DSCR)
	}
	return c
}

// EquityFCFChart plots equity free cash flow in USD millions
func EquityFCFChart(res *domain.ModelResult) Chart {
	c := Chart{ID: "equity_fcf", Title: "Equity free cash flow (USD m)", Kind: ChartColumns,
		Format: func(v float64) string { return fmt.Sprintf("%.1f", v) }}
	for _, row := range res.Annual {
		c.Labels = append(c.Labels, fmt.Sprintf("Y%d", row.Year))
		c.Values = append(c.Values, row.EquityFCFUSD/1e6)
	}
	return c
}

// TornadoChart plots each input's low and high result against the base metric
func TornadoChart(t *domain.TornadoResult) Chart {
	c := Chart{ID: "tornado", Kind: ChartTornado,
		Title: fmt.Sprintf("Tornado (%s change from base)", strings.ToUpper(string(t.Metric)))}
	switch t.Metric {
	case domain.MetricIRR:
		c.Format = func(v float64) string { return fmt.Sprintf("%+.2f pts", v*100) }
	case domain.MetricNPV:
		c.Format = func(v float64) string { return fmt.Sprintf("%+.1fm", v/1e6) }
	default:
		c.Format = func(v float64) string { return fmt.Sprintf("%+.2fx", v) }
	}

	delta := func(v *float64) float64 {
		if v == nil || t.BaseMetric == nil {
			return math.NaN()
		}
		return *v - *t.BaseMetric
	}
	for _, bar := range t.Bars {
		c.Labels = append(c.Labels, bar.Parameter)
		c.Low = append(c.Low, delta(bar.LowMetric))
		c.High = append(c.High, delta(bar.HighMetric))
	}
	return c
}

func (c Chart) format(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if c.Format == nil {
		return fmt.Sprintf("%g", v)
	}
	return c.Format(v)
}

// maxAbs returns the largest magnitude across values, ignoring NaN
func maxAbs(values ...[]float64) float64 {
	m := 0.0
	for _, vs := range values {
		for _, v := range vs {
			if !math.IsNaN(v) {
				m = math.Max(m, math.Abs(v))
			}
		}
	}
	return m
}

func labelWidth(labels []string) int {
	w := 0
	for _, l := range labels {
		w = max(w, len(l))
	}
	return w
}

// cells scales v against scale onto n character cells
func cells(v, scale float64, n int) int {
	if scale == 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Abs(v) / scale * float64(n)))
}

// Text renders the chart as plain bars for terminals and Markdown
func (c Chart) Text() string {
	var sb strings.Builder
	sb.WriteString(c.Title + "\n")
	lw := labelWidth(c.Labels)

	switch c.Kind {
	case ChartTornado:
		half := textBarWidth / 2
		scale := maxAbs(c.Low, c.High)
		for i, label := range c.Labels {
			lo, hi := c.Low[i], c.High[i]
			neg, pos := 0, 0
			for _, v := range []float64{lo, hi} {
				if v < 0 {
					neg = max(neg, cells(v, scale, half))
				} else if v > 0 {
					pos = max(pos, cells(v, scale, half))
				}
			}
			fmt.Fprintf(&sb, "%-*s %*s│%-*s  low %s, high %s\n", lw, label,
				half, strings.Repeat("█", neg), half, strings.Repeat("█", pos),
				c.format(lo), c.format(hi))
		}
	default:
		scale := maxAbs(c.Values)
		for i, label := range c.Labels {
			v := c.Values[i]
			bar := "█"
			if v < 0 {
				bar = "░"
			}
			fmt.Fprintf(&sb, "%-*s %-*s %s\n", lw, label, textBarWidth,
				strings.Repeat(bar, cells(v, scale, textBarWidth)), c.format(v))
		}
	}
	return sb.String()
}

// Markdown wraps the text chart in a fenced block tagged with the chart ID
func (c Chart) Markdown() string {
	return "```chart-" + c.ID + "\n" + c.Text() + "```\n"
}

// SVG renders the chart as a standalone inline SVG element
func (c Chart) SVG() string {
	if c.Kind == ChartTornado {
		return c.tornadoSVG()
	}
	return c.columnsSVG()
}

func (c Chart) columnsSVG() string {
	const left, right, top, bottom = 56.0, 8.0, 12.0, 24.0
	plotW := svgWidth - left - right
	plotH := svgColumnsH - top - bottom

	lo, hi := 0.0, 0.0
	for _, v := range c.Values {
		if !math.IsNaN(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	y := func(v float64) float64 { return top + (hi-v)/(hi-lo)*plotH }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" role="img" aria-label="%s">`,
		svgWidth, svgColumnsH, html.EscapeString(c.Title))
	fmt.Fprintf(&sb, `<text x="%.0f" y="%.1f" font-size="10" text-anchor="end">%s</text>`, left-4, y(hi)+4, html.EscapeString(c.format(hi)))
	fmt.Fprintf(&sb, `<text x="%.0f" y="%.1f" font-size="10" text-anchor="end">%s</text>`, left-4, y(lo)+4, html.EscapeString(c.format(lo)))

	n := max(len(c.Values), 1)
	slot := plotW / float64(n)
	step := max(1, n/10)
	for i, v := range c.Values {
		x := left + float64(i)*slot
		if i%step == 0 {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%.0f" font-size="10" text-anchor="middle">%s</text>`,
				x+slot/2, svgColumnsH-8, html.EscapeString(c.Labels[i]))
		}
		if math.IsNaN(v) {
			continue
		}
		color := colorPos
		if v < 0 {
			color = colorNeg
		}
		y0, y1 := y(math.Max(v, 0)), y(math.Min(v, 0))
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s %s</title></rect>`,
			x+slot*0.15, y0, slot*0.7, y1-y0, color, html.EscapeString(c.Labels[i]), html.EscapeString(c.format(v)))
	}
	fmt.Fprintf(&sb, `<line x1="%.0f" y1="%.1f" x2="%.0f" y2="%.1f" stroke="%s"/>`, left, y(0), svgWidth-right, y(0), colorAxis)
	sb.WriteString(`</svg>`)
	return sb.String()
}

func (c Chart) tornadoSVG() string {
	const labelW, valueW, top = 150.0, 130.0, 8.0
	half := (svgWidth - labelW - valueW) / 2
	center := labelW + half
	height := top*2 + svgRowH*float64(max(len(c.Labels), 1))
	scale := maxAbs(c.Low, c.High)
	if scale == 0 {
		scale = 1
	}
	bar := func(sb *strings.Builder, v, y float64, color string) {
		if math.IsNaN(v) {
			return
		}
		w := math.Abs(v) / scale * half
		x := center
		if v < 0 {
			x -= w
		}
		fmt.Fprintf(sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`, x, y+3, w, svgRowH-6, color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" role="img" aria-label="%s">`,
		svgWidth, height, html.EscapeString(c.Title))
	for i, label := range c.Labels {
		y := top + float64(i)*svgRowH
		fmt.Fprintf(&sb, `<text x="%.0f" y="%.1f" font-size="11" text-anchor="end">%s</text>`, labelW-6, y+svgRowH/2+4, html.EscapeString(label))
		bar(&sb, c.Low[i], y, colorNeg)
		bar(&sb, c.High[i], y, colorPos)
		fmt.Fprintf(&sb, `<text x="%.0f" y="%.1f" font-size="10">%s / %s</text>`, svgWidth-valueW+6, y+svgRowH/2+4,
			html.EscapeString(c.format(c.Low[i])), html.EscapeString(c.format(c.High[i])))
	}
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.0f" x2="%.1f" y2="%.1f" stroke="%s"/>`, center, top, center, height-top, colorAxis)
	sb.WriteString(`</svg>`)
	return sb.String()
}

var reChartBlock = regexp.MustCompile(`(?s)<pre><code class="language-chart-([a-z_]+)">.*?</code></pre>`)

// EmbedCharts swaps each rendered chart block in contentHTML for its SVG.
// Blocks without a matching chart are left as text.
func EmbedCharts(contentHTML string, charts []Chart) string {
	if len(charts) == 0 {
		return contentHTML
	}
	byID := make(map[string]Chart, len(charts))
	for _, c := range charts {
		byID[c.ID] = c
	}
	return reChartBlock.ReplaceAllStringFunc(contentHTML, func(block string) string {
		id := reChartBlock.FindStringSubmatch(block)[1]
		c, ok := byID[id]
		if !ok {
			return block
		}
		return `<figure class="chart">` + c.SVG() + `<figcaption>` + html.EscapeString(c.Title) + `</figcaption></figure>`
	})
}
