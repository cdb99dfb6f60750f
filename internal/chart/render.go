package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	maxLabelWidth    = 18
	minBarWidth      = 10
	defaultWidth     = 80
	donutRadius      = 5
	donutHoleRatio   = 0.55
	columnGap        = 4
	donutHeading     = "Share of Hours"
	minSideBySideBar = 30
)

var eighths = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉'}

// RenderDashboard lays the bar and donut charts out side by side, falling back
// to a vertical stack when width is too small. It returns "" for an empty
// projection so callers can show their own no-data message.
func RenderDashboard(p Projection, width int) string {
	if p.Empty() {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}

	donut := RenderDonut(p.Proportional, donutRadius)
	donutW := lipgloss.Width(donut)

	if barW := width - donutW - columnGap; barW >= minSideBySideBar {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			RenderBar(p.Bar, barW),
			strings.Repeat(" ", columnGap),
			donut,
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		RenderBar(p.Bar, width),
		"",
		donut,
	)
}

// RenderBar draws one horizontal bar per label, scaled to the largest value.
func RenderBar(s BarSeries, width int) string {
	if len(s.Labels) == 0 {
		return ""
	}

	labelW := 0
	for _, l := range s.Labels {
		labelW = max(labelW, lipgloss.Width(l))
	}
	labelW = min(labelW, maxLabelWidth)

	valueTexts := make([]string, len(s.Values))
	valueW := 0
	maxV := 0.0
	for i, v := range s.Values {
		valueTexts[i] = FormatHours(v)
		valueW = max(valueW, lipgloss.Width(valueTexts[i]))
		maxV = math.Max(maxV, v)
	}

	barW := max(width-labelW-valueW-2, minBarWidth)
	fill := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))

	lines := make([]string, 0, len(s.Labels)+1)
	if s.Title != "" {
		lines = append(lines, headingStyle.Render(s.Title))
	}
	for i, l := range s.Labels {
		bar := barString(s.Values[i], maxV, barW)
		pad := strings.Repeat(" ", barW-lipgloss.Width(bar))
		lines = append(lines, fmt.Sprintf("%s %s%s %s",
			labelStyle.Render(padRight(truncate(l, labelW), labelW)),
			fill.Render(bar), pad,
			valueStyle.Render(valueTexts[i]),
		))
	}
	return strings.Join(lines, "\n")
}

func barString(v, maxV float64, width int) string {
	if maxV <= 0 || v <= 0 {
		return ""
	}
	cells := v / maxV * float64(width)
	full := int(cells)
	partial := int((cells - float64(full)) * float64(len(eighths)))

	var b strings.Builder
	b.WriteString(strings.Repeat("█", full))
	if full < width && partial > 0 {
		b.WriteRune(eighths[partial])
	}
	return b.String()
}

// RenderDonut rasterises a ring whose arcs are proportional to the values,
// starting at twelve o'clock and running clockwise, followed by a legend.
func RenderDonut(s ProportionalSeries, radius int) string {
	if len(s.Labels) == 0 {
		return ""
	}
	radius = max(radius, 2)

	total := 0.0
	for _, v := range s.Values {
		total += v
	}
	bounds := cumulativeBounds(s.Values, total)

	outer := float64(radius) + 0.25
	inner := float64(radius) * donutHoleRatio

	rows := make([]string, 0, 2*radius+1)
	for y := -radius; y <= radius; y++ {
		var row strings.Builder
		var run strings.Builder
		runStyle := -2 // -2 blank, -1 empty ring, >=0 segment index

		flush := func() {
			if run.Len() == 0 {
				return
			}
			switch {
			case runStyle == -2:
				row.WriteString(run.String())
			case runStyle == -1:
				row.WriteString(emptyRingStyle.Render(run.String()))
			default:
				row.WriteString(lipgloss.NewStyle().
					Foreground(lipgloss.Color(s.Colors[runStyle])).
					Render(run.String()))
			}
			run.Reset()
		}

		// Terminal cells are roughly twice as tall as wide.
		for x := -2 * radius; x <= 2*radius; x++ {
			dx := float64(x) / 2
			dy := float64(y)
			d := math.Hypot(dx, dy)

			style, cell := -2, " "
			switch {
			case d > outer || d < inner:
			case total <= 0:
				style, cell = -1, "░"
			default:
				style, cell = segmentAt(bounds, clockwiseFraction(dx, dy)), "█"
			}

			if style != runStyle {
				flush()
				runStyle = style
			}
			run.WriteString(cell)
		}
		flush()
		rows = append(rows, row.String())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headingStyle.Render(donutHeading),
		strings.Join(rows, "\n"),
		"",
		renderLegend(s, total),
	)
}

func renderLegend(s ProportionalSeries, total float64) string {
	labelW := 0
	for _, l := range s.Labels {
		labelW = max(labelW, lipgloss.Width(l))
	}
	labelW = min(labelW, maxLabelWidth)

	lines := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		share := 0.0
		if total > 0 {
			share = s.Values[i] / total * 100
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Colors[i])).Render("■")
		lines[i] = fmt.Sprintf("%s %s %s",
			swatch,
			labelStyle.Render(padRight(truncate(l, labelW), labelW)),
			valueStyle.Render(fmt.Sprintf("%5.1f%%  %s", share, FormatHours(s.Values[i]))),
		)
	}
	return strings.Join(lines, "\n")
}

// cumulativeBounds returns, for each segment, the fraction of the circle at
// which it ends.
func cumulativeBounds(values []float64, total float64) []float64 {
	bounds := make([]float64, len(values))
	if total <= 0 {
		return bounds
	}
	acc := 0.0
	for i, v := range values {
		acc += v
		bounds[i] = acc / total
	}
	return bounds
}

// segmentAt finds the segment covering frac. Zero-width segments are never
// returned while a wider one exists.
func segmentAt(bounds []float64, frac float64) int {
	last := 0
	prev := 0.0
	for i, b := range bounds {
		if b > prev {
			last = i
			if frac < b {
				return i
			}
		}
		prev = b
	}
	return last
}

func clockwiseFraction(dx, dy float64) float64 {
	a := math.Atan2(dx, -dy)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a / (2 * math.Pi)
}

// FormatHours prints at most two decimals and drops trailing zeros.
func FormatHours(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + "h"
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > width-1 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
