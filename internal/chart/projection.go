// Package chart turns aggregated calendar hours into chart-ready series and
// renders them for the terminal.
package chart

import (
	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/models"
)

// BarColor is the single fill used by every bar.
const BarColor = "#4F46E5"

var palette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Palette returns a copy of the proportional chart colors in assignment order.
func Palette() []string {
	out := make([]string, len(palette))
	copy(out, palette)
	return out
}

// PaletteColor returns the color for position i, wrapping around the palette.
func PaletteColor(i int) string {
	return palette[i%len(palette)]
}

type BarSeries struct {
	Title  string
	Labels []string
	Values []float64
	Color  string
}

type ProportionalSeries struct {
	Labels []string
	Values []float64
	Colors []string
}

// Projection is derived from one response and never stored.
type Projection struct {
	Bar          BarSeries
	Proportional ProportionalSeries
}

// Empty reports whether there is nothing to chart.
func (p Projection) Empty() bool {
	return len(p.Bar.Labels) == 0
}

// Project maps entries onto both series in input order. Values pass through
// untouched; colors are assigned by position, not by name.
func Project(data []models.CategoryEntry) Projection {
	labels := make([]string, len(data))
	values := make([]float64, len(data))
	colors := make([]string, len(data))
	for i, e := range data {
		labels[i] = e.Name
		values[i] = e.Hours
		colors[i] = PaletteColor(i)
	}

	// The two series must not share backing arrays.
	propLabels := make([]string, len(labels))
	copy(propLabels, labels)
	propValues := make([]float64, len(values))
	copy(propValues, values)

	return Projection{
		Bar: BarSeries{
			Title:  constants.ChartTitle,
			Labels: labels,
			Values: values,
			Color:  BarColor,
		},
		Proportional: ProportionalSeries{
			Labels: propLabels,
			Values: propValues,
			Colors: colors,
		},
	}
}
