package chart

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/calhours/internal/constants"
	"github.com/julianstephens/calhours/internal/models"
)

func sample() Projection {
	return Project([]models.CategoryEntry{
		{Name: "Work", Hours: 10},
		{Name: "Personal", Hours: 5},
		{Name: "Side Projects", Hours: 2.5},
	})
}

func TestRenderBar(t *testing.T) {
	out := RenderBar(sample().Bar, 50)

	assert.Contains(t, out, constants.ChartTitle)
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "10h")
	assert.Contains(t, out, "2.5h")

	lines := strings.Split(out, "\n")
	var work, personal string
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "Work"):
			work = l
		case strings.HasPrefix(l, "Personal"):
			personal = l
		}
	}
	assert.Greater(t, strings.Count(work, "█"), strings.Count(personal, "█"))
}

func TestRenderBar_ZeroValues(t *testing.T) {
	out := RenderBar(BarSeries{Labels: []string{"A", "B"}, Values: []float64{0, 0}, Color: BarColor}, 40)
	assert.NotContains(t, out, "█")
	assert.Contains(t, out, "0h")
}

func TestRenderBar_Empty(t *testing.T) {
	assert.Empty(t, RenderBar(Project(nil).Bar, 40))
}

func TestRenderDonut(t *testing.T) {
	out := RenderDonut(sample().Proportional, 4)

	assert.Contains(t, out, "█")
	assert.Contains(t, out, "Side Projects")
	assert.Contains(t, out, "57.1%")
	assert.Contains(t, out, "28.6%")
}

func TestRenderDonut_ZeroTotal(t *testing.T) {
	out := RenderDonut(ProportionalSeries{
		Labels: []string{"Idle"},
		Values: []float64{0},
		Colors: []string{PaletteColor(0)},
	}, 3)

	assert.Contains(t, out, "░")
	assert.NotContains(t, out, "█")
	assert.Contains(t, out, "0.0%")
}

func TestRenderDashboard_Layout(t *testing.T) {
	p := sample()

	wide := RenderDashboard(p, 120)
	narrow := RenderDashboard(p, 40)

	assert.Contains(t, wide, constants.ChartTitle)
	assert.Contains(t, wide, donutHeading)
	assert.Less(t, lipgloss.Height(wide), lipgloss.Height(narrow))
	assert.Empty(t, RenderDashboard(Project(nil), 120))
}

func TestSegmentAt(t *testing.T) {
	bounds := cumulativeBounds([]float64{1, 0, 3}, 4)
	assert.Equal(t, []float64{0.25, 0.25, 1}, bounds)

	assert.Equal(t, 0, segmentAt(bounds, 0))
	assert.Equal(t, 0, segmentAt(bounds, 0.2))
	assert.Equal(t, 2, segmentAt(bounds, 0.25))
	assert.Equal(t, 2, segmentAt(bounds, 0.99))
	assert.Equal(t, 2, segmentAt(bounds, 1))
}

func TestClockwiseFraction(t *testing.T) {
	assert.InDelta(t, 0.0, clockwiseFraction(0, -1), 1e-9)  // top
	assert.InDelta(t, 0.25, clockwiseFraction(1, 0), 1e-9)  // right
	assert.InDelta(t, 0.5, clockwiseFraction(0, 1), 1e-9)   // bottom
	assert.InDelta(t, 0.75, clockwiseFraction(-1, 0), 1e-9) // left
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "10h", FormatHours(10))
	assert.Equal(t, "5.25h", FormatHours(5.25))
	assert.Equal(t, "0.5h", FormatHours(0.5))
	assert.Equal(t, "3.33h", FormatHours(10.0/3))
	assert.Equal(t, "0h", FormatHours(0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Work", truncate("Work", 10))
	assert.Equal(t, "Side Pro…", truncate("Side Projects", 9))
	assert.Equal(t, 9, lipgloss.Width(truncate("Side Projects", 9)))
}
