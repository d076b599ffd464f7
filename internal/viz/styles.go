package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(46)
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	statusRunning   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusStopped   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusAborted   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	barHigh         = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid          = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow          = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	markerHighlight = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
)

// SpeedBar renders a wheel command in [-100,100] as a bar centred on zero.
func SpeedBar(pct, width int) string {
	half := width / 2
	n := absInt(pct) * half / 100
	if n > half {
		n = half
	}
	var left, right string
	if pct < 0 {
		left = strings.Repeat(" ", half-n) + strings.Repeat("█", n)
		right = strings.Repeat(" ", half)
	} else {
		left = strings.Repeat(" ", half)
		right = strings.Repeat("█", n) + strings.Repeat(" ", half-n)
	}
	bar := left + "│" + right

	switch a := absInt(pct); {
	case a >= 100:
		return barLow.Render(bar)
	case a >= 60:
		return barMid.Render(bar)
	default:
		return barHigh.Render(bar)
	}
}

// ProgressBar renders how much of the iteration budget is used.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if fraction > 0.8 {
		return barLow.Render(bar)
	} else if fraction > 0.5 {
		return barMid.Render(bar)
	}
	return barHigh.Render(bar)
}
