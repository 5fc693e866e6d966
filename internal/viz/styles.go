package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/trajopt/internal/ilqr"
)

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Panel  lipgloss.Style
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Hint   lipgloss.Style
	OK     lipgloss.Style
	Warn   lipgloss.Style
	Fail   lipgloss.Style
	Header lipgloss.Style
}

func NewStyles(th Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(th.Muted).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(th.Secondary),
		Label: lipgloss.NewStyle().Foreground(th.Muted),
		Value: lipgloss.NewStyle().Bold(true).Foreground(th.Accent),
		Hint:  lipgloss.NewStyle().Italic(true).Foreground(th.Muted),
		OK:    lipgloss.NewStyle().Bold(true).Foreground(th.Success),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(th.Warning),
		Fail:  lipgloss.NewStyle().Bold(true).Foreground(th.Error),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(th.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(th.Muted),
	}
}

// Status colors a solver status: green on convergence, amber when the
// solve stopped on a budget, red otherwise.
func (s Styles) Status(st ilqr.Status) string {
	switch st {
	case ilqr.StatusConverged:
		return s.OK.Render(st.String())
	case ilqr.StatusIterationCap, ilqr.StatusCanceled:
		return s.Warn.Render(st.String())
	default:
		return s.Fail.Render(st.String())
	}
}

// Spinner returns one frame of a braille spinner.
func Spinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

// ProgressBar renders percent in [0, 1] as a bar of width cells.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline maps values onto block characters, sampling to fit width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		idx := int((values[i*step] - lo) / rng * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return b.String()
}
