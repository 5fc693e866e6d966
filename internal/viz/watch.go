package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/trajopt/internal/ilqr"
)

type (
	iterationMsg ilqr.IterationStats
	doneMsg      struct{ res *ilqr.Result }
	tickMsg      time.Time
)

const historyWindow = 200

// Watch follows a running solve. Iterations arrive on stats and the final
// result on done; both channels are owned by the sender.
type Watch struct {
	model   string
	maxIter int
	stats   <-chan ilqr.IterationStats
	done    <-chan *ilqr.Result

	theme    Theme
	history  []float64
	last     ilqr.IterationStats
	seen     bool
	result   *ilqr.Result
	frame    int
	width    int
	showHelp bool
}

func NewWatch(model string, maxIter int, stats <-chan ilqr.IterationStats, done <-chan *ilqr.Result) Watch {
	return Watch{
		model:   model,
		maxIter: maxIter,
		stats:   stats,
		done:    done,
		theme:   Themes[0],
		history: make([]float64, 0, historyWindow),
		width:   60,
	}
}

// Result is set once the solve has finished.
func (w Watch) Result() *ilqr.Result { return w.result }

func (w Watch) Init() tea.Cmd {
	return tea.Batch(waitStats(w.stats), waitDone(w.done), tick())
}

func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return w, tea.Quit
		case "t":
			w.theme = w.theme.next()
		case "?":
			w.showHelp = !w.showHelp
		}
	case tea.WindowSizeMsg:
		w.width = max(msg.Width-20, 20)
	case iterationMsg:
		w.last = ilqr.IterationStats(msg)
		w.seen = true
		w.history = append(w.history, msg.Cost)
		if len(w.history) > historyWindow {
			w.history = w.history[len(w.history)-historyWindow:]
		}
		return w, waitStats(w.stats)
	case doneMsg:
		w.result = msg.res
	case tickMsg:
		w.frame++
		if w.result == nil {
			return w, tick()
		}
	}
	return w, nil
}

func (w Watch) View() string {
	st := NewStyles(w.theme)
	var b strings.Builder

	status := Spinner(w.frame) + " solving"
	if w.result != nil {
		status = st.Status(w.result.Status)
	}
	b.WriteString(st.Header.Render(fmt.Sprintf("trajopt watch · %s", w.model)) + "\n")
	b.WriteString(st.Label.Render("status     ") + status + "\n")

	if w.seen {
		progress := float64(w.last.Iteration) / float64(max(w.maxIter, 1))
		fmt.Fprintf(&b, "%s%s %d/%d\n", st.Label.Render("iteration  "), ProgressBar(progress, 20), w.last.Iteration, w.maxIter)
		fmt.Fprintf(&b, "%s%s\n", st.Label.Render("cost       "), st.Value.Render(fmt.Sprintf("%.6g", w.last.Cost)))
		fmt.Fprintf(&b, "%s%s\n", st.Label.Render("|l|∞       "), st.Value.Render(fmt.Sprintf("%.3e", w.last.FeedforwardNorm)))
		fmt.Fprintf(&b, "%s%s (%d halvings)\n", st.Label.Render("step       "), st.Value.Render(fmt.Sprintf("%.4g", w.last.Alpha)), w.last.Halvings)
	}
	if len(w.history) > 1 {
		b.WriteString("\n" + CostChart(w.history, w.width, 8) + "\n")
	}

	if w.result != nil {
		b.WriteString("\n" + Summary(w.model, w.result, w.theme) + "\n")
	}

	if w.showHelp {
		b.WriteString("\n" + st.Panel.Render("q quit   t theme   ? help") + "\n")
	} else {
		b.WriteString(st.Hint.Render("q quit · t theme · ? help") + "\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func waitStats(ch <-chan ilqr.IterationStats) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return iterationMsg(s)
	}
}

func waitDone(ch <-chan *ilqr.Result) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{res: <-ch}
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// RunWatch runs solve in the background and shows its progress until the
// user quits. Quitting early cancels the solve; the result is returned
// either way.
func RunWatch(ctx context.Context, model string, maxIter int, solve func(context.Context, ilqr.Observer) *ilqr.Result) (*ilqr.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats := make(chan ilqr.IterationStats, 64)
	done := make(chan *ilqr.Result, 1)
	finished := make(chan *ilqr.Result, 1)

	go func() {
		res := solve(ctx, ilqr.ObserverFunc(func(s ilqr.IterationStats) {
			select {
			case stats <- s:
			case <-ctx.Done():
			}
		}))
		done <- res
		finished <- res
	}()

	_, err := tea.NewProgram(NewWatch(model, maxIter, stats, done)).Run()
	cancel()
	return <-finished, err
}
