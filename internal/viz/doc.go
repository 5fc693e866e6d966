// Package viz renders solver progress in the terminal.
//
// [Summary] and [CostChart] format a finished solve with lipgloss and
// asciigraph. [Watch] is a Bubble Tea model that follows a running solve
// through an ilqr.Observer.
//
// # Key Bindings
//
//	q     - Quit (cancels a running solve)
//	t     - Cycle color themes
//	?     - Show help overlay
package viz
