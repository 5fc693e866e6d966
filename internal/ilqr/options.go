package ilqr

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 1000
	DefaultMaxHalvings   = 30
)

// Options tune the driver. Zero values of MaxIterations and MaxHalvings
// select the defaults; a zero Tolerance is honored.
type Options struct {
	Tolerance     float64
	MaxIterations int
	MaxHalvings   int

	Logger   *zap.Logger
	Observer Observer
}

func DefaultOptions() Options {
	return Options{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		MaxHalvings:   DefaultMaxHalvings,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxHalvings <= 0 {
		o.MaxHalvings = DefaultMaxHalvings
	}
	if o.Tolerance < 0 {
		o.Tolerance = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// IterationStats describes one accepted outer iteration.
type IterationStats struct {
	Iteration       int
	Cost            float64
	Alpha           float64
	Halvings        int
	FeedforwardNorm float64
	Elapsed         time.Duration
}

// Observer receives progress after each accepted iteration. Observers shared
// across SolveBatch workers must be safe for concurrent use.
type Observer interface {
	OnIteration(IterationStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(IterationStats)

func (f ObserverFunc) OnIteration(s IterationStats) { f(s) }

// Observers fans one iteration out to several observers, skipping nils.
func Observers(obs ...Observer) Observer {
	live := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			live = append(live, o)
		}
	}
	return ObserverFunc(func(s IterationStats) {
		for _, o := range live {
			o.OnIteration(s)
		}
	})
}
