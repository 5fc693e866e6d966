package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/experiment"
)

// Names of the weight scale factors understood by WeightObjective.
const (
	ScaleQ  = "q_scale"
	ScaleR  = "r_scale"
	ScaleQf = "qf_scale"
)

// WeightObjective scales the cost weights of base, solves, and scores the
// plan by its tracker replay distance to the goal. Solves that do not
// converge fail the trial.
func WeightObjective(reg *experiment.Registry, base *config.Config, vc experiment.VerifyConfig) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := base.Clone()
		for name, f := range params {
			switch name {
			case ScaleQ:
				cfg.Weights.Q = cfg.Weights.Q.Scaled(f)
			case ScaleR:
				cfg.Weights.R = cfg.Weights.R.Scaled(f)
			case ScaleQf:
				cfg.Weights.Qf = cfg.Weights.Qf.Scaled(f)
			default:
				return 0, fmt.Errorf("unknown weight scale %q", name)
			}
		}

		exp, err := experiment.New(reg, cfg)
		if err != nil {
			return 0, err
		}
		res, err := exp.Solve(ctx, nil, nil)
		if err != nil {
			return 0, err
		}
		runs, err := exp.Verify(ctx, res, vc)
		if err != nil {
			return 0, err
		}

		worst := 0.0
		for _, r := range runs {
			worst = max(worst, r.Metrics["terminal_error"])
		}
		return worst, nil
	}
}
