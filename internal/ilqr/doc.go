// Package ilqr solves finite-horizon optimal control problems with the
// iterative linear-quadratic regulator.
//
// Each outer iteration linearizes the plant around the current trajectory,
// runs a Riccati backward pass to obtain an affine policy u = ū − l − K(x − x̄)
// and applies it in a forward pass with a halving line search that only
// accepts non-increasing cost. The solve stops once the largest feedforward
// correction falls below the tolerance.
//
// Basic usage:
//
//	c, _ := cost.New(Q, R, Qf, goal)
//	res, err := ilqr.Solve(ctx, &ilqr.Problem{
//		System:  models.NewDoubleIntegrator(),
//		X0:      x0,
//		Cost:    c,
//		Dt:      0.1,
//		Horizon: 50,
//	}, ilqr.DefaultOptions())
package ilqr
