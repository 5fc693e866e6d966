// Package control provides feedback policies that can be replayed through
// the simulator, plus the closed-form discrete LQR used to check solver
// output.
//
//   - [Tracker]: time-varying affine policy u = ū − K(x − x̄) from a solve
//   - [LQR]: static state feedback u = −K(x − target)
//   - [OpenLoop]: replays a control sequence without feedback
//
// # Usage
//
//	tr, _ := control.NewTracker(res.X, res.U, res.K, dt)
//	out, _ := sim.New(sys, tr).Run(ctx, x0, sim.Config{Dt: dt, Steps: n})
package control
