// Package dynamo provides the core primitives shared by the trajectory optimizer.
//
// The package defines the fundamental interfaces and helpers for continuous
// time dynamical systems:
//
//   - [System]: dX/dt = f(t, X, u) together with its Jacobian [∂f/∂x | ∂f/∂u]
//   - [DynamicsFunc]: adapter turning a plain function into a [System]
//   - [NumericJacobian]: central-difference Jacobian for plants without an analytic one
//
// # Example
//
//	sys := models.NewPendulum()
//	xdot, jac := sys.Derive(0, x, u)
//
// # Thread Safety
//
// A System is evaluated from a single goroutine per solve. Implementations
// that are shared across concurrent solves must be stateless.
package dynamo
