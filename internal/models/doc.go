// Package models provides controlled plants for trajectory optimization.
//
// Every model implements [dynamo.System] and returns the Jacobian
// [∂f/∂x | ∂f/∂u] together with the state derivative. Most Jacobians are
// analytic; [CartPole] differentiates numerically. All models implement
// [dynamo.Configurable] so their physical parameters can be set from
// configuration files.
package models
