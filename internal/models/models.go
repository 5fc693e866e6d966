package models

import "github.com/san-kum/trajopt/internal/dynamo"

const (
	DefaultMass    = 1.0
	DefaultLength  = 1.0
	DefaultGravity = 9.81
)

func unknownParam(name string) error {
	return &paramError{name: name}
}

type paramError struct {
	name string
}

func (e *paramError) Error() string {
	return dynamo.ErrUnknownParam.Error() + ": " + e.name
}

func (e *paramError) Unwrap() error {
	return dynamo.ErrUnknownParam
}

func positive(name string, v float64) error {
	if !(v > 0) {
		return &boundsError{name: name, value: v}
	}
	return nil
}

type boundsError struct {
	name  string
	value float64
}

func (e *boundsError) Error() string {
	return dynamo.ErrParameterBounds.Error() + ": " + e.name + " must be positive"
}

func (e *boundsError) Unwrap() error {
	return dynamo.ErrParameterBounds
}
