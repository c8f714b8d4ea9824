package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Parameter validation errors
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrDegenerateTargets = fmt.Errorf("%w: alpha + beta must be below 1", ErrInvalidParameter)
	ErrUnsupportedFamily = fmt.Errorf("%w: unsupported distribution family", ErrInvalidParameter)

	// State machine errors
	ErrImproperUse       = errors.New("improper use")
	ErrTestTerminated    = fmt.Errorf("%w: test already reached a terminal decision", ErrImproperUse)
	ErrResetAfterObserve = fmt.Errorf("%w: reset is only permitted before any observation", ErrImproperUse)
	ErrOutsideSupport    = fmt.Errorf("%w: observation outside distribution support", ErrImproperUse)

	// Estimation errors
	ErrNoConvergence = errors.New("estimate did not converge")

	// Repository errors
	ErrNotFound     = errors.New("resource not found")
	ErrPlanNotFound = fmt.Errorf("%w: experiment plan", ErrNotFound)
)

// Error constructors with context
func NewParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameter, field, reason)
}

func NewSupportError(family string, value float64) error {
	return fmt.Errorf("%w: %v is not a valid %s observation", ErrOutsideSupport, value, family)
}

// Error checking helpers
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

func IsImproperUse(err error) bool {
	return errors.Is(err, ErrImproperUse)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
