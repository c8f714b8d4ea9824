package sprt

import (
	"math"

	"seqab/domain/core"
)

// ErrorTargets is the tolerated false-positive / false-negative rate pair.
// Both rates live in (0,1) and must sum below 1, otherwise the decision
// boundaries would not separate.
type ErrorTargets struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// NewErrorTargets validates and returns an (alpha, beta) pair.
func NewErrorTargets(alpha, beta float64) (ErrorTargets, error) {
	t := ErrorTargets{Alpha: alpha, Beta: beta}
	if err := t.Validate(); err != nil {
		return ErrorTargets{}, err
	}
	return t, nil
}

// Validate checks both rates are interior points and non-degenerate together.
func (t ErrorTargets) Validate() error {
	if !(t.Alpha > 0 && t.Alpha < 1) || math.IsNaN(t.Alpha) {
		return core.NewParameterError("alpha", "must be in (0,1)")
	}
	if !(t.Beta > 0 && t.Beta < 1) || math.IsNaN(t.Beta) {
		return core.NewParameterError("beta", "must be in (0,1)")
	}
	if t.Alpha+t.Beta >= 1 {
		return core.ErrDegenerateTargets
	}
	return nil
}

// Power returns 1 - beta.
func (t ErrorTargets) Power() float64 {
	return 1 - t.Beta
}

// Boundaries holds the Wald decision thresholds for the running
// log-likelihood ratio: crossing Upper rejects the null (effect detected),
// crossing Lower accepts it (stop for futility).
//
// These are the classical SPRT approximations
//
//	A = ln((1-beta)/alpha)
//	B = ln(beta/(1-alpha))
//
// They bound the realized error rates only approximately: ignoring boundary
// overshoot, realized alpha <= alpha/(1-beta) and realized beta <=
// beta/(1-alpha). The Monte Carlo estimator exists to validate the realized
// rates empirically; nothing here claims an exact finite-sample guarantee.
type Boundaries struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// NewBoundaries derives the Wald thresholds from validated error targets.
// Deterministic pure function: identical targets yield bit-identical
// boundaries.
func NewBoundaries(t ErrorTargets) (Boundaries, error) {
	if err := t.Validate(); err != nil {
		return Boundaries{}, err
	}
	return Boundaries{
		Upper: math.Log((1 - t.Beta) / t.Alpha),
		Lower: math.Log(t.Beta / (1 - t.Alpha)),
	}, nil
}

// Width returns the gap the statistic has to travel between decisions.
func (b Boundaries) Width() float64 {
	return b.Upper - b.Lower
}
