package sprt

import (
	"seqab/domain/core"
)

// Decision is the state of a sequential test run.
type Decision string

const (
	DecisionContinue   Decision = "continue"
	DecisionRejectNull Decision = "reject_null"
	DecisionAcceptNull Decision = "accept_null"
)

// Terminal reports whether the decision is absorbing.
func (d Decision) Terminal() bool {
	return d == DecisionRejectNull || d == DecisionAcceptNull
}

// TestState is the mutable state of one test run: the cumulative
// log-likelihood-ratio statistic, the number of observations folded into it,
// and the current decision. Owned by exactly one Engine; concurrent
// experiments must each use an independent Engine instance.
type TestState struct {
	Statistic    float64  `json:"statistic"`
	Observations int      `json:"observations"`
	Decision     Decision `json:"decision"`
}

// Engine applies the sequential probability ratio test: it folds one
// observation at a time into the running statistic and stops as soon as a
// boundary is crossed. Not safe for concurrent use; observe calls are
// strictly ordered by construction.
type Engine struct {
	spec   HypothesisSpec
	bounds Boundaries
	state  TestState
}

// NewEngine creates a fresh engine in the Continue state. The spec and
// boundaries are validated once here so Observe never re-checks them.
func NewEngine(spec HypothesisSpec, bounds Boundaries) (*Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		spec:   spec,
		bounds: bounds,
		state:  TestState{Decision: DecisionContinue},
	}, nil
}

// Observe folds one observation into the running statistic and applies the
// stopping rule. Returns the state after the update so callers can report
// progress. Calling Observe after a terminal decision, or with a value
// outside the model support, fails with an improper-use error and leaves the
// statistic and count unchanged.
func (e *Engine) Observe(x float64) (TestState, error) {
	if e.state.Decision.Terminal() {
		return e.state, core.ErrTestTerminated
	}
	increment, err := e.spec.LogLikelihoodRatio(x)
	if err != nil {
		return e.state, err
	}

	e.state.Statistic += increment
	e.state.Observations++

	switch {
	case e.state.Statistic >= e.bounds.Upper:
		e.state.Decision = DecisionRejectNull
	case e.state.Statistic <= e.bounds.Lower:
		e.state.Decision = DecisionAcceptNull
	}
	return e.state, nil
}

// Reset re-initializes the run. Only permitted before any observation has
// been folded in; resetting a started run would silently discard evidence.
func (e *Engine) Reset() error {
	if e.state.Observations > 0 {
		return core.ErrResetAfterObserve
	}
	e.state = TestState{Decision: DecisionContinue}
	return nil
}

// State returns a copy of the current run state.
func (e *Engine) State() TestState {
	return e.state
}

// Spec returns the hypothesis spec the engine was built with.
func (e *Engine) Spec() HypothesisSpec {
	return e.spec
}

// Boundaries returns the decision thresholds the engine was built with.
func (e *Engine) Boundaries() Boundaries {
	return e.bounds
}

// EngineFactory stamps out independent engines sharing one validated spec
// and boundary pair. The estimator uses a fresh engine per simulated run;
// callers use it for concurrent experiments without cross-talk.
type EngineFactory struct {
	spec   HypothesisSpec
	bounds Boundaries
}

// NewEngineFactory validates the spec and error targets once and returns the
// derived boundaries alongside the factory.
func NewEngineFactory(spec HypothesisSpec, targets ErrorTargets) (Boundaries, EngineFactory, error) {
	if err := spec.Validate(); err != nil {
		return Boundaries{}, EngineFactory{}, err
	}
	bounds, err := NewBoundaries(targets)
	if err != nil {
		return Boundaries{}, EngineFactory{}, err
	}
	return bounds, EngineFactory{spec: spec, bounds: bounds}, nil
}

// New returns a fresh engine in the Continue state.
func (f EngineFactory) New() *Engine {
	return &Engine{
		spec:   f.spec,
		bounds: f.bounds,
		state:  TestState{Decision: DecisionContinue},
	}
}

// Spec returns the factory's hypothesis spec.
func (f EngineFactory) Spec() HypothesisSpec {
	return f.spec
}

// Boundaries returns the factory's decision thresholds.
func (f EngineFactory) Boundaries() Boundaries {
	return f.bounds
}
