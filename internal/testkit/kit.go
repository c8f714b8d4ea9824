package testkit

import (
	"math/rand"

	"seqab/domain/sprt"
)

// TestKit provides deterministic observation streams for tests and demos.
// Every stream is seeded explicitly so fixtures never drift between runs.
type TestKit struct{}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{}
}

// BernoulliStream returns n deterministic 0/1 observations with rate p.
func (k *TestKit) BernoulliStream(seed int64, p float64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		if rng.Float64() < p {
			out[i] = 1
		}
	}
	return out
}

// GaussianStream returns n deterministic draws from N(mu, sigma).
func (k *TestKit) GaussianStream(seed int64, mu, sigma float64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mu + sigma*rng.NormFloat64()
	}
	return out
}

// CalibrationSpec is the reference conversion experiment used across the
// test suite: 10% baseline against a 12% alternative.
func (k *TestKit) CalibrationSpec() sprt.HypothesisSpec {
	spec, err := sprt.NewBernoulliSpec(0.10, 0.12)
	if err != nil {
		panic(err)
	}
	return spec
}

// CalibrationTargets is the reference error-target pair (alpha 5%, beta 20%).
func (k *TestKit) CalibrationTargets() sprt.ErrorTargets {
	targets, err := sprt.NewErrorTargets(0.05, 0.20)
	if err != nil {
		panic(err)
	}
	return targets
}

// Drive feeds a whole stream through an engine and returns the trajectory of
// states, stopping early at a terminal decision.
func (k *TestKit) Drive(engine *sprt.Engine, stream []float64) ([]sprt.TestState, error) {
	trajectory := make([]sprt.TestState, 0, len(stream))
	for _, x := range stream {
		state, err := engine.Observe(x)
		if err != nil {
			return trajectory, err
		}
		trajectory = append(trajectory, state)
		if state.Decision.Terminal() {
			break
		}
	}
	return trajectory, nil
}
