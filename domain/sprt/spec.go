package sprt

import (
	"math"

	"seqab/domain/core"
)

// Family identifies the outcome distribution of a single observation.
type Family string

const (
	// FamilyBernoulli models conversion-style 0/1 outcomes (two-sample proportions).
	FamilyBernoulli Family = "bernoulli"
	// FamilyGaussian models real-valued measurements with known scale.
	FamilyGaussian Family = "gaussian"
)

// Hypothesis selects which parameterization an expectation is taken under.
type Hypothesis int

const (
	UnderNull Hypothesis = iota
	UnderAlternative
)

// HypothesisSpec encodes the null and alternative parameterization of a
// single-observation model. Immutable after construction.
//
// For FamilyBernoulli, Null and Alt are success probabilities in (0,1).
// For FamilyGaussian, Null and Alt are means and Sigma is the known
// standard deviation shared by both hypotheses.
type HypothesisSpec struct {
	Family Family  `json:"family"`
	Null   float64 `json:"null"`
	Alt    float64 `json:"alt"`
	Sigma  float64 `json:"sigma,omitempty"`
}

// NewBernoulliSpec builds a proportion-comparison spec from a baseline rate
// and the alternative rate implied by the minimum detectable effect.
func NewBernoulliSpec(p0, p1 float64) (HypothesisSpec, error) {
	spec := HypothesisSpec{Family: FamilyBernoulli, Null: p0, Alt: p1}
	if err := spec.Validate(); err != nil {
		return HypothesisSpec{}, err
	}
	return spec, nil
}

// NewGaussianSpec builds a mean-comparison spec with known standard deviation.
func NewGaussianSpec(mu0, mu1, sigma float64) (HypothesisSpec, error) {
	spec := HypothesisSpec{Family: FamilyGaussian, Null: mu0, Alt: mu1, Sigma: sigma}
	if err := spec.Validate(); err != nil {
		return HypothesisSpec{}, err
	}
	return spec, nil
}

// Validate checks the spec invariants: the alternative must differ from the
// null, probabilities must be interior points of (0,1), and the Gaussian
// scale must be positive.
func (s HypothesisSpec) Validate() error {
	switch s.Family {
	case FamilyBernoulli:
		if s.Null <= 0 || s.Null >= 1 {
			return core.NewParameterError("null rate", "must be in (0,1)")
		}
		if s.Alt <= 0 || s.Alt >= 1 {
			return core.NewParameterError("alternative rate", "must be in (0,1)")
		}
	case FamilyGaussian:
		if s.Sigma <= 0 || math.IsNaN(s.Sigma) || math.IsInf(s.Sigma, 0) {
			return core.NewParameterError("sigma", "must be positive and finite")
		}
		if math.IsNaN(s.Null) || math.IsNaN(s.Alt) {
			return core.NewParameterError("mean", "must be finite")
		}
	default:
		return core.ErrUnsupportedFamily
	}
	if s.Null == s.Alt {
		return core.NewParameterError("alternative", "must differ from null")
	}
	return nil
}

// Param returns the distribution parameter (rate or mean) under h.
func (s HypothesisSpec) Param(h Hypothesis) float64 {
	if h == UnderAlternative {
		return s.Alt
	}
	return s.Null
}

// Drift returns the expected per-observation log-likelihood-ratio increment
// when observations are truly generated under h. Positive under the
// alternative, negative under the null; near zero only when the hypotheses
// are nearly indistinguishable.
func (s HypothesisSpec) Drift(h Hypothesis) float64 {
	switch s.Family {
	case FamilyBernoulli:
		p := s.Param(h)
		p0 := clampProbability(s.Null)
		p1 := clampProbability(s.Alt)
		return p*math.Log(p1/p0) + (1-p)*math.Log((1-p1)/(1-p0))
	case FamilyGaussian:
		mu := s.Param(h)
		delta := s.Alt - s.Null
		return delta * (2*mu - s.Null - s.Alt) / (2 * s.Sigma * s.Sigma)
	}
	return 0
}
