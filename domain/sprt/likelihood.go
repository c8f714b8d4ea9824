package sprt

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"seqab/domain/core"
)

// probFloor keeps Bernoulli rates away from 0 and 1 so log terms stay finite.
// Specs validate rates as interior points already; the floor guards derived
// rates that arrive within a few ulps of the boundary.
const probFloor = 1e-12

func clampProbability(p float64) float64 {
	if p < probFloor {
		return probFloor
	}
	if p > 1-probFloor {
		return 1 - probFloor
	}
	return p
}

// LogLikelihoods returns the log-likelihood of a single observation under the
// null and alternative parameters. Pure function; the only failure mode is an
// observation outside the distribution support.
func (s HypothesisSpec) LogLikelihoods(x float64) (nullLL, altLL float64, err error) {
	switch s.Family {
	case FamilyBernoulli:
		if x != 0 && x != 1 {
			return 0, 0, core.NewSupportError(string(FamilyBernoulli), x)
		}
		return bernoulliLogLikelihood(x, s.Null), bernoulliLogLikelihood(x, s.Alt), nil
	case FamilyGaussian:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, 0, core.NewSupportError(string(FamilyGaussian), x)
		}
		null := distuv.Normal{Mu: s.Null, Sigma: s.Sigma}
		alt := distuv.Normal{Mu: s.Alt, Sigma: s.Sigma}
		return null.LogProb(x), alt.LogProb(x), nil
	}
	return 0, 0, core.ErrUnsupportedFamily
}

// LogLikelihoodRatio returns the per-observation increment of the running
// SPRT statistic: log-likelihood under alternative minus under null.
func (s HypothesisSpec) LogLikelihoodRatio(x float64) (float64, error) {
	nullLL, altLL, err := s.LogLikelihoods(x)
	if err != nil {
		return 0, err
	}
	return altLL - nullLL, nil
}

func bernoulliLogLikelihood(x, p float64) float64 {
	p = clampProbability(p)
	if x == 1 {
		return math.Log(p)
	}
	// math.Log1p is exact near p=0 where math.Log(1-p) loses precision.
	return math.Log1p(-p)
}
