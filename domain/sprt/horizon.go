package sprt

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"seqab/domain/core"
)

// FixedHorizonSampleSize returns the classical one-sided fixed sample size
// for the same spec and targets, from the normal-approximation power
// calculation. The sequential procedure's estimator reports it next to the
// stopping-time percentiles so the saving from early stopping is visible.
func FixedHorizonSampleSize(spec HypothesisSpec, targets ErrorTargets) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	if err := targets.Validate(); err != nil {
		return 0, err
	}

	zAlpha := distuv.UnitNormal.Quantile(1 - targets.Alpha)
	zBeta := distuv.UnitNormal.Quantile(1 - targets.Beta)

	var n float64
	switch spec.Family {
	case FamilyBernoulli:
		p0, p1 := spec.Null, spec.Alt
		delta := p1 - p0
		n = math.Pow(zAlpha*math.Sqrt(p0*(1-p0))+zBeta*math.Sqrt(p1*(1-p1)), 2) / (delta * delta)
	case FamilyGaussian:
		delta := spec.Alt - spec.Null
		n = math.Pow((zAlpha+zBeta)*spec.Sigma/delta, 2)
	default:
		return 0, core.ErrUnsupportedFamily
	}
	return int(math.Ceil(n)), nil
}
