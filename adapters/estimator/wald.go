package estimator

import (
	"fmt"
	"math"

	"seqab/domain/plan"
	"seqab/domain/sprt"
)

// defaultDriftEpsilon is the smallest per-observation LLR drift the closed
// form is trusted for. Below it the ASN denominator is effectively zero and
// the approximation blows up; the auto estimator falls back to simulation.
const defaultDriftEpsilon = 1e-8

// WaldApproximator computes the closed-form average sample number for the
// SPRT. O(1) and deterministic, but only an approximation: it ignores
// boundary overshoot and is invalid when the hypotheses are nearly
// indistinguishable.
type WaldApproximator struct {
	driftEpsilon float64
}

// NewWaldApproximator creates the approximator with the default degeneracy
// threshold.
func NewWaldApproximator() *WaldApproximator {
	return &WaldApproximator{driftEpsilon: defaultDriftEpsilon}
}

// ASN returns the Wald average sample number under the null and alternative:
// the boundary-weighted expected terminal statistic divided by the expected
// per-observation drift. The approximation is flagged invalid in the
// near-degenerate regime instead of returning a huge or infinite number.
func (w *WaldApproximator) ASN(spec sprt.HypothesisSpec, targets sprt.ErrorTargets) (plan.ASNApproximation, error) {
	if err := spec.Validate(); err != nil {
		return plan.ASNApproximation{}, err
	}
	bounds, err := sprt.NewBoundaries(targets)
	if err != nil {
		return plan.ASNApproximation{}, err
	}

	driftNull := spec.Drift(sprt.UnderNull)
	driftAlt := spec.Drift(sprt.UnderAlternative)
	if math.Abs(driftNull) < w.driftEpsilon || math.Abs(driftAlt) < w.driftEpsilon {
		return plan.ASNApproximation{
			Valid:  false,
			Reason: fmt.Sprintf("per-observation drift below %g, hypotheses nearly indistinguishable", w.driftEpsilon),
		}, nil
	}

	alpha, beta := targets.Alpha, targets.Beta
	return plan.ASNApproximation{
		// Under H0 the test accepts with probability 1-alpha (lands at B)
		// and rejects with probability alpha (lands at A).
		UnderNull: ((1-alpha)*bounds.Lower + alpha*bounds.Upper) / driftNull,
		// Under H1 it rejects with probability 1-beta and accepts with beta.
		UnderAlternative: (beta*bounds.Lower + (1-beta)*bounds.Upper) / driftAlt,
		Valid:            true,
	}, nil
}

// Degenerate reports whether the spec sits in the regime where the closed
// form is invalid and simulation is required. Exposed separately so the
// strategy-selection logic is testable in isolation.
func (w *WaldApproximator) Degenerate(spec sprt.HypothesisSpec) bool {
	return math.Abs(spec.Drift(sprt.UnderNull)) < w.driftEpsilon ||
		math.Abs(spec.Drift(sprt.UnderAlternative)) < w.driftEpsilon
}

