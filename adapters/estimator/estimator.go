package estimator

import (
	"context"

	"seqab/domain/core"
	"seqab/domain/plan"
	"seqab/ports"
)

// AutoEstimator fronts the two estimation strategies behind one port: the
// O(1) Wald closed form when its validity conditions hold, Monte Carlo
// simulation otherwise or whenever the caller asks for empirical
// distributions by requesting repetitions.
type AutoEstimator struct {
	wald *WaldApproximator
	mc   *MonteCarloEstimator
}

// NewAutoEstimator wires the default strategy pair.
func NewAutoEstimator(rngPort ports.RNGPort) *AutoEstimator {
	return &AutoEstimator{
		wald: NewWaldApproximator(),
		mc:   NewMonteCarloEstimator(rngPort),
	}
}

// SelectMethod is the strategy decision, exposed so it can be tested in
// isolation: the closed form answers only requests with no repetition
// budget, and only outside the near-degenerate drift regime where its
// denominator vanishes.
func (a *AutoEstimator) SelectMethod(req plan.EstimateRequest) plan.EstimateMethod {
	if req.Repetitions == 0 && !a.wald.Degenerate(req.Spec) {
		return plan.MethodWald
	}
	return plan.MethodMonteCarlo
}

// EstimateSampleSize dispatches to the selected strategy. A Monte Carlo
// result also carries the closed-form ASN when the approximation is valid,
// so callers can see both numbers side by side.
func (a *AutoEstimator) EstimateSampleSize(ctx context.Context, req plan.EstimateRequest) (*plan.SimulationResult, error) {
	if err := req.Spec.Validate(); err != nil {
		return nil, err
	}
	if err := req.Targets.Validate(); err != nil {
		return nil, err
	}
	if req.Repetitions < 0 {
		return nil, core.NewParameterError("repetitions", "must not be negative")
	}

	if a.SelectMethod(req) == plan.MethodWald {
		asn, err := a.wald.ASN(req.Spec, req.Targets)
		if err != nil {
			return nil, err
		}
		return &plan.SimulationResult{
			Method:      plan.MethodWald,
			Seed:        req.Seed,
			ASN:         &asn,
			Convergence: plan.ConvergenceReport{Converged: true, Message: "closed-form approximation, no sampling error"},
			CreatedAt:   core.Now(),
		}, nil
	}

	if req.Repetitions == 0 {
		// Zero repetitions requests the closed form, which cannot answer
		// in the degenerate drift regime. The caller must choose a budget.
		return nil, core.NewParameterError("repetitions", "required when the closed-form approximation is unavailable")
	}
	result, err := a.mc.EstimateSampleSize(ctx, req)
	if err != nil {
		return nil, err
	}
	if asn, asnErr := a.wald.ASN(req.Spec, req.Targets); asnErr == nil && asn.Valid {
		result.ASN = &asn
	}
	return result, nil
}

var _ ports.EstimatorPort = (*AutoEstimator)(nil)
