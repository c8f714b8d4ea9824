package ports

import (
	"context"

	"seqab/domain/plan"
)

// EstimatorPort answers "how many samples until the sequential procedure
// stops, and does it actually hit the target error rates". Implementations
// are pure with respect to external state: they read only the spec and
// targets in the request.
type EstimatorPort interface {
	EstimateSampleSize(ctx context.Context, req plan.EstimateRequest) (*plan.SimulationResult, error)
}

// PlannerPort computes the conversion-race sample-size plan: the smallest
// lead barrier and total conversion budget meeting the error targets for a
// baseline rate and absolute minimum detectable effect.
type PlannerPort interface {
	PlanConversionRace(ctx context.Context, alpha, power, baseline, effect float64) (plan.RaceWalkPlan, error)
}
