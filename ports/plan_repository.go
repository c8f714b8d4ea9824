package ports

import (
	"context"

	"seqab/domain/core"
	"seqab/domain/plan"
)

// PlanRepository persists experiment plans and their estimation outputs.
type PlanRepository interface {
	Save(ctx context.Context, p *plan.ExperimentPlan) error
	GetByID(ctx context.Context, id core.ID) (*plan.ExperimentPlan, error)
	List(ctx context.Context, limit, offset int) ([]*plan.ExperimentPlan, error)
	Delete(ctx context.Context, id core.ID) error
}
