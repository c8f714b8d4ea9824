package ports

import (
	"context"

	"seqab/domain/plan"
)

// ReportWriter renders an experiment plan and its estimation outputs to a
// file for sharing outside the service.
type ReportWriter interface {
	WriteReport(ctx context.Context, p *plan.ExperimentPlan, path string) error
}
