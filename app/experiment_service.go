package app

import (
	"context"
	"fmt"

	"seqab/domain/core"
	"seqab/domain/plan"
	"seqab/domain/sprt"
	"seqab/internal"
	"seqab/ports"
)

// ExperimentService orchestrates the sequential testing core: it constructs
// validated engines, runs sample-size estimation, and hands results to the
// optional persistence and reporting collaborators.
type ExperimentService struct {
	estimator ports.EstimatorPort
	planner   ports.PlannerPort
	repo      ports.PlanRepository
	reports   ports.ReportWriter
	logger    *internal.Logger
}

// NewExperimentService wires the service. repo and reports may be nil; the
// service then skips persistence and export instead of failing.
func NewExperimentService(est ports.EstimatorPort, planner ports.PlannerPort, repo ports.PlanRepository, reports ports.ReportWriter, logger *internal.Logger) *ExperimentService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ExperimentService{
		estimator: est,
		planner:   planner,
		repo:      repo,
		reports:   reports,
		logger:    logger,
	}
}

// NewExperiment validates the configuration and returns the derived
// boundaries together with a factory for independent engine instances.
func (s *ExperimentService) NewExperiment(spec sprt.HypothesisSpec, targets sprt.ErrorTargets) (sprt.Boundaries, sprt.EngineFactory, error) {
	return sprt.NewEngineFactory(spec, targets)
}

// CreatePlan builds a persisted experiment plan: boundaries plus the
// race-walk and fixed-horizon references when they are computable.
func (s *ExperimentService) CreatePlan(ctx context.Context, name string, spec sprt.HypothesisSpec, targets sprt.ErrorTargets) (*plan.ExperimentPlan, error) {
	bounds, _, err := s.NewExperiment(spec, targets)
	if err != nil {
		return nil, err
	}

	p := &plan.ExperimentPlan{
		ID:        core.NewID(),
		Name:      name,
		Spec:      spec,
		Targets:   targets,
		Bounds:    bounds,
		CreatedAt: core.Now(),
		UpdatedAt: core.Now(),
	}

	if n, err := sprt.FixedHorizonSampleSize(spec, targets); err == nil {
		p.Reference = &plan.FixedHorizonReference{PerGroup: n}
	}
	if s.planner != nil && spec.Family == sprt.FamilyBernoulli {
		race, err := s.planner.PlanConversionRace(ctx, targets.Alpha, targets.Power(), spec.Null, spec.Alt-spec.Null)
		if err != nil {
			// The race plan is advisory; a non-converging search is logged,
			// not fatal.
			s.logger.Warn("race-walk plan unavailable for %s: %v", name, err)
		} else {
			p.RaceWalk = &race
		}
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to persist plan: %w", err)
		}
	}
	s.logger.Info("created experiment plan %s (A=%.4f B=%.4f)", p.ID, bounds.Upper, bounds.Lower)
	return p, nil
}

// Estimate runs sample-size estimation for an existing plan and persists the
// result on it.
func (s *ExperimentService) Estimate(ctx context.Context, p *plan.ExperimentPlan, req plan.EstimateRequest) (*plan.SimulationResult, error) {
	req.Spec = p.Spec
	req.Targets = p.Targets
	s.logger.Debug("estimating sample sizes for plan %s (repetitions=%d seed=%d)", p.ID, req.Repetitions, req.Seed)

	result, err := s.estimator.EstimateSampleSize(ctx, req)
	if err != nil {
		return nil, err
	}
	if !result.Convergence.Converged {
		s.logger.Warn("estimate for plan %s has not converged: %s", p.ID, result.Convergence.Message)
	}

	p.Result = result
	p.UpdatedAt = core.Now()
	if s.repo != nil {
		if err := s.repo.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to persist estimate: %w", err)
		}
	}
	return result, nil
}

// GetPlan loads a persisted plan.
func (s *ExperimentService) GetPlan(ctx context.Context, id core.ID) (*plan.ExperimentPlan, error) {
	if s.repo == nil {
		return nil, core.ErrPlanNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Export writes the plan report to path.
func (s *ExperimentService) Export(ctx context.Context, p *plan.ExperimentPlan, path string) error {
	if s.reports == nil {
		return fmt.Errorf("no report writer configured")
	}
	if err := s.reports.WriteReport(ctx, p, path); err != nil {
		return err
	}
	s.logger.Info("wrote report for plan %s to %s", p.ID, path)
	return nil
}
