package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"seqab/domain/core"
	"seqab/domain/plan"
	"seqab/domain/sprt"
)

type MockPlanRepository struct {
	mock.Mock
	saved []*plan.ExperimentPlan
}

func (m *MockPlanRepository) Save(ctx context.Context, p *plan.ExperimentPlan) error {
	args := m.Called(ctx, p)
	m.saved = append(m.saved, p)
	return args.Error(0)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id core.ID) (*plan.ExperimentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.ExperimentPlan), args.Error(1)
}

func (m *MockPlanRepository) List(ctx context.Context, limit, offset int) ([]*plan.ExperimentPlan, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*plan.ExperimentPlan), args.Error(1)
}

func (m *MockPlanRepository) Delete(ctx context.Context, id core.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEstimator struct {
	mock.Mock
}

func (m *MockEstimator) EstimateSampleSize(ctx context.Context, req plan.EstimateRequest) (*plan.SimulationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.SimulationResult), args.Error(1)
}

type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) PlanConversionRace(ctx context.Context, alpha, power, baseline, effect float64) (plan.RaceWalkPlan, error) {
	args := m.Called(ctx, alpha, power, baseline, effect)
	return args.Get(0).(plan.RaceWalkPlan), args.Error(1)
}

func calibration(t *testing.T) (sprt.HypothesisSpec, sprt.ErrorTargets) {
	t.Helper()
	spec, err := sprt.NewBernoulliSpec(0.10, 0.12)
	require.NoError(t, err)
	targets, err := sprt.NewErrorTargets(0.05, 0.20)
	require.NoError(t, err)
	return spec, targets
}

func TestCreatePlan_PersistsAndAttachesReferences(t *testing.T) {
	spec, targets := calibration(t)

	repo := &MockPlanRepository{}
	planner := &MockPlanner{}
	race := plan.RaceWalkPlan{Conversions: 12000, Barrier: 140, NullOdds: 0.5, AltOdds: 0.4545}
	planner.On("PlanConversionRace", mock.Anything, 0.05, 0.80, 0.10, mock.MatchedBy(func(e float64) bool {
		return e > 0.0199 && e < 0.0201
	})).Return(race, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*plan.ExperimentPlan")).Return(nil)

	svc := NewExperimentService(&MockEstimator{}, planner, repo, nil, nil)
	p, err := svc.CreatePlan(context.Background(), "signup-lift", spec, targets)
	require.NoError(t, err)

	assert.Equal(t, "signup-lift", p.Name)
	assert.False(t, p.ID.IsEmpty())
	assert.InDelta(t, 2.7726, p.Bounds.Upper, 0.001)
	require.NotNil(t, p.RaceWalk)
	assert.Equal(t, 12000, p.RaceWalk.Conversions)
	require.NotNil(t, p.Reference)
	assert.Greater(t, p.Reference.PerGroup, 0)

	repo.AssertExpectations(t)
	planner.AssertExpectations(t)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, p.ID, repo.saved[0].ID)
}

func TestCreatePlan_RaceWalkFailureIsNotFatal(t *testing.T) {
	spec, targets := calibration(t)

	planner := &MockPlanner{}
	planner.On("PlanConversionRace", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(plan.RaceWalkPlan{}, core.ErrNoConvergence)

	svc := NewExperimentService(&MockEstimator{}, planner, nil, nil, nil)
	p, err := svc.CreatePlan(context.Background(), "stubborn", spec, targets)
	require.NoError(t, err)
	assert.Nil(t, p.RaceWalk)
	planner.AssertExpectations(t)
}

func TestCreatePlan_SkipsRaceWalkForGaussian(t *testing.T) {
	spec, err := sprt.NewGaussianSpec(0.0, 0.5, 1.0)
	require.NoError(t, err)
	targets, err := sprt.NewErrorTargets(0.05, 0.20)
	require.NoError(t, err)

	planner := &MockPlanner{}

	svc := NewExperimentService(&MockEstimator{}, planner, nil, nil, nil)
	p, err := svc.CreatePlan(context.Background(), "latency-shift", spec, targets)
	require.NoError(t, err)
	assert.Nil(t, p.RaceWalk)
	planner.AssertNotCalled(t, "PlanConversionRace", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePlan_RejectsInvalidTargets(t *testing.T) {
	spec, _ := calibration(t)

	svc := NewExperimentService(&MockEstimator{}, nil, nil, nil, nil)
	_, err := svc.CreatePlan(context.Background(), "bad", spec, sprt.ErrorTargets{Alpha: 0, Beta: 0.2})
	require.Error(t, err)
	assert.True(t, core.IsInvalidParameter(err))
}

func TestEstimate_ForcesPlanConfigurationAndPersists(t *testing.T) {
	spec, targets := calibration(t)

	repo := &MockPlanRepository{}
	repo.On("Save", mock.Anything, mock.AnythingOfType("*plan.ExperimentPlan")).Return(nil)

	result := &plan.SimulationResult{
		Method:      plan.MethodMonteCarlo,
		Repetitions: 2000,
		Convergence: plan.ConvergenceReport{Converged: true},
	}
	est := &MockEstimator{}
	est.On("EstimateSampleSize", mock.Anything, mock.MatchedBy(func(req plan.EstimateRequest) bool {
		return req.Spec == spec && req.Targets == targets && req.Seed == 7
	})).Return(result, nil)

	svc := NewExperimentService(est, nil, repo, nil, nil)
	p, err := svc.CreatePlan(context.Background(), "signup-lift", spec, targets)
	require.NoError(t, err)

	// The request carries a stale spec on purpose; Estimate must overwrite
	// it with the plan's configuration before dispatching.
	stale, _ := sprt.NewBernoulliSpec(0.30, 0.35)
	got, err := svc.Estimate(context.Background(), p, plan.EstimateRequest{Spec: stale, Seed: 7})
	require.NoError(t, err)
	assert.Same(t, result, got)
	assert.Same(t, result, p.Result)

	est.AssertExpectations(t)
	repo.AssertExpectations(t)
	require.Len(t, repo.saved, 2)
}

func TestEstimate_PropagatesEstimatorError(t *testing.T) {
	spec, targets := calibration(t)

	est := &MockEstimator{}
	est.On("EstimateSampleSize", mock.Anything, mock.Anything).
		Return(nil, core.NewParameterError("repetitions", "must be non-negative"))

	svc := NewExperimentService(est, nil, nil, nil, nil)
	p, err := svc.CreatePlan(context.Background(), "signup-lift", spec, targets)
	require.NoError(t, err)

	_, err = svc.Estimate(context.Background(), p, plan.EstimateRequest{Repetitions: -1})
	require.Error(t, err)
	assert.Nil(t, p.Result)
}

func TestGetPlan_WithoutRepository(t *testing.T) {
	svc := NewExperimentService(&MockEstimator{}, nil, nil, nil, nil)
	_, err := svc.GetPlan(context.Background(), core.NewID())
	assert.ErrorIs(t, err, core.ErrPlanNotFound)
}
