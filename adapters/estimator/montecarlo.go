package estimator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"seqab/domain/core"
	"seqab/domain/plan"
	"seqab/domain/sprt"
	"seqab/ports"
)

const (
	defaultMaxObservations = 500000

	nullStreamName = "simulate/null"
	altStreamName  = "simulate/alt"
)

// MonteCarloEstimator characterizes the stopping-time distribution by
// driving simulated observation streams through fresh sequential engines.
// Repetitions are independent and embarrassingly parallel: each worker owns
// a stream derived deterministically from the master seed and its index, and
// results are merged order-independently, so the same request yields the
// same SimulationResult bit-for-bit regardless of scheduling.
type MonteCarloEstimator struct {
	rng ports.RNGPort
}

// NewMonteCarloEstimator creates the simulation strategy.
func NewMonteCarloEstimator(rngPort ports.RNGPort) *MonteCarloEstimator {
	return &MonteCarloEstimator{rng: rngPort}
}

// chunkOutcome accumulates one worker's repetitions for one hypothesis.
type chunkOutcome struct {
	stops     []int
	rejects   int
	accepts   int
	truncated int
}

// EstimateSampleSize runs the configured number of simulated test runs under
// the null and, separately, under the alternative, and reports the empirical
// stopping-size distributions, requested percentiles, and realized error
// rates. Early termination is honored between repetitions via ctx.
func (m *MonteCarloEstimator) EstimateSampleSize(ctx context.Context, req plan.EstimateRequest) (*plan.SimulationResult, error) {
	if req.Repetitions <= 0 {
		return nil, core.NewParameterError("repetitions", "must be positive")
	}
	percentiles := req.Percentiles
	if len(percentiles) == 0 {
		percentiles = []float64{50, 90}
	}
	for _, p := range percentiles {
		if p <= 0 || p > 100 {
			return nil, core.NewParameterError("percentile", "must be in (0,100]")
		}
	}

	_, factory, err := sprt.NewEngineFactory(req.Spec, req.Targets)
	if err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > req.Repetitions {
		workers = req.Repetitions
	}
	maxObs := req.MaxObservations
	if maxObs <= 0 {
		maxObs = defaultMaxObservations
	}

	nullChunks := make([]chunkOutcome, workers)
	altChunks := make([]chunkOutcome, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		count := chunkSize(req.Repetitions, workers, w)
		if count == 0 {
			continue
		}
		g.Go(func() error {
			stream, err := m.rng.WorkerStream(gctx, nullStreamName, req.Seed, w)
			if err != nil {
				return err
			}
			out, err := m.simulateChunk(gctx, factory, sprt.UnderNull, count, maxObs, stream)
			if err != nil {
				return err
			}
			nullChunks[w] = out
			return nil
		})
		g.Go(func() error {
			stream, err := m.rng.WorkerStream(gctx, altStreamName, req.Seed, w)
			if err != nil {
				return err
			}
			out, err := m.simulateChunk(gctx, factory, sprt.UnderAlternative, count, maxObs, stream)
			if err != nil {
				return err
			}
			altChunks[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nullTotal := mergeChunks(nullChunks)
	altTotal := mergeChunks(altChunks)

	reps := float64(req.Repetitions)
	result := &plan.SimulationResult{
		Method:        plan.MethodMonteCarlo,
		Repetitions:   req.Repetitions,
		Seed:          req.Seed,
		NullStops:     nullTotal.stops,
		AltStops:      altTotal.stops,
		RealizedAlpha: float64(nullTotal.rejects) / reps,
		RealizedBeta:  float64(altTotal.accepts) / reps,
		TruncatedNull: nullTotal.truncated,
		TruncatedAlt:  altTotal.truncated,
		Convergence:   convergenceReport(req.Targets, req.Repetitions),
		CreatedAt:     core.Now(),
	}
	result.NullPercentiles, err = stopPercentiles(nullTotal.stops, percentiles)
	if err != nil {
		return nil, err
	}
	result.AltPercentiles, err = stopPercentiles(altTotal.stops, percentiles)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// simulateChunk runs count independent test runs under h with one stream.
func (m *MonteCarloEstimator) simulateChunk(ctx context.Context, factory sprt.EngineFactory, h sprt.Hypothesis, count, maxObs int, stream *rand.Rand) (chunkOutcome, error) {
	out := chunkOutcome{stops: make([]int, 0, count)}
	spec := factory.Spec()

	for rep := 0; rep < count; rep++ {
		// Cancellation is checked between repetitions only; a single
		// repetition's cost is bounded by its own stopping time.
		select {
		case <-ctx.Done():
			return chunkOutcome{}, ctx.Err()
		default:
		}

		engine := factory.New()
		state := engine.State()
		for state.Observations < maxObs && !state.Decision.Terminal() {
			var err error
			state, err = engine.Observe(drawObservation(spec, h, stream))
			if err != nil {
				return chunkOutcome{}, err
			}
		}

		out.stops = append(out.stops, state.Observations)
		switch state.Decision {
		case sprt.DecisionRejectNull:
			out.rejects++
		case sprt.DecisionAcceptNull:
			out.accepts++
		default:
			out.truncated++
		}
	}
	return out, nil
}

// drawObservation samples one synthetic observation under h.
func drawObservation(spec sprt.HypothesisSpec, h sprt.Hypothesis, stream *rand.Rand) float64 {
	switch spec.Family {
	case sprt.FamilyGaussian:
		return spec.Param(h) + spec.Sigma*stream.NormFloat64()
	default:
		if stream.Float64() < spec.Param(h) {
			return 1
		}
		return 0
	}
}

// chunkSize splits reps across workers, front-loading the remainder.
func chunkSize(reps, workers, worker int) int {
	base := reps / workers
	if worker < reps%workers {
		return base + 1
	}
	return base
}

// mergeChunks combines worker outcomes into one sorted distribution. The
// sort makes the reduction order-independent.
func mergeChunks(chunks []chunkOutcome) chunkOutcome {
	var total chunkOutcome
	for _, c := range chunks {
		total.stops = append(total.stops, c.stops...)
		total.rejects += c.rejects
		total.accepts += c.accepts
		total.truncated += c.truncated
	}
	sort.Ints(total.stops)
	return total
}

// stopPercentiles reports the requested percentiles of a stopping-size
// distribution.
func stopPercentiles(sorted []int, percentiles []float64) (map[float64]float64, error) {
	data := make([]float64, len(sorted))
	for i, n := range sorted {
		data[i] = float64(n)
	}
	out := make(map[float64]float64, len(percentiles))
	for _, p := range percentiles {
		v, err := stats.Percentile(data, p)
		if err != nil {
			return nil, fmt.Errorf("percentile %.1f: %w", p, err)
		}
		out[p] = v
	}
	return out, nil
}

// convergenceReport compares the binomial standard error of the realized
// error-rate estimates against the targets. Non-fatal: the caller decides
// whether the precision warrants more repetitions.
func convergenceReport(targets sprt.ErrorTargets, reps int) plan.ConvergenceReport {
	n := float64(reps)
	seAlpha := math.Sqrt(targets.Alpha * (1 - targets.Alpha) / n)
	seBeta := math.Sqrt(targets.Beta * (1 - targets.Beta) / n)

	report := plan.ConvergenceReport{
		AlphaStdErr: seAlpha,
		BetaStdErr:  seBeta,
		Converged:   seAlpha <= targets.Alpha/5 && seBeta <= targets.Beta/5,
	}
	if !report.Converged {
		report.Message = fmt.Sprintf(
			"error-rate standard errors (%.4f, %.4f) too large for targets (%.3f, %.3f); increase repetitions",
			seAlpha, seBeta, targets.Alpha, targets.Beta)
	}
	return report
}

var _ ports.EstimatorPort = (*MonteCarloEstimator)(nil)
