package plan

import (
	"encoding/json"
	"strconv"

	"seqab/domain/core"
	"seqab/domain/sprt"
)

// EstimateMethod identifies which strategy produced an estimate.
type EstimateMethod string

const (
	MethodWald       EstimateMethod = "wald_asn"
	MethodMonteCarlo EstimateMethod = "monte_carlo"
)

// EstimateRequest configures one sample-size estimation run.
type EstimateRequest struct {
	Spec    sprt.HypothesisSpec `json:"spec"`
	Targets sprt.ErrorTargets   `json:"targets"`

	// Repetitions is the number of independent simulated runs per
	// hypothesis. Must be positive for Monte Carlo estimation.
	Repetitions int `json:"repetitions"`

	// Seed is the master seed; per-worker streams are derived
	// deterministically from it so results are reproducible bit-for-bit.
	Seed int64 `json:"seed"`

	// Percentiles of the stopping-size distributions to report, each in
	// (0,100]. Defaults to median and 90th when empty.
	Percentiles []float64 `json:"percentiles,omitempty"`

	// Workers bounds simulation parallelism. Zero means one worker per CPU.
	Workers int `json:"workers,omitempty"`

	// MaxObservations caps a single simulated run. Runs still undecided at
	// the cap are recorded as truncated, not as accept or reject.
	MaxObservations int `json:"max_observations,omitempty"`
}

// ConvergenceReport flags whether the repetition count gives the realized
// error-rate estimates enough precision relative to the targets. Non-fatal:
// the caller decides whether to re-run with more repetitions.
type ConvergenceReport struct {
	Converged   bool    `json:"converged"`
	AlphaStdErr float64 `json:"alpha_std_err"`
	BetaStdErr  float64 `json:"beta_std_err"`
	Message     string  `json:"message,omitempty"`
}

// ASNApproximation is the closed-form Wald average sample number under each
// hypothesis. Valid is false in the near-degenerate regime where the
// per-observation drift is too small for the approximation to mean anything.
type ASNApproximation struct {
	UnderNull        float64 `json:"under_null"`
	UnderAlternative float64 `json:"under_alternative"`
	Valid            bool    `json:"valid"`
	Reason           string  `json:"reason,omitempty"`
}

// Percentiles maps a requested percentile to the stopping size at that rank.
// encoding/json cannot key objects by float64, so the keys round-trip through
// their shortest decimal representation.
type Percentiles map[float64]float64

func (p Percentiles) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[strconv.FormatFloat(k, 'g', -1, 64)] = v
	}
	return json.Marshal(out)
}

func (p *Percentiles) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Percentiles, len(raw))
	for k, v := range raw {
		key, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return err
		}
		out[key] = v
	}
	*p = out
	return nil
}

// SimulationResult is the immutable output of one estimation run.
type SimulationResult struct {
	Method      EstimateMethod `json:"method"`
	Repetitions int            `json:"repetitions"`
	Seed        int64          `json:"seed"`

	// Stopping sample sizes per hypothesis, sorted ascending. Empty for a
	// pure closed-form estimate.
	NullStops []int `json:"null_stops,omitempty"`
	AltStops  []int `json:"alt_stops,omitempty"`

	// Requested percentiles of the stopping distributions.
	NullPercentiles Percentiles `json:"null_percentiles,omitempty"`
	AltPercentiles  Percentiles `json:"alt_percentiles,omitempty"`

	// Realized error rates: reject-rate under the null (Type I) and
	// accept-rate under the alternative (Type II).
	RealizedAlpha float64 `json:"realized_alpha"`
	RealizedBeta  float64 `json:"realized_beta"`

	// Runs still undecided at the per-run observation cap.
	TruncatedNull int `json:"truncated_null,omitempty"`
	TruncatedAlt  int `json:"truncated_alt,omitempty"`

	ASN         *ASNApproximation `json:"asn,omitempty"`
	Convergence ConvergenceReport `json:"convergence"`
	CreatedAt   core.Timestamp    `json:"created_at"`
}

// MedianNullStop returns the reported median stopping size under the null,
// or zero when no median percentile was requested.
func (r *SimulationResult) MedianNullStop() float64 {
	return r.NullPercentiles[50]
}

// MedianAltStop returns the reported median stopping size under the
// alternative, or zero when no median percentile was requested.
func (r *SimulationResult) MedianAltStop() float64 {
	return r.AltPercentiles[50]
}

// RaceWalkPlan is the conversion-race sample-size plan: stop the experiment
// once one variant leads the other by Barrier conversions, with Conversions
// as the worst-case total budget satisfying the error targets.
type RaceWalkPlan struct {
	Conversions int     `json:"conversions"`
	Barrier     int     `json:"barrier"`
	NullOdds    float64 `json:"null_odds"`
	AltOdds     float64 `json:"alt_odds"`
}

// FixedHorizonReference is the classical fixed sample size per group for the
// same spec and targets, reported next to the sequential estimate so the
// saving from stopping early is visible.
type FixedHorizonReference struct {
	PerGroup int `json:"per_group"`
}

// ExperimentPlan is the persisted aggregate: the configuration of an
// experiment plus its latest estimation outputs.
type ExperimentPlan struct {
	ID        core.ID                `json:"id"`
	Name      string                 `json:"name"`
	Spec      sprt.HypothesisSpec    `json:"spec"`
	Targets   sprt.ErrorTargets      `json:"targets"`
	Bounds    sprt.Boundaries        `json:"boundaries"`
	Result    *SimulationResult      `json:"result,omitempty"`
	RaceWalk  *RaceWalkPlan          `json:"race_walk,omitempty"`
	Reference *FixedHorizonReference `json:"reference,omitempty"`
	CreatedAt core.Timestamp         `json:"created_at"`
	UpdatedAt core.Timestamp         `json:"updated_at"`
}
