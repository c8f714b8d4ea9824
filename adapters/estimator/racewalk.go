package estimator

import (
	"context"
	"math"

	"seqab/domain/core"
	"seqab/domain/plan"
	"seqab/ports"
)

const (
	defaultMaxConversions = 800000
	defaultMaxBarrier     = 5000
)

// RaceWalkPlanner sizes a conversion race: every conversion moves a ±1
// random walk one step toward whichever variant won it, and the experiment
// stops when one variant leads by the Z barrier. Given 50/50 null odds and
// the odds implied by the minimum detectable effect, the planner searches
// for the smallest barrier whose first-passage probabilities satisfy the
// error targets, then reports the worst-case conversion budget.
//
// The first-passage mass of hitting barrier z at exactly n steps is computed
// in closed form through log-Beta weights, so no simulation is needed here.
type RaceWalkPlanner struct {
	maxConversions int
	maxBarrier     int
}

// NewRaceWalkPlanner creates a planner with the default search caps.
func NewRaceWalkPlanner() *RaceWalkPlanner {
	return &RaceWalkPlanner{
		maxConversions: defaultMaxConversions,
		maxBarrier:     defaultMaxBarrier,
	}
}

// PlanConversionRace returns the smallest workable barrier and the
// conversion budget for it. The barrier parity fixes which step counts are
// reachable, so odd and even barriers are searched independently and the
// parity yielding the smaller budget wins.
func (p *RaceWalkPlanner) PlanConversionRace(_ context.Context, alpha, power, baseline, effect float64) (plan.RaceWalkPlan, error) {
	if alpha <= 0 || alpha >= 1 {
		return plan.RaceWalkPlan{}, core.NewParameterError("alpha", "must be in (0,1)")
	}
	if power <= 0 || power >= 1 {
		return plan.RaceWalkPlan{}, core.NewParameterError("power", "must be in (0,1)")
	}
	if baseline <= 0 || baseline >= 1 {
		return plan.RaceWalkPlan{}, core.NewParameterError("baseline", "must be in (0,1)")
	}
	if effect <= 0 || baseline+effect >= 1 {
		return plan.RaceWalkPlan{}, core.NewParameterError("effect", "must be positive with baseline+effect below 1")
	}

	// Under the null each conversion is a fair coin; under the alternative
	// the variant wins a conversion with the odds implied by the lift.
	nullOdds := 0.5
	altOdds := 1.0 / (1.0 + (baseline+effect)/baseline)

	oddZ := p.searchBarrier(1, p.maxBarrier-1, alpha, power, nullOdds, altOdds)
	evenZ := p.searchBarrier(2, p.maxBarrier, alpha, power, nullOdds, altOdds)

	oddN, oddOK := p.requiredConversions(oddZ, alpha, power, nullOdds, altOdds)
	evenN, evenOK := p.requiredConversions(evenZ, alpha, power, nullOdds, altOdds)

	best := plan.RaceWalkPlan{NullOdds: nullOdds, AltOdds: altOdds}
	switch {
	case !oddOK && !evenOK:
		return plan.RaceWalkPlan{}, core.ErrNoConvergence
	case !oddOK || (evenOK && evenN < oddN):
		best.Conversions, best.Barrier = evenN, evenZ
	default:
		best.Conversions, best.Barrier = oddN, oddZ
	}
	return best, nil
}

// requiredConversions finds the smallest step count n (same parity as z) at
// which the barrier is crossed with probability above power under the
// alternative while staying below alpha under the null.
func (p *RaceWalkPlanner) requiredConversions(z int, alpha, power, nullOdds, altOdds float64) (int, bool) {
	if z <= 0 {
		return 0, false
	}
	logNull := math.Log(nullOdds)
	logNull1 := math.Log(1 - nullOdds)
	logAlt := math.Log(altOdds)
	logAlt1 := math.Log(1 - altOdds)

	nullCDF, altCDF := 0.0, 0.0
	for n := z; n <= p.maxConversions; n += 2 {
		nullCDF += firstPassageMass(n, z, logNull, logNull1)
		altCDF += firstPassageMass(n, z, logAlt, logAlt1)

		if math.IsNaN(nullCDF) || math.IsNaN(altCDF) {
			return 0, false
		}
		if altCDF > power {
			if nullCDF < alpha {
				return n, true
			}
			return 0, false
		}
	}
	return 0, false
}

// searchBarrier binary-searches for the smallest barrier of the given parity
// whose first-passage CDF stays below alpha under the null while clearing
// power under the alternative. Steps of 2 preserve the parity of zMin.
func (p *RaceWalkPlanner) searchBarrier(zMin, zMax int, alpha, power, nullOdds, altOdds float64) int {
	logNull := math.Log(nullOdds)
	logNull1 := math.Log(1 - nullOdds)
	logAlt := math.Log(altOdds)
	logAlt1 := math.Log(1 - altOdds)

	z := zMin + 2*((zMax-zMin)/4)
	for zMin < zMax {
		nullCDF, altCDF := 0.0, 0.0
		lastN := z
		decided := false

		for n := z; n <= p.maxConversions; n += 2 {
			lastN = n
			nullCDF += firstPassageMass(n, z, logNull, logNull1)
			altCDF += firstPassageMass(n, z, logAlt, logAlt1)

			if math.IsNaN(nullCDF) || math.IsNaN(altCDF) {
				break
			}
			if altCDF > power {
				if nullCDF < alpha {
					zMax = z
				} else {
					zMin = z + 2
				}
				decided = true
				break
			}
			if nullCDF > alpha {
				zMin = z + 2
				decided = true
				break
			}
		}

		if math.IsNaN(nullCDF) || math.IsNaN(altCDF) || !decided || lastN >= p.maxConversions {
			break
		}
		z = zMin + 2*((zMax-zMin)/4)
	}
	return z
}

// firstPassageMass is the probability that a ±1 walk with win odds exp(logQ)
// first reaches lead z at exactly step n, via the log-Beta closed form.
func firstPassageMass(n, z int, logQ, log1Q float64) float64 {
	k := 0.5 * float64(n+z)
	weight := float64(z) / float64(n) / k
	return weight * math.Exp(-logBeta(k, float64(n+1)-k)+(k-float64(z))*logQ+k*log1Q)
}

// logBeta computes the natural logarithm of the Beta function.
func logBeta(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	return la + lb - lab
}

var _ ports.PlannerPort = (*RaceWalkPlanner)(nil)
