package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"seqab/adapters/estimator"
	"seqab/adapters/excel"
	"seqab/adapters/rng"
	"seqab/app"
	"seqab/domain/plan"
	"seqab/domain/sprt"
	"seqab/internal"
	"seqab/internal/config"
)

func main() {
	_ = godotenv.Load()

	var (
		family      = flag.String("family", "bernoulli", "outcome distribution: bernoulli or gaussian")
		baseline    = flag.Float64("baseline", 0.20, "baseline conversion rate (or null mean)")
		mde         = flag.Float64("mde", 0.02, "absolute minimum detectable effect")
		sigma       = flag.Float64("sigma", 1.0, "known standard deviation (gaussian only)")
		alpha       = flag.Float64("alpha", 0.05, "tolerated Type I error rate")
		beta        = flag.Float64("beta", 0.20, "tolerated Type II error rate")
		reps        = flag.Int("reps", 0, "simulation repetitions (0 selects the closed form when valid)")
		seed        = flag.Int64("seed", 42, "master seed for reproducible simulation")
		percentiles = flag.String("percentiles", "50,90", "comma-separated stopping-size percentiles to report")
		timeout     = flag.Duration("timeout", 5*time.Minute, "overall estimation timeout")
		reportPath  = flag.String("report", "", "optional path for an Excel report")
		name        = flag.String("name", "cli-experiment", "experiment name")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	spec, err := buildSpec(*family, *baseline, *mde, *sigma)
	if err != nil {
		fatalf("invalid hypothesis: %v", err)
	}
	targets, err := sprt.NewErrorTargets(*alpha, *beta)
	if err != nil {
		fatalf("invalid error targets: %v", err)
	}
	pcts, err := parsePercentiles(*percentiles)
	if err != nil {
		fatalf("invalid percentiles: %v", err)
	}

	streams := rng.NewStreamFactory()
	service := app.NewExperimentService(
		estimator.NewAutoEstimator(streams),
		estimator.NewRaceWalkPlanner(),
		nil,
		excel.NewReportWriter(),
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	p, err := service.CreatePlan(ctx, *name, spec, targets)
	if err != nil {
		fatalf("failed to create plan: %v", err)
	}

	result, err := service.Estimate(ctx, p, plan.EstimateRequest{
		Repetitions:     *reps,
		Seed:            *seed,
		Percentiles:     pcts,
		Workers:         cfg.Simulation.Workers,
		MaxObservations: cfg.Simulation.MaxObservations,
	})
	if err != nil {
		fatalf("estimation failed: %v", err)
	}

	printPlan(p, result)

	if *reportPath != "" {
		if err := service.Export(ctx, p, *reportPath); err != nil {
			fatalf("failed to write report: %v", err)
		}
		fmt.Printf("\nReport written to %s\n", *reportPath)
	}
}

func buildSpec(family string, baseline, mde, sigma float64) (sprt.HypothesisSpec, error) {
	switch sprt.Family(family) {
	case sprt.FamilyGaussian:
		return sprt.NewGaussianSpec(baseline, baseline+mde, sigma)
	default:
		return sprt.NewBernoulliSpec(baseline, baseline+mde)
	}
}

func parsePercentiles(csv string) ([]float64, error) {
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		out = append(out, p)
	}
	return out, nil
}

func printPlan(p *plan.ExperimentPlan, result *plan.SimulationResult) {
	fmt.Printf("Experiment: %s\n", p.Name)
	fmt.Printf("Hypotheses: %s null=%.4g alt=%.4g\n", p.Spec.Family, p.Spec.Null, p.Spec.Alt)
	fmt.Printf("Targets:    alpha=%.3f beta=%.3f\n", p.Targets.Alpha, p.Targets.Beta)
	fmt.Printf("Boundaries: A=%.4f B=%.4f\n", p.Bounds.Upper, p.Bounds.Lower)

	if result.ASN != nil && result.ASN.Valid {
		fmt.Printf("Wald ASN:   %.1f under null, %.1f under alternative\n",
			result.ASN.UnderNull, result.ASN.UnderAlternative)
	}
	if result.Method == plan.MethodMonteCarlo {
		fmt.Printf("Simulated:  %d repetitions (seed %d)\n", result.Repetitions, result.Seed)
		fmt.Printf("Realized:   alpha=%.4f beta=%.4f\n", result.RealizedAlpha, result.RealizedBeta)
		printPercentiles("under null", result.NullPercentiles)
		printPercentiles("under alternative", result.AltPercentiles)
		if !result.Convergence.Converged {
			fmt.Printf("Warning:    %s\n", result.Convergence.Message)
		}
	}
	if p.RaceWalk != nil {
		fmt.Printf("Race walk:  stop at a %d-conversion lead, budget %d conversions\n",
			p.RaceWalk.Barrier, p.RaceWalk.Conversions)
	}
	if p.Reference != nil {
		fmt.Printf("Fixed-horizon reference: %d samples per group\n", p.Reference.PerGroup)
	}
}

func printPercentiles(label string, values map[float64]float64) {
	keys := make([]float64, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("p%g=%.0f", k, values[k]))
	}
	fmt.Printf("Stopping %s: %s\n", label, strings.Join(parts, " "))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
