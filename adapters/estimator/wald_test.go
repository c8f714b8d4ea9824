package estimator

import (
	"testing"

	"seqab/adapters/rng"
	"seqab/domain/plan"
	"seqab/domain/sprt"
)

func calibration(t *testing.T) (sprt.HypothesisSpec, sprt.ErrorTargets) {
	t.Helper()
	spec, err := sprt.NewBernoulliSpec(0.10, 0.12)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	targets, err := sprt.NewErrorTargets(0.05, 0.20)
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	return spec, targets
}

func TestWaldApproximator_ASN(t *testing.T) {
	spec, targets := calibration(t)
	asn, err := NewWaldApproximator().ASN(spec, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !asn.Valid {
		t.Fatalf("calibration spec should be non-degenerate: %s", asn.Reason)
	}
	// Hand-computed from the boundary-weighted drift formulas.
	if asn.UnderNull < 600 || asn.UnderNull > 750 {
		t.Errorf("ASN under null = %v, want near 670", asn.UnderNull)
	}
	if asn.UnderAlternative < 850 || asn.UnderAlternative > 1000 {
		t.Errorf("ASN under alternative = %v, want near 910", asn.UnderAlternative)
	}

	// The whole point of sequential testing: on average it stops before the
	// fixed-horizon design would.
	fixed, err := sprt.FixedHorizonSampleSize(spec, targets)
	if err != nil {
		t.Fatalf("fixed horizon: %v", err)
	}
	if asn.UnderAlternative >= float64(fixed) {
		t.Errorf("ASN under alternative %v should beat fixed horizon %d", asn.UnderAlternative, fixed)
	}
}

func TestWaldApproximator_DegenerateDrift(t *testing.T) {
	w := NewWaldApproximator()

	spec := sprt.HypothesisSpec{Family: sprt.FamilyBernoulli, Null: 0.1, Alt: 0.1 + 1e-10}
	if !w.Degenerate(spec) {
		t.Error("nearly identical hypotheses should be flagged degenerate")
	}

	asn, err := w.ASN(spec, sprt.ErrorTargets{Alpha: 0.05, Beta: 0.20})
	if err != nil {
		t.Fatalf("degenerate drift should not be an error: %v", err)
	}
	if asn.Valid {
		t.Error("degenerate drift must invalidate the approximation, not return a huge ASN")
	}
	if asn.Reason == "" {
		t.Error("invalid approximation should say why")
	}

	healthy, _ := calibration(t)
	if w.Degenerate(healthy) {
		t.Error("calibration spec should not be degenerate")
	}
}

func TestWaldApproximator_InvalidInputs(t *testing.T) {
	w := NewWaldApproximator()
	spec, _ := calibration(t)

	if _, err := w.ASN(spec, sprt.ErrorTargets{Alpha: 0, Beta: 0.2}); err == nil {
		t.Error("alpha=0 should fail")
	}
	if _, err := w.ASN(sprt.HypothesisSpec{Family: sprt.FamilyBernoulli, Null: 0.1, Alt: 0.1}, sprt.ErrorTargets{Alpha: 0.05, Beta: 0.2}); err == nil {
		t.Error("equal parameters should fail")
	}
}

func TestAutoEstimator_SelectMethod(t *testing.T) {
	auto := NewAutoEstimator(rng.NewStreamFactory())
	spec, targets := calibration(t)

	if m := auto.SelectMethod(plan.EstimateRequest{Spec: spec, Targets: targets}); m != plan.MethodWald {
		t.Errorf("no repetition budget with healthy drift should pick wald, got %v", m)
	}
	if m := auto.SelectMethod(plan.EstimateRequest{Spec: spec, Targets: targets, Repetitions: 1000}); m != plan.MethodMonteCarlo {
		t.Errorf("explicit repetitions should pick monte carlo, got %v", m)
	}

	degenerate := sprt.HypothesisSpec{Family: sprt.FamilyBernoulli, Null: 0.1, Alt: 0.1 + 1e-10}
	if m := auto.SelectMethod(plan.EstimateRequest{Spec: degenerate, Targets: targets}); m != plan.MethodMonteCarlo {
		t.Errorf("degenerate drift should fall back to monte carlo, got %v", m)
	}
}
