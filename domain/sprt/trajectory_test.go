package sprt_test

import (
	"testing"

	"seqab/domain/sprt"
	"seqab/internal/testkit"
)

// Trajectory tests drive whole synthetic observation streams through the
// engine, the way callers consume it, rather than poking single observations.

func TestEngine_TrajectoryUnderAlternative(t *testing.T) {
	kit := testkit.NewTestKit()
	spec := kit.CalibrationSpec()
	bounds, factory, err := sprt.NewEngineFactory(spec, kit.CalibrationTargets())
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	// Data generated at the alternative rate; with a 50k-observation stream
	// the test is practically guaranteed to terminate.
	stream := kit.BernoulliStream(7, spec.Alt, 50000)
	trajectory, err := kit.Drive(factory.New(), stream)
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	if len(trajectory) == 0 {
		t.Fatal("empty trajectory")
	}

	final := trajectory[len(trajectory)-1]
	if !final.Decision.Terminal() {
		t.Fatalf("test still undecided after %d observations", final.Observations)
	}
	for i, state := range trajectory {
		if state.Observations != i+1 {
			t.Fatalf("state %d reports %d observations", i, state.Observations)
		}
		if terminal := state.Decision.Terminal(); terminal != (i == len(trajectory)-1) {
			t.Fatalf("terminal decision at position %d of %d", i, len(trajectory))
		}
	}
	if final.Statistic > bounds.Lower && final.Statistic < bounds.Upper {
		t.Errorf("terminal statistic %v inside the continuation region (%v, %v)",
			final.Statistic, bounds.Lower, bounds.Upper)
	}
}

func TestEngine_TrajectoryIsReproducible(t *testing.T) {
	kit := testkit.NewTestKit()
	_, factory, err := sprt.NewEngineFactory(kit.CalibrationSpec(), kit.CalibrationTargets())
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	stream := kit.BernoulliStream(11, 0.10, 20000)
	first, err := kit.Drive(factory.New(), stream)
	if err != nil {
		t.Fatalf("first drive: %v", err)
	}
	second, err := kit.Drive(factory.New(), stream)
	if err != nil {
		t.Fatalf("second drive: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("trajectory lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("state %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestEngine_GaussianTrajectoryTerminates(t *testing.T) {
	kit := testkit.NewTestKit()
	spec, err := sprt.NewGaussianSpec(0.0, 0.5, 1.0)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	_, factory, err := sprt.NewEngineFactory(spec, kit.CalibrationTargets())
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	stream := kit.GaussianStream(3, 0.5, 1.0, 5000)
	trajectory, err := kit.Drive(factory.New(), stream)
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	final := trajectory[len(trajectory)-1]
	if !final.Decision.Terminal() {
		t.Fatalf("gaussian test still undecided after %d observations", final.Observations)
	}
}
