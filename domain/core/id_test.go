package core

import "testing"

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	if a.IsEmpty() || b.IsEmpty() {
		t.Fatal("generated IDs must be non-empty")
	}
	if a == b {
		t.Error("consecutive IDs should differ")
	}
}

func TestParseExperimentID(t *testing.T) {
	id, err := ParseExperimentID("exp-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "exp-123" {
		t.Errorf("round trip = %q", id.String())
	}

	for _, bad := range []string{"", "   "} {
		if _, err := ParseExperimentID(bad); err == nil {
			t.Errorf("ParseExperimentID(%q) should fail", bad)
		}
	}
}
