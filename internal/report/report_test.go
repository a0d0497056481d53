package report

import "testing"

func TestBalanced(t *testing.T) {
	rep := &RunReport{
		Fetched: 10,
		Stages: []StageCount{
			{Name: "min_score", Input: 10, Passed: 7, Failed: 3},
			{Name: "sponsorship", Input: 7, Passed: 5, Failed: 2},
		},
		NoDescription: 1,
		Final:         4,
	}

	if got := rep.Rejected(); got != 5 {
		t.Fatalf("expected 5 rejected, got %d", got)
	}
	if !rep.Balanced() {
		t.Fatalf("expected balanced report: %+v", rep)
	}

	rep.Final = 5
	if rep.Balanced() {
		t.Fatalf("expected unbalanced report after losing a record")
	}
}
