package filtering

import (
	"context"
	"testing"

	"jobsieve/internal/job"
)

func records(items ...*job.Record) *job.Records {
	return &job.Records{Items: items}
}

func TestMinScoreRejectsBelowThreshold(t *testing.T) {
	low := &job.Record{ID: "2", Company: "Globex", Title: "Go Developer", Score: 40}
	recs := records(
		&job.Record{ID: "1", Company: "Acme", Title: "Go Developer", Score: 90},
		low,
	)

	filter := NewMinScore(50)
	out, step, err := filter.Apply(context.Background(), Deps{}, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != 1 || out.Items[0].ID != "1" {
		t.Fatalf("expected only record 1 to survive, got %d records", out.Len())
	}
	if step.Initial != 2 || step.Dropped != 1 || step.Left != 1 {
		t.Fatalf("unexpected step counts: %+v", step)
	}
	if low.Rejection == nil || low.Rejection.Reason != ReasonBelowMinScore {
		t.Fatalf("expected reason %q, got %+v", ReasonBelowMinScore, low.Rejection)
	}
}

func TestMinScoreRejectsMalformedRecords(t *testing.T) {
	malformed := &job.Record{ID: "1", Title: "Go Developer", Score: 99}
	recs := records(malformed)

	filter := NewMinScore(50)
	out, _, err := filter.Apply(context.Background(), Deps{}, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != 0 {
		t.Fatalf("malformed record must not survive")
	}
	if malformed.Rejection == nil || malformed.Rejection.Reason != ReasonMalformed {
		t.Fatalf("expected %q rejection, got %+v", ReasonMalformed, malformed.Rejection)
	}
}

func TestMinScoreValidatesRange(t *testing.T) {
	if err := NewMinScore(101).Validate(); err == nil {
		t.Fatalf("expected validation error for min score 101")
	}
	if err := NewMinScore(-1).Validate(); err == nil {
		t.Fatalf("expected validation error for min score -1")
	}
	if err := NewMinScore(50).Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestSponsorshipRejectsNegativePatterns(t *testing.T) {
	rejected := &job.Record{
		ID: "1", Company: "Acme", Title: "Go Developer", Score: 95,
		Snippet: "Great role but we do not provide visa sponsorship for this position.",
	}
	passing := &job.Record{
		ID: "2", Company: "Globex", Title: "Go Developer", Score: 80,
		Snippet: "We welcome applicants from anywhere.",
	}
	recs := records(rejected, passing)

	filter := NewSponsorship(true)
	out, step, err := filter.Apply(context.Background(), Deps{}, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != 1 || out.Items[0].ID != "2" {
		t.Fatalf("expected only record 2 to survive")
	}
	if rejected.Rejection == nil || rejected.Rejection.Reason != ReasonNoSponsorship {
		t.Fatalf("expected %q rejection regardless of score, got %+v", ReasonNoSponsorship, rejected.Rejection)
	}
	if step.Dropped != 1 {
		t.Fatalf("unexpected step counts: %+v", step)
	}
}

func TestSponsorshipAbsenceOfPatternPasses(t *testing.T) {
	rec := &job.Record{ID: "1", Company: "Acme", Title: "Go Developer", Snippet: "no mention of anything"}
	out, _, err := NewSponsorship(true).Apply(context.Background(), Deps{}, records(rec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("record with no sponsorship mention must pass")
	}
}

func TestSponsorshipDisabledByConfig(t *testing.T) {
	filter := NewSponsorship(false)
	if filter.IsEnabled() {
		t.Fatalf("filter must be disabled when check-sponsorship is off")
	}
}

func TestRoleMatchEmptyRolesAcceptAll(t *testing.T) {
	recs := records(
		&job.Record{ID: "1", Company: "Acme", Title: "Underwater Basket Weaver"},
	)
	out, _, err := NewRoleMatch(nil).Apply(context.Background(), Deps{}, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("empty target roles must accept all")
	}
}

func TestRoleMatchSubstringAndTokenOverlap(t *testing.T) {
	substring := &job.Record{ID: "1", Company: "Acme", Title: "Senior Backend Engineer (Go)"}
	overlap := &job.Record{ID: "2", Company: "Acme", Title: "Engineer, Backend Platform"}
	mismatch := &job.Record{ID: "3", Company: "Acme", Title: "Sales Manager"}
	recs := records(substring, overlap, mismatch)

	filter := NewRoleMatch([]string{"Backend Engineer"})
	out, step, err := filter.Apply(context.Background(), Deps{}, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != 2 {
		t.Fatalf("expected 2 survivors, got %d", out.Len())
	}
	if mismatch.Rejection == nil || mismatch.Rejection.Reason != ReasonRoleMismatch {
		t.Fatalf("expected %q rejection, got %+v", ReasonRoleMismatch, mismatch.Rejection)
	}
	if step.Dropped != 1 {
		t.Fatalf("unexpected step counts: %+v", step)
	}
}

func TestCompanyCapKeepsBestPerCompany(t *testing.T) {
	// Sorted by descending score, as the orchestrator guarantees.
	a90 := &job.Record{ID: "a90", Company: "Acme", Title: "Go Developer", Score: 90}
	b85 := &job.Record{ID: "b85", Company: "Globex", Title: "Go Developer", Score: 85}
	a60 := &job.Record{ID: "a60", Company: "Acme", Title: "Go Developer", Score: 60}
	recs := records(a90, b85, a60)

	filter := NewCompanyCap(1, job.NewCompanyQuota())
	if err := filter.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	out, step, err := filter.Apply(context.Background(), Deps{}, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != 2 {
		t.Fatalf("expected 2 survivors, got %d", out.Len())
	}
	if out.Items[0].ID != "a90" || out.Items[1].ID != "b85" {
		t.Fatalf("cap must keep the best per company in order, got %s, %s", out.Items[0].ID, out.Items[1].ID)
	}
	if a60.Rejection == nil || a60.Rejection.Reason != ReasonCompanyCap {
		t.Fatalf("expected %q rejection, got %+v", ReasonCompanyCap, a60.Rejection)
	}
	if step.Dropped != 1 {
		t.Fatalf("unexpected step counts: %+v", step)
	}
}

func TestCompanyCapValidate(t *testing.T) {
	if err := NewCompanyCap(0, job.NewCompanyQuota()).Validate(); err == nil {
		t.Fatalf("expected validation error for limit 0")
	}
	if err := NewCompanyCap(1, nil).Validate(); err == nil {
		t.Fatalf("expected validation error for nil quota")
	}
}

func TestRunExecutesStagesInOrder(t *testing.T) {
	recs := records(
		&job.Record{ID: "1", Company: "Acme", Title: "Backend Engineer", Score: 90},
		&job.Record{ID: "2", Company: "Acme", Title: "Backend Engineer", Score: 60},
		&job.Record{ID: "3", Company: "Globex", Title: "Backend Engineer", Score: 40},
		&job.Record{ID: "4", Company: "Initech", Title: "Sales Manager", Score: 70},
	)

	steps := []Filter{
		NewMinScore(50),
		NewSponsorship(true),
		NewRoleMatch([]string{"Backend Engineer"}),
		NewCompanyCap(1, job.NewCompanyQuota()),
	}

	out, results, err := Run(context.Background(), Deps{}, steps, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Len() != 1 || out.Items[0].ID != "1" {
		t.Fatalf("expected only record 1 to survive, got %d", out.Len())
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 step results, got %d", len(results))
	}

	wantDropped := map[string]int{"min_score": 1, "sponsorship": 0, "role_match": 1, "company_cap": 1}
	for _, res := range results {
		if res.Dropped != wantDropped[res.Name] {
			t.Fatalf("stage %s: expected %d dropped, got %d", res.Name, wantDropped[res.Name], res.Dropped)
		}
	}
}

func TestRunDisabledStageCountsPassThrough(t *testing.T) {
	recs := records(
		&job.Record{ID: "1", Company: "Acme", Title: "Go Developer", Score: 90, Snippet: "no visa sponsorship"},
	)

	steps := []Filter{NewSponsorship(false)}
	out, results, err := Run(context.Background(), Deps{}, steps, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("disabled stage must pass records through")
	}
	if len(results) != 1 || results[0].Dropped != 0 || results[0].Left != 1 {
		t.Fatalf("disabled stage must report a pass-through step, got %+v", results)
	}
}

func TestRunIsIdempotentOnSurvivors(t *testing.T) {
	build := func() []Filter {
		return []Filter{
			NewMinScore(50),
			NewSponsorship(true),
			NewRoleMatch([]string{"Backend Engineer"}),
			NewCompanyCap(2, job.NewCompanyQuota()),
		}
	}

	recs := records(
		&job.Record{ID: "1", Company: "Acme", Title: "Backend Engineer", Score: 90},
		&job.Record{ID: "2", Company: "Acme", Title: "Backend Engineer", Score: 60},
		&job.Record{ID: "3", Company: "Globex", Title: "Backend Engineer", Score: 80},
	)

	first, _, err := Run(context.Background(), Deps{}, build(), recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstIDs := make([]string, 0, first.Len())
	for _, rec := range first.Items {
		firstIDs = append(firstIDs, rec.ID)
	}

	// Re-running on the survivors with a fresh quota yields the same set.
	second, _, err := Run(context.Background(), Deps{}, build(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Len() != len(firstIDs) {
		t.Fatalf("expected %d survivors on second run, got %d", len(firstIDs), second.Len())
	}
	for i, rec := range second.Items {
		if rec.ID != firstIDs[i] {
			t.Fatalf("survivor %d changed: %s vs %s", i, rec.ID, firstIDs[i])
		}
	}
}
