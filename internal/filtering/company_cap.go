package filtering

import (
	"context"
	"fmt"

	"jobsieve/internal/job"
)

const ReasonCompanyCap = "company cap reached"

type companyCapFilter struct {
	limit int
	quota *job.CompanyQuota
}

// NewCompanyCap creates the stage enforcing the per-company quota. The quota
// is owned by the orchestrator for the run's lifetime and must be fresh for
// every run. Records are expected to arrive sorted by descending score, so
// the cap keeps the best postings per company, ties broken by input order.
func NewCompanyCap(limit int, quota *job.CompanyQuota) Filter {
	return &companyCapFilter{limit: limit, quota: quota}
}

func (f *companyCapFilter) Name() string { return "company_cap" }

func (f *companyCapFilter) Disable(string) {}

func (f *companyCapFilter) IsEnabled() bool { return true }

func (f *companyCapFilter) Validate() error {
	if f.limit < 1 {
		return fmt.Errorf("top-per-company limit must be positive, got %d", f.limit)
	}
	if f.quota == nil {
		return fmt.Errorf("company quota is required")
	}
	return nil
}

func (f *companyCapFilter) Apply(_ context.Context, _ Deps, recs *job.Records) (*job.Records, Step, error) {
	initial := recs.Len()
	kept := make([]*job.Record, 0, initial)
	var reasons []string

	for _, rec := range recs.Items {
		if f.quota.TryAcquire(rec.Company, f.limit) {
			kept = append(kept, rec)
			continue
		}
		rec.Reject(f.Name(), ReasonCompanyCap)
		reasons = sampleReason(reasons, rec)
	}

	recs.Items = kept
	return recs, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept), Reasons: reasons}, nil
}
