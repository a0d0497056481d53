package filtering

import (
	"context"
	"fmt"

	"jobsieve/internal/job"
)

const (
	ReasonBelowMinScore = "below min_score"
	ReasonMalformed     = "malformed record"
)

type minScoreFilter struct {
	min int
}

// NewMinScore creates the stage that drops records scoring below the
// configured threshold. Malformed records (missing identity fields) are
// dropped here as well, before any later stage can see them.
func NewMinScore(min int) Filter {
	return &minScoreFilter{min: min}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(string) {}

func (f *minScoreFilter) IsEnabled() bool { return true }

func (f *minScoreFilter) Validate() error {
	if f.min < 0 || f.min > 100 {
		return fmt.Errorf("min score %d is out of range [0,100]", f.min)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, _ Deps, recs *job.Records) (*job.Records, Step, error) {
	initial := recs.Len()
	kept := make([]*job.Record, 0, initial)
	var reasons []string

	for _, rec := range recs.Items {
		switch {
		case rec.Valid() != nil:
			rec.Reject(f.Name(), ReasonMalformed)
		case rec.Score < f.min:
			rec.Reject(f.Name(), ReasonBelowMinScore)
		default:
			kept = append(kept, rec)
			continue
		}
		reasons = sampleReason(reasons, rec)
	}

	recs.Items = kept
	return recs, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept), Reasons: reasons}, nil
}
