package filtering

import (
	"context"
	"strings"

	"jobsieve/internal/job"
	"jobsieve/internal/util"
)

const ReasonNoSponsorship = "no sponsorship"

// negativePatterns are phrases indicating a posting will not sponsor a work
// visa. Absence of any pattern is not a positive signal: records with no
// mention pass. The list is declarative so it stays testable and extensible
// without touching the pipeline control flow.
var negativePatterns = []string{
	"no visa sponsorship",
	"not provide visa sponsorship",
	"not provide sponsorship",
	"not offer sponsorship",
	"unable to sponsor",
	"cannot sponsor",
	"will not sponsor",
	"without sponsorship",
	"sponsorship is not available",
	"sponsorship not available",
	"must be a citizen",
	"must be a us citizen",
	"citizens only",
	"no sponsorship",
}

type sponsorshipFilter struct {
	disabled bool
	reason   string
	patterns []string
}

// NewSponsorship creates the stage that drops postings explicitly refusing
// visa sponsorship. It is toggled by the check-sponsorship config key.
func NewSponsorship(enabled bool) Filter {
	f := &sponsorshipFilter{patterns: negativePatterns}
	if !enabled {
		f.disabled = true
		f.reason = "disabled via check-sponsorship"
	}
	return f
}

func (f *sponsorshipFilter) Name() string { return "sponsorship" }

func (f *sponsorshipFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *sponsorshipFilter) IsEnabled() bool { return !f.disabled }

func (f *sponsorshipFilter) Validate() error { return nil }

func (f *sponsorshipFilter) Apply(_ context.Context, _ Deps, recs *job.Records) (*job.Records, Step, error) {
	initial := recs.Len()
	kept := make([]*job.Record, 0, initial)
	var reasons []string

	for _, rec := range recs.Items {
		text := util.Normalize(rec.Title + " " + rec.BestDescription())
		if pattern := firstMatch(text, f.patterns); pattern != "" {
			rec.Reject(f.Name(), ReasonNoSponsorship)
			reasons = sampleReason(reasons, rec)
			continue
		}
		kept = append(kept, rec)
	}

	recs.Items = kept
	return recs, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept), Reasons: reasons}, nil
}

func firstMatch(text string, patterns []string) string {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return p
		}
	}
	return ""
}
