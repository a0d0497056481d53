package filtering

import (
	"context"
	"strings"

	"jobsieve/internal/job"
	"jobsieve/internal/util"
)

const ReasonRoleMismatch = "role mismatch"

type roleMatchFilter struct {
	roles []string
}

// NewRoleMatch creates the stage that drops records whose title matches none
// of the target roles. An empty role list accepts everything.
func NewRoleMatch(roles []string) Filter {
	f := &roleMatchFilter{}
	for _, role := range roles {
		if norm := util.Normalize(role); norm != "" {
			f.roles = append(f.roles, norm)
		}
	}
	return f
}

func (f *roleMatchFilter) Name() string { return "role_match" }

func (f *roleMatchFilter) Disable(string) {}

func (f *roleMatchFilter) IsEnabled() bool { return true }

func (f *roleMatchFilter) Validate() error { return nil }

func (f *roleMatchFilter) Apply(_ context.Context, _ Deps, recs *job.Records) (*job.Records, Step, error) {
	initial := recs.Len()
	if len(f.roles) == 0 {
		return recs, Step{Initial: initial, Left: initial}, nil
	}

	kept := make([]*job.Record, 0, initial)
	var reasons []string

	for _, rec := range recs.Items {
		if f.matches(rec.Title) {
			kept = append(kept, rec)
			continue
		}
		rec.Reject(f.Name(), ReasonRoleMismatch)
		reasons = sampleReason(reasons, rec)
	}

	recs.Items = kept
	return recs, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept), Reasons: reasons}, nil
}

// matches implements the fuzzy title check: a case-insensitive substring hit,
// or every token of the role present somewhere in the title.
func (f *roleMatchFilter) matches(title string) bool {
	norm := util.Normalize(title)
	titleTokens := util.TokenSet(norm)

	for _, role := range f.roles {
		if strings.Contains(norm, role) {
			return true
		}
		roleTokens := util.Tokenize(role)
		if len(roleTokens) == 0 {
			continue
		}
		all := true
		for _, tok := range roleTokens {
			if !titleTokens[tok] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
