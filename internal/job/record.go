package job

import (
	"fmt"
	"hash/fnv"
	"strings"

	"jobsieve/internal/util"
)

// Record is one job posting under consideration by the pipeline.
type Record struct {
	ID       string `json:"id"`
	Company  string `json:"company"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
	Snippet  string `json:"snippet,omitempty"`

	// Score is set once by the scorer and never mutated afterwards.
	Score int `json:"score"`
	// Description is attached at most once by the enricher.
	Description string `json:"description,omitempty"`
	// FetchErr annotates a failed description fetch. It is non-fatal: the
	// record stays in the surviving set.
	FetchErr string `json:"fetch_error,omitempty"`
	// Rejection is terminal. A rejected record is never processed again.
	Rejection *Rejection `json:"rejection,omitempty"`
}

// Rejection records which stage removed the record and why.
type Rejection struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// MakeID derives a stable identity for a posting. The source URL wins when
// present; otherwise company, title and location form a composite key.
func MakeID(company, title, location, url string) string {
	h := fnv.New64a()
	if u := strings.TrimSpace(url); u != "" {
		h.Write([]byte(strings.ToLower(u)))
	} else {
		h.Write([]byte(util.Normalize(company) + "|" + util.Normalize(title) + "|" + util.Normalize(location)))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Valid reports whether the record carries the identity fields the pipeline requires.
func (r *Record) Valid() error {
	if strings.TrimSpace(r.Company) == "" {
		return fmt.Errorf("record %s: missing company", r.ID)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("record %s: missing title", r.ID)
	}
	return nil
}

// Reject sets the terminal rejection exactly once. Later calls are no-ops so
// a rejected record cannot be re-rejected by another stage.
func (r *Record) Reject(stage, reason string) {
	if r.Rejection != nil {
		return
	}
	r.Rejection = &Rejection{Stage: stage, Reason: reason}
}

// Rejected reports whether the record reached its terminal rejected state.
func (r *Record) Rejected() bool { return r.Rejection != nil }

// SetDescription attaches the fetched description. Enrichment is idempotent:
// a record that already has a description keeps the one it has.
func (r *Record) SetDescription(text string) {
	if r.Description != "" {
		return
	}
	r.Description = strings.TrimSpace(text)
}

// BestDescription returns the fetched description, falling back to the
// snippet-level description when the fetch failed or never ran.
func (r *Record) BestDescription() string {
	if r.Description != "" {
		return r.Description
	}
	return strings.TrimSpace(r.Snippet)
}
