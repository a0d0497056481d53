package report

import "time"

// StageCount tallies one filter stage's outcome for the run.
type StageCount struct {
	Name          string   `json:"name"`
	Input         int      `json:"input"`
	Passed        int      `json:"passed"`
	Failed        int      `json:"failed"`
	SampleReasons []string `json:"sample_reasons,omitempty"`
}

// RunReport is the end-of-run summary. Each stage owns its own counters while
// the run is in flight; the orchestrator merges them here exactly once, and
// the report is never mutated afterwards.
type RunReport struct {
	// Fetched counts unique records entering the pipeline; duplicates dropped
	// at ingestion are reported separately.
	Fetched    int          `json:"fetched"`
	Duplicates int          `json:"duplicates"`
	Stages     []StageCount `json:"stages"`
	// EnrichFailed counts non-fatal fetch failures, including fetches
	// abandoned at the enrichment deadline.
	EnrichFailed int `json:"enrich_failed"`
	// NoDescription counts survivors excluded for lacking any description.
	// Distinct from a filter rejection.
	NoDescription int           `json:"no_description"`
	Final         int           `json:"final"`
	Cancelled     bool          `json:"cancelled,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Rejected sums the records dropped across all filter stages.
func (r *RunReport) Rejected() int {
	total := 0
	for _, s := range r.Stages {
		total += s.Failed
	}
	return total
}

// Balanced verifies the accounting invariant: every fetched record ends in
// exactly one terminal tally.
func (r *RunReport) Balanced() bool {
	return r.Fetched == r.Rejected()+r.NoDescription+r.Final
}
