package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jobsieve/internal/job"
)

// maxSampleReasons caps the rejection reasons sampled per stage for the run report.
const maxSampleReasons = 5

// Filter represents a single filtering stage applied to scored records.
// Stages only remove or annotate records; they never reorder or duplicate.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, deps Deps, recs *job.Records) (*job.Records, Step, error)
}

// Deps aggregates dependencies shared across all filter stages.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing one filter stage.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
	// Reasons is a small sample of rejection reasons for debugging.
	Reasons []string
}

// Run executes the filters sequentially over the surviving records. A record
// rejected by one stage never reaches the next. The filter phase is
// deliberately single-threaded: stages are CPU-cheap and the company quota
// depends on strictly ordered processing.
func Run(ctx context.Context, deps Deps, steps []Filter, recs *job.Records) (*job.Records, []Step, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	results := make([]Step, 0, len(steps))
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			results = append(results, Step{Name: step.Name(), Initial: recs.Len(), Left: recs.Len()})
			continue
		}

		next, info, err := step.Apply(ctx, deps, recs)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
		info.Name = step.Name()

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		recs = next
		results = append(results, info)
	}

	return recs, results, nil
}

// sampleReason appends a formatted reason unless the sample is full.
func sampleReason(reasons []string, rec *job.Record) []string {
	if len(reasons) >= maxSampleReasons || rec.Rejection == nil {
		return reasons
	}
	return append(reasons, fmt.Sprintf("%s (%s): %s", rec.ID, rec.Company, rec.Rejection.Reason))
}
