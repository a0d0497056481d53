package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobsieve/internal/enrich"
	"jobsieve/internal/fetch"
	"jobsieve/internal/filtering"
	"jobsieve/internal/job"
	"jobsieve/internal/listing"
	"jobsieve/internal/report"
	"jobsieve/internal/score"
	"jobsieve/internal/util"
)

// ErrNoPostings is returned when the listing source yields nothing to
// process. It is the only fatal pipeline outcome.
var ErrNoPostings = errors.New("no postings to process")

// Config is the value surface consumed by the pipeline core. Loading it is
// the caller's concern.
type Config struct {
	MinScore         int
	CheckSponsorship bool
	TargetRoles      []string
	TopPerCompany    int
	Workers          int
	EnrichDeadline   time.Duration
	FetchTimeout     time.Duration
}

// Pipeline composes ingestion, scoring, filtering and enrichment into one
// end-to-end run. It owns the record sequence for the run's duration; records
// are never shared across concurrent runs.
type Pipeline struct {
	source  listing.Source
	scorer  *score.Scorer
	fetcher fetch.Fetcher
	cfg     Config
	logger  *zap.Logger
}

func New(source listing.Source, scorer *score.Scorer, fetcher fetch.Fetcher, cfg Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source:  source,
		scorer:  scorer,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run executes the full pipeline: ingest, score, sort, filter, enrich,
// exclude description-less survivors, and emit the final candidates plus the
// run report. Stage and worker failures never abort the run; only an empty
// listing source is fatal.
func (p *Pipeline) Run(ctx context.Context) (*job.Records, *report.RunReport, error) {
	start := time.Now()

	postings, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, &report.RunReport{}, fmt.Errorf("fetching postings: %w", err)
	}
	if len(postings) == 0 {
		return nil, &report.RunReport{}, ErrNoPostings
	}

	recs := ingest(postings)
	dups := recs.Dedup()
	rep := &report.RunReport{Fetched: recs.Len(), Duplicates: dups}

	p.logger.Info("ingested postings",
		zap.Int("raw", len(postings)),
		zap.Int("unique", recs.Len()),
		zap.Int("duplicates", dups),
	)

	// Score every well-formed record exactly once. Malformed records keep
	// score 0 and are rejected by the first filter stage without scoring.
	for _, rec := range recs.Items {
		if rec.Valid() != nil {
			continue
		}
		rec.Score = p.scorer.Score(rec)
	}

	// Descending score before the cap stage so the per-company quota keeps
	// the best postings. The sort is stable: ties keep input order.
	recs.SortByScore()

	quota := job.NewCompanyQuota()
	steps := []filtering.Filter{
		filtering.NewMinScore(p.cfg.MinScore),
		filtering.NewSponsorship(p.cfg.CheckSponsorship),
		filtering.NewRoleMatch(p.cfg.TargetRoles),
		filtering.NewCompanyCap(p.cfg.TopPerCompany, quota),
	}

	survivors, stages, err := filtering.Run(ctx, filtering.Deps{Logger: p.logger}, steps, recs)
	if err != nil {
		return nil, rep, fmt.Errorf("filtering: %w", err)
	}
	for _, s := range stages {
		rep.Stages = append(rep.Stages, report.StageCount{
			Name:          s.Name,
			Input:         s.Initial,
			Passed:        s.Left,
			Failed:        s.Dropped,
			SampleReasons: s.Reasons,
		})
	}

	enricher := enrich.New(p.fetcher, p.cfg.Workers, p.cfg.EnrichDeadline, p.cfg.FetchTimeout, p.logger)
	sum := enricher.Enrich(ctx, survivors.Items)
	rep.EnrichFailed = sum.Failed + sum.Abandoned
	rep.Cancelled = sum.Cancelled

	// A survivor with no description of any kind cannot feed the document
	// generator. It is excluded and tallied apart from filter rejections; a
	// failed fetch alone is fine as long as the snippet can stand in.
	final := make([]*job.Record, 0, survivors.Len())
	for _, rec := range survivors.Items {
		if rec.BestDescription() == "" {
			rep.NoDescription++
			p.logger.Warn("excluding candidate without any description",
				zap.String("id", rec.ID),
				zap.String("company", rec.Company),
				zap.String("title", util.TruncateForLog(rec.Title, 80)),
			)
			continue
		}
		final = append(final, rec)
	}
	survivors.Items = final

	rep.Final = survivors.Len()
	rep.Duration = time.Since(start)

	p.logger.Info("pipeline finished",
		zap.Int("fetched", rep.Fetched),
		zap.Int("rejected", rep.Rejected()),
		zap.Int("no_description", rep.NoDescription),
		zap.Int("final", rep.Final),
		zap.Bool("balanced", rep.Balanced()),
		zap.Duration("duration", rep.Duration),
	)

	return survivors, rep, nil
}

// ingest turns raw postings into records with stable identities.
func ingest(postings []listing.Posting) *job.Records {
	items := make([]*job.Record, 0, len(postings))
	for _, p := range postings {
		items = append(items, &job.Record{
			ID:       job.MakeID(p.Company, p.Title, p.Location, p.URL),
			Company:  p.Company,
			Title:    p.Title,
			Location: p.Location,
			URL:      p.URL,
			Snippet:  p.Snippet,
		})
	}
	return &job.Records{Items: items}
}
