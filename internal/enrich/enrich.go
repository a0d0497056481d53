package enrich

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"jobsieve/internal/fetch"
	"jobsieve/internal/job"
)

// Summary reports what the enrichment phase did with the surviving records.
type Summary struct {
	Attempted int
	Enriched  int
	Failed    int
	// Abandoned counts records whose fetch was still running when the global
	// deadline hit. Their partial results are discarded.
	Abandoned int
	Cancelled bool
}

// Enricher attaches full descriptions to surviving records using a bounded
// pool of concurrent workers. Workers never write to records: they report
// results over a channel and the coordinator is the sole writer, so no
// per-record locking is needed and the record order is preserved.
type Enricher struct {
	fetcher      fetch.Fetcher
	workers      int
	deadline     time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
}

func New(fetcher fetch.Fetcher, workers int, deadline, fetchTimeout time.Duration, logger *zap.Logger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	if deadline <= 0 {
		deadline = time.Minute
	}
	return &Enricher{
		fetcher:      fetcher,
		workers:      workers,
		deadline:     deadline,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

type result struct {
	idx  int
	text string
	err  error
}

// Enrich fetches descriptions for all records and attaches them in place.
// A failed fetch annotates the record and leaves it in the set; it never
// aborts sibling workers. The call returns within the enrichment deadline:
// workers still running past it are abandoned, not awaited.
func (e *Enricher) Enrich(ctx context.Context, recs []*job.Record) Summary {
	total := len(recs)
	sum := Summary{Attempted: total}
	if total == 0 {
		return sum
	}

	// Never spin up more workers than there are records.
	workers := e.workers
	if workers > total {
		workers = total
	}

	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	e.logger.Info("starting enrichment",
		zap.Int("records", total),
		zap.Int("workers", workers),
		zap.Duration("deadline", e.deadline),
	)

	tasks := make(chan int)
	// Buffered to the record count so workers never block on reporting and
	// stragglers can drain after the coordinator has left.
	results := make(chan result, total)
	var progress int64

	// Workers are deliberately not awaited: the deadline bounds the whole
	// phase and stragglers drain into the buffered results channel.
	for i := 0; i < workers; i++ {
		go func() {
			for idx := range tasks {
				res := result{idx: idx}
				res.text, res.err = e.fetchOne(ctx, recs[idx].URL)

				done := atomic.AddInt64(&progress, 1)
				e.logger.Debug("description fetch finished",
					zap.Int64("done", done),
					zap.Int("total", total),
					zap.String("id", recs[idx].ID),
					zap.Bool("ok", res.err == nil),
				)
				results <- res
			}
		}()
	}

	// Dispatch stops immediately on cancellation; in-flight fetches finish
	// or hit their own timeout.
	go func() {
		defer close(tasks)
		for i := 0; i < total; i++ {
			select {
			case tasks <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	merged := make([]bool, total)
	received := 0
	for received < total {
		select {
		case res := <-results:
			received++
			merged[res.idx] = true
			rec := recs[res.idx]
			if res.err != nil {
				rec.FetchErr = res.err.Error()
				sum.Failed++
				e.logger.Warn("description fetch failed",
					zap.String("id", rec.ID),
					zap.String("company", rec.Company),
					zap.Error(res.err),
				)
				continue
			}
			rec.SetDescription(res.text)
			sum.Enriched++
		case <-ctx.Done():
			sum.Cancelled = ctx.Err() == context.Canceled
			for i, rec := range recs {
				if merged[i] {
					continue
				}
				rec.FetchErr = "enrichment abandoned: " + ctx.Err().Error()
				sum.Abandoned++
			}
			e.logger.Warn("enrichment stopped before completion",
				zap.Int("merged", received),
				zap.Int("abandoned", sum.Abandoned),
				zap.Error(ctx.Err()),
			)
			return sum
		}
	}

	e.logger.Info("enrichment finished",
		zap.Int("enriched", sum.Enriched),
		zap.Int("failed", sum.Failed),
	)
	return sum
}

// fetchOne wraps a single fetch with the per-fetch timeout.
func (e *Enricher) fetchOne(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", &fetch.Error{Kind: fetch.KindNotFound, URL: url}
	}

	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}
	return e.fetcher.Fetch(ctx, url)
}
