package listing

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Multi fans out over several sources concurrently. Each source is
// best-effort: a failing board is logged and skipped and never cancels its
// siblings. Whether an entirely empty result is fatal is the orchestrator's
// call, not Multi's.
type Multi struct {
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
}

func NewMulti(sources []Source, timeout time.Duration, logger *zap.Logger) *Multi {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Multi{sources: sources, timeout: timeout, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Fetch(ctx context.Context) ([]Posting, error) {
	var g errgroup.Group
	results := make(chan []Posting, len(m.sources))

	for _, src := range m.sources {
		src := src
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			postings, err := src.Fetch(fctx)
			if err != nil {
				// best-effort: do not cancel siblings
				m.logger.Warn("listing source failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return nil
			}

			m.logger.Info("listing source done",
				zap.String("source", src.Name()),
				zap.Int("postings", len(postings)),
			)
			results <- postings
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	var out []Posting
	for batch := range results {
		out = append(out, batch...)
	}
	return out, nil
}
