package collect

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/store"
)

// RunOptions carries what the fan-out needs besides the fetchers
// themselves.
type RunOptions struct {
	USOnly bool
}

// Run fans out over the enabled fetchers, filters the combined postings
// and records them in the job store. Collection is best-effort: a failing
// source logs and contributes nothing.
func Run(ctx context.Context, db *sql.DB, fetchers []Fetcher, opts RunOptions, logger *zap.Logger) ([]domain.JobPosting, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var g errgroup.Group
	results := make(chan Result, len(fetchers))

	for _, f := range fetchers {
		f := f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			logger.Info("collecting", zap.String("source", f.Name()))
			res, err := f.Fetch(fctx)
			if err != nil {
				// best-effort: don't cancel siblings
				logger.Warn("collector error",
					zap.String("source", f.Name()),
					zap.Error(err),
				)
				return nil
			}
			results <- res
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	var jobs []domain.JobPosting
	for res := range results {
		logger.Info("collector done",
			zap.String("source", res.Source),
			zap.Int("jobs", len(res.Jobs)),
		)
		jobs = append(jobs, res.Jobs...)
	}

	if opts.USOnly {
		kept := make([]domain.JobPosting, 0, len(jobs))
		for _, j := range jobs {
			if IsUSLocation(j.Location) {
				kept = append(kept, j)
			}
		}
		if len(jobs) > 0 && len(kept) == 0 {
			logger.Warn("no jobs matched the US location filter")
		}
		jobs = kept
	}

	if db != nil {
		added := 0
		insertCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		for _, j := range jobs {
			ok, err := store.InsertJobIgnore(insertCtx, db, j)
			if err != nil {
				logger.Warn("job insert failed",
					zap.String("source_id", j.SourceID),
					zap.Error(err),
				)
				continue
			}
			if ok {
				added++
			}
			if j.CompanyDomain != "" {
				if err := store.UpsertCompanyDomain(insertCtx, db, j.CompanyName, j.CompanyDomain); err != nil {
					logger.Warn("domain cache upsert failed",
						zap.String("company", j.CompanyName),
						zap.Error(err),
					)
				}
			}
		}
		logger.Info("job store updated", zap.Int("new", added), zap.Int("collected", len(jobs)))
	}

	return jobs, nil
}
