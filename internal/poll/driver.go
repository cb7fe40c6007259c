// Package poll runs ingestion: fetch every configured source, then upsert the
// combined batch once.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/scrape/types"
	"jobportal-engine/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Upserter is the part of store.Store the driver writes through.
type Upserter interface {
	Upsert(ctx context.Context, batch []domain.Job) (int, error)
}

// SourceStatus is the outcome of one source in a run.
type SourceStatus struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

// Summary describes one run. Sources is keyed by SourceRef.ID().
type Summary struct {
	Upserted int                     `json:"upserted"`
	Fetched  int                     `json:"fetched"`
	Failed   int                     `json:"failed"` // records the store rejected
	Sources  map[string]SourceStatus `json:"sources"`
}

// FailedSources counts sources whose fetch failed.
func (s Summary) FailedSources() int {
	n := 0
	for _, st := range s.Sources {
		if st.Status != StatusOK {
			n++
		}
	}
	return n
}

type Driver struct {
	store    Upserter
	fetchers map[string]types.Fetcher
	workers  int
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewDriver indexes fetchers by Name(). workers < 1 runs sources one at a time.
func NewDriver(st Upserter, fetchers []types.Fetcher, workers int, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	byName := make(map[string]types.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byName[f.Name()] = f
	}
	return &Driver{store: st, fetchers: byName, workers: workers, log: log.Named("poll")}
}

// WithMetrics makes Run record into m.
func (d *Driver) WithMetrics(m *metrics.Metrics) *Driver {
	d.metrics = m
	return d
}

type fetchResult struct {
	jobs []domain.Job
	err  error
}

// Run fetches all sources with bounded parallelism and upserts what came back.
// A failing source only marks its own status. The error is non-nil only when
// the store failed fatally.
func (d *Driver) Run(ctx context.Context, sources []domain.SourceRef) (Summary, error) {
	start := time.Now()
	results := make([]fetchResult, len(sources))

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = d.fetch(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Sources: make(map[string]SourceStatus, len(sources))}
	var batch []domain.Job
	for i, src := range sources {
		res := results[i]
		if res.err != nil {
			sum.Sources[src.ID()] = SourceStatus{Status: StatusError, Error: res.err.Error()}
			d.observeSource(src.Platform, StatusError)
			continue
		}
		sum.Sources[src.ID()] = SourceStatus{Status: StatusOK, Count: len(res.jobs)}
		d.observeSource(src.Platform, StatusOK)
		batch = append(batch, res.jobs...)
	}
	sum.Fetched = len(batch)

	n, err := d.store.Upsert(ctx, batch)
	sum.Upserted = n
	var batchErr *store.BatchError
	switch {
	case errors.As(err, &batchErr):
		sum.Failed = len(batchErr.Records())
		for _, rec := range batchErr.Records() {
			d.log.Warn("record rejected", zap.Stringer("key", rec.Key), zap.Error(rec.Err))
		}
	case err != nil:
		d.log.Error("upsert failed", zap.Int("batch", len(batch)), zap.Error(err))
		d.observeRun(sum, StatusError, time.Since(start))
		return sum, fmt.Errorf("upsert batch: %w", err)
	}
	d.observeRun(sum, StatusOK, time.Since(start))

	d.log.Info("run complete",
		zap.Int("sources", len(sources)),
		zap.Int("failed_sources", sum.FailedSources()),
		zap.Int("fetched", sum.Fetched),
		zap.Int("upserted", sum.Upserted),
		zap.Duration("took", time.Since(start)),
	)
	return sum, nil
}

func (d *Driver) fetch(ctx context.Context, src domain.SourceRef) fetchResult {
	f, ok := d.fetchers[src.Platform]
	if !ok {
		err := fmt.Errorf("unknown platform %q", src.Platform)
		d.log.Warn("source skipped", zap.String("source", src.ID()), zap.Error(err))
		return fetchResult{err: err}
	}

	jobs, err := f.Fetch(ctx, src.Company)
	if err != nil {
		d.log.Warn("fetch failed", zap.String("source", src.ID()), zap.Error(err))
		return fetchResult{err: err}
	}
	d.log.Debug("fetched", zap.String("source", src.ID()), zap.Int("jobs", len(jobs)))
	return fetchResult{jobs: jobs}
}

func (d *Driver) observeSource(platform, status string) {
	if d.metrics == nil {
		return
	}
	d.metrics.SourceFetches.WithLabelValues(platform, status).Inc()
}

func (d *Driver) observeRun(sum Summary, status string, took time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.RunsTotal.WithLabelValues(status).Inc()
	d.metrics.RunDuration.Observe(took.Seconds())
	d.metrics.JobsFetched.Add(float64(sum.Fetched))
	d.metrics.JobsUpserted.Add(float64(sum.Upserted))
	d.metrics.RecordsRejected.Add(float64(sum.Failed))
	if status == StatusOK {
		d.metrics.LastSuccessEpoch.SetToCurrentTime()
	}
}
