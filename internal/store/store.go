// Package store persists jobs. Store is the port the ingestion driver and the
// query layer talk to; SQLiteStore and PostgresStore implement it and keep the
// dialect differences (placeholders, LIKE vs ILIKE, timestamp encoding,
// savepoints) to themselves.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobportal-engine/internal/domain"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("job not found")

// Store is implemented by SQLiteStore and PostgresStore.
type Store interface {
	// Upsert merges batch into the jobs table, best-effort per record.
	// It returns how many records were written; per-record failures come back
	// as a *BatchError alongside that count. Any other error means nothing
	// was committed.
	Upsert(ctx context.Context, batch []domain.Job) (int, error)
	List(ctx context.Context, f Filter) ([]domain.Job, error)
	Get(ctx context.Context, key domain.Key) (domain.Job, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Filter selects jobs for List. Zero values disable a dimension.
type Filter struct {
	Query    string // substring of title, company or location
	Location string
	Company  string
	Source   string

	// Since keeps jobs whose COALESCE(posted_at, fetched_at) is at or after it.
	Since time.Time

	// CreatedFrom/CreatedTo bound created_at as [from, to).
	CreatedFrom time.Time
	CreatedTo   time.Time

	Limit int
}

// RecordError is one record the store refused or failed to write.
type RecordError struct {
	Key domain.Key
	Err error
}

func (e *RecordError) Error() string { return fmt.Sprintf("upsert %s: %v", e.Key, e.Err) }

func (e *RecordError) Unwrap() error { return e.Err }

// BatchError aggregates the RecordErrors of one Upsert call.
type BatchError struct {
	Total int
	errs  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d records failed: %v", len(multierr.Errors(e.errs)), e.Total, e.errs)
}

func (e *BatchError) Unwrap() []error { return multierr.Errors(e.errs) }

// Records lists the failed records in batch order.
func (e *BatchError) Records() []*RecordError {
	var out []*RecordError
	for _, err := range multierr.Errors(e.errs) {
		var re *RecordError
		if errors.As(err, &re) {
			out = append(out, re)
		}
	}
	return out
}

type Option func(*options)

type options struct {
	now func() time.Time
	log *zap.Logger
}

// WithClock replaces time.Now for created_at / fetched_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.Named("store")
	return o
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// prepare trims the text fields and checks the required ones.
func prepare(j domain.Job) (domain.Job, error) {
	j.Source = strings.TrimSpace(j.Source)
	j.SourceJobID = strings.TrimSpace(j.SourceJobID)
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Location = strings.TrimSpace(j.Location)
	if j.PostedAt != nil {
		t := j.PostedAt.UTC()
		j.PostedAt = &t
	}
	if err := validate.Struct(j); err != nil {
		return j, fmt.Errorf("invalid job: %w", err)
	}
	return j, nil
}

// upsertEach runs write for every valid record and collects the failures.
// write must leave the surrounding transaction usable when it fails.
func upsertEach(ctx context.Context, batch []domain.Job, write func(context.Context, domain.Job) error) (int, error) {
	var errs error
	written := 0
	for _, raw := range batch {
		j, err := prepare(raw)
		if err == nil {
			err = write(ctx, j)
		}
		if err != nil {
			errs = multierr.Append(errs, &RecordError{Key: raw.Key(), Err: err})
			continue
		}
		written++
	}
	if errs != nil {
		return written, &BatchError{Total: len(batch), errs: errs}
	}
	return written, nil
}
