package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobportal-engine/internal/domain"

	"go.uber.org/zap"
)

// posted_at only moves forward from NULL: an unknown incoming value keeps
// what we already had. created_at is written once, on insert.
const sqliteUpsertSQL = `
INSERT INTO jobs (source, source_job_id, title, company, location, description, apply_url, posted_at, fetched_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source, source_job_id) DO UPDATE SET
  title = excluded.title,
  company = excluded.company,
  location = excluded.location,
  description = excluded.description,
  apply_url = excluded.apply_url,
  posted_at = COALESCE(excluded.posted_at, jobs.posted_at),
  fetched_at = excluded.fetched_at;`

// Upsert writes the batch in one transaction, each record behind its own
// savepoint so a bad record is rolled back alone.
func (s *SQLiteStore) Upsert(ctx context.Context, batch []domain.Job) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	start := time.Now()
	tx, err := s.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(s.opts.now())
	written, batchErr := upsertEach(ctx, batch, func(ctx context.Context, j domain.Job) error {
		return withSavepoint(ctx, tx, func() error {
			_, err := stmt.ExecContext(ctx,
				j.Source,
				j.SourceJobID,
				j.Title,
				j.Company,
				j.Location,
				nullString(j.Description),
				nullString(j.ApplyURL),
				nullTime(j.PostedAt),
				now,
				now,
			)
			return err
		})
	})

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}

	s.opts.log.Info("upserted jobs",
		zap.Int("batch", len(batch)),
		zap.Int("written", written),
		zap.Duration("took", time.Since(start)),
	)
	return written, batchErr
}

func withSavepoint(ctx context.Context, tx *sql.Tx, fn func() error) error {
	if _, err := tx.ExecContext(ctx, `SAVEPOINT job_upsert;`); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_, _ = tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT job_upsert;`)
		_, _ = tx.ExecContext(ctx, `RELEASE SAVEPOINT job_upsert;`)
		return err
	}
	_, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT job_upsert;`)
	return err
}
