package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"jobportal-engine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var postgresDialect = dialect{
	like:    "ILIKE",
	bind:    func(n int) string { return "$" + strconv.Itoa(n) },
	timeArg: func(t time.Time) any { return t.UTC() },
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
  id BIGSERIAL PRIMARY KEY,
  source TEXT NOT NULL,
  source_job_id TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  description TEXT,
  apply_url TEXT,
  posted_at TIMESTAMPTZ,
  fetched_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (source, source_job_id)
);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at);
`

const postgresUpsertSQL = `
INSERT INTO jobs (source, source_job_id, title, company, location, description, apply_url, posted_at, fetched_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (source, source_job_id) DO UPDATE SET
  title = EXCLUDED.title,
  company = EXCLUDED.company,
  location = EXCLUDED.location,
  description = EXCLUDED.description,
  apply_url = EXCLUDED.apply_url,
  posted_at = COALESCE(EXCLUDED.posted_at, jobs.posted_at),
  fetched_at = EXCLUDED.fetched_at`

// PostgresStore is the networked backend (pgx connection pool).
type PostgresStore struct {
	pool *pgxpool.Pool
	opts options
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects, pings and migrates. A non-empty password overrides
// the one in databaseURL (used for keychain-held credentials).
func OpenPostgres(ctx context.Context, databaseURL, password string, opts ...Option) (*PostgresStore, error) {
	pcfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if password != "" {
		pcfg.ConnConfig.Password = password
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	return &PostgresStore{pool: pool, opts: buildOptions(opts)}, nil
}

func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Upsert uses one transaction with a nested pgx transaction (a savepoint)
// per record; an aborted statement would otherwise poison the whole batch.
func (s *PostgresStore) Upsert(ctx context.Context, batch []domain.Job) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := s.opts.now().UTC()
	written, batchErr := upsertEach(ctx, batch, func(ctx context.Context, j domain.Job) error {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := sp.Exec(ctx, postgresUpsertSQL,
			j.Source,
			j.SourceJobID,
			j.Title,
			j.Company,
			j.Location,
			j.Description,
			j.ApplyURL,
			j.PostedAt,
			now,
		); err != nil {
			_ = sp.Rollback(ctx)
			return err
		}
		return sp.Commit(ctx)
	})

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}

	s.opts.log.Info("upserted jobs",
		zap.Int("batch", len(batch)),
		zap.Int("written", written),
		zap.Duration("took", time.Since(start)),
	)
	return written, batchErr
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]domain.Job, error) {
	query, args := buildListQuery(postgresDialect, f)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanPostgresJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, key domain.Key) (domain.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE source = $1 AND source_job_id = $2`,
		key.Source, key.SourceJobID,
	)
	j, err := scanPostgresJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, ErrNotFound
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("get job %s: %w", key, err)
	}
	return j, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete job %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	return n, err
}

func scanPostgresJob(r pgx.Row) (domain.Job, error) {
	var j domain.Job
	err := r.Scan(
		&j.ID,
		&j.Source,
		&j.SourceJobID,
		&j.Title,
		&j.Company,
		&j.Location,
		&j.Description,
		&j.ApplyURL,
		&j.PostedAt,
		&j.FetchedAt,
		&j.CreatedAt,
	)
	if err != nil {
		return domain.Job{}, err
	}
	if j.PostedAt != nil {
		t := j.PostedAt.UTC()
		j.PostedAt = &t
	}
	j.FetchedAt = j.FetchedAt.UTC()
	j.CreatedAt = j.CreatedAt.UTC()
	return j, nil
}
