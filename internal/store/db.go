package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobportal-engine/internal/domain"

	_ "modernc.org/sqlite"
)

// sqliteTime is fixed-width so TEXT comparison and ORDER BY match time order.
const sqliteTime = "2006-01-02T15:04:05.000000Z"

var sqliteDialect = dialect{
	like:    "LIKE", // folds ASCII case only, unlike Postgres ILIKE
	bind:    func(int) string { return "?" },
	timeArg: func(t time.Time) any { return formatTime(t) },
}

// SQLiteStore is the embedded backend (modernc.org/sqlite, no cgo).
type SQLiteStore struct {
	Pool *sql.DB
	opts options
}

var _ Store = (*SQLiteStore)(nil)

func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite typically wants 1 writer
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := Migrate(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{Pool: pool, opts: buildOptions(opts)}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.Pool == nil {
		return nil
	}
	return s.Pool.Close()
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]domain.Job, error) {
	query, args := buildListQuery(sqliteDialect, f)
	rows, err := s.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key domain.Key) (domain.Job, error) {
	row := s.Pool.QueryRowContext(ctx, `
SELECT `+jobColumns+`
FROM jobs
WHERE source = ? AND source_job_id = ?;`, key.Source, key.SourceJobID)

	j, err := scanSQLiteJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, ErrNotFound
	}
	return j, err
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.Pool.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete job %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}

// Checkpoint folds the WAL back into the main database file.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	_, err := s.Pool.ExecContext(ctx, `PRAGMA wal_checkpoint(FULL);`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(r rowScanner) (domain.Job, error) {
	var j domain.Job
	var desc, applyURL, postedAt sql.NullString
	var fetchedAt, createdAt string
	if err := r.Scan(
		&j.ID,
		&j.Source,
		&j.SourceJobID,
		&j.Title,
		&j.Company,
		&j.Location,
		&desc,
		&applyURL,
		&postedAt,
		&fetchedAt,
		&createdAt,
	); err != nil {
		return domain.Job{}, err
	}
	if desc.Valid {
		j.Description = &desc.String
	}
	if applyURL.Valid {
		j.ApplyURL = &applyURL.String
	}
	if postedAt.Valid {
		if t, err := time.Parse(sqliteTime, postedAt.String); err == nil {
			j.PostedAt = &t
		}
	}
	j.FetchedAt, _ = time.Parse(sqliteTime, fetchedAt)
	j.CreatedAt, _ = time.Parse(sqliteTime, createdAt)
	return j, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
