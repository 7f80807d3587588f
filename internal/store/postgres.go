package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// pgxPool is the subset of pgxpool.Pool the journal uses, narrowed so tests
// can substitute a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL,
	contact_id     TEXT NOT NULL DEFAULT '',
	opportunity_id TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	detail         TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_email ON submissions(email);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RecordSubmission(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO submissions (id, email, first_name, last_name, contact_id, opportunity_id, source, status, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.Email, sub.FirstName, sub.LastName, sub.ContactID,
		sub.OpportunityID, sub.Source, string(sub.Status), sub.Detail, sub.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert submission")
}

func (s *PostgresStore) CountSubmissions(ctx context.Context, status Status, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE created_at >= $1 AND ($2 = '' OR status = $2)`,
		since, string(status),
	).Scan(&count)
	return count, eris.Wrap(err, "postgres: count submissions")
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, filter Filter) ([]Submission, error) {
	query := `SELECT id, email, first_name, last_name, contact_id, opportunity_id, source, status, detail, created_at
		FROM submissions WHERE ($1 = '' OR status = $1) AND ($2 = '' OR email = $2)
		ORDER BY created_at DESC`
	args := []any{string(filter.Status), filter.Email}

	if filter.Limit > 0 {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions")
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var status string
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.FirstName, &sub.LastName,
			&sub.ContactID, &sub.OpportunityID, &sub.Source, &status, &sub.Detail, &sub.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission")
		}
		sub.Status = Status(status)
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: iterate submissions")
}
