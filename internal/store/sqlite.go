package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_email ON submissions(email);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordSubmission(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, email, first_name, last_name, contact_id, opportunity_id, source, status, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Email, sub.FirstName, sub.LastName, sub.ContactID,
		sub.OpportunityID, sub.Source, string(sub.Status), sub.Detail, sub.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert submission")
}

func (s *SQLiteStore) CountSubmissions(ctx context.Context, status Status, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM submissions WHERE created_at >= ?`
	args := []any{since}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}

	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, eris.Wrap(err, "sqlite: count submissions")
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter Filter) ([]Submission, error) {
	query := `SELECT id, email, first_name, last_name, contact_id, opportunity_id, source, status, detail, created_at
		FROM submissions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Email != "" {
		query += ` AND email = ?`
		args = append(args, filter.Email)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var status string
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.FirstName, &sub.LastName,
			&sub.ContactID, &sub.OpportunityID, &sub.Source, &status, &sub.Detail, &sub.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		sub.Status = Status(status)
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: iterate submissions")
}
