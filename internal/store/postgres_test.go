package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_RecordSubmission(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO submissions`).
		WithArgs(pgxmock.AnyArg(), "ana@test.com", "Ana", "Gómez", "ct-1", "op-1",
			"Página de Contacto", "synced", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sub := Submission{
		Email:         "ana@test.com",
		FirstName:     "Ana",
		LastName:      "Gómez",
		ContactID:     "ct-1",
		OpportunityID: "op-1",
		Source:        "Página de Contacto",
		Status:        StatusSynced,
	}
	require.NoError(t, s.RecordSubmission(context.Background(), &sub))

	assert.NotEmpty(t, sub.ID, "id assigned on insert")
	assert.False(t, sub.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSubmission_KeepsProvidedID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO submissions`).
		WithArgs("sub-1", "a@b.co", "A", "B", "", "", "", "failed", "crm: HTTP 502", created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sub := Submission{
		ID:        "sub-1",
		Email:     "a@b.co",
		FirstName: "A",
		LastName:  "B",
		Status:    StatusFailed,
		Detail:    "crm: HTTP 502",
		CreatedAt: created,
	}
	require.NoError(t, s.RecordSubmission(context.Background(), &sub))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSubmission_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO submissions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	err := s.RecordSubmission(context.Background(), &Submission{Email: "a@b.co", Status: StatusSynced})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert submission")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSubmissions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "email", "first_name", "last_name", "contact_id",
		"opportunity_id", "source", "status", "detail", "created_at",
	}).
		AddRow("sub-2", "b@b.co", "B", "B", "ct-2", "op-2", "", "synced", "", now).
		AddRow("sub-1", "a@b.co", "A", "A", "ct-1", "", "", "failed", "crm: HTTP 502", now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .* FROM submissions`).
		WithArgs("", "").
		WillReturnRows(rows)

	subs, err := s.ListSubmissions(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, StatusSynced, subs[0].Status)
	assert.Equal(t, "ct-1", subs[1].ContactID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSubmissions_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "email", "first_name", "last_name", "contact_id",
		"opportunity_id", "source", "status", "detail", "created_at",
	}).AddRow("sub-1", "a@b.co", "A", "A", "ct-1", "", "", "failed", "boom", time.Now().UTC())

	mock.ExpectQuery(`SELECT .* FROM submissions`).
		WithArgs("failed", "a@b.co", 10, 0).
		WillReturnRows(rows)

	subs, err := s.ListSubmissions(context.Background(), Filter{
		Status: StatusFailed,
		Email:  "a@b.co",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, StatusFailed, subs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountSubmissions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	since := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM submissions`).
		WithArgs(since, "failed").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := s.CountSubmissions(context.Background(), StatusFailed, since)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS submissions`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
