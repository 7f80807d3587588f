// Package store persists a journal of lead submissions for operations:
// every orchestrated submission leaves one row, successful or not, so
// orphaned contacts and CRM outages can be followed up by hand.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Status is the sync outcome of a journaled submission.
type Status string

const (
	StatusSynced Status = "synced"
	StatusFailed Status = "failed"
)

// Submission is one journal row. ContactID may be set on failed rows when the
// contact was created but the opportunity step failed.
type Submission struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	ContactID     string    `json:"contact_id,omitempty"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	Source        string    `json:"source,omitempty"`
	Status        Status    `json:"status"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Filter specifies criteria for listing journaled submissions.
type Filter struct {
	Status Status `json:"status,omitempty"`
	Email  string `json:"email,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the submission journal.
type Store interface {
	// RecordSubmission inserts a row, assigning ID and CreatedAt when unset.
	RecordSubmission(ctx context.Context, sub *Submission) error

	// ListSubmissions returns rows matching the filter, newest first.
	ListSubmissions(ctx context.Context, filter Filter) ([]Submission, error)

	// CountSubmissions counts rows created at or after since. A non-empty
	// status restricts the count to that outcome.
	CountSubmissions(ctx context.Context, status Status, since time.Time) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the given driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
