// Package store defines the saved-jobs persistence contract shared by the
// Redis and PostgreSQL backends.
package store

import (
	"context"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// SavedJobs is a per-identity collection of saved postings.
//
// For one email no two records share the same domain.PostingKey: a second
// Save of the same posting reports domain.SaveAlreadyExists instead of
// creating a record.
type SavedJobs interface {
	// Save stores posting for email. The returned SavedPosting is the new
	// record, or the existing one when the outcome is SaveAlreadyExists.
	Save(ctx context.Context, email string, posting domain.Posting) (domain.SaveOutcome, domain.SavedPosting, error)

	// List returns the saved postings of email, most recently saved first.
	List(ctx context.Context, email string) ([]domain.SavedPosting, error)

	// Remove deletes the record with the given id, or returns domain.ErrNotFound.
	Remove(ctx context.Context, id int64) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
