// Package postgres implements the saved-jobs store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store persists saved postings in the saved_jobs table.
type Store struct {
	db DB
}

var _ store.SavedJobs = (*Store)(nil)

// NewStore returns a Store backed by db.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const savedColumns = `id, user_email, title, company_name, location, description, salary,
	job_type, platform, apply_link, thumbnail, posted_at, is_verified, created_at`

// Save inserts posting for email. The (user_email, dedup_key) constraint turns
// a repeated save into a no-op that is reported as SaveAlreadyExists.
func (s *Store) Save(ctx context.Context, email string, posting domain.Posting) (domain.SaveOutcome, domain.SavedPosting, error) {
	email = domain.NormalizeEmail(email)
	key := posting.Key().String()

	saved := domain.SavedPosting{Posting: posting, UserEmail: email}
	err := s.db.QueryRow(ctx, `
		INSERT INTO saved_jobs (user_email, title, company_name, location, description, salary,
		                        job_type, platform, apply_link, thumbnail, posted_at, is_verified, dedup_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT ON CONSTRAINT saved_jobs_user_posting DO NOTHING
		RETURNING id, created_at`,
		email, posting.Title, posting.CompanyName, posting.Location, posting.Description, posting.Salary,
		posting.JobType, posting.Platform, posting.ApplyLink, posting.Thumbnail, posting.PostedAt,
		posting.IsVerified, key,
	).Scan(&saved.ID, &saved.CreatedAt)

	switch {
	case err == nil:
		return domain.SaveCreated, saved, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := s.scanOne(s.db.QueryRow(ctx,
			`SELECT `+savedColumns+` FROM saved_jobs WHERE user_email = $1 AND dedup_key = $2`,
			email, key))
		if err != nil {
			return 0, domain.SavedPosting{}, fmt.Errorf("save lookup: %w", err)
		}
		return domain.SaveAlreadyExists, existing, nil
	default:
		return 0, domain.SavedPosting{}, fmt.Errorf("save insert: %w", err)
	}
}

// List returns the postings saved by email, newest id first.
func (s *Store) List(ctx context.Context, email string) ([]domain.SavedPosting, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+savedColumns+` FROM saved_jobs WHERE user_email = $1 ORDER BY id DESC`,
		domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	saved := make([]domain.SavedPosting, 0)
	for rows.Next() {
		sp, err := s.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		saved = append(saved, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return saved, nil
}

// Remove deletes one saved posting.
func (s *Store) Remove(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM saved_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saved posting %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (s *Store) scanOne(row pgx.Row) (domain.SavedPosting, error) {
	var sp domain.SavedPosting
	err := row.Scan(
		&sp.ID, &sp.UserEmail, &sp.Title, &sp.CompanyName, &sp.Location, &sp.Description, &sp.Salary,
		&sp.JobType, &sp.Platform, &sp.ApplyLink, &sp.Thumbnail, &sp.PostedAt, &sp.IsVerified, &sp.CreatedAt,
	)
	return sp, err
}
