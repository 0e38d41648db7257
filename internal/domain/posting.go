package domain

import (
	"strings"
	"time"
)

// SalaryNotDisclosed is the salary text used when a listing carries none.
const SalaryNotDisclosed = "Salary Not Disclosed"

// Posting represents one external job listing normalized to a common shape.
//
// A Posting is produced fresh by every search and is never mutated afterwards.
// It is NOT tied to any listing provider: every provider maps its own payload
// into this structure.
type Posting struct {
	// ─────────────────────────────
	// Listing
	// ─────────────────────────────

	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	Description string `json:"description"`

	// Salary is free text and may be SalaryNotDisclosed.
	Salary  string `json:"salary"`
	JobType string `json:"job_type"`

	// ─────────────────────────────
	// Provenance
	// ─────────────────────────────

	// Platform identifies the source the posting can be applied on.
	// Example: LinkedIn, Indeed
	Platform string `json:"platform"`

	// ApplyLink is the URL the candidate follows to apply.
	ApplyLink string `json:"apply_link"`

	// Thumbnail is an optional company logo reference.
	Thumbnail string `json:"thumbnail,omitempty"`

	// PostedAt is the provider's free-text recency string.
	// Example: "2 days ago", "Recently"
	PostedAt string `json:"posted_at"`

	// IsVerified is set when the provider vouches for the employer.
	IsVerified bool `json:"is_verified"`
}

// Key returns the identity of a posting: two postings with the same key
// represent the same underlying listing.
func (p Posting) Key() PostingKey {
	return PostingKey{
		ApplyLink:   strings.TrimSpace(p.ApplyLink),
		Title:       strings.TrimSpace(p.Title),
		CompanyName: strings.TrimSpace(p.CompanyName),
	}
}

// PostingKey is the dedup identity of a posting.
type PostingKey struct {
	ApplyLink   string
	Title       string
	CompanyName string
}

// String renders the key in a stable form usable as a hash field.
func (k PostingKey) String() string {
	return strings.ToLower(k.ApplyLink) + "\x1f" + strings.ToLower(k.Title) + "\x1f" + strings.ToLower(k.CompanyName)
}

// SavedPosting is a Posting persisted for one identity.
type SavedPosting struct {
	Posting

	// ID is assigned by the store and grows monotonically.
	ID int64 `json:"id"`

	// UserEmail is the owner key.
	UserEmail string `json:"user_email"`

	// CreatedAt is the time the posting was saved.
	CreatedAt time.Time `json:"created_at"`
}

// SaveOutcome tells a caller whether a save created a record.
type SaveOutcome int

const (
	// SaveCreated means a new SavedPosting was stored.
	SaveCreated SaveOutcome = iota
	// SaveAlreadyExists means the identity already had this posting.
	SaveAlreadyExists
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveCreated:
		return "created"
	case SaveAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// DedupPostings drops postings whose key was already seen, keeping the first.
func DedupPostings(postings []Posting) []Posting {
	seen := make(map[PostingKey]struct{}, len(postings))
	out := make([]Posting, 0, len(postings))
	for _, p := range postings {
		k := p.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
