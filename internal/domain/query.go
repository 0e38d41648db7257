package domain

import (
	"strings"
)

const (
	// DefaultLocation is used when a query names no location.
	DefaultLocation = "Remote"
	// RoleOther selects the free-text role override.
	RoleOther = "Other"
)

// Mode discriminates a SearchQuery.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeResume Mode = "resume"
)

// SearchQuery is either a manual query or a resume-derived one.
// Exactly one of Manual and Resume is set, matching Mode.
type SearchQuery struct {
	Mode   Mode
	Manual *ManualQuery
	Resume *ResumeQuery
}

// ManualQuery is built from explicit form fields.
type ManualQuery struct {
	// Role comes from the role catalog, or is RoleOther to use CustomRole.
	Role       string
	CustomRole string
	Location   string
	Experience string
	TimeRange  string `validate:"omitempty,oneof=today 3days week month"`

	// Platforms restricts results to these sources. Empty is legal and
	// yields no provider calls.
	Platforms []string
}

// ResumeQuery derives its role and skills from an uploaded document.
type ResumeQuery struct {
	Document    []byte
	ContentType string
	Filename    string
	Location    string
	TimeRange   string `validate:"omitempty,oneof=today 3days week month"`
}

// NewManualQuery wraps a manual query.
func NewManualQuery(q ManualQuery) SearchQuery {
	return SearchQuery{Mode: ModeManual, Manual: &q}
}

// NewResumeQuery wraps a resume-derived query.
func NewResumeQuery(q ResumeQuery) SearchQuery {
	return SearchQuery{Mode: ModeResume, Resume: &q}
}

// ResolvedRole returns the effective role: the free-text override when the
// catalog entry is RoleOther, the catalog entry otherwise.
func (q ManualQuery) ResolvedRole() string {
	if q.Role == RoleOther {
		return strings.TrimSpace(q.CustomRole)
	}
	return strings.TrimSpace(q.Role)
}

// Normalize returns a copy with defaults applied and whitespace trimmed.
func (q SearchQuery) Normalize() SearchQuery {
	switch q.Mode {
	case ModeManual:
		if q.Manual == nil {
			return q
		}
		m := *q.Manual
		m.Role = strings.TrimSpace(m.Role)
		m.CustomRole = strings.TrimSpace(m.CustomRole)
		m.Location = defaultLocation(m.Location)
		m.Experience = strings.TrimSpace(m.Experience)
		m.TimeRange = strings.TrimSpace(m.TimeRange)
		m.Platforms = cleanPlatforms(m.Platforms)
		return SearchQuery{Mode: ModeManual, Manual: &m}
	case ModeResume:
		if q.Resume == nil {
			return q
		}
		r := *q.Resume
		r.Location = defaultLocation(r.Location)
		r.TimeRange = strings.TrimSpace(r.TimeRange)
		return SearchQuery{Mode: ModeResume, Resume: &r}
	}
	return q
}

// Validate rejects queries that must not reach a provider.
func (q SearchQuery) Validate() error {
	switch q.Mode {
	case ModeManual:
		if q.Manual == nil {
			return invalid("query", "manual parameters missing")
		}
		if q.Manual.ResolvedRole() == "" {
			return invalid("role", "required")
		}
		return ValidateStruct(q.Manual)
	case ModeResume:
		if q.Resume == nil || len(q.Resume.Document) == 0 {
			return invalid("file", "a resume document is required")
		}
		return ValidateStruct(q.Resume)
	default:
		return invalid("mode", "unknown search mode "+string(q.Mode))
	}
}

func defaultLocation(loc string) string {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return DefaultLocation
	}
	return loc
}

func cleanPlatforms(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		out = append(out, p)
	}
	return out
}
