// Package resume turns an uploaded resume into search parameters.
package resume

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// DefaultRole is used when nothing better can be derived from a document.
const DefaultRole = "Software Engineer"

// Profile is what a resume says about the job to look for.
type Profile struct {
	Role            string   `json:"role"`
	ExperienceLevel string   `json:"experience_level"`
	Skills          []string `json:"skills"`
}

// Terms builds the search string: role, the top two skills, then the level.
func (p Profile) Terms() string {
	parts := []string{orDefault(strings.TrimSpace(p.Role), DefaultRole)}
	for i, s := range p.Skills {
		if i == 2 {
			break
		}
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if lvl := strings.TrimSpace(p.ExperienceLevel); lvl != "" {
		parts = append(parts, lvl)
	}
	return strings.Join(parts, " ")
}

// Extractor derives a Profile from resume text.
type Extractor interface {
	Extract(ctx context.Context, text string) (Profile, error)
}

// DocumentText returns the text of an uploaded resume.
// Text documents pass through; for PDFs the printable runs of the file are
// kept, which is enough for keyword matching on uncompressed text layers.
// Any other content type is a validation error.
func DocumentText(q *domain.ResumeQuery) (string, error) {
	if q == nil || len(q.Document) == 0 {
		return "", &domain.ValidationError{Field: "file", Reason: "a resume document is required"}
	}

	contentType := strings.ToLower(strings.TrimSpace(q.ContentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(q.Document)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	var text string
	switch {
	case strings.HasPrefix(contentType, "text/"):
		text = string(q.Document)
	case contentType == "application/pdf":
		text = printableRuns(q.Document, 4)
	default:
		return "", &domain.ValidationError{Field: "file", Reason: "only PDF or text documents are supported"}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &domain.ValidationError{Field: "file", Reason: "document has no readable text"}
	}
	return text, nil
}

// printableRuns keeps runs of at least minRun printable characters, one per line.
func printableRuns(b []byte, minRun int) string {
	var out, run strings.Builder
	flush := func() {
		if run.Len() >= minRun {
			out.WriteString(run.String())
			out.WriteByte('\n')
		}
		run.Reset()
	}
	for _, c := range b {
		if c < unicode.MaxASCII && (unicode.IsPrint(rune(c)) || c == '\t') {
			run.WriteByte(c)
			continue
		}
		flush()
	}
	flush()
	return out.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
