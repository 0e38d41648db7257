// Package client talks to the JobScout HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/utils"
)

const (
	defaultTimeout = 90 * time.Second
	maxErrorBody   = 4 << 10
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("api returned %d: %s", e.Code, e.Detail)
}

// Is maps API statuses onto domain errors.
func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Code == http.StatusNotFound
	case domain.ErrValidation:
		return e.Code == http.StatusBadRequest
	}
	return false
}

// Catalog is the set of values a search form offers.
type Catalog struct {
	Roles            []string `json:"roles"`
	ExperienceLevels []string `json:"experience_levels"`
	TimeRanges       []string `json:"time_ranges"`
	Platforms        []string `json:"platforms"`
}

// API is an HTTP client for the job endpoints.
type API struct {
	base       *url.URL
	httpClient *http.Client
	userAgent  string
}

// Option customizes an API.
type Option func(*API)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.httpClient = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(a *API) { a.userAgent = ua }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*API, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	a := &API{
		base:       u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "jobscout-cli",
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// ManualSearch runs a manual search. Every platform in q.Platforms is sent;
// an empty list is sent as an empty parameter and yields no results.
func (a *API) ManualSearch(ctx context.Context, q domain.ManualQuery) ([]domain.Posting, error) {
	params := url.Values{}
	params.Set("role", q.Role)
	setIf(params, "custom_role", q.CustomRole)
	setIf(params, "location", q.Location)
	setIf(params, "experience", q.Experience)
	setIf(params, "time_range", q.TimeRange)
	params.Set("platforms", strings.Join(q.Platforms, ","))

	req, err := a.newRequest(ctx, http.MethodGet, params, nil, "manual-search")
	if err != nil {
		return nil, err
	}
	var out []domain.Posting
	if err := a.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResumeSearch uploads q.Document and returns the matching postings.
func (a *API) ResumeSearch(ctx context.Context, q domain.ResumeQuery) ([]domain.Posting, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fallback(q.Filename, "resume")))
	h.Set("Content-Type", fallback(q.ContentType, "application/octet-stream"))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(q.Document); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	params := url.Values{}
	setIf(params, "location", q.Location)
	setIf(params, "time_range", q.TimeRange)

	req, err := a.newRequest(ctx, http.MethodPost, params, &body, "search-by-resume")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out []domain.Posting
	if err := a.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type saveBody struct {
	UserEmail   string `json:"user_email"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	ApplyLink   string `json:"apply_link"`
	Platform    string `json:"platform"`
	Description string `json:"description,omitempty"`
	Salary      string `json:"salary,omitempty"`
	JobType     string `json:"job_type,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	PostedAt    string `json:"posted_at,omitempty"`
	IsVerified  bool   `json:"is_verified,omitempty"`
}

// Save stores p for email. 201 means created, 200 already saved.
func (a *API) Save(ctx context.Context, email string, p domain.Posting) (domain.SaveOutcome, error) {
	b, err := json.Marshal(saveBody{
		UserEmail:   email,
		Title:       p.Title,
		CompanyName: p.CompanyName,
		Location:    p.Location,
		ApplyLink:   p.ApplyLink,
		Platform:    p.Platform,
		Description: p.Description,
		Salary:      p.Salary,
		JobType:     p.JobType,
		Thumbnail:   p.Thumbnail,
		PostedAt:    p.PostedAt,
		IsVerified:  p.IsVerified,
	})
	if err != nil {
		return 0, fmt.Errorf("encode save request: %w", err)
	}

	req, err := a.newRequest(ctx, http.MethodPost, nil, bytes.NewReader(b), "save")
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.send(req)
	if err != nil {
		return 0, err
	}
	defer utils.Close(resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		return domain.SaveCreated, nil
	case http.StatusOK:
		return domain.SaveAlreadyExists, nil
	default:
		return 0, statusError(resp)
	}
}

// ListSaved returns the postings saved for email, newest first.
func (a *API) ListSaved(ctx context.Context, email string) ([]domain.SavedPosting, error) {
	req, err := a.newRequest(ctx, http.MethodGet, nil, nil, "saved", email)
	if err != nil {
		return nil, err
	}
	var out []domain.SavedPosting
	if err := a.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveSaved deletes a saved record. A missing record matches domain.ErrNotFound.
func (a *API) RemoveSaved(ctx context.Context, id int64) error {
	req, err := a.newRequest(ctx, http.MethodDelete, nil, nil, "saved", strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	return a.do(req, nil)
}

// Catalog fetches the server's search form values.
func (a *API) Catalog(ctx context.Context) (*Catalog, error) {
	req, err := a.newRequest(ctx, http.MethodGet, nil, nil, "catalog")
	if err != nil {
		return nil, err
	}
	var out Catalog
	if err := a.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// newRequest builds a request for /api/v1/jobs/<segments...>; segments are
// escaped here.
func (a *API) newRequest(ctx context.Context, method string, params url.Values, body io.Reader, segments ...string) (*http.Request, error) {
	elems := []string{"api", "v1", "jobs"}
	for _, s := range segments {
		elems = append(elems, url.PathEscape(s))
	}
	u := a.base.JoinPath(elems...)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	return req, nil
}

func (a *API) send(req *http.Request) (*http.Response, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// do sends req and decodes a 2xx JSON body into out (nil discards it).
func (a *API) do(req *http.Request, out any) error {
	resp, err := a.send(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		se.Detail = fallback(body.Detail, body.Message)
	} else {
		se.Detail = strings.TrimSpace(string(b))
	}
	return se
}

func setIf(v url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		v.Set(key, value)
	}
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
