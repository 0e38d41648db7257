// Package provider fetches raw job postings from external listing services.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/utils"
)

const (
	httpTimeout  = 15 * time.Second
	maxBodyBytes = 4 << 20
)

// ErrNotConfigured is returned by Fetch when the provider has no credentials.
var ErrNotConfigured = errors.New("provider not configured")

// Query is what a provider needs to run one search.
type Query struct {
	Terms     string // free-text search, ex: "Backend Developer 3 years"
	Location  string // "Remote" or a place name
	TimeRange string // "", today, 3days, week, month
}

// Provider is one external listing service.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Enabled reports whether credentials are configured.
	Enabled() bool
	// Fetch returns unranked postings for q.
	Fetch(ctx context.Context, q Query) ([]domain.Posting, error)
}

// StatusError is a non-2xx answer from a listing service.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Code, e.Body)
}

// NewLimiter builds the per-provider request throttle.
// A non-positive rate disables throttling.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// getJSON waits for the limiter, issues a GET and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, name, reqURL string, out any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s rate limit: %w", name, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http GET: %w", err)
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return &StatusError{Provider: name, Code: resp.StatusCode, Body: snippet}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: httpTimeout}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
