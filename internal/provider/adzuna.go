package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

const adzunaPageSize = 50

// AdzunaOptions configures the Adzuna provider.
type AdzunaOptions struct {
	AppID      string
	AppKey     string
	Country    string // "in", "gb", "us", ...
	BaseURL    string // ex: https://api.adzuna.com/v1/api/jobs
	Pages      int
	Limiter    *rate.Limiter
	HTTPClient *http.Client
	Now        func() time.Time // relative recency is computed against Now
}

// Adzuna fetches job offers from the Adzuna public API.
type Adzuna struct {
	opts   AdzunaOptions
	client *http.Client
	logger logger.Logger
}

// NewAdzuna returns an Adzuna provider.
func NewAdzuna(opts AdzunaOptions, log logger.Logger) *Adzuna {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	opts.BaseURL = strings.TrimRight(orDefault(opts.BaseURL, "https://api.adzuna.com/v1/api/jobs"), "/")
	opts.Country = orDefault(opts.Country, "in")
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Adzuna{
		opts:   opts,
		client: defaultClient(opts.HTTPClient),
		logger: log.Named("adzuna"),
	}
}

func (a *Adzuna) Name() string  { return "adzuna" }
func (a *Adzuna) Enabled() bool { return a.opts.AppID != "" && a.opts.AppKey != "" }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	RedirectURL string  `json:"redirect_url"`
	Created     string  `json:"created"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	ContractTime string `json:"contract_time"`
	ContractType string `json:"contract_type"`
}

// Fetch iterates through pages until a short page or the page limit.
func (a *Adzuna) Fetch(ctx context.Context, q Query) ([]domain.Posting, error) {
	if !a.Enabled() {
		return nil, ErrNotConfigured
	}

	var postings []domain.Posting
	for page := 1; page <= a.opts.Pages; page++ {
		batch, n, err := a.fetchPage(ctx, q, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("adzuna page %d: %w", page, err)
			}
			a.logger.Warn("adzuna pagination stopped",
				logger.Int("page", page),
				logger.Error(err))
			break
		}
		postings = append(postings, batch...)
		if n < adzunaPageSize {
			break // Last page
		}
	}

	return postings, nil
}

func (a *Adzuna) fetchPage(ctx context.Context, q Query, page int) ([]domain.Posting, int, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", a.opts.BaseURL, a.opts.Country, page)

	what := q.Terms
	params := url.Values{}
	params.Set("app_id", a.opts.AppID)
	params.Set("app_key", a.opts.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("sort_by", "date")
	if q.Location == "" || strings.EqualFold(q.Location, domain.DefaultLocation) {
		what = strings.TrimSpace(what + " remote")
	} else {
		params.Set("where", q.Location)
	}
	params.Set("what", what)
	if days := maxDaysOld(q.TimeRange); days > 0 {
		params.Set("max_days_old", strconv.Itoa(days))
	}

	var resp adzunaResponse
	if err := getJSON(ctx, a.client, a.opts.Limiter, a.Name(), endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, 0, err
	}

	now := a.opts.Now()
	postings := make([]domain.Posting, 0, len(resp.Results))
	for _, r := range resp.Results {
		if strings.TrimSpace(r.Company.DisplayName) == "" {
			continue
		}
		postings = append(postings, domain.Posting{
			Title:       r.Title,
			CompanyName: r.Company.DisplayName,
			Location:    orDefault(r.Location.DisplayName, domain.DefaultLocation),
			Description: orDefault(r.Description, "No description available."),
			Salary:      salaryRange(r.SalaryMin, r.SalaryMax),
			JobType:     contractLabel(r.ContractTime, r.ContractType),
			Platform:    "Adzuna",
			ApplyLink:   orDefault(r.RedirectURL, "#"),
			PostedAt:    relativeAge(r.Created, now),
		})
	}

	return postings, len(resp.Results), nil
}

func maxDaysOld(timeRange string) int {
	switch timeRange {
	case "today":
		return 1
	case "3days":
		return 3
	case "week":
		return 7
	case "month":
		return 30
	default:
		return 0
	}
}

func salaryRange(lo, hi float64) string {
	switch {
	case lo <= 0 && hi <= 0:
		return domain.SalaryNotDisclosed
	case lo <= 0 || lo == hi:
		return fmt.Sprintf("%.0f", hi)
	case hi <= 0:
		return fmt.Sprintf("%.0f", lo)
	default:
		return fmt.Sprintf("%.0f - %.0f", lo, hi)
	}
}

func contractLabel(contractTime, contractType string) string {
	switch contractTime {
	case "full_time":
		return "Full-time"
	case "part_time":
		return "Part-time"
	}
	switch contractType {
	case "permanent":
		return "Permanent"
	case "contract":
		return "Contractor"
	}
	return "Not Specified"
}

// relativeAge renders an RFC 3339 timestamp in the "N days ago" form the
// ranking table matches on. Unparseable input yields "Recently".
func relativeAge(created string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return "Recently"
	}

	age := now.Sub(t)
	switch {
	case age < time.Hour:
		return plural(max(int(age/time.Minute), 1), "minute")
	case age < 24*time.Hour:
		return plural(int(age/time.Hour), "hour")
	case age < 7*24*time.Hour:
		return plural(int(age/(24*time.Hour)), "day")
	case age < 30*24*time.Hour:
		return plural(int(age/(7*24*time.Hour)), "week")
	default:
		return plural(int(age/(30*24*time.Hour)), "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
