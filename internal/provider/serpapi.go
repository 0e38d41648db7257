package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// SerpAPIOptions configures the Google Jobs provider.
type SerpAPIOptions struct {
	APIKey         string
	BaseURL        string // ex: https://serpapi.com/search.json
	Pages          int    // pages to follow, about 10 results each
	RemoteLocation string // sent instead of "Remote", which the engine rejects
	Country        string // gl
	Language       string // hl
	Limiter        *rate.Limiter
	HTTPClient     *http.Client
}

// SerpAPI queries the google_jobs engine of SerpAPI.
type SerpAPI struct {
	opts   SerpAPIOptions
	client *http.Client
	logger logger.Logger
}

// NewSerpAPI returns a Google Jobs provider.
func NewSerpAPI(opts SerpAPIOptions, log logger.Logger) *SerpAPI {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	opts.BaseURL = orDefault(opts.BaseURL, "https://serpapi.com/search.json")
	opts.RemoteLocation = orDefault(opts.RemoteLocation, "India")
	opts.Country = orDefault(opts.Country, "in")
	opts.Language = orDefault(opts.Language, "en")

	return &SerpAPI{
		opts:   opts,
		client: defaultClient(opts.HTTPClient),
		logger: log.Named("serpapi"),
	}
}

func (s *SerpAPI) Name() string  { return "serpapi" }
func (s *SerpAPI) Enabled() bool { return s.opts.APIKey != "" }

type serpResponse struct {
	Error       string    `json:"error"`
	JobsResults []serpJob `json:"jobs_results"`
	Pagination  struct {
		NextPageToken string `json:"next_page_token"`
	} `json:"serpapi_pagination"`
}

type serpJob struct {
	Title        string          `json:"title"`
	CompanyName  string          `json:"company_name"`
	Location     string          `json:"location"`
	Description  string          `json:"description"`
	Thumbnail    string          `json:"thumbnail"`
	SalaryInfo   json.RawMessage `json:"salary_info"`
	ApplyOptions []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"apply_options"`
	Extensions struct {
		PostedAt     string `json:"posted_at"`
		Salary       string `json:"salary"`
		JobType      string `json:"job_type"`
		ScheduleType string `json:"schedule_type"`
	} `json:"detected_extensions"`
}

// Fetch follows next_page_token up to the configured page count.
// A failure on the first page is an error; a later failure keeps what was
// collected so far.
func (s *SerpAPI) Fetch(ctx context.Context, q Query) ([]domain.Posting, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("engine", "google_jobs")
	params.Set("q", q.Terms)
	params.Set("location", s.location(q.Location))
	params.Set("hl", s.opts.Language)
	params.Set("gl", s.opts.Country)
	params.Set("api_key", s.opts.APIKey)
	if q.TimeRange != "" {
		params.Set("chips", "date_posted:"+q.TimeRange)
	}

	var postings []domain.Posting
	token := ""

	for page := 0; page < s.opts.Pages; page++ {
		if token != "" {
			params.Set("next_page_token", token)
		}

		var resp serpResponse
		err := getJSON(ctx, s.client, s.opts.Limiter, s.Name(), s.opts.BaseURL+"?"+params.Encode(), &resp)
		if err == nil && resp.Error != "" {
			err = errors.New(resp.Error)
		}
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("serpapi page %d: %w", page, err)
			}
			s.logger.Warn("serpapi pagination stopped",
				logger.Int("page", page),
				logger.Error(err))
			break
		}

		if len(resp.JobsResults) == 0 {
			break
		}
		for _, job := range resp.JobsResults {
			if p, ok := s.toPosting(job); ok {
				postings = append(postings, p)
			}
		}

		token = resp.Pagination.NextPageToken
		if token == "" {
			break
		}
	}

	return postings, nil
}

func (s *SerpAPI) location(loc string) string {
	if loc == "" || strings.EqualFold(loc, domain.DefaultLocation) {
		return s.opts.RemoteLocation
	}
	return loc
}

func (s *SerpAPI) toPosting(job serpJob) (domain.Posting, bool) {
	if strings.TrimSpace(job.CompanyName) == "" {
		return domain.Posting{}, false
	}

	applyLink, platform := "#", "Google Jobs"
	if len(job.ApplyOptions) > 0 {
		applyLink = job.ApplyOptions[0].Link
		platform = job.ApplyOptions[0].Title
	}

	salary := domain.SalaryNotDisclosed
	if info := rawText(job.SalaryInfo); info != "" {
		salary = info
	} else if job.Extensions.Salary != "" {
		salary = job.Extensions.Salary
	}

	jobType := job.Extensions.JobType
	if jobType == "" {
		jobType = orDefault(job.Extensions.ScheduleType, "Not Specified")
	}

	return domain.Posting{
		Title:       job.Title,
		CompanyName: job.CompanyName,
		Location:    orDefault(job.Location, domain.DefaultLocation),
		Description: orDefault(job.Description, "No description available."),
		Salary:      salary,
		JobType:     jobType,
		Platform:    platform,
		ApplyLink:   applyLink,
		Thumbnail:   job.Thumbnail,
		PostedAt:    orDefault(job.Extensions.PostedAt, "Recently"),
		IsVerified:  job.Thumbnail != "",
	}, true
}

// rawText returns a JSON string value as-is and any other non-null value in compact form.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}
