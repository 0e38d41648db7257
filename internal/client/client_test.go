package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/session"
)

var _ session.API = (*API)(nil)

func isStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func newTestAPI(t *testing.T, r http.Handler) *API {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	api, err := New(srv.URL + "/")
	require.NoError(t, err)
	return api
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}

func TestManualSearchQuery(t *testing.T) {
	var (
		q  url.Values
		ua string
	)
	r := chi.NewRouter()
	r.Get("/api/v1/jobs/manual-search", func(w http.ResponseWriter, req *http.Request) {
		q = req.URL.Query()
		ua = req.Header.Get("User-Agent")
		writeJSON(w, http.StatusOK, []domain.Posting{{Title: "Go Developer", CompanyName: "Initech"}})
	})
	api := newTestAPI(t, r)

	out, err := api.ManualSearch(context.Background(), domain.ManualQuery{
		Role:       domain.RoleOther,
		CustomRole: "Go Developer",
		Location:   "Berlin",
		TimeRange:  "week",
		Platforms:  []string{"LinkedIn", "Indeed"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Initech", out[0].CompanyName)

	assert.Equal(t, "Other", q.Get("role"))
	assert.Equal(t, "Go Developer", q.Get("custom_role"))
	assert.Equal(t, "Berlin", q.Get("location"))
	assert.Equal(t, "week", q.Get("time_range"))
	assert.Equal(t, "LinkedIn,Indeed", q.Get("platforms"))
	assert.False(t, q.Has("experience"))
	assert.Equal(t, "jobscout-cli", ua)
}

func TestManualSearchSendsEmptyPlatforms(t *testing.T) {
	var has bool
	var value string
	r := chi.NewRouter()
	r.Get("/api/v1/jobs/manual-search", func(w http.ResponseWriter, req *http.Request) {
		has = req.URL.Query().Has("platforms")
		value = req.URL.Query().Get("platforms")
		writeJSON(w, http.StatusOK, []domain.Posting{})
	})
	api := newTestAPI(t, r)

	out, err := api.ManualSearch(context.Background(), domain.ManualQuery{Role: "Data Scientist"})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.True(t, has)
	assert.Empty(t, value)
}

func TestResumeSearchUploadsFile(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/jobs/search-by-resume", func(w http.ResponseWriter, req *http.Request) {
		f, hdr, err := req.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer func() { _ = f.Close() }()
		b, _ := io.ReadAll(f)

		assert.Equal(t, "cv.txt", hdr.Filename)
		assert.Equal(t, "text/plain", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "golang kubernetes", string(b))
		assert.Equal(t, "Remote", req.URL.Query().Get("location"))

		writeJSON(w, http.StatusOK, []domain.Posting{{Title: "Platform Engineer"}})
	})
	api := newTestAPI(t, r)

	out, err := api.ResumeSearch(context.Background(), domain.ResumeQuery{
		Document:    []byte("golang kubernetes"),
		Filename:    "cv.txt",
		ContentType: "text/plain",
		Location:    "Remote",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Platform Engineer", out[0].Title)
}

func TestSearchErrorsCarryDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		isVal  bool
	}{
		{"validation", http.StatusBadRequest, `{"detail":"role: required"}`, "role: required", true},
		{"provider failure", http.StatusBadGateway, `{"detail":"job search failed, please try again later"}`, "job search failed, please try again later", false},
		{"plain text", http.StatusInternalServerError, "boom\n", "boom", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/api/v1/jobs/manual-search", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			api := newTestAPI(t, r)

			_, err := api.ManualSearch(context.Background(), domain.ManualQuery{Role: "x", Platforms: []string{"LinkedIn"}})
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.Code)
			assert.Equal(t, tt.want, se.Detail)
			assert.Equal(t, tt.isVal, errors.Is(err, domain.ErrValidation))
			assert.True(t, isStatus(err, tt.status))
		})
	}
}

func TestSaveOutcomes(t *testing.T) {
	var body map[string]any
	status := http.StatusCreated
	r := chi.NewRouter()
	r.Post("/api/v1/jobs/save", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		switch status {
		case http.StatusCreated:
			writeJSON(w, status, map[string]string{"message": "Job saved successfully"})
		case http.StatusOK:
			writeJSON(w, status, map[string]string{"message": "Job already saved"})
		default:
			writeJSON(w, status, map[string]string{"detail": "failed to save job"})
		}
	})
	api := newTestAPI(t, r)
	p := domain.Posting{
		Title:       "SRE",
		CompanyName: "Globex",
		Location:    "Remote",
		ApplyLink:   "https://jobs.example.com/sre",
		Platform:    "LinkedIn",
	}

	outcome, err := api.Save(context.Background(), "dev@example.com", p)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveCreated, outcome)
	assert.Equal(t, "dev@example.com", body["user_email"])
	assert.Equal(t, "Globex", body["company_name"])
	assert.Equal(t, "https://jobs.example.com/sre", body["apply_link"])
	assert.NotContains(t, body, "salary")

	status = http.StatusOK
	outcome, err = api.Save(context.Background(), "dev@example.com", p)
	require.NoError(t, err)
	assert.Equal(t, domain.SaveAlreadyExists, outcome)

	status = http.StatusInternalServerError
	_, err = api.Save(context.Background(), "dev@example.com", p)
	assert.True(t, isStatus(err, http.StatusInternalServerError))
}

func TestListSavedEscapesEmail(t *testing.T) {
	var gotEmail string
	r := chi.NewRouter()
	r.Get("/api/v1/jobs/saved/{email}", func(w http.ResponseWriter, req *http.Request) {
		gotEmail = chi.URLParam(req, "email")
		writeJSON(w, http.StatusOK, []domain.SavedPosting{
			{ID: 4, UserEmail: "dev+jobs@example.com", Posting: domain.Posting{Title: "b"}},
			{ID: 1, UserEmail: "dev+jobs@example.com", Posting: domain.Posting{Title: "a"}},
		})
	})
	api := newTestAPI(t, r)

	out, err := api.ListSaved(context.Background(), "dev+jobs@example.com")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(4), out[0].ID)
	assert.Equal(t, "b", out[0].Title)
	assert.Equal(t, "dev+jobs@example.com", gotEmail)
}

func TestRemoveSaved(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/v1/jobs/saved/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") == "7" {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Job removed successfully"})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
	})
	api := newTestAPI(t, r)

	require.NoError(t, api.RemoveSaved(context.Background(), 7))

	err := api.RemoveSaved(context.Background(), 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "api returned 404: Job not found")
}

func TestCatalog(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/jobs/catalog", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Catalog{
			Roles:     []string{"Software Engineer"},
			Platforms: []string{"LinkedIn", "Indeed"},
		})
	})
	api := newTestAPI(t, r)

	c, err := api.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Software Engineer"}, c.Roles)
	assert.Equal(t, []string{"LinkedIn", "Indeed"}, c.Platforms)
}

func TestBadJSONResponse(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/jobs/catalog", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	})
	api := newTestAPI(t, r)

	_, err := api.Catalog(context.Background())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	api, err := New(addr)
	require.NoError(t, err)
	_, err = api.Catalog(context.Background())
	assert.Error(t, err)
}
