package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/search"
)

// DefaultMaxUploadBytes caps a resume upload when no limit is configured.
const DefaultMaxUploadBytes = 5 << 20

// multipart framing allowance on top of the file itself
const formOverhead = 64 << 10

// ManualSearch handles GET /api/v1/jobs/manual-search.
// Without a platforms parameter every known platform is requested; an empty
// platforms parameter requests none and yields an empty list.
func ManualSearch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()

		mq := domain.ManualQuery{
			Role:       params.Get("role"),
			CustomRole: params.Get("custom_role"),
			Location:   params.Get("location"),
			Experience: params.Get("experience"),
			TimeRange:  params.Get("time_range"),
		}
		if params.Has("platforms") {
			mq.Platforms = splitCSV(params.Get("platforms"))
		} else {
			mq.Platforms = append([]string(nil), activeCatalog(d).Platforms...)
		}

		d.Logger.Info("manual search request",
			logger.String("role", mq.Role),
			logger.String("location", mq.Location),
			logger.Strings("platforms", mq.Platforms))

		res, err := d.Searcher.Search(r.Context(), domain.NewManualQuery(mq))
		if err != nil {
			writeSearchError(w, d, err)
			return
		}
		writePostings(w, d, res)
	}
}

// ResumeSearch handles POST /api/v1/jobs/search-by-resume with a multipart
// "file" field.
func ResumeSearch(d deps.Deps) http.HandlerFunc {
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formOverhead)
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeDetail(w, d.Logger, http.StatusRequestEntityTooLarge, "resume file too large")
				return
			}
			writeDetail(w, d.Logger, http.StatusBadRequest, "file: a resume document is required")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeDetail(w, d.Logger, http.StatusBadRequest, "file: a resume document is required")
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
		if err != nil {
			writeDetail(w, d.Logger, http.StatusBadRequest, "failed to read resume file")
			return
		}
		if int64(len(data)) > maxUpload {
			writeDetail(w, d.Logger, http.StatusRequestEntityTooLarge, "resume file too large")
			return
		}

		params := r.URL.Query()
		rq := domain.ResumeQuery{
			Document:    data,
			ContentType: header.Header.Get("Content-Type"),
			Filename:    header.Filename,
			Location:    params.Get("location"),
			TimeRange:   params.Get("time_range"),
		}

		d.Logger.Info("resume search request",
			logger.String("filename", header.Filename),
			logger.Int("bytes", len(data)))

		res, err := d.Searcher.Search(r.Context(), domain.NewResumeQuery(rq))
		if err != nil {
			writeSearchError(w, d, err)
			return
		}
		writePostings(w, d, res)
	}
}

// Catalog handles GET /api/v1/jobs/catalog: the values a search form offers.
func Catalog(d deps.Deps) http.HandlerFunc {
	type catalogResponse struct {
		Roles            []string `json:"roles"`
		ExperienceLevels []string `json:"experience_levels"`
		TimeRanges       []string `json:"time_ranges"`
		Platforms        []string `json:"platforms"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		c := activeCatalog(d)
		writeJSON(w, d.Logger, http.StatusOK, catalogResponse{
			Roles:            c.Roles,
			ExperienceLevels: c.ExperienceLevels,
			TimeRanges:       c.TimeRanges,
			Platforms:        c.Platforms,
		})
	}
}

// writePostings ranks the result and writes it as a JSON array.
func writePostings(w http.ResponseWriter, d deps.Deps, res search.Result) {
	var ranked []domain.Posting
	if d.Catalog != nil {
		ranked = d.Catalog.Rank(res.Postings)
	} else {
		ranked = domain.Rank(nil, res.Postings)
	}

	w.Header().Set("X-Search-Cached", strconv.FormatBool(res.Cached))
	if len(res.Failed) > 0 {
		w.Header().Set("X-Search-Partial", strings.Join(res.Failed, ","))
	}

	d.Logger.Info("search completed",
		logger.String("terms", res.Terms),
		logger.Int("results", len(ranked)),
		logger.Bool("cached", res.Cached))

	writeJSON(w, d.Logger, http.StatusOK, ranked)
}

func writeSearchError(w http.ResponseWriter, d deps.Deps, err error) {
	var failure *search.FailureError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeDetail(w, d.Logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the response
		d.Logger.Debug("search abandoned by client", logger.Error(err))
	case errors.As(err, &failure):
		d.Logger.Error("search failed", logger.Error(err))
		writeDetail(w, d.Logger, http.StatusBadGateway, "job search failed, please try again later")
	default:
		d.Logger.Error("search error", logger.Error(err))
		writeDetail(w, d.Logger, http.StatusInternalServerError, "internal error")
	}
}

func activeCatalog(d deps.Deps) *domain.Catalog {
	if d.Catalog == nil {
		return domain.DefaultCatalog()
	}
	return d.Catalog.Catalog()
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
