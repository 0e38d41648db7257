package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

const maxSaveBodyBytes = 64 << 10

type saveRequest struct {
	UserEmail   string `json:"user_email" validate:"required,email"`
	Title       string `json:"title" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Location    string `json:"location"`
	ApplyLink   string `json:"apply_link"`
	Platform    string `json:"platform"`

	// optional, kept when the client has them
	Description string `json:"description,omitempty"`
	Salary      string `json:"salary,omitempty"`
	JobType     string `json:"job_type,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	PostedAt    string `json:"posted_at,omitempty"`
	IsVerified  bool   `json:"is_verified,omitempty"`
}

func (req saveRequest) posting() domain.Posting {
	return domain.Posting{
		Title:       req.Title,
		CompanyName: req.CompanyName,
		Location:    req.Location,
		Description: req.Description,
		Salary:      req.Salary,
		JobType:     req.JobType,
		Platform:    req.Platform,
		ApplyLink:   req.ApplyLink,
		Thumbnail:   req.Thumbnail,
		PostedAt:    req.PostedAt,
		IsVerified:  req.IsVerified,
	}
}

// SaveJob handles POST /api/v1/jobs/save.
// A new record answers 201, a posting already saved for the identity 200.
func SaveJob(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBodyBytes)).Decode(&req); err != nil {
			writeDetail(w, d.Logger, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.UserEmail = strings.TrimSpace(req.UserEmail)
		req.Title = strings.TrimSpace(req.Title)
		req.CompanyName = strings.TrimSpace(req.CompanyName)

		if err := domain.ValidateStruct(&req); err != nil {
			writeDetail(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}

		outcome, saved, err := d.Saved.Save(r.Context(), req.UserEmail, req.posting())
		if err != nil {
			d.Metrics.Save("error")
			d.Logger.Error("failed to save job",
				logger.Email("owner", req.UserEmail),
				logger.String("title", req.Title),
				logger.Error(err))
			writeDetail(w, d.Logger, http.StatusInternalServerError, "failed to save job")
			return
		}
		d.Metrics.Save(outcome.String())

		if outcome == domain.SaveAlreadyExists {
			d.Logger.Debug("job already saved",
				logger.Int64("id", saved.ID),
				logger.Email("owner", saved.UserEmail))
			writeMessage(w, d.Logger, http.StatusOK, "Job already saved")
			return
		}

		d.Logger.Info("job saved",
			logger.Int64("id", saved.ID),
			logger.Email("owner", saved.UserEmail),
			logger.String("company", saved.CompanyName))
		writeMessage(w, d.Logger, http.StatusCreated, "Job saved successfully")
	}
}

// SavedJobs handles GET /api/v1/jobs/saved/{email}, newest first.
func SavedJobs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		// chi routes on RawPath when it is set, leaving the param escaped
		if r.URL.RawPath != "" {
			if unescaped, err := url.PathUnescape(email); err == nil {
				email = unescaped
			}
		}
		if err := domain.ValidateEmail(email); err != nil {
			writeDetail(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}

		saved, err := d.Saved.List(r.Context(), email)
		if err != nil {
			d.Logger.Error("failed to list saved jobs",
				logger.Email("owner", email),
				logger.Error(err))
			writeDetail(w, d.Logger, http.StatusInternalServerError, "failed to load saved jobs")
			return
		}
		if saved == nil {
			saved = []domain.SavedPosting{}
		}
		writeJSON(w, d.Logger, http.StatusOK, saved)
	}
}

// RemoveSaved handles DELETE /api/v1/jobs/saved/{id}.
func RemoveSaved(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeDetail(w, d.Logger, http.StatusBadRequest, "invalid job id")
			return
		}

		if err := d.Saved.Remove(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeDetail(w, d.Logger, http.StatusNotFound, "Job not found")
				return
			}
			d.Logger.Error("failed to remove saved job",
				logger.Int64("id", id),
				logger.Error(err))
			writeDetail(w, d.Logger, http.StatusInternalServerError, "failed to remove job")
			return
		}

		d.Logger.Info("saved job removed", logger.Int64("id", id))
		writeMessage(w, d.Logger, http.StatusOK, "Job removed successfully")
	}
}
