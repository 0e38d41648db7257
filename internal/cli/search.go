package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/session"
)

func (a *app) searchCmd() *cobra.Command {
	var (
		mq          domain.ManualQuery
		resumePath  string
		platforms   []string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search job listings by role or by resume",
		Example: `  jobscout-cli search --role "Software Engineer" --location Berlin
  jobscout-cli search --role Other --custom-role "Rust Developer" --platforms LinkedIn,Indeed
  jobscout-cli search --resume ./cv.pdf --time-range week`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var q domain.SearchQuery
			if resumePath != "" {
				doc, err := os.ReadFile(resumePath)
				if err != nil {
					return fmt.Errorf("read resume: %w", err)
				}
				q = domain.NewResumeQuery(domain.ResumeQuery{
					Document:    doc,
					Filename:    filepath.Base(resumePath),
					ContentType: contentType(resumePath, doc),
					Location:    mq.Location,
					TimeRange:   mq.TimeRange,
				})
			} else {
				m := mq
				if cmd.Flags().Changed("platforms") {
					m.Platforms = platforms
				} else {
					m.Platforms = a.allPlatforms(ctx)
				}
				q = domain.NewManualQuery(m)
			}

			s := a.newScreen()
			outcome, err := s.Search(ctx, q)
			a.flush(s)
			if err != nil {
				return err
			}
			a.logger.Debug("search finished",
				logger.String("mode", string(q.Mode)),
				logger.String("outcome", outcome.String()),
				logger.Int("results", s.Window().Total))
			if outcome != session.SearchApplied {
				return nil
			}

			a.styles.postings(a.out, s.Visible(), 0)
			a.styles.window(a.out, s.Window())
			if !interactive {
				return nil
			}
			return a.browse(ctx, s)
		},
	}

	f := cmd.Flags()
	f.StringVar(&mq.Role, "role", "", `role from the catalog, or "Other" with --custom-role`)
	f.StringVar(&mq.CustomRole, "custom-role", "", "free-text role used when --role is Other")
	f.StringVar(&mq.Location, "location", "", "where to search (default Remote)")
	f.StringVar(&mq.Experience, "experience", "", "experience level, e.g. \"Senior Level\"")
	f.StringVar(&mq.TimeRange, "time-range", "", "today, 3days, week or month")
	f.StringSliceVar(&platforms, "platforms", nil, "platforms to keep (default all; an empty value keeps none)")
	f.StringVar(&resumePath, "resume", "", "search with the role and skills found in this resume file")
	f.BoolVarP(&interactive, "interactive", "i", true, "browse results after the first page")
	cmd.MarkFlagsMutuallyExclusive("resume", "role")
	cmd.MarkFlagsMutuallyExclusive("resume", "platforms")
	return cmd
}

func (a *app) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the roles, experience levels, time ranges and platforms the server knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.backend.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			section := func(name string, values []string) {
				_, _ = fmt.Fprintln(a.out, a.styles.title.Render(name))
				for _, v := range values {
					_, _ = fmt.Fprintf(a.out, "  %s\n", v)
				}
			}
			section("Roles", c.Roles)
			section("Experience levels", c.ExperienceLevels)
			section("Time ranges", c.TimeRanges)
			section("Platforms", c.Platforms)
			return nil
		},
	}
}

type browseAction int

const (
	browseMore browseAction = iota
	browseSave
	browseDetails
	browseSaved
	browseDone
)

// browse lets the user page through results and act on them until done.
func (a *app) browse(ctx context.Context, s *session.Screen) error {
	for {
		var (
			labels  []string
			actions []browseAction
		)
		add := func(label string, act browseAction) {
			labels = append(labels, label)
			actions = append(actions, act)
		}
		if s.HasMore() {
			add("Show more", browseMore)
		}
		add("Save a job", browseSave)
		add("View job details", browseDetails)
		add("View saved jobs", browseSaved)
		add("Done", browseDone)

		idx, err := a.prompter.Select("What next?", labels)
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}

		switch actions[idx] {
		case browseMore:
			from := s.Window().Revealed
			win := s.ShowMore()
			a.styles.postings(a.out, s.Visible(), from)
			a.styles.window(a.out, win)

		case browseSave:
			p, ok, err := a.pickPosting(s.Visible(), "Which job do you want to save?")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			prefill, err := s.RequestSave(p)
			if err != nil {
				return err
			}
			if _, err := a.resolveIdentity(ctx, s, prefill, ""); err != nil {
				a.logger.Debug("save failed", logger.Error(err))
			}

		case browseDetails:
			p, ok, err := a.pickPosting(s.Visible(), "Which job?")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			s.ViewDetails(p)
			a.styles.details(a.out, p)
			s.CloseModal()

		case browseSaved:
			prefill, err := s.RequestViewSaved()
			if err != nil {
				return err
			}
			done, err := a.resolveIdentity(ctx, s, prefill, "")
			if err != nil {
				a.logger.Debug("loading saved jobs failed", logger.Error(err))
				continue
			}
			if done {
				saved, owner := s.Saved()
				a.styles.saved(a.out, owner, saved)
			}

		case browseDone:
			s.RequestEndSession()
			leave, err := a.prompter.Confirm("End this search session?", "The results are not kept once you leave.")
			s.CloseModal()
			if leave || errors.Is(err, ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

// pickPosting asks which visible posting to act on. ok is false when the
// user backed out.
func (a *app) pickPosting(visible []domain.Posting, title string) (domain.Posting, bool, error) {
	labels := make([]string, len(visible))
	for i, p := range visible {
		labels[i] = fmt.Sprintf("%d. %s, %s", i+1, p.Title, p.CompanyName)
	}
	idx, err := a.prompter.Select(title, labels)
	if errors.Is(err, ErrAborted) {
		return domain.Posting{}, false, nil
	}
	if err != nil {
		return domain.Posting{}, false, err
	}
	if idx < 0 || idx >= len(visible) {
		return domain.Posting{}, false, nil
	}
	return visible[idx], true, nil
}

// allPlatforms asks the server for its platform list, falling back to the
// built-in one.
func (a *app) allPlatforms(ctx context.Context) []string {
	c, err := a.backend.Catalog(ctx)
	if err != nil || len(c.Platforms) == 0 {
		if err != nil {
			a.logger.Debug("catalog unavailable, using built-in platforms", logger.Error(err))
		}
		return domain.DefaultCatalog().Platforms
	}
	return c.Platforms
}

func contentType(path string, doc []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(doc)
}
