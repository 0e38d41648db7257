package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

func (a *app) saveCmd() *cobra.Command {
	var (
		p     domain.Posting
		email string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a job posting to your list",
		Example: `  jobscout-cli save --title "Backend Engineer" --company Initech \
    --location Remote --link https://jobs.example.com/123 --platform LinkedIn`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.Title = strings.TrimSpace(p.Title)
			p.CompanyName = strings.TrimSpace(p.CompanyName)
			if p.Title == "" || p.CompanyName == "" {
				return errors.New("--title and --company are required")
			}

			s := a.newScreen()
			prefill, err := s.RequestSave(p)
			if err != nil {
				return err
			}
			_, err = a.resolveIdentity(cmd.Context(), s, prefill, email)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.Title, "title", "", "job title")
	f.StringVar(&p.CompanyName, "company", "", "company name")
	f.StringVar(&p.Location, "location", "", "job location")
	f.StringVar(&p.ApplyLink, "link", "", "apply link")
	f.StringVar(&p.Platform, "platform", "", "platform the job was found on")
	f.StringVar(&email, "email", "", "save under this email instead of the remembered one")
	return cmd
}

func (a *app) savedCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "saved",
		Short: "List your saved jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.newScreen()
			prefill, err := s.RequestViewSaved()
			if err != nil {
				return err
			}
			done, err := a.resolveIdentity(cmd.Context(), s, prefill, email)
			if err != nil || !done {
				return err
			}
			saved, owner := s.Saved()
			if len(saved) > 0 {
				a.styles.saved(a.out, owner, saved)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "list jobs saved under this email")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a saved job by its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			s := a.newScreen()
			s.RequestRemove(id)
			if !yes {
				ok, err := a.prompter.Confirm(fmt.Sprintf("Remove saved job #%d?", id), "This cannot be undone.")
				if err != nil && !errors.Is(err, ErrAborted) {
					s.CancelRemove()
					return err
				}
				if !ok {
					s.CancelRemove()
					a.styles.info(a.out, "Nothing removed.")
					return nil
				}
			}

			err = s.ConfirmRemove(cmd.Context())
			a.flush(s)
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered email",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if email := a.identity.Get(); email != "" {
				_, _ = fmt.Fprintln(a.out, email)
				return nil
			}
			a.styles.info(a.out, "No email remembered yet.")
			return nil
		},
	}
}

func (a *app) forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Forget the remembered email",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := a.identity.Clear(); err != nil {
				return err
			}
			a.styles.info(a.out, "Email forgotten.")
			return nil
		},
	}
}
