// Package cli is the terminal client: it drives a session.Screen against
// the JobScout API and renders the result with lipgloss.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/client"
	"github.com/MrSnakeDoc/jobscout/internal/identity"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/session"
	"github.com/MrSnakeDoc/jobscout/internal/version"
)

// DefaultAPIURL is used when neither --api nor JOBSCOUT_API_URL is set.
const DefaultAPIURL = "http://localhost:8000"

// Backend is what the CLI needs from the API.
type Backend interface {
	session.API
	Catalog(ctx context.Context) (*client.Catalog, error)
}

// IdentityStore is a session.IdentityCache that can also forget.
type IdentityStore interface {
	session.IdentityCache
	Clear() error
}

// Options wires the CLI. Nil fields get production defaults.
type Options struct {
	Backend  Backend
	Identity IdentityStore
	Prompter Prompter
	Out      io.Writer
	Notify   *session.NotificationCenter
}

type app struct {
	opts      Options
	apiURL    string
	idFile    string
	verbose   bool
	alwaysAsk bool

	backend  Backend
	identity IdentityStore
	prompter Prompter
	out      io.Writer
	styles   styles
	logger   logger.Logger
}

// NewRootCmd builds the jobscout-cli command tree.
func NewRootCmd(opts Options) *cobra.Command {
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "jobscout-cli",
		Short:         "Search job listings and manage your saved jobs",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api", envOr("JOBSCOUT_API_URL", DefaultAPIURL), "JobScout API base URL (env JOBSCOUT_API_URL)")
	root.PersistentFlags().StringVar(&a.idFile, "identity-file", os.Getenv("JOBSCOUT_IDENTITY_FILE"), "where the last used email is remembered (default: user config dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")
	root.PersistentFlags().BoolVar(&a.alwaysAsk, "ask-email", false, "always prompt for the email, even when one is remembered")

	root.AddCommand(
		a.searchCmd(),
		a.catalogCmd(),
		a.saveCmd(),
		a.savedCmd(),
		a.removeCmd(),
		a.whoamiCmd(),
		a.forgetCmd(),
	)
	return root
}

// Execute runs the CLI with production defaults.
func Execute(ctx context.Context) error {
	return NewRootCmd(Options{}).ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = a.opts.Out
	if a.out == nil {
		a.out = cmd.OutOrStdout()
	}
	a.styles = newStyles(a.out)

	a.logger = logger.NewNop()
	if a.verbose {
		a.logger = logger.New("debug", true).Named("cli")
	}

	a.backend = a.opts.Backend
	if a.backend == nil {
		api, err := client.New(a.apiURL, client.WithUserAgent("jobscout-cli/"+version.Version))
		if err != nil {
			return err
		}
		a.backend = api
	}

	a.identity = a.opts.Identity
	if a.identity == nil {
		path, err := a.idFile, error(nil)
		if path == "" {
			path, err = identity.DefaultPath()
		}
		if err != nil {
			a.logger.Warn("identity will not be remembered", logger.Error(err))
			a.identity = &identity.MemoryCache{}
		} else {
			a.identity = identity.NewFileCache(path)
		}
	}

	a.prompter = a.opts.Prompter
	if a.prompter == nil {
		a.prompter = huhPrompter{}
	}

	a.logger.Debug("cli ready", logger.String("api", a.apiURL))
	return nil
}

func (a *app) newScreen() *session.Screen {
	return session.NewScreen(a.backend, a.identity, a.opts.Notify)
}

// resolveIdentity answers the identity prompt the screen opened and runs the
// pending action. A remembered email is reused without asking unless
// --ask-email is set. It returns false when the user cancelled.
func (a *app) resolveIdentity(ctx context.Context, s *session.Screen, prefill, flagEmail string) (bool, error) {
	email := strings.TrimSpace(flagEmail)
	if email == "" && prefill != "" && !a.alwaysAsk {
		email = prefill
		a.logger.Debug("using remembered identity", logger.Email("email", email))
	}
	if email == "" {
		var err error
		email, err = a.prompter.Identity(prefill)
		if errors.Is(err, ErrAborted) {
			_ = s.CancelIdentity()
			a.styles.info(a.out, "Cancelled.")
			return false, nil
		}
		if err != nil {
			_ = s.CancelIdentity()
			return false, err
		}
	}

	if err := s.SubmitIdentity(ctx, email); err != nil {
		if s.GateState() == session.GateAwaitingIdentity {
			_ = s.CancelIdentity()
		}
		a.flush(s)
		return false, err
	}
	a.flush(s)
	return true, nil
}

// flush prints and clears the screen's notification.
func (a *app) flush(s *session.Screen) {
	n, ok := s.Notification()
	if !ok {
		return
	}
	a.styles.notification(a.out, n)
	s.DismissNotification()
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
