package cli

import (
	"errors"

	"github.com/charmbracelet/huh"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// ErrAborted is returned by a Prompter when the user backs out.
var ErrAborted = errors.New("aborted by user")

// Prompter asks the user for input.
type Prompter interface {
	// Identity asks for an email, starting from prefill.
	Identity(prefill string) (string, error)
	Confirm(title, description string) (bool, error)
	// Select returns the index of the chosen option.
	Select(title string, options []string) (int, error)
}

type huhPrompter struct{}

func (huhPrompter) Identity(prefill string) (string, error) {
	email := prefill
	err := huh.NewInput().
		Title("Your email").
		Description("Saved jobs are kept under this address.").
		Placeholder("you@example.com").
		Value(&email).
		Validate(domain.ValidateEmail).
		Run()
	return email, mapAbort(err)
}

func (huhPrompter) Confirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, mapAbort(err)
}

func (huhPrompter) Select(title string, options []string) (int, error) {
	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}
	var choice int
	err := huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&choice).
		Run()
	return choice, mapAbort(err)
}

func mapAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}
