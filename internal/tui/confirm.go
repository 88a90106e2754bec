package tui

import (
	stderrors "errors"

	"github.com/charmbracelet/huh"

	"github.com/mrz1836/patchbay/internal/errors"
)

// ConfirmFunc asks a yes/no question. Tests replace it.
type ConfirmFunc func(title, description string) (bool, error)

// Confirm shows a huh confirm prompt. Escape or Ctrl+C yields
// ErrOperationCanceled.
func Confirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No, cancel").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return false, errors.ErrOperationCanceled
		}
		return false, err
	}
	return ok, nil
}
