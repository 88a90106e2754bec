package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/patchbay/internal/tui"
)

// resultError signals a command whose result was printed but was not a
// success (failed checks, a conflicting preview, a failed agent run).
// Execute prints nothing more for it; the process exits with code.
type resultError struct {
	what string
	code int
}

func (e *resultError) Error() string {
	return e.what
}

func failed(what string) error {
	return &resultError{what: what, code: ExitError}
}

// isResultError reports whether err only carries an exit status.
func isResultError(err error) (*resultError, bool) {
	var re *resultError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// emit writes v in the structured format, or hands it to render for text.
func emit(cmd *cobra.Command, flags *GlobalFlags, v any, render func(r *tui.Renderer)) error {
	out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
	handled, err := out.Value(v)
	if err != nil || handled {
		return err
	}
	render(newRenderer(cmd.OutOrStdout()))
	return nil
}

// newRenderer enables markdown only when w is an interactive terminal.
func newRenderer(w io.Writer) *tui.Renderer {
	r := tui.NewRenderer(w)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		r.Markdown = true
	}
	return r
}

// readInput reads a file argument, or stdin when the argument is "-".
func readInput(cmd *cobra.Command, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg) //nolint:gosec // user-selected input file
	if err != nil {
		return "", fmt.Errorf("read %s: %w", arg, err)
	}
	return string(data), nil
}
