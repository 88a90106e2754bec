package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/git"
	"github.com/mrz1836/patchbay/internal/tui"
)

// terminalCheck reports whether stdin is interactive. Tests replace it.
//
//nolint:gochecknoglobals // swapped in tests
var terminalCheck = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
}

// confirmRevert asks before a revert. Tests replace it.
//
//nolint:gochecknoglobals // swapped in tests
var confirmRevert tui.ConfirmFunc = tui.Confirm

func newVCSCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vcs",
		Short: "Inspect and change the sandbox's git repository",
	}
	cmd.AddCommand(
		newVCSStatusCmd(flags, state),
		newVCSCommitCmd(flags, state),
		newVCSRevertCmd(flags, state),
	)
	return cmd
}

func newVCSStatusCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show branch and working-tree changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}
			res, err := a.vcs.Status(cmd.Context())
			if err != nil {
				return err
			}
			if err := emit(cmd, flags, res, func(r *tui.Renderer) { r.Status(res) }); err != nil {
				return err
			}
			if !res.Success {
				return failed("git status failed")
			}
			return nil
		},
	}
}

func newVCSCommitCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var (
		message     string
		authorName  string
		authorEmail string
	)

	cmd := &cobra.Command{
		Use:   "commit [paths...]",
		Short: "Stage paths and commit",
		Long: `Stage the given sandbox-relative paths (additions, modifications and
deletions) and commit them. Without paths, whatever is already staged is committed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return errors.NewExitCode2Error(errors.Wrap(errors.ErrEmptyValue, "--message is required"))
			}
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}
			var author *git.Author
			if authorName != "" || authorEmail != "" {
				author = &git.Author{Name: authorName, Email: authorEmail}
			}
			o, err := a.vcs.Commit(cmd.Context(), args, message, author)
			if err != nil {
				return err
			}
			if err := emit(cmd, flags, o, func(r *tui.Renderer) { r.Outcome(o) }); err != nil {
				return err
			}
			if !o.Success {
				return failed("commit failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&authorName, "author-name", "", "commit author name (default: git.author_name)")
	cmd.Flags().StringVar(&authorEmail, "author-email", "", "commit author email (default: git.author_email)")
	return cmd
}

func newVCSRevertCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Discard the last commit and all uncommitted changes",
		Long: `Hard-reset the sandbox repository to the parent of HEAD.

This is destructive: the last commit and every uncommitted change in the
working tree are lost. Interactive sessions are asked to confirm; scripts
must pass --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if !terminalCheck() {
					return errors.NewExitCode2Error(errors.ErrNonInteractiveMode)
				}
				ok, err := confirmRevert("Discard the last commit?",
					"git reset --hard HEAD~1 also drops every uncommitted change.")
				if err != nil {
					return err
				}
				if !ok {
					return errors.ErrOperationCanceled
				}
			}

			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}
			o, err := a.vcs.RevertLast(cmd.Context())
			if err != nil {
				return err
			}
			if err := emit(cmd, flags, o, func(r *tui.Renderer) { r.Outcome(o) }); err != nil {
				return err
			}
			if !o.Success {
				return failed("revert failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
