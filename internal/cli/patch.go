package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/patchbay/internal/diff"
	"github.com/mrz1836/patchbay/internal/patch"
	"github.com/mrz1836/patchbay/internal/tool"
	"github.com/mrz1836/patchbay/internal/tui"
)

func newPreviewCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <patch-file|->",
		Short: "List the files a diff would touch",
		Long: `Parse a unified diff and list the sandbox-relative files it touches.
Nothing is written. Paths outside the sandbox are rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}
			res, err := a.applier.Preview(cmd.Context(), text)
			if err != nil {
				return err
			}
			return emit(cmd, flags, res, func(r *tui.Renderer) { r.Preview(res) })
		},
	}
}

// applyReport is what apply prints.
type applyReport struct {
	*patch.ApplyResult

	Lint   *tool.LintResult `json:"lint,omitempty" yaml:"lint,omitempty"`
	Commit *tool.Outcome    `json:"commit,omitempty" yaml:"commit,omitempty"`
}

// dryRunReport is what apply --dry-run prints.
type dryRunReport struct {
	OK    bool         `json:"ok"`
	Files []dryRunFile `json:"files"`
}

type dryRunFile struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

func newApplyCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var (
		commitMessage string
		dryRun        bool
		skipLint      bool
	)

	cmd := &cobra.Command{
		Use:   "apply <patch-file|->",
		Short: "Apply a diff to the sandbox",
		Long: `Apply a unified diff to the sandbox. Either every file changes or none does.

After a successful apply the lint tool runs and its outcome is reported.
With --commit-message the changed files are committed. With --dry-run the
resulting changes are shown as a diff and nothing is written.`,
		Example: `  patchbay apply fix.diff
  git diff | patchbay apply - --commit-message "fix greeting"
  patchbay apply fix.diff --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if dryRun {
				changes, err := a.applier.Plan(ctx, text)
				if err != nil {
					return err
				}
				report := dryRunReport{OK: true, Files: make([]dryRunFile, 0, len(changes))}
				for _, c := range changes {
					next := c.Next
					if c.Delete {
						next = ""
					}
					d, err := diff.UnifiedFile(c.Path, c.Prior, next)
					if err != nil {
						return err
					}
					report.Files = append(report.Files, dryRunFile{Path: c.Path, Diff: d})
				}
				return emit(cmd, flags, report, func(r *tui.Renderer) {
					for _, f := range report.Files {
						r.Diff(f.Diff)
					}
				})
			}

			res, err := a.applier.Apply(ctx, text)
			if err != nil {
				return err
			}
			report := applyReport{ApplyResult: res}

			if !skipLint {
				lint, lintErr := a.tools.Lint(ctx, tool.Options{})
				if lintErr != nil {
					logger := state.Logger()
					logger.Warn().Err(lintErr).Msg("lint after apply failed")
				}
				report.Lint = lint
			}

			if commitMessage != "" {
				o, err := a.vcs.Commit(ctx, res.Changed, commitMessage, nil)
				if err != nil {
					return err
				}
				report.Commit = o
			}

			if err := emit(cmd, flags, report, func(r *tui.Renderer) {
				r.Changed(res.Changed)
				if report.Lint != nil {
					r.Outcome(&report.Lint.Outcome)
				}
				if report.Commit != nil {
					r.Outcome(report.Commit)
				}
			}); err != nil {
				return err
			}
			if report.Commit != nil && !report.Commit.Success {
				return failed("commit failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&commitMessage, "commit-message", "m", "", "commit the changed files with this message")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the resulting changes without writing")
	cmd.Flags().BoolVar(&skipLint, "no-lint", false, "skip the lint run after applying")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "commit-message")
	return cmd
}
