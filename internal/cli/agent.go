package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/patchbay/internal/agent"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/tui"
)

func newAgentCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var (
		commit bool
		files  []string
	)

	cmd := &cobra.Command{
		Use:   "agent <task>",
		Short: "Propose, preview, apply and validate a change for a task",
		Long: `Run one agent task: ask the proposal service for a diff, preview it,
apply it, then run the test suite. The run stops at the first failing stage
and its status is either "succeeded" or "failed-at-<stage>".

Applied changes are not rolled back when validation fails.`,
		Example: `  patchbay agent "make greet return a greeting"
  patchbay agent "fix the failing test" --file src/app.py --commit`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.TrimSpace(strings.Join(args, " "))
			if task == "" {
				return errors.NewExitCode2Error(errors.Wrap(errors.ErrEmptyValue, "task"))
			}
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}

			rec := a.agent.Run(cmd.Context(), agent.Request{Task: task, Commit: commit, Files: files})
			if err := emit(cmd, flags, rec, func(r *tui.Renderer) { r.Record(rec) }); err != nil {
				return err
			}
			if !rec.Succeeded() {
				return failed(rec.Status.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "commit the applied files with the task as message")
	cmd.Flags().StringSliceVar(&files, "file", nil, "sandbox file to include in the prompt (repeatable)")
	return cmd
}
