package cli

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/tool"
	"github.com/mrz1836/patchbay/internal/tui"
)

func newToolCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var (
		subdir  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:       "tool <lint|test|typecheck> [-- extra args]",
		Short:     "Run one quality-gate tool in the sandbox",
		ValidArgs: []string{constants.ToolLint.String(), constants.ToolTest.String(), constants.ToolTypecheck.String()},
		Args:      cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := tool.ParseName(args[0])
			if err != nil {
				return errors.NewExitCode2Error(err)
			}
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}

			o, err := a.tools.Run(cmd.Context(), name, tool.Options{
				Subdir:  subdir,
				Args:    args[1:],
				Timeout: timeout,
			})
			// A timeout still carries an outcome worth printing.
			if err != nil && !stderrors.Is(err, errors.ErrCommandTimeout) {
				return err
			}
			if err := emit(cmd, flags, o, func(r *tui.Renderer) { r.Outcome(o) }); err != nil {
				return err
			}
			if !o.Success {
				return failed(name.String() + " failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subdir, "subdir", "", "run in this directory below the sandbox root")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "override tools.timeout")
	return cmd
}

func newCheckCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run lint, typecheck and tests",
		Long: `Run lint and typecheck concurrently, then the test suite.
Every tool runs even when an earlier one fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}
			report, err := a.tools.RunChecks(cmd.Context(), tool.Options{Timeout: timeout})
			if report == nil {
				return err
			}
			if err != nil {
				logger := state.Logger()
				logger.Warn().Err(err).Msg("check run incomplete")
			}
			if err := emit(cmd, flags, report, func(r *tui.Renderer) { r.Checks(report) }); err != nil {
				return err
			}
			if !report.Success {
				return failed("checks failed")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "override tools.timeout for each tool")
	return cmd
}

func newRunCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run <module> [args...]",
		Short: "Run a project module with src on the import path",
		Example: `  patchbay run app.main --name world
  patchbay run tools.seed --timeout 1m`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, state.Logger())
			if err != nil {
				return err
			}
			res, err := a.tools.RunModule(cmd.Context(), args[0], args[1:], timeout)
			if err != nil {
				if stderrors.Is(err, errors.ErrInvalidArgument) {
					return errors.NewExitCode2Error(err)
				}
				return err
			}
			if err := emit(cmd, flags, res, func(r *tui.Renderer) { r.Module(res) }); err != nil {
				return err
			}
			if !res.OK {
				return failed(fmt.Sprintf("module exited with status %d", res.Exit))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", constants.DefaultModuleTimeout, "kill the module after this long")
	return cmd
}
