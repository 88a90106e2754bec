// Package cli provides the command-line interface for patchbay.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/logging"
	"github.com/mrz1836/patchbay/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// cliState is what PersistentPreRunE prepares for subcommands.
type cliState struct {
	mu      sync.RWMutex
	logger  zerolog.Logger
	logFile io.Closer
}

func (s *cliState) setLogger(l zerolog.Logger, c io.Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
	s.logFile = c
}

// Logger returns the logger initialized for this invocation. Before
// PersistentPreRunE it discards everything.
func (s *cliState) Logger() zerolog.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

func (s *cliState) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}
}

// newRootCmd builds the command tree. Everything it needs is passed in, so
// tests can build as many independent trees as they like.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	state := &cliState{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "patchbay",
		Short: "Sandboxed patch application and quality gates for one project",
		Long: `patchbay applies unified-diff patches inside a single sandbox directory,
runs the project's lint, test and typecheck tools, and can drive an agent run
that proposes a patch, previews it, applies it and validates it with the tests.

Every operation is available from this CLI and over HTTP (patchbay serve).`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !tui.IsValidFormat(flags.Output) {
				return errors.NewExitCode2Error(fmt.Errorf("%w: %q must be one of %v",
					errors.ErrInvalidOutputFormat, flags.Output, tui.Formats()))
			}
			tui.CheckNoColor()

			// nil lets logging pick a styled writer when stderr is a terminal.
			var console io.Writer
			if w := cmd.ErrOrStderr(); w != os.Stderr {
				console = w
			}
			logPath, _ := config.LogFilePath()
			logger, closer, err := logging.New(logging.Options{
				Verbose: flags.Verbose,
				Quiet:   flags.Quiet,
				LogFile: logPath,
				Console: console,
			})
			state.setLogger(logger, closer)
			if err != nil {
				logger.Debug().Err(err).Msg("log file unavailable, logging to console only")
			}
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			state.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	cmd.AddCommand(
		newServeCmd(flags, state),
		newPreviewCmd(flags, state),
		newApplyCmd(flags, state),
		newToolCmd(flags, state),
		newCheckCmd(flags, state),
		newRunCmd(flags, state),
		newVCSCmd(flags, state),
		newAgentCmd(flags, state),
		newConfigCmd(flags, state),
	)
	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command. Errors are printed in the selected output
// format before being returned; the caller only maps them to an exit code.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, info)
	err := cmd.ExecuteContext(ctx)
	if _, silent := isResultError(err); err != nil && !silent {
		format := flags.Output
		if !tui.IsValidFormat(format) {
			format = tui.FormatText
		}
		tui.NewOutput(cmd.ErrOrStderr(), format).Error(err)
	}
	return err
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if re, ok := isResultError(err); ok {
		return re.code
	}
	if errors.IsExitCode2Error(err) {
		return ExitInvalidInput
	}
	return ExitError
}
