package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/patchbay/internal/tui"
)

// Exit codes for the CLI.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitInvalidInput = 2
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output is text, json or yaml.
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet lowers logging to warnings.
	Quiet bool
	// Sandbox overrides sandbox.root.
	Sandbox string
	// Config names a config file used instead of .patchbay/config.yaml.
	Config string
}

// AddGlobalFlags adds the persistent flags shared by every subcommand.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", tui.FormatText, "output format (text|json|yaml)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "only log warnings and errors")
	pf.StringVar(&flags.Sandbox, "sandbox", "", "sandbox root directory (overrides sandbox.root)")
	pf.StringVar(&flags.Config, "config", "", "config file to use instead of .patchbay/config.yaml")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}
