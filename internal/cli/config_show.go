package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/tui"
)

func newConfigCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect patchbay configuration",
	}
	cmd.AddCommand(newConfigShowCmd(flags, state), newConfigPathsCmd(flags))
	return cmd
}

// configView renders cfg under its yaml keys, with durations as strings,
// plus whether the proposal API key is present. The key itself is never
// included.
func configView(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	view := map[string]any{}
	if err := yaml.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	key := "unset"
	if os.Getenv(cfg.Proposal.APIKeyEnvVar) != "" {
		key = "set (" + cfg.Proposal.APIKeyEnvVar + ")"
	}
	if proposal, ok := view["proposal"].(map[string]any); ok {
		proposal["api_key"] = key
	}
	return view, nil
}

func newConfigShowCmd(flags *GlobalFlags, state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after merging defaults, ~/.patchbay/config.yaml,
.patchbay/config.yaml (or --config) and PATCHBAY_* environment variables.

Text output is YAML. The proposal API key is reported as set or unset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			view, err := configView(cfg)
			if err != nil {
				return err
			}
			logger := state.Logger()
			logger.Debug().Str("sandbox", cfg.Sandbox.Root).Msg("showing config")

			format := flags.Output
			if format == tui.FormatText {
				format = tui.FormatYAML
			}
			_, err = tui.NewOutput(cmd.OutOrStdout(), format).Value(view)
			return err
		},
	}
}

// configPaths lists the files patchbay reads and writes.
type configPaths struct {
	Global  string `json:"global"`
	Project string `json:"project"`
	Log     string `json:"log"`
}

func newConfigPathsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show where configuration and logs live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			global, err := config.GlobalConfigPath()
			if err != nil {
				return err
			}
			logPath, err := config.LogFilePath()
			if err != nil {
				return err
			}
			paths := configPaths{Global: global, Project: config.ProjectConfigPath(), Log: logPath}
			if flags.Config != "" {
				paths.Project = flags.Config
			}
			return emit(cmd, flags, paths, func(r *tui.Renderer) {
				r.KeyValues([][2]string{
					{"global", paths.Global},
					{"project", paths.Project},
					{"log", paths.Log},
				})
			})
		},
	}
}
