package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
)

// newViperInstance creates a new Viper instance with the PATCHBAY_ env prefix,
// key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// Load reads configuration from all available sources with proper precedence.
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	globalPath, err := GlobalConfigPath()
	if err != nil {
		// Home directory unavailable: skip the global layer.
		globalPath = ""
	}
	return LoadFromPaths(ctx, ProjectConfigPath(), globalPath)
}

// LoadFromPaths loads configuration from specific file paths.
// projectConfigPath has higher priority than globalConfigPath.
// Either path can be empty to skip that level.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" && fileExists(globalConfigPath) {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" && fileExists(projectConfigPath) {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := normalize(&cfg); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("sandbox.root", cfg.Sandbox.Root).
		Str("server.addr", cfg.Server.Addr).
		Bool("proposal.mock", cfg.Proposal.Endpoint == "").
		Dur("tools.timeout", cfg.Tools.Timeout).
		Msg("configuration loaded")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	return withOverrides(cfg, overrides)
}

// LoadFileWithOverrides is LoadWithOverrides with path taking the place of
// the project config file. Unlike the default project file, path must exist.
func LoadFileWithOverrides(ctx context.Context, path string, overrides *Config) (*Config, error) {
	if !fileExists(path) {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "config file not found: %s", path)
	}
	globalPath, err := GlobalConfigPath()
	if err != nil {
		globalPath = ""
	}
	cfg, err := LoadFromPaths(ctx, path, globalPath)
	if err != nil {
		return nil, err
	}
	return withOverrides(cfg, overrides)
}

func withOverrides(cfg, overrides *Config) (*Config, error) {
	if overrides != nil {
		applyOverrides(cfg, overrides)
		if err := normalize(cfg); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// applyOverrides copies non-zero override values onto cfg.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Sandbox.Root != "" {
		cfg.Sandbox.Root = overrides.Sandbox.Root
	}
	if overrides.Server.Addr != "" {
		cfg.Server.Addr = overrides.Server.Addr
	}
	if overrides.Proposal.Endpoint != "" {
		cfg.Proposal.Endpoint = overrides.Proposal.Endpoint
	}
	if overrides.Proposal.Model != "" {
		cfg.Proposal.Model = overrides.Proposal.Model
	}
	if overrides.Tools.Timeout > 0 {
		cfg.Tools.Timeout = overrides.Tools.Timeout
	}
}

// normalize resolves the sandbox root to a clean absolute path.
// The root is fixed from here on for the process lifetime.
func normalize(cfg *Config) error {
	if cfg.Sandbox.Root == "" {
		return nil
	}
	abs, err := filepath.Abs(cfg.Sandbox.Root)
	if err != nil {
		return errors.Wrapf(errors.ErrConfigInvalidSandbox, "cannot resolve sandbox.root %q: %v", cfg.Sandbox.Root, err)
	}
	cfg.Sandbox.Root = abs
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("sandbox.root", d.Sandbox.Root)
	v.SetDefault("sandbox.lock_timeout", d.Sandbox.LockTimeout.String())

	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("proposal.endpoint", "")
	v.SetDefault("proposal.model", "")
	v.SetDefault("proposal.api_key_env_var", d.Proposal.APIKeyEnvVar)
	v.SetDefault("proposal.timeout", d.Proposal.Timeout.String())

	v.SetDefault("tools.lint", d.Tools.Lint)
	v.SetDefault("tools.test", d.Tools.Test)
	v.SetDefault("tools.typecheck", d.Tools.Typecheck)
	v.SetDefault("tools.timeout", d.Tools.Timeout.String())
	v.SetDefault("tools.max_output_bytes", d.Tools.MaxOutputBytes)

	v.SetDefault("module.command", d.Module.Command)
	v.SetDefault("module.env", map[string]string{})

	v.SetDefault("git.author_name", "")
	v.SetDefault("git.author_email", "")
	v.SetDefault("git.timeout", d.Git.Timeout.String())

	v.SetDefault("agent.commit_message_prefix", d.Agent.CommitMessagePrefix)
}

// viperDecoderOption returns the decoder config used for unmarshaling.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
