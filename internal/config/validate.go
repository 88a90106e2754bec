package config

import (
	"strings"

	"github.com/mrz1836/patchbay/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - sandbox root must not be empty; lock timeout must be positive
//   - server address must not be empty
//   - proposal timeout must be positive; a non-empty endpoint must be http(s)
//   - every tool command must be set; tool timeout must be positive
//   - module command must be set
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateSandboxConfig(&cfg.Sandbox); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.Wrap(errors.ErrConfigInvalidServer, "server.addr must not be empty")
	}

	if err := validateProposalConfig(&cfg.Proposal); err != nil {
		return err
	}

	if err := validateToolsConfig(&cfg.Tools); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Module.Command) == "" {
		return errors.Wrap(errors.ErrConfigInvalidTools, "module.command must not be empty")
	}

	return nil
}

func validateSandboxConfig(cfg *SandboxConfig) error {
	if strings.TrimSpace(cfg.Root) == "" {
		return errors.Wrap(errors.ErrConfigInvalidSandbox, "sandbox.root must not be empty")
	}
	if cfg.LockTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidSandbox,
			"sandbox.lock_timeout must be positive, got %s", cfg.LockTimeout)
	}
	return nil
}

func validateProposalConfig(cfg *ProposalConfig) error {
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidProposal,
			"proposal.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.Endpoint != "" &&
		!strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return errors.Wrapf(errors.ErrConfigInvalidProposal,
			"proposal.endpoint must be an http(s) URL, got %q", cfg.Endpoint)
	}
	return nil
}

func validateToolsConfig(cfg *ToolsConfig) error {
	commands := []struct{ key, command string }{
		{"tools.lint", cfg.Lint},
		{"tools.test", cfg.Test},
		{"tools.typecheck", cfg.Typecheck},
	}
	for _, c := range commands {
		if strings.TrimSpace(c.command) == "" {
			return errors.Wrapf(errors.ErrConfigInvalidTools, "%s must not be empty", c.key)
		}
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidTools,
			"tools.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.MaxOutputBytes < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidTools,
			"tools.max_output_bytes must not be negative, got %d", cfg.MaxOutputBytes)
	}
	return nil
}
