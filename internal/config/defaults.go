package config

import (
	"github.com/mrz1836/patchbay/internal/constants"
)

// DefaultConfig returns a new Config with default values.
// These defaults are the base layer overridden by config files,
// environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			Root:        ".",
			LockTimeout: constants.DefaultLockTimeout,
		},
		Server: ServerConfig{
			Addr: constants.DefaultServerAddr,
		},
		Proposal: ProposalConfig{
			APIKeyEnvVar: "PATCHBAY_PROPOSAL_API_KEY",
			Timeout:      constants.DefaultProposalTimeout,
		},
		Tools: ToolsConfig{
			Lint:           constants.DefaultLintCommand,
			Test:           constants.DefaultTestCommand,
			Typecheck:      constants.DefaultTypecheckCommand,
			Timeout:        constants.DefaultToolTimeout,
			MaxOutputBytes: constants.DefaultMaxOutputBytes,
		},
		Module: ModuleConfig{
			Command: constants.DefaultModuleCommand,
			Env:     map[string]string{},
		},
		Git: GitConfig{
			Timeout: constants.DefaultGitTimeout,
		},
		Agent: AgentConfig{
			CommitMessagePrefix: "agent: ",
		},
	}
}
