// Package config provides configuration management for patchbay with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (PATCHBAY_* prefix)
//  3. Project config (.patchbay/config.yaml)
//  4. Global config (~/.patchbay/config.yaml)
//  5. Built-in defaults
//
// The resulting Config is read once at startup and passed to each component's
// constructor; nothing in the process reads configuration from global state.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import any other internal packages.
package config

import "time"

// Config is the root configuration structure for patchbay.
type Config struct {
	// Sandbox contains the sandbox root and its lock settings.
	Sandbox SandboxConfig `yaml:"sandbox" mapstructure:"sandbox"`

	// Server contains HTTP API settings.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Proposal contains settings for the external proposal (completion) service.
	Proposal ProposalConfig `yaml:"proposal" mapstructure:"proposal"`

	// Tools contains the quality-gate commands.
	Tools ToolsConfig `yaml:"tools" mapstructure:"tools"`

	// Module contains settings for running a project module.
	Module ModuleConfig `yaml:"module" mapstructure:"module"`

	// Git contains settings for version-control operations.
	Git GitConfig `yaml:"git" mapstructure:"git"`

	// Agent contains settings for orchestrated runs.
	Agent AgentConfig `yaml:"agent" mapstructure:"agent"`
}

// SandboxConfig describes the single directory in which mutation is permitted.
type SandboxConfig struct {
	// Root is the sandbox directory. Relative values are resolved against the
	// working directory at load time. Default: "."
	Root string `yaml:"root" mapstructure:"root"`

	// LockTimeout bounds how long an apply or commit waits for the sandbox lock.
	// Default: 30s
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	// Addr is the listen address. Default: "127.0.0.1:3000"
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// ProposalConfig contains settings for the proposal service.
type ProposalConfig struct {
	// Endpoint is the completion endpoint URL. Empty selects the built-in mock,
	// which echoes the prompt back.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Model is passed through to the endpoint.
	Model string `yaml:"model" mapstructure:"model"`

	// APIKeyEnvVar names the environment variable holding the bearer token.
	// Default: "PATCHBAY_PROPOSAL_API_KEY"
	APIKeyEnvVar string `yaml:"api_key_env_var" mapstructure:"api_key_env_var"`

	// Timeout bounds one proposal request. Default: 2m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ToolsConfig contains the quality-gate commands run in the sandbox.
type ToolsConfig struct {
	// Lint is the lint command. Default: "uv run ruff check ."
	Lint string `yaml:"lint" mapstructure:"lint"`

	// Test is the test command. Default: "uv run pytest -q"
	Test string `yaml:"test" mapstructure:"test"`

	// Typecheck is the type-check command. Default: "uv run mypy src"
	Typecheck string `yaml:"typecheck" mapstructure:"typecheck"`

	// Timeout bounds a single tool invocation. Default: 5m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxOutputBytes caps captured output on direct tool calls. 0 disables the cap.
	MaxOutputBytes int `yaml:"max_output_bytes" mapstructure:"max_output_bytes"`
}

// ModuleConfig contains settings for runModule.
type ModuleConfig struct {
	// Command is the prefix used to run a module. Default: "uv run python -m"
	Command string `yaml:"command" mapstructure:"command"`

	// Env holds extra environment variables for module runs.
	Env map[string]string `yaml:"env" mapstructure:"env"`
}

// GitConfig contains settings for version-control operations.
type GitConfig struct {
	// AuthorName and AuthorEmail are used when a commit request carries no author.
	// Empty values defer to git's own configuration.
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`

	// Timeout bounds a single git command. Default: 1m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AgentConfig contains settings for orchestrated runs.
type AgentConfig struct {
	// CommitMessagePrefix is prepended to the task text to form the commit message.
	// Default: "agent: "
	CommitMessagePrefix string `yaml:"commit_message_prefix" mapstructure:"commit_message_prefix"`
}
