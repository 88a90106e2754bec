package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/agent"
	"github.com/mrz1836/patchbay/internal/ai"
	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/git"
	"github.com/mrz1836/patchbay/internal/patch"
	"github.com/mrz1836/patchbay/internal/sandbox"
	"github.com/mrz1836/patchbay/internal/tool"
)

// app is the component graph shared by every command and the HTTP server.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	guard    *sandbox.Guard
	applier  *patch.Applier
	tools    *tool.Runner
	vcs      *git.Gateway
	proposer ai.Proposer
	agent    *agent.Orchestrator
}

// loadConfig applies --sandbox and --config on top of the layered config.
func loadConfig(ctx context.Context, flags *GlobalFlags) (*config.Config, error) {
	overrides := &config.Config{}
	overrides.Sandbox.Root = flags.Sandbox

	if flags.Config != "" {
		return config.LoadFileWithOverrides(ctx, flags.Config, overrides)
	}
	return config.LoadWithOverrides(ctx, overrides)
}

// newApp loads configuration and wires the components against one sandbox.
func newApp(ctx context.Context, flags *GlobalFlags, logger zerolog.Logger) (*app, error) {
	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}

	guard, err := sandbox.New(cfg.Sandbox.Root)
	if err != nil {
		return nil, err
	}

	var locker *sandbox.Locker
	if lockPath, lockErr := config.LockFilePath(guard.Root()); lockErr == nil {
		locker = sandbox.NewLocker(lockPath, cfg.Sandbox.LockTimeout)
	} else {
		logger.Warn().Err(lockErr).Msg("no lock file location, mutations are not serialized across processes")
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		guard:    guard,
		applier:  patch.New(guard, logger, patch.WithLocker(locker)),
		tools:    tool.NewRunner(cfg, guard, logger),
		vcs:      git.New(cfg, guard, logger, git.WithLocker(locker)),
		proposer: ai.New(&cfg.Proposal, logger),
	}
	a.agent = agent.New(cfg, a.proposer, a.applier, a.tools, logger, agent.WithCommitter(a.vcs))

	logger.Debug().Str("sandbox", guard.Root()).Msg("components ready")
	return a, nil
}
