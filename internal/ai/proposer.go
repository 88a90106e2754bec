// Package ai is the proposal source: it turns a task description into
// model text that may contain a diff.
//
// The model itself is a black box behind Proposer. With no endpoint
// configured the mock proposer is used, which echoes the prompt.
package ai

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/config"
)

// Completion is the text returned for one prompt.
type Completion struct {
	Text  string `json:"completion"`
	Model string `json:"model,omitempty"`
	Mock  bool   `json:"mock,omitempty"`
}

// Proposer returns a completion for a prompt.
// Errors wrap errors.ErrExternalService.
type Proposer interface {
	Propose(ctx context.Context, prompt string) (*Completion, error)
}

// New selects the proposer for cfg: an HTTP client when an endpoint is
// configured, the mock otherwise.
func New(cfg *config.ProposalConfig, logger zerolog.Logger) Proposer {
	if cfg.Endpoint == "" {
		logger.Debug().Msg("no proposal endpoint configured, using mock proposer")
		return Mock{}
	}
	apiKey := ""
	if cfg.APIKeyEnvVar != "" {
		apiKey = os.Getenv(cfg.APIKeyEnvVar)
	}
	return NewHTTPProposer(cfg.Endpoint, cfg.Model, apiKey, cfg.Timeout, logger)
}
