package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/logging"
)

const (
	// maxResponseBytes bounds a completion body.
	maxResponseBytes = 4 << 20

	defaultRetryMax     = 2
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 5 * time.Second
)

// proposalRequest is the body sent to the endpoint.
type proposalRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// proposalResponse is the body expected back. "text" is accepted as an
// alias for "completion".
type proposalResponse struct {
	Completion string `json:"completion"`
	Text       string `json:"text"`
	Model      string `json:"model"`
	Error      string `json:"error"`
}

// HTTPProposer posts prompts to a completion endpoint that speaks
// {"prompt"} -> {"completion"}. Transport errors and 5xx/429 responses are
// retried with backoff.
type HTTPProposer struct {
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
	client   *retryablehttp.Client
	logger   zerolog.Logger
}

// NewHTTPProposer creates an HTTPProposer. apiKey may be empty.
func NewHTTPProposer(endpoint, model, apiKey string, timeout time.Duration, logger zerolog.Logger) *HTTPProposer {
	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetryMax
	client.RetryWaitMin = defaultRetryWaitMin
	client.RetryWaitMax = defaultRetryWaitMax
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	p := &HTTPProposer{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		timeout:  timeout,
		client:   client,
		logger:   logger.With().Str("component", "proposal").Logger(),
	}
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			p.logger.Warn().Int("attempt", attempt).Str("url", logging.SafeValue("url", req.URL.Redacted())).Msg("retrying proposal request")
		}
	}
	return p
}

// Propose sends prompt to the endpoint.
func (p *HTTPProposer) Propose(ctx context.Context, prompt string) (*Completion, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	body, err := json.Marshal(proposalRequest{Prompt: prompt, Model: p.model})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode proposal request")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternalService, "invalid proposal endpoint: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrExternalService, logging.FilterSensitiveValue(err.Error()))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternalService, "failed to read response: %v", err)
	}

	p.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("proposal response")

	var parsed proposalResponse
	decodeErr := json.Unmarshal(data, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(parsed.Error)
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return nil, fmt.Errorf("%w: endpoint returned %d: %s", errors.ErrExternalService, resp.StatusCode, truncateRunes(msg, 200))
	}
	if decodeErr != nil {
		return nil, errors.Wrapf(errors.ErrExternalService, "invalid response body: %v", decodeErr)
	}

	text := parsed.Completion
	if text == "" {
		text = parsed.Text
	}
	model := parsed.Model
	if model == "" {
		model = p.model
	}
	return &Completion{Text: text, Model: model}, nil
}

var _ Proposer = (*HTTPProposer)(nil)
