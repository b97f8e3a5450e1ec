package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stake-plus/veritrust/src/ai/core"
	"github.com/stake-plus/veritrust/src/logging"
)

const defaultTimeout = 90 * time.Second

// Analyzer is the narrow seam the rest of the service depends on.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// ClientConfig tunes a Client. Zero values fall back to defaults.
type ClientConfig struct {
	Options core.Options
	Timeout time.Duration
}

// Client performs one analysis call per Analyze and validates the reply. It holds no
// mutable state, so one Client may serve concurrent callers.
type Client struct {
	ai      core.Client
	opts    core.Options
	timeout time.Duration
	log     *slog.Logger
}

// NewClient wraps a provider client.
func NewClient(ai core.Client, cfg ClientConfig) *Client {
	opts := cfg.Options
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = SystemInstruction
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		ai:      ai,
		opts:    opts,
		timeout: timeout,
		log:     logging.New("verify"),
	}
}

// Analyze sends req to the provider and returns a fully validated Result, or an error
// wrapping ErrInvalidInput, ErrTransportFailure or ErrMalformedResponse.
func (c *Client) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	raw, err := c.ai.Analyze(ctx, toCoreRequest(req), c.opts)
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedInput) {
			c.log.Info("analysis input refused by provider", "kind", req.Kind, "mime_type", req.MimeType, "error", err)
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if errors.Is(err, core.ErrMalformedResponse) {
			c.log.Warn("analysis reply unusable",
				"error_class", "malformed_response", "kind", req.Kind, "elapsed", elapsed, "error", err)
			return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		c.log.Warn("analysis call failed",
			"error_class", "transport_failure", "kind", req.Kind, "elapsed", elapsed,
			"rate_limited", logging.IsRateLimit(err), "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}

	res, err := ParseResult(raw)
	if err != nil {
		c.log.Warn("analysis reply rejected",
			"error_class", "malformed_response", "kind", req.Kind, "elapsed", elapsed,
			"reply", preview(raw, 200), "error", err)
		return Result{}, err
	}

	c.log.Info("analysis complete",
		"kind", req.Kind, "rating", res.AuthenticityRating, "trust_score", res.TrustScore, "elapsed", elapsed)
	return res, nil
}

func toCoreRequest(req Request) core.Request {
	out := core.Request{
		Prompt: req.Instruction,
		Schema: ResponseSchema,
	}
	if req.Kind.Binary() {
		out.Inline = &core.Blob{MimeType: req.MimeType, Data: req.Payload}
	}
	return out
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
