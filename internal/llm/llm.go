package llm

import (
	"context"
	"errors"
	"time"

	"incident-backend/internal/shared/metrics"
	"incident-backend/internal/shared/telemetry"
)

// Client abstracts a single LLM provider. Complete sends one system/user
// prompt pair and returns the raw model output.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
	Name() string
}

// ErrNoModelAvailable means every configured provider failed for a call.
// Callers treat this as fatal for the whole run unless the underlying cause
// is a per-call timeout, which is a per-item failure.
var ErrNoModelAvailable = errors.New("no language model available")

// Chain tries providers in order and returns the first successful
// completion. Provider order encodes preference: local first, hosted
// fallbacks after.
type Chain struct {
	clients []Client
	timeout time.Duration
}

// NewChain builds a provider chain. perCallTimeout bounds each individual
// provider attempt; zero disables the bound.
func NewChain(perCallTimeout time.Duration, clients ...Client) *Chain {
	return &Chain{clients: clients, timeout: perCallTimeout}
}

// Len reports how many providers are configured.
func (c *Chain) Len() int { return len(c.clients) }

// Name identifies the chain for logging. The winning provider's name is
// recorded per call in metrics instead.
func (c *Chain) Name() string { return "chain" }

// Complete walks the providers in order. A provider error falls through to
// the next provider; context cancellation stops the walk immediately. When
// every provider fails the error wraps ErrNoModelAvailable.
func (c *Chain) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	if len(c.clients) == 0 {
		return "", ErrNoModelAvailable
	}
	var lastErr error
	for _, client := range c.clients {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		attemptCtx := ctx
		cancel := func() {}
		if c.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		out, err := client.Complete(attemptCtx, systemPrompt, userPrompt, temperature)
		cancel()
		if err == nil {
			metrics.IncModelCall(client.Name(), "success")
			return out, nil
		}
		metrics.IncModelCall(client.Name(), "error")
		telemetry.Error("model call failed, trying next provider", map[string]any{
			"provider": client.Name(),
			"error":    err.Error(),
		})
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", errors.Join(ErrNoModelAvailable, lastErr)
}
