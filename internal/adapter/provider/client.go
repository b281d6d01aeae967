package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Andorta/payments-reliability-milestone/config"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPDoer abstracts the HTTP client so tests can inject failures.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.PaymentProvider over HTTP. Every charge call is
// bounded by the configured timeout; deadline expiry and transport failures
// both collapse into ports.ErrProviderTimeout, because the caller cannot
// distinguish a slow provider from an unreachable one.
type Client struct {
	http    HTTPDoer
	url     string
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates a provider client from config.
func NewClient(cfg config.ProviderConfig, log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		url:     cfg.ChargeURL,
		timeout: cfg.Timeout,
		log:     log.With().Str("component", "provider_client").Logger(),
	}
}

// NewClientWithDoer creates a provider client with a custom HTTP doer.
func NewClientWithDoer(doer HTTPDoer, cfg config.ProviderConfig, log zerolog.Logger) *Client {
	c := NewClient(cfg, log)
	c.http = doer
	return c
}

// Charge attempts to charge the buyer. Returns the provider's verdict, or
// ports.ErrProviderTimeout when no answer arrived within the deadline.
func (c *Client) Charge(ctx context.Context, req ports.ChargeRequest) (*ports.ChargeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).Msg("provider unreachable or timed out")
		return nil, ports.ErrProviderTimeout
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned unexpected status %d", resp.StatusCode)
	}

	var result ports.ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}
	if result.Status != ports.ProviderStatusSucceeded && result.Status != ports.ProviderStatusDeclined {
		return nil, fmt.Errorf("provider returned unknown status %q", result.Status)
	}
	return &result, nil
}
