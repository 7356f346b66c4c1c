package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/acme/lead-dialer/internal/config"
	"github.com/acme/lead-dialer/internal/domain"
	apperrors "github.com/acme/lead-dialer/pkg/errors"
)

// Client fetches short-lived telephony credentials from the token endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient constructs a credential client from config.
func NewClient(cfg config.TokenConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type tokenResponse struct {
	Token      string    `json:"token"`
	FromNumber string    `json:"from_number"`
	Identity   string    `json:"identity"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Fetch requests a credential for the given caller. A non-2xx response or a
// missing token is a hard failure; the caller decides whether to proceed
// degraded.
func (c *Client) Fetch(ctx context.Context, userID uuid.UUID) (*domain.Credential, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("token: parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("identity", userID.String())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("token: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token: fetch: %w: %w", apperrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token: endpoint returned %d: %w", resp.StatusCode, apperrors.ErrUnavailable)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("token: decode response: %w", err)
	}
	if body.Token == "" {
		return nil, fmt.Errorf("token: empty token in response: %w", apperrors.ErrUnavailable)
	}

	return &domain.Credential{
		Token:      body.Token,
		FromNumber: body.FromNumber,
		Identity:   body.Identity,
		ExpiresAt:  body.ExpiresAt,
	}, nil
}
