package timesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/infrastructure/config"
	"go.uber.org/zap"
)

// authorityResponse is the wire format served by the time authority
type authorityResponse struct {
	Time time.Time `json:"time"`
}

// AuthorityClock resolves "now" from a remote time authority and falls
// back to the local clock when the authority cannot be reached. Fallback
// readings are flagged unverified; they still gate eligibility, the flag
// is surfaced for observability.
type AuthorityClock struct {
	url     string
	timeout time.Duration
	maxSkew time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewAuthorityClock creates a clock backed by the configured authority.
// With no authority URL configured it behaves like SystemClock except
// that readings are flagged unverified.
func NewAuthorityClock(cfg config.TimeSourceConfig, logger *zap.Logger) *AuthorityClock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorityClock{
		url:     cfg.AuthorityURL,
		timeout: cfg.Timeout,
		maxSkew: cfg.MaxSkew,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Now returns the authority's time, or the local time flagged unverified
// when the authority is unreachable or returns garbage.
func (c *AuthorityClock) Now(ctx context.Context) (reconcile.Reading, error) {
	if c.url == "" {
		return reconcile.Reading{Time: time.Now().UTC(), Verified: false}, nil
	}

	authorityTime, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("time authority unreachable, falling back to local clock",
			zap.String("url", c.url),
			zap.Error(err))
		return reconcile.Reading{Time: time.Now().UTC(), Verified: false}, nil
	}

	if skew := time.Since(authorityTime); skew > c.maxSkew || skew < -c.maxSkew {
		c.logger.Warn("local clock skewed from time authority",
			zap.Duration("skew", skew),
			zap.Duration("max_skew", c.maxSkew))
	}

	return reconcile.Reading{Time: authorityTime.UTC(), Verified: true}, nil
}

func (c *AuthorityClock) fetch(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return time.Time{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("time authority returned status %d", resp.StatusCode)
	}

	var body authorityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("invalid time authority response: %w", err)
	}
	if body.Time.IsZero() {
		return time.Time{}, fmt.Errorf("time authority returned zero time")
	}
	return body.Time, nil
}
