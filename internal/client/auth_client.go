package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/pkg/config"
)

// RequestObserver records outbound call metrics.
type RequestObserver interface {
	ObserveExternalRequest(target, operation string, success bool, duration time.Duration)
}

// AuthClient talks to the auth service for principal lookups. Both lookups
// fail soft: the workflow treats them as advisory, so an unreachable auth
// service degrades to "not found" rather than an error.
type AuthClient struct {
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	observer RequestObserver
}

// NewAuthClient constructs an AuthClient.
func NewAuthClient(cfg config.ExternalConfig, logger *zap.Logger, observer RequestObserver) *AuthClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuthClient{
		baseURL:  cfg.AuthServiceURL,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		observer: observer,
	}
}

// GetPrincipal fetches the user record for the given id, forwarding the
// caller's bearer token. The second return value reports whether a record
// was found.
func (c *AuthClient) GetPrincipal(ctx context.Context, token string, id int64) (*models.Principal, bool) {
	start := time.Now()
	principal, found := c.getPrincipal(ctx, token, id)
	if c.observer != nil {
		c.observer.ObserveExternalRequest("auth", "get_user", found, time.Since(start))
	}
	return principal, found
}

func (c *AuthClient) getPrincipal(ctx context.Context, token string, id int64) (*models.Principal, bool) {
	url := fmt.Sprintf("%s/api/users/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("auth request build failed", zap.Int64("user_id", id), zap.Error(err))
		return nil, false
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("auth service unreachable", zap.Int64("user_id", id), zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("auth lookup miss", zap.Int64("user_id", id), zap.Int("status", resp.StatusCode))
		return nil, false
	}

	var principal models.Principal
	if err := json.NewDecoder(resp.Body).Decode(&principal); err != nil {
		c.logger.Warn("auth response decode failed", zap.Int64("user_id", id), zap.Error(err))
		return nil, false
	}
	return &principal, true
}

// IsStudent reports whether the auth service knows the user as a student.
// False on any failure.
func (c *AuthClient) IsStudent(ctx context.Context, token string, id int64) bool {
	principal, found := c.GetPrincipal(ctx, token, id)
	return found && principal.Role == models.RoleCodeStudent
}
