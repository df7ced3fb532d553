package banwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const statusPath = "/api/v1/bans/status"

// Status mirrors the moderation service's ban status response.
type Status struct {
	UserID    string     `json:"user_id"`
	Banned    bool       `json:"banned"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type Checker interface {
	Check(ctx context.Context) (*Status, error)
}

// HTTPChecker asks the moderation service for the ban status of the token's owner.
type HTTPChecker struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewHTTPChecker(baseURL, token string) *HTTPChecker {
	return &HTTPChecker{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (c *HTTPChecker) Check(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ban status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ban status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ban status request failed: status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode ban status: %w", err)
	}
	return &status, nil
}
