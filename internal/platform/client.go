package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sourasish2503/churn-buster-v9/internal/config"
	"github.com/Sourasish2503/churn-buster-v9/internal/observability/tracing"
	"go.uber.org/zap"
)

const userTokenHeader = "X-Whop-User-Token"

// HTTPClient talks to the membership platform's REST API. Thin glue: it
// translates HTTP status codes into the package sentinels and nothing else.
type HTTPClient struct {
	baseURL string
	apiKey  string
	appID   string
	http    *http.Client
	log     *zap.Logger
}

// NewHTTPClient builds the platform client from configuration.
func NewHTTPClient(cfg config.Config, log *zap.Logger) *HTTPClient {
	timeout := cfg.Platform.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.Platform.BaseURL, "/"),
		apiKey:  cfg.Platform.APIKey,
		appID:   cfg.Platform.AppID,
		http:    tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		log:     log.Named("platform.client"),
	}
}

// Configured reports whether API credentials are present. Consumers must
// check before relying on platform calls.
func (c *HTTPClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.appID != ""
}

func (c *HTTPClient) VerifyActor(ctx context.Context, headers http.Header) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	token := strings.TrimSpace(headers.Get(userTokenHeader))
	if token == "" {
		return "", ErrUnauthorized
	}

	body := map[string]string{"token": token, "app_id": c.appID}
	var out struct {
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v5/app/verify_user_token", body, &out); err != nil {
		return "", err
	}
	if out.UserID == "" {
		return "", ErrUnauthorized
	}
	return out.UserID, nil
}

func (c *HTTPClient) CheckAccess(ctx context.Context, resourceID, actorID string) (AccessResult, error) {
	if !c.Configured() {
		return AccessResult{}, ErrNotConfigured
	}

	path := fmt.Sprintf("/v5/app/users/%s/access/%s", url.PathEscape(actorID), url.PathEscape(resourceID))
	var out struct {
		HasAccess   bool   `json:"has_access"`
		AccessLevel string `json:"access_level"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return AccessResult{}, err
	}
	return AccessResult{HasAccess: out.HasAccess, AccessLevel: out.AccessLevel}, nil
}

func (c *HTTPClient) GetMembership(ctx context.Context, membershipID string) (*Membership, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	path := "/v5/app/memberships/" + url.PathEscape(membershipID)
	var out struct {
		ID   string `json:"id"`
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &Membership{
		ID:       out.ID,
		UserID:   out.User.ID,
		Metadata: out.Metadata,
	}, nil
}

func (c *HTTPClient) UpdateMembershipMetadata(ctx context.Context, membershipID string, metadata map[string]string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	path := "/v5/app/memberships/" + url.PathEscape(membershipID)
	body := map[string]any{"metadata": metadata}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrMembershipNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
