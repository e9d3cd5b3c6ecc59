// Package gigachat is a minimal client for the GigaChat platform APIs:
// OAuth token exchange, text embeddings and chat completions.
package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultOAuthURL is the token exchange endpoint.
	DefaultOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"

	// DefaultBaseURL is the API root for embeddings and chat completions.
	DefaultBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
)

// tokenSkew is subtracted from the reported expiry so a token is refreshed
// slightly before the platform invalidates it.
const tokenSkew = 30 * time.Second

// Scope selects the API tier the credentials are exchanged against.
type Scope string

const (
	ScopePersonal  Scope = "GIGACHAT_API_PERS"
	ScopeB2B       Scope = "GIGACHAT_API_B2B"
	ScopeCorporate Scope = "GIGACHAT_API_CORP"
)

// Valid reports whether the scope is one of the supported API tiers.
func (s Scope) Valid() bool {
	switch s {
	case ScopePersonal, ScopeB2B, ScopeCorporate:
		return true
	}
	return false
}

// APIError wraps a failed API call with the HTTP status and raw response
// body for error logging.
type APIError struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	RawBody    json.RawMessage `json:"raw_body,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Client is a minimal client for the GigaChat API. It holds the last
// issued access token and refreshes it when expired.
type Client struct {
	credentials string
	scope       Scope
	oauthURL    string
	baseURL     string
	httpClient  *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithOAuthURL overrides the token exchange endpoint.
func WithOAuthURL(u string) Option {
	return func(c *Client) { c.oauthURL = u }
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithInsecureSkipVerify disables TLS certificate verification. The
// platform endpoints are signed by a national CA chain that is absent
// from most system trust stores.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Timeout: c.httpClient.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
}

// NewClient creates a Client. credentials is the base64 authorization key
// issued by the platform; scope selects the API tier.
func NewClient(credentials string, scope Scope, opts ...Option) *Client {
	c := &Client{
		credentials: credentials,
		scope:       scope,
		oauthURL:    DefaultOAuthURL,
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// oauthResponse is the token exchange response body.
type oauthResponse struct {
	AccessToken string `json:"access_token"`
	// ExpiresAt is a unix timestamp in milliseconds.
	ExpiresAt int64 `json:"expires_at"`
}

// Authenticate exchanges the long-lived credentials for a fresh bearer
// token, replacing any cached one.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("scope", string(c.scope))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+c.credentials)
	req.Header.Set("RqUID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			Message:    fmt.Sprintf("oauth error %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			RawBody:    json.RawMessage(body),
		}
	}

	var parsed oauthResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &APIError{
			Message:    fmt.Sprintf("failed to parse oauth response: %v", err),
			StatusCode: resp.StatusCode,
			RawBody:    json.RawMessage(body),
		}
	}
	if parsed.AccessToken == "" {
		return "", &APIError{
			Message:    "oauth response missing access_token",
			StatusCode: resp.StatusCode,
			RawBody:    json.RawMessage(body),
		}
	}

	c.mu.Lock()
	c.token = parsed.AccessToken
	c.expires = time.UnixMilli(parsed.ExpiresAt)
	c.mu.Unlock()

	return parsed.AccessToken, nil
}

// bearer returns the cached token, refreshing it when absent or expired.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	valid := token != "" && time.Now().Before(c.expires.Add(-tokenSkew))
	c.mu.Unlock()

	if valid {
		return token, nil
	}
	return c.Authenticate(ctx)
}

// post sends an authenticated JSON request and returns the response body.
// Network errors, non-2xx statuses and empty bodies are all plain errors;
// the caller does not distinguish between them.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("RqUID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Message:    fmt.Sprintf("gigachat API error %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			RawBody:    json.RawMessage(respBody),
		}
	}
	if len(respBody) == 0 {
		return nil, &APIError{
			Message:    "empty response body",
			StatusCode: resp.StatusCode,
		}
	}

	return respBody, nil
}
