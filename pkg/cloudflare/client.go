package cloudflare

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "kvbackup/pkg/errors"
	"kvbackup/pkg/logger"
)

// Client talks to the Cloudflare Workers KV HTTP API for one namespace.
// Every request carries the bearer token; TLS and connection pooling come
// from the injected (or default) http.Client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiToken    string
	accountID   string
	namespaceID string
	logger      logger.Logger
}

// NewClient creates a KV API client for the given account and namespace
func NewClient(apiToken, accountID, namespaceID string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     BaseURL,
		apiToken:    apiToken,
		accountID:   accountID,
		namespaceID: namespaceID,
		logger:      log,
	}
}

// SetBaseURL overrides the API base URL. Used by tests to point the client
// at a mock server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// ListKeys fetches one page of the key listing starting at cursor. An
// empty cursor starts at the beginning of the listing.
func (c *Client) ListKeys(cursor string, limit int) (*ListKeysResponse, error) {
	url := listKeysURL(c.baseURL, c.accountID, c.namespaceID, limit, cursor)

	body, err := c.get(url)
	if err != nil {
		return nil, err
	}

	var response ListKeysResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse key listing: %v", err),
			Code:    http.StatusOK,
		}
	}

	return &response, nil
}

// FetchValue downloads the raw value bytes for one key. The whole body is
// read into memory so the caller can write it as a single file.
func (c *Client) FetchValue(name string) ([]byte, error) {
	return c.get(valueURL(c.baseURL, c.accountID, c.namespaceID, name))
}

// get performs an authenticated GET and returns the body on status 200,
// or a typed error for everything else.
func (c *Client) get(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugWithFields("request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return body, nil
}

// statusError maps a non-200 status to a typed error
func statusError(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: code}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &errs.Error{Type: errs.ErrorTypeAuth, Message: "authentication failed", Code: code}
	case code == http.StatusNotFound:
		return &errs.Error{Type: errs.ErrorTypeNotFound, Message: "not found", Code: code}
	case code >= 500:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: code}
	default:
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("unexpected status code: %d", code), Code: code}
	}
}
