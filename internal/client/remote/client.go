// Package remote talks to the settings service: one document per passcode,
// read with GET and replaced with POST.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/client/settings"
)

// ErrFetch wraps every failure to read settings.
var ErrFetch = errors.New("fetch settings")

// DefaultHost is used when no host is configured.
const DefaultHost = "localhost"

// BaseURL joins host with the fixed settings path. A host without a scheme
// is served over plain http.
func BaseURL(host string) string {
	if host == "" {
		host = DefaultHost
	}
	host = strings.TrimRight(host, "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host + "/settings"
}

// NewHTTPClient returns the http.Client used for settings calls.
// A zero timeout leaves requests unbounded.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Client performs fetch and update against the settings service.
type Client struct {
	http    *http.Client
	baseURL string
	log     *zap.Logger
}

// NewClient returns a Client for the service on host.
func NewClient(httpClient *http.Client, host string, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: httpClient, baseURL: BaseURL(host), log: log}
}

// URL returns the address of the document bound to passcode.
func (c *Client) URL(passcode string) string {
	return c.baseURL + "/" + url.PathEscape(passcode)
}

// Fetch reads the settings bound to passcode. Transport errors, non-2xx
// statuses and undecodable bodies are all reported as ErrFetch.
func (c *Client) Fetch(ctx context.Context, passcode string) (*settings.Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(passcode), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: server error %d: %s", ErrFetch, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	s, err := settings.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid response: %w", ErrFetch, err)
	}
	return s, nil
}

// Update replaces the settings bound to passcode with s. It reports success
// only when the response is 2xx and its body carries "success": true.
func (c *Client) Update(ctx context.Context, passcode string, s *settings.Settings) bool {
	body, err := json.Marshal(s)
	if err != nil {
		c.log.Error("failed to encode settings", zap.Error(err))
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(passcode), bytes.NewReader(body))
	if err != nil {
		c.log.Error("failed to build update request", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Info("update request failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		c.log.Info("update rejected", zap.Int("status", resp.StatusCode))
		return false
	}
	var result struct {
		Success *bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Info("update response is not valid JSON", zap.Error(err))
		return false
	}
	return result.Success != nil && *result.Success
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
