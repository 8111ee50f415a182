// Package satellite proxies imagery search, field statistics and weather
// lookups to third-party APIs. Bodies are forwarded verbatim; nothing is cached
// or retried.
package satellite

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

	"starhawk-api-server/config"
)

const (
	searchPath     = "/api/lms/search/v2/sentinel2"
	statisticsPath = "/api/gdw/api"
	maxBody        = 10 << 20
)

// ErrNotConfigured means the upstream URL or key is missing.
var ErrNotConfigured = errors.New("upstream API is not configured")

// UpstreamError is a non-2xx answer from the upstream API, kept verbatim.
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, strings.TrimSpace(string(e.Body)))
}

type Client struct {
	http           *http.Client
	eosBaseURL     string
	eosAPIKey      string
	weatherBaseURL string
	weatherAPIKey  string
}

func NewClient(cfg config.SatelliteConfig) *Client {
	return &Client{
		http:           &http.Client{Timeout: config.Duration(cfg.Timeout, 30*time.Second)},
		eosBaseURL:     strings.TrimRight(cfg.EOSBaseURL, "/"),
		eosAPIKey:      cfg.EOSAPIKey,
		weatherBaseURL: cfg.WeatherBaseURL,
		weatherAPIKey:  cfg.WeatherAPIKey,
	}
}

// Search forwards an imagery search request.
func (c *Client) Search(ctx context.Context, body []byte) (json.RawMessage, error) {
	return c.eos(ctx, searchPath, body)
}

// Statistics forwards a field statistics (NDVI and friends) request.
func (c *Client) Statistics(ctx context.Context, body []byte) (json.RawMessage, error) {
	return c.eos(ctx, statisticsPath, body)
}

func (c *Client) eos(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	if c.eosBaseURL == "" || c.eosAPIKey == "" {
		return nil, ErrNotConfigured
	}
	endpoint := c.eosBaseURL + path + "?" + url.Values{"api_key": {c.eosAPIKey}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Weather forwards the caller's query string to the weather API with the key added.
func (c *Client) Weather(ctx context.Context, query url.Values) (json.RawMessage, error) {
	if c.weatherBaseURL == "" || c.weatherAPIKey == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(c.weatherBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse weather url: %w", err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("appid", c.weatherAPIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	if json.Valid(body) {
		return json.RawMessage(body), nil
	}
	// Non-JSON success bodies are passed on as a string.
	quoted, _ := json.Marshal(string(body))
	return json.RawMessage(quoted), nil
}
