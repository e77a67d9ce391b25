// Package client is the typed boundary to the admin sync service. Every call
// is a single round trip: no retries and no caching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// DefaultBaseURL is where the admin API lives in a local deployment.
const DefaultBaseURL = "http://localhost:8000/api/admin"

// MaxBulkTickers is the largest bulk request the service accepts.
const MaxBulkTickers = 50

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 512

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client talks to the admin API rooted at baseURL.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// New creates a client for the admin API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Search looks up symbols matching query. An empty result is not an error.
func (c *Client) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search: %w", ErrEmptyArgument)
	}
	var out struct {
		Results []types.SearchResult `json:"results"`
	}
	if err := c.do(ctx, "search", http.MethodGet, "/search-yf/"+url.PathEscape(query), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []types.SearchResult{}
	}
	return out.Results, nil
}

// SyncOne syncs a single ticker and returns its fresh record.
func (c *Client) SyncOne(ctx context.Context, ticker string) (types.TickerRecord, error) {
	var rec types.TickerRecord
	if strings.TrimSpace(ticker) == "" {
		return rec, fmt.Errorf("sync: %w", ErrEmptyArgument)
	}
	err := c.do(ctx, "sync", http.MethodPost, "/sync/"+url.PathEscape(ticker), nil, nil, &rec)
	return rec, err
}

// SyncBulk syncs a set of tickers. Partial success is reported through the
// counts of the result, not as an error.
func (c *Client) SyncBulk(ctx context.Context, tickers []string) (types.BulkResult, error) {
	var res types.BulkResult
	if len(tickers) == 0 {
		return res, fmt.Errorf("bulk sync: %w", ErrNoTickers)
	}
	if len(tickers) > MaxBulkTickers {
		return res, fmt.Errorf("bulk sync of %d tickers: %w", len(tickers), ErrTooManyTickers)
	}
	body := struct {
		Tickers []string `json:"tickers"`
	}{Tickers: tickers}
	err := c.do(ctx, "bulk sync", http.MethodPost, "/sync/bulk", nil, body, &res)
	return res, err
}

// SyncPreset syncs every ticker of a server-defined preset.
func (c *Client) SyncPreset(ctx context.Context, key string) (types.BulkResult, error) {
	var res types.BulkResult
	if strings.TrimSpace(key) == "" {
		return res, fmt.Errorf("preset sync: %w", ErrEmptyArgument)
	}
	err := c.do(ctx, "preset sync", http.MethodPost, "/sync/preset/"+url.PathEscape(key), nil, nil, &res)
	if err == nil && res.Preset == "" {
		res.Preset = key
	}
	return res, err
}

// DeleteTicker removes a ticker's cached data on the server.
func (c *Client) DeleteTicker(ctx context.Context, ticker string) error {
	if strings.TrimSpace(ticker) == "" {
		return fmt.Errorf("delete: %w", ErrEmptyArgument)
	}
	return c.do(ctx, "delete", http.MethodDelete, "/ticker/"+url.PathEscape(ticker), nil, nil, nil)
}

// FetchStatus returns the complete synced set.
func (c *Client) FetchStatus(ctx context.Context) ([]types.TickerRecord, error) {
	var out struct {
		Tickers []types.TickerRecord `json:"tickers"`
	}
	if err := c.do(ctx, "status", http.MethodGet, "/status", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Tickers == nil {
		out.Tickers = []types.TickerRecord{}
	}
	return out.Tickers, nil
}

// FetchDetail returns the expanded record of one ticker.
func (c *Client) FetchDetail(ctx context.Context, ticker string) (types.TickerDetail, error) {
	var d types.TickerDetail
	if strings.TrimSpace(ticker) == "" {
		return d, fmt.Errorf("detail: %w", ErrEmptyArgument)
	}
	err := c.do(ctx, "detail", http.MethodGet, "/ticker/"+url.PathEscape(ticker), nil, nil, &d)
	if err == nil && d.Ticker == "" {
		d.Ticker = ticker
	}
	return d, err
}

// FetchPresets returns the preset catalog keyed by preset key.
func (c *Client) FetchPresets(ctx context.Context) (map[string]types.Preset, error) {
	var out struct {
		Presets map[string]types.Preset `json:"presets"`
	}
	if err := c.do(ctx, "presets", http.MethodGet, "/presets", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Presets == nil {
		out.Presets = map[string]types.Preset{}
	}
	return out.Presets, nil
}

// FetchLogs returns up to limit log entries, most recent first. An empty
// level returns every level.
func (c *Client) FetchLogs(ctx context.Context, limit int, level string) ([]types.LogEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("logs: %w", ErrInvalidLimit)
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	switch level {
	case "":
	case types.LevelInfo, types.LevelWarn, types.LevelError:
		q.Set("level", level)
	default:
		return nil, fmt.Errorf("logs: level %q: %w", level, ErrInvalidLevel)
	}
	var out struct {
		Logs []types.LogEntry `json:"logs"`
	}
	if err := c.do(ctx, "logs", http.MethodGet, "/logs", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Logs == nil {
		out.Logs = []types.LogEntry{}
	}
	return out.Logs, nil
}

// FetchOverview returns the aggregate dashboard snapshot.
func (c *Client) FetchOverview(ctx context.Context) (types.Overview, error) {
	var ov types.Overview
	err := c.do(ctx, "overview", http.MethodGet, "/overview", nil, nil, &ov)
	return ov, err
}

// ListTickers returns the sorted symbols of every synced ticker.
func (c *Client) ListTickers(ctx context.Context) ([]string, error) {
	var out struct {
		Tickers []string `json:"tickers"`
	}
	if err := c.do(ctx, "tickers", http.MethodGet, "/tickers", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Tickers == nil {
		out.Tickers = []string{}
	}
	return out.Tickers, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &NetworkError{
			Op:         op,
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       errorDetail(raw),
			Err:        fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, URL: u, Err: fmt.Errorf("read body: %w", err)}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// errorDetail pulls the "detail" message out of an error body when present.
func errorDetail(raw []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Detail != nil {
		if s, ok := e.Detail.(string); ok {
			return s
		}
	}
	return strings.TrimSpace(string(raw))
}
