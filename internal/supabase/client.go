// Package supabase is a minimal PostgREST client for the portal's hosted
// backend. It covers the query surface the portal actually uses: filtered
// selects, single-record fetches, and password sign-in.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when a single-record query matches no rows.
var ErrNotFound = errors.New("supabase: record not found")

// Client talks to a Supabase project over REST.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase: APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the configured project URL.
func (c *Client) BaseURL() string { return c.baseURL }

// From starts a query against a table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table}
}

// Query builds a PostgREST select.
type Query struct {
	client  *Client
	table   string
	columns string
	filters []filter
	orders  []string
	limit   int
	single  bool
}

type filter struct {
	column string
	value  string
}

// Select specifies the columns to return.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, filter{column, fmt.Sprintf("eq.%v", value)})
	return q
}

// Order adds an order clause.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Single requests exactly one row; zero rows become ErrNotFound.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Execute runs the query and decodes the result into dest. Pass nil to
// discard the body (bounded-read health probes do this).
func (q *Query) Execute(ctx context.Context, dest any) error {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, q.table)

	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	for _, f := range q.filters {
		params.Add(f.column, f.value)
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	q.client.setHeaders(req)
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}

	resp, err := q.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("supabase: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, body)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("supabase: decode response: %w", err)
	}
	return nil
}

// pgrstError is the PostgREST error body.
type pgrstError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// PGRST116 is the PostgREST code for "JSON object requested, multiple (or
// no) rows returned", the zero-row case of a Single() query.
const codeNoRows = "PGRST116"

func decodeError(status int, body []byte) error {
	var pe pgrstError
	if err := json.Unmarshal(body, &pe); err == nil {
		if pe.Code == codeNoRows {
			return ErrNotFound
		}
		if pe.Message != "" {
			return fmt.Errorf("supabase: %s (status %d, code %s)", pe.Message, status, pe.Code)
		}
	}
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("supabase: request failed with status %d", status)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}
