// Package upstream implements the resilient client for the documentation
// API. It owns all retry and back-off decisions; callers never retry.
package upstream

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

	"github.com/cenkalti/backoff/v4"

	"github.com/opencode-ai/docsbridge/internal/logging"
	"github.com/opencode-ai/docsbridge/internal/reqctx"
)

// APIKeyPrefix is the expected shape of upstream credentials. Keys without
// it are still forwarded; the mismatch is only worth a warning.
const APIKeyPrefix = "dbk-"

// sourceHeaderValue tags outbound traffic so the upstream can tell protocol
// servers from SDK callers.
const sourceHeaderValue = "mcp-server"

// Pagination response headers. A text response carries either the full set
// or no usable metadata at all.
const (
	headerPage        = "X-Docs-Page"
	headerLimit       = "X-Docs-Limit"
	headerTotalPages  = "X-Docs-Total-Pages"
	headerHasNext     = "X-Docs-Has-Next"
	headerHasPrev     = "X-Docs-Has-Prev"
	headerTotalTokens = "X-Docs-Total-Tokens"
)

// Client issues requests to the documentation API with bounded retries.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryPolicy
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// New creates a documentation API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.MaxAttempts < 1 {
		c.retry.MaxAttempts = 1
	}
	return c
}

// Request is one outbound call.
type Request struct {
	Method string
	Path   []string
	// Query parameters; entries with empty values are omitted.
	Query map[string]string
	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is the decoded outcome of a successful call: either a JSON
// payload or free text with optional pagination metadata.
type Response struct {
	Status     int
	JSON       json.RawMessage
	Text       string
	Pagination *Pagination
}

// Do performs the request with the client's retry policy. Credentials and
// origin from rc (which may be nil) are forwarded as headers. On terminal
// HTTP failure the returned error is an *APIError; transport failures and
// cancellation propagate verbatim.
func (c *Client) Do(ctx context.Context, rc *reqctx.RequestContext, req *Request) (*Response, error) {
	target, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		if body, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var bo backoff.BackOff // built lazily; never touched when MaxAttempts == 1
	var lastTransportErr error

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(httpReq, rc, len(body) > 0)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				// Explicit cancellation: stop immediately, no retry.
				return nil, ctx.Err()
			}
			lastTransportErr = err
			if attempt < c.retry.MaxAttempts-1 {
				if bo == nil {
					bo = c.retry.NewBackoff()
				}
				if err := c.wait(ctx, nextDelay(bo), attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastTransportErr
		}

		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastTransportErr = err
			if attempt < c.retry.MaxAttempts-1 {
				if bo == nil {
					bo = c.retry.NewBackoff()
				}
				if err := c.wait(ctx, nextDelay(bo), attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastTransportErr
		}

		if retryable(resp.StatusCode) && attempt < c.retry.MaxAttempts-1 {
			// A server-supplied Retry-After delay replaces the back-off
			// schedule entirely for this attempt.
			delay, ok := retryAfter(resp.Header)
			if !ok {
				if bo == nil {
					bo = c.retry.NewBackoff()
				}
				delay = nextDelay(bo)
			}
			logging.Debug().
				Int("status", resp.StatusCode).
				Dur("delay", delay).
				Int("attempt", attempt+1).
				Msg("retrying upstream request")
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, extractError(resp.StatusCode, payload)
		}

		return decodeResponse(resp, payload), nil
	}

	// Unreachable while MaxAttempts >= 1; kept for safety.
	if lastTransportErr != nil {
		return nil, lastTransportErr
	}
	return nil, &APIError{Message: "exhausted all attempts"}
}

func (c *Client) wait(ctx context.Context, delay time.Duration, attempt int) error {
	logging.Debug().
		Dur("delay", delay).
		Int("attempt", attempt+1).
		Msg("retrying upstream request after transport error")
	return sleep(ctx, delay)
}

// nextDelay guards against an exhausted schedule; the attempt budget is
// owned by MaxAttempts, so a Stop from the back-off degrades to a zero wait.
func nextDelay(bo backoff.BackOff) time.Duration {
	d := bo.NextBackOff()
	if d == backoff.Stop {
		return 0
	}
	return d
}

func (c *Client) buildURL(req *Request) (string, error) {
	target, err := url.JoinPath(c.baseURL, req.Path...)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	if len(req.Query) == 0 {
		return target, nil
	}
	q := url.Values{}
	for k, v := range req.Query {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target, nil
}

func (c *Client) setHeaders(req *http.Request, rc *reqctx.RequestContext, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Docsbridge-Source", sourceHeaderValue)
	if rc == nil {
		return
	}
	if rc.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+rc.APIKey)
	}
	if rc.ClientIP != "" {
		req.Header.Set("X-Client-IP", rc.ClientIP)
	}
}

// extractError turns a terminal non-2xx response into an APIError. The body
// may be anything, including HTML from an intermediary proxy; it must never
// surface as a decode fault.
func extractError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return &APIError{Message: payload.Error, StatusCode: status}
		}
		if payload.Message != "" {
			return &APIError{Message: payload.Message, StatusCode: status}
		}
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" && len(trimmed) <= 200 {
		return &APIError{Message: trimmed, StatusCode: status}
	}
	return &APIError{
		Message:    fmt.Sprintf("%s (%d)", http.StatusText(status), status),
		StatusCode: status,
	}
}

func decodeResponse(resp *http.Response, payload []byte) *Response {
	out := &Response{Status: resp.StatusCode}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		out.JSON = json.RawMessage(payload)
		return out
	}
	out.Text = string(payload)
	out.Pagination = extractPagination(resp.Header)
	return out
}

// extractPagination reads the pagination header set. Any missing or
// malformed header voids the whole record.
func extractPagination(h http.Header) *Pagination {
	page, err := strconv.Atoi(h.Get(headerPage))
	if err != nil {
		return nil
	}
	limit, err := strconv.Atoi(h.Get(headerLimit))
	if err != nil {
		return nil
	}
	totalPages, err := strconv.Atoi(h.Get(headerTotalPages))
	if err != nil {
		return nil
	}
	totalTokens, err := strconv.Atoi(h.Get(headerTotalTokens))
	if err != nil {
		return nil
	}
	hasNext, ok := parseBoolHeader(h.Get(headerHasNext))
	if !ok {
		return nil
	}
	hasPrev, ok := parseBoolHeader(h.Get(headerHasPrev))
	if !ok {
		return nil
	}
	return &Pagination{
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNext:     hasNext,
		HasPrev:     hasPrev,
		TotalTokens: totalTokens,
	}
}

func parseBoolHeader(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// SearchLibraries queries the search endpoint.
func (c *Client) SearchLibraries(ctx context.Context, rc *reqctx.RequestContext, query string) (*SearchResponse, error) {
	resp, err := c.Do(ctx, rc, &Request{
		Method: http.MethodGet,
		Path:   []string{"search"},
		Query:  map[string]string{"query": query},
	})
	if err != nil {
		return nil, err
	}
	if resp.JSON == nil {
		return nil, &APIError{Message: "unexpected non-JSON search response", StatusCode: resp.Status}
	}
	var out SearchResponse
	if err := json.Unmarshal(resp.JSON, &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &out, nil
}

// FetchDocs retrieves one documentation page as text.
func (c *Client) FetchDocs(ctx context.Context, rc *reqctx.RequestContext, q DocsQuery) (*DocsText, error) {
	mode := q.Mode
	if mode == "" {
		mode = ModeCode
	}
	path := []string{"docs", mode, q.Library.Owner, q.Library.Repo}
	if q.Library.Tag != "" {
		path = append(path, q.Library.Tag)
	}

	query := map[string]string{
		"type":  "txt",
		"topic": q.Topic,
	}
	if q.Page > 0 {
		query["page"] = strconv.Itoa(q.Page)
	}
	if q.Limit > 0 {
		query["limit"] = strconv.Itoa(q.Limit)
	}

	resp, err := c.Do(ctx, rc, &Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	if resp.JSON != nil {
		// The endpoint may hand back structured data regardless of the
		// requested type; pass it through as-is.
		return &DocsText{Content: string(resp.JSON)}, nil
	}
	return &DocsText{Content: resp.Text, Pagination: resp.Pagination}, nil
}
