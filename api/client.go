package api

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

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is used when no backend URL is configured
const DefaultBaseURL = "http://localhost:8000"

const defaultContentType = "application/json"

// Client is a thin JSON client for the movie backend.
// Every verb goes through the same request path so failures are normalized
// into *Error the same way regardless of method.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// RequestOptions carries the optional parts of a request
type RequestOptions struct {
	// Params is encoded into the query string. Accepts url.Values,
	// map[string]string, map[string]any (nil values dropped) or a struct
	// with go-querystring `url` tags.
	Params any
	// Data is sent as the request body, JSON-encoded unless it is
	// already a []byte or io.Reader.
	Data any
	// ContentType overrides the default application/json
	ContentType string
	// BaseURL overrides the client's base URL for this request
	BaseURL string
}

// NewClient creates a new backend client. An empty baseURL falls back to
// DefaultBaseURL with a warning.
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(baseURL) == "" {
		logger.Warn().Str("default", DefaultBaseURL).Msg("REST API URL is not set, using default")
		baseURL = DefaultBaseURL
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	var limiter *rate.Limiter
	if o.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.rateLimit), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// BaseURL returns the backend URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.do(ctx, http.MethodGet, path, opts, out)
}

// Post performs a POST request and decodes the JSON response into out
func (c *Client) Post(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.do(ctx, http.MethodPost, path, opts, out)
}

// Put performs a PUT request and decodes the JSON response into out
func (c *Client) Put(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.do(ctx, http.MethodPut, path, opts, out)
}

// Patch performs a PATCH request and decodes the JSON response into out
func (c *Client) Patch(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.do(ctx, http.MethodPatch, path, opts, out)
}

// Delete performs a DELETE request and decodes the JSON response into out
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.do(ctx, http.MethodDelete, path, opts, out)
}

// do performs the request. The returned error is always an *Error.
func (c *Client) do(ctx context.Context, method, path string, opts *RequestOptions, out any) error {
	if opts == nil {
		opts = &RequestOptions{}
	}

	requestURL, err := c.buildURL(path, opts)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("Failed to build request URL")
		return fallbackError()
	}

	body, err := encodeBody(opts.Data)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("url", requestURL).Msg("Failed to encode request body")
		return fallbackError()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("url", requestURL).Msg("Failed to create request")
		return fallbackError()
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", requestURL).
		Logger()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warn().Err(err).Msg("Rate limiter wait aborted")
			return fallbackError()
		}
	}

	logger.Debug().Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Request failed")
		return fallbackError()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Int("status", resp.StatusCode).Msg("Failed to read response body")
		return fallbackError()
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Received API response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := normalizeError(resp.StatusCode, respBody)
		logger.Error().
			Int("status", resp.StatusCode).
			Str("body", truncate(respBody, 512)).
			Str("message", apiErr.Message).
			Msg("API request returned an error")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		logger.Error().Err(err).Msg("Failed to decode response")
		return fallbackError()
	}

	return nil
}

// buildURL joins the base URL, path and encoded params
func (c *Client) buildURL(path string, opts *RequestOptions) (string, error) {
	base := c.baseURL
	if opts.BaseURL != "" {
		base = strings.TrimRight(opts.BaseURL, "/")
	}

	values, err := encodeParams(opts.Params)
	if err != nil {
		return "", err
	}

	requestURL := base + path
	if len(values) > 0 {
		requestURL += "?" + values.Encode()
	}
	return requestURL, nil
}

// encodeParams converts the supported param shapes into url.Values
func encodeParams(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return p, nil
	case map[string]string:
		values := make(url.Values, len(p))
		for k, v := range p {
			values.Set(k, v)
		}
		return values, nil
	case map[string]any:
		values := make(url.Values, len(p))
		for k, v := range p {
			if v == nil {
				continue
			}
			values.Set(k, fmt.Sprint(v))
		}
		return values, nil
	default:
		values, err := query.Values(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params: %w", err)
		}
		return values, nil
	}
}

func encodeBody(data any) (io.Reader, error) {
	switch d := data.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return d, nil
	case []byte:
		return bytes.NewReader(d), nil
	default:
		buf, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(buf), nil
	}
}

// normalizeError maps a non-2xx response onto one of the Error shapes
func normalizeError(status int, body []byte) *Error {
	if status == http.StatusUnauthorized {
		return sessionExpiredError()
	}
	if status == http.StatusServiceUnavailable {
		return fallbackError()
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallbackError()
	}

	errField, ok := payload["error"]
	if !ok || !truthy(errField) {
		return fallbackError()
	}

	return &Error{
		Message: stringify(payload["message"]),
		Err:     stringify(errField),
		Status:  status,
	}
}

// truthy reports whether a decoded JSON value counts as set
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		buf, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(buf)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
