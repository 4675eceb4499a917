package api

import (
	"net/http"
	"time"
)

// Option configures a Client
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client
type clientOptions struct {
	timeout    time.Duration
	httpClient *http.Client
	rateLimit  float64
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		timeout: 30 * time.Second,
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient uses a custom HTTP client. WithTimeout is ignored when set.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(o *clientOptions) {
		if rps >= 0 {
			o.rateLimit = rps
		}
	}
}
