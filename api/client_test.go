package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageParams struct {
	Title string `url:"Title,omitempty"`
	Page  int    `url:"page,omitempty"`
}

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("trims trailing slash", func(t *testing.T) {
		client := NewClient("http://example.com/", logger)
		assert.Equal(t, "http://example.com", client.BaseURL())
	})

	t.Run("falls back to default URL", func(t *testing.T) {
		client := NewClient("", logger)
		assert.Equal(t, DefaultBaseURL, client.BaseURL())
	})

	t.Run("with timeout", func(t *testing.T) {
		client := NewClient("http://example.com", logger, WithTimeout(5*time.Second))
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("with custom http client", func(t *testing.T) {
		custom := &http.Client{Timeout: 10 * time.Second}
		client := NewClient("http://example.com", logger, WithHTTPClient(custom))
		assert.Equal(t, custom, client.httpClient)
	})

	t.Run("with rate limit", func(t *testing.T) {
		client := NewClient("http://example.com", logger, WithRateLimit(2))
		require.NotNil(t, client.limiter)
		assert.InDelta(t, 2.0, float64(client.limiter.Limit()), 0.001)

		client = NewClient("http://example.com", logger)
		assert.Nil(t, client.limiter)
	})
}

func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/movies", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		json.NewEncoder(w).Encode(map[string]any{"page": 2, "total": 10})
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())

	var out struct {
		Page  int `json:"page"`
		Total int `json:"total"`
	}
	err := client.Get(context.Background(), "/movies", &RequestOptions{
		Params: map[string]string{"page": "2"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 10, out.Total)
}

func TestClientParams(t *testing.T) {
	tests := []struct {
		name   string
		params any
		want   string
	}{
		{
			name:   "nil params",
			params: nil,
			want:   "",
		},
		{
			name:   "map with nil value dropped",
			params: map[string]any{"Title": "Batman", "page": nil},
			want:   "Title=Batman",
		},
		{
			name:   "struct with omitempty",
			params: pageParams{Title: "Batman"},
			want:   "Title=Batman",
		},
		{
			name:   "struct with page",
			params: pageParams{Title: "Batman", Page: 3},
			want:   "Title=Batman&page=3",
		},
		{
			name:   "escapes values",
			params: map[string]string{"Title": "the dark knight"},
			want:   "Title=the+dark+knight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, zerolog.Nop())
			err := client.Get(context.Background(), "/search", &RequestOptions{Params: tt.params}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gotQuery)
		})
	}
}

func TestClientVerbsSendBody(t *testing.T) {
	verbs := []struct {
		method string
		call   func(c *Client, opts *RequestOptions, out any) error
	}{
		{http.MethodPost, func(c *Client, opts *RequestOptions, out any) error {
			return c.Post(context.Background(), "/items", opts, out)
		}},
		{http.MethodPut, func(c *Client, opts *RequestOptions, out any) error {
			return c.Put(context.Background(), "/items", opts, out)
		}},
		{http.MethodPatch, func(c *Client, opts *RequestOptions, out any) error {
			return c.Patch(context.Background(), "/items", opts, out)
		}},
		{http.MethodDelete, func(c *Client, opts *RequestOptions, out any) error {
			return c.Delete(context.Background(), "/items", opts, out)
		}},
	}

	for _, v := range verbs {
		t.Run(v.method, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, v.method, r.Method)
				body, _ := io.ReadAll(r.Body)
				assert.JSONEq(t, `{"name":"x"}`, string(body))
				w.Write(body)
			}))
			defer server.Close()

			client := NewClient(server.URL, zerolog.Nop())
			var out map[string]string
			err := v.call(client, &RequestOptions{Data: map[string]string{"name": "x"}}, &out)
			require.NoError(t, err)
			assert.Equal(t, "x", out["name"])
		})
	}
}

func TestClientContentTypeOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	err := client.Post(context.Background(), "/raw", &RequestOptions{
		Data:        []byte("hello"),
		ContentType: "text/plain",
	}, nil)
	require.NoError(t, err)
}

func TestClientBaseURLOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient("http://127.0.0.1:1", zerolog.Nop())
	var out map[string]bool
	err := client.Get(context.Background(), "/ping", &RequestOptions{BaseURL: server.URL + "/"}, &out)
	require.NoError(t, err)
	assert.True(t, out["ok"])
}

func TestClientErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *Error
	}{
		{
			name:   "401 ignores body",
			status: http.StatusUnauthorized,
			body:   `{"error":"token_expired","message":"Token is old"}`,
			want:   &Error{Message: MessageSessionExpired, Status: http.StatusUnauthorized},
		},
		{
			name:   "domain error passed through",
			status: http.StatusBadRequest,
			body:   `{"error":"invalid_page","message":"Page must be positive"}`,
			want:   &Error{Message: "Page must be positive", Err: "invalid_page", Status: http.StatusBadRequest},
		},
		{
			name:   "404 domain error",
			status: http.StatusNotFound,
			body:   `{"error":"not_found","message":"No such movie"}`,
			want:   &Error{Message: "No such movie", Err: "not_found", Status: http.StatusNotFound},
		},
		{
			name:   "503 with error field falls back",
			status: http.StatusServiceUnavailable,
			body:   `{"error":"maintenance","message":"Down"}`,
			want:   fallbackError(),
		},
		{
			name:   "body without error field falls back",
			status: http.StatusInternalServerError,
			body:   `{"message":"boom"}`,
			want:   fallbackError(),
		},
		{
			name:   "empty error field falls back",
			status: http.StatusBadRequest,
			body:   `{"error":"","message":"boom"}`,
			want:   fallbackError(),
		},
		{
			name:   "non JSON body falls back",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			want:   fallbackError(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, zerolog.Nop())

			// Every verb must normalize the same way
			for _, call := range []func() error{
				func() error { return client.Get(context.Background(), "/x", nil, nil) },
				func() error { return client.Post(context.Background(), "/x", nil, nil) },
				func() error { return client.Put(context.Background(), "/x", nil, nil) },
				func() error { return client.Patch(context.Background(), "/x", nil, nil) },
				func() error { return client.Delete(context.Background(), "/x", nil, nil) },
			} {
				err := call()
				require.Error(t, err)
				apiErr := AsError(err)
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.want, apiErr)
			}
		})
	}
}

func TestClientNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, zerolog.Nop(), WithTimeout(time.Second))
	err := client.Get(context.Background(), "/movies", nil, nil)
	require.Error(t, err)

	apiErr := AsError(err)
	require.NotNil(t, apiErr)
	assert.True(t, apiErr.IsFallback())
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, map[string]any{}, apiErr.Data)
}

func TestClientMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page": "not-a-number"`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	var out struct {
		Page int `json:"page"`
	}
	err := client.Get(context.Background(), "/movies", nil, &out)
	require.Error(t, err)
	assert.True(t, AsError(err).IsFallback())
}

func TestFallbackErrorIsFresh(t *testing.T) {
	a := fallbackError()
	a.Data["mutated"] = true
	b := fallbackError()
	assert.Empty(t, b.Data)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"session expired", sessionExpiredError(), "api error: status 401: " + MessageSessionExpired},
		{"domain", &Error{Message: "Nope", Err: "bad", Status: 400}, "api error: status 400: bad: Nope"},
		{"message only", &Error{Message: "Nope"}, "api error: Nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	assert.True(t, sessionExpiredError().IsUnauthorized())
	assert.False(t, fallbackError().IsUnauthorized())
	assert.Nil(t, AsError(io.EOF))
}
