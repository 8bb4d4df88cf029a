package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// APIClient sends JSON requests to an http.Handler with fixed headers.
type APIClient struct {
	t       *testing.T
	handler http.Handler
	headers map[string]string
}

// NewAPIClient creates a client for handler.
func NewAPIClient(t *testing.T, handler http.Handler) *APIClient {
	return &APIClient{t: t, handler: handler, headers: map[string]string{}}
}

// WithHeader returns a copy of the client that also sends key: value.
func (c *APIClient) WithHeader(key, value string) *APIClient {
	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers[key] = value
	return &APIClient{t: c.t, handler: c.handler, headers: headers}
}

// APIResponse is a decoded response envelope.
type APIResponse struct {
	Code    int
	Header  http.Header
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// Do sends the request. body is marshalled to JSON unless nil.
func (c *APIClient) Do(method, path string, body any) *APIResponse {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err, "failed to marshal request body")
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	resp := &APIResponse{Code: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), resp), "body: %s", w.Body.String())
	}
	return resp
}

// Get sends a GET.
func (c *APIClient) Get(path string) *APIResponse {
	c.t.Helper()
	return c.Do(http.MethodGet, path, nil)
}

// Post sends a POST with a JSON body.
func (c *APIClient) Post(path string, body any) *APIResponse {
	c.t.Helper()
	return c.Do(http.MethodPost, path, body)
}

// Decode unmarshals Data into T.
func Decode[T any](t *testing.T, resp *APIResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out), "data: %s", string(resp.Data))
	return out
}

// RequireStatus fails the test unless resp has the given status.
func RequireStatus(t *testing.T, resp *APIResponse, status int) {
	t.Helper()
	if resp.Code != status {
		msg := string(resp.Data)
		if resp.Error != nil {
			msg = resp.Error.Code + ": " + resp.Error.Message
		}
		require.Equal(t, status, resp.Code, msg)
	}
}

// AssertError asserts an error envelope with the given status and code.
func AssertError(t *testing.T, resp *APIResponse, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.Code)
	assert.False(t, resp.Success)
	if assert.NotNil(t, resp.Error) {
		assert.Equal(t, code, resp.Error.Code)
	}
}
