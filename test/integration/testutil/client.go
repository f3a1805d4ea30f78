package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Client calls the bookings API and fails the test on transport errors.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

// Response keeps the drained body next to the status and headers.
type Response struct {
	*http.Response
	Body []byte
}

// DecodeData unmarshals the "data" member of the success envelope.
func (r *Response) DecodeData(t *testing.T, target any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &envelope), "envelope: %s", r.Body)
	require.NoError(t, json.Unmarshal(envelope.Data, target), "data: %s", r.Body)
}

func (c *Client) GET(t *testing.T, path string) *Response {
	t.Helper()
	return c.do(t, http.MethodGet, path, nil, nil)
}

func (c *Client) POST(t *testing.T, path string, body any) *Response {
	t.Helper()
	return c.do(t, http.MethodPost, path, body, nil)
}

func (c *Client) PUT(t *testing.T, path string, body any) *Response {
	t.Helper()
	return c.do(t, http.MethodPut, path, body, nil)
}

func (c *Client) DELETE(t *testing.T, path string) *Response {
	t.Helper()
	return c.do(t, http.MethodDelete, path, nil, nil)
}

func (c *Client) POSTWithHeaders(t *testing.T, path string, body any, headers map[string]string) *Response {
	t.Helper()
	return c.do(t, http.MethodPost, path, body, headers)
}

func (c *Client) do(t *testing.T, method, path string, body any, headers map[string]string) *Response {
	t.Helper()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, payload)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	require.NoError(t, err, "%s %s", method, path)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return &Response{Response: resp, Body: raw}
}

// WaitForReady polls /ready until the service and its stores answer.
func (c *Client) WaitForReady(t *testing.T, within time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := c.HTTPClient.Get(c.BaseURL + "/ready")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, within, 500*time.Millisecond, "service at %s not ready", c.BaseURL)
}

func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	require.Equal(t, expected, resp.StatusCode, "body: %s", resp.Body)
}

func AssertContains(t *testing.T, resp *Response, substr string) {
	t.Helper()
	require.Contains(t, string(resp.Body), substr)
}
