package client

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 10 * time.Second
	// maxResponseBytes caps a response body; _per_page=-1 listings stay well below it.
	maxResponseBytes = 8 << 20
)

// HttpClient is a JSON client bound to one base URL. Outgoing requests carry
// the caller's trace context.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    http.Header
}

func NewHttpClient(baseURL string, timeout time.Duration) *HttpClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	return &HttpClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Headers:    headers,
	}
}

// Response holds a fully read body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (c *HttpClient) GET(ctx context.Context, path string, query url.Values, headers map[string]string) (*Response, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, headers)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any) (*Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, raw, nil)
}

func (c *HttpClient) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*Response, error) {
	var payload io.Reader
	if body != nil {
		payload = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header = c.Headers.Clone()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// GetErrorMessage pulls a message out of a Koha error body. Koha answers
// validation failures with an "errors" list of {message, path}.
func GetErrorMessage(resp *Response) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
			Path    string `json:"path"`
		} `json:"errors"`
	}
	if err := resp.DecodeJSON(&body); err == nil {
		switch {
		case body.Error != "":
			return body.Error
		case body.Message != "":
			return body.Message
		case len(body.Errors) > 0:
			e := body.Errors[0]
			if e.Path == "" {
				return e.Message
			}
			return e.Path + ": " + e.Message
		}
	}
	return http.StatusText(resp.StatusCode)
}
