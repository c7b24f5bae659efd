package ghasedak

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultMaxBodyBytes int64 = 64 * 1024

// roundTrip performs one HTTP exchange. It makes a single attempt; a non-2xx
// status or a transport failure becomes an http_error.
func (c *Client) roundTrip(ctx context.Context, out *outbound) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if out.body != nil {
		body = bytes.NewReader(out.body)
	}
	req, err := http.NewRequestWithContext(ctx, out.method, out.endpoint, body)
	if err != nil {
		return 0, nil, systemError(fmt.Errorf("ghasedak: new request: %w", err))
	}
	for key, values := range out.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if out.contentType != "" {
		req.Header.Set("Content-Type", out.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, httpError(0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, httpError(0, fmt.Errorf("ghasedak: read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := httpError(resp.StatusCode, nil)
		herr.Detail = string(raw)
		return resp.StatusCode, raw, herr
	}
	return resp.StatusCode, raw, nil
}
