package ghasedak

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

func (c capturedRequest) jsonBody(t *testing.T) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(c.Body, &doc))
	return doc
}

func (c capturedRequest) form(t *testing.T) url.Values {
	t.Helper()
	values, err := url.ParseQuery(string(c.Body))
	require.NoError(t, err)
	return values
}

// fakeGateway answers every request with a fixed status and body.
type fakeGateway struct {
	*httptest.Server

	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func newFakeGateway(t *testing.T, status int, body string) *fakeGateway {
	t.Helper()
	g := &fakeGateway{status: status, body: body}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.requests = append(g.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   raw,
		})
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(g.status)
		_, _ = io.WriteString(w, g.body)
	}))
	t.Cleanup(g.Close)
	return g
}

func (g *fakeGateway) last(t *testing.T) capturedRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.requests, "gateway received no request")
	return g.requests[len(g.requests)-1]
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *fakeGateway) endpoints() Endpoints {
	return Endpoints{
		OTP:         g.URL + "/SendOtpSMS",
		Template:    g.URL + "/SendOtpWithParams",
		Simple:      g.URL + "/SendSingleSMS",
		AccountInfo: g.URL + "/GetAccountInformation",
	}
}

// countingTransport fails the test's expectations if anything reaches the network.
type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) Do(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, io.ErrUnexpectedEOF
}

func testConfig(gen Generation, endpoints Endpoints) Config {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.Sender = "30005006"
	cfg.Generation = gen
	cfg.Endpoints = endpoints
	cfg.Templates = map[string]string{
		TemplateVerifyCode: "VerifyCodeTpl",
	}
	return cfg
}

func newTestClient(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithIDGenerator(func() string { return "ref-1" })}, opts...)
	client, err := NewClient(cfg, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func requireDeliveryError(t *testing.T, err error, kind ErrorKind) *DeliveryError {
	t.Helper()
	require.Error(t, err)
	de, ok := AsDeliveryError(err)
	require.True(t, ok, "expected *DeliveryError, got %T: %v", err, err)
	require.Equal(t, kind, de.Kind, "unexpected kind: %v", err)
	return de
}
