package sms

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

// Scenario enumerates the mock behaviours supported by the SMS provider.
type Scenario string

const (
	ScenarioSuccess    Scenario = "success"
	ScenarioRejected   Scenario = "rejected"
	ScenarioTransient  Scenario = "transient"
	ScenarioTimeout    Scenario = "timeout"
	ScenarioSendFailed Scenario = "send_failed"
)

// ParseScenario maps a configuration value to a Scenario. Unknown values fall
// back to success.
func ParseScenario(v string) Scenario {
	switch s := Scenario(strings.ToLower(strings.TrimSpace(v))); s {
	case ScenarioRejected, ScenarioTransient, ScenarioTimeout, ScenarioSendFailed:
		return s
	default:
		return ScenarioSuccess
	}
}

type scenarioKey struct{}

// ContextWithScenario overrides the mock scenario for a single send.
func ContextWithScenario(ctx context.Context, s Scenario) context.Context {
	return context.WithValue(ctx, scenarioKey{}, s)
}

func scenarioFrom(ctx context.Context, fallback Scenario) Scenario {
	if s, ok := ctx.Value(scenarioKey{}).(Scenario); ok && s != "" {
		return s
	}
	return fallback
}

// Option customises the mock provider.
type Option func(*MockProvider)

// WithScenario sets the default scenario used when the context does not carry one.
func WithScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithLatency configures the artificial latency injected before sending.
func WithLatency(d time.Duration) Option {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithTimeoutAfter bounds how long the timeout scenario holds a send when the
// caller's context has no earlier deadline.
func WithTimeoutAfter(d time.Duration) Option {
	return func(p *MockProvider) {
		if d > 0 {
			p.timeoutAfter = d
		}
	}
}

// MockProvider is a deterministic stand-in for the Ghasedak gateway, used for
// local runs and tests.
type MockProvider struct {
	logger          zerolog.Logger
	defaultScenario Scenario
	latency         time.Duration
	timeoutAfter    time.Duration

	mu     sync.Mutex
	nextID int64
	sent   []ghasedak.SendRequest
}

// NewMockProvider constructs a mock SMS provider.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		latency:         25 * time.Millisecond,
		timeoutAfter:    2 * time.Second,
		nextID:          10_000_000,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send simulates a gateway call according to the active scenario.
func (p *MockProvider) Send(ctx context.Context, req ghasedak.SendRequest) (*ghasedak.Response, error) {
	if ghasedak.IsNilRequest(req) {
		return nil, ghasedak.NewError(ghasedak.GenerationCurrent, ghasedak.KindMethodNotFound, ghasedak.CodeMethodNotFound)
	}

	if err := p.wait(ctx); err != nil {
		return nil, mockHTTPError(0, err)
	}

	p.mu.Lock()
	p.sent = append(p.sent, req)
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	scenario := scenarioFrom(ctx, p.defaultScenario)
	p.logger.Debug().
		Str("scenario", string(scenario)).
		Str("kind", string(req.Kind())).
		Msg("sms mock send")

	switch scenario {
	case ScenarioRejected:
		de := ghasedak.NewError(ghasedak.GenerationCurrent, ghasedak.KindProviderRejected, "418")
		de.Detail = "mock: rejected"
		return nil, de
	case ScenarioTransient:
		return nil, mockHTTPError(503, nil)
	case ScenarioTimeout:
		timer := time.NewTimer(p.timeoutAfter)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, mockHTTPError(0, ctx.Err())
		case <-timer.C:
			return nil, mockHTTPError(0, context.DeadlineExceeded)
		}
	case ScenarioSendFailed:
		return nil, ghasedak.NewError(ghasedak.GenerationCurrent, ghasedak.KindSendFailed, ghasedak.CodeSendFailed)
	default:
		return &ghasedak.Response{
			Generation: ghasedak.GenerationCurrent,
			Kind:       req.Kind(),
			MessageID:  id,
			StatusCode: 200,
		}, nil
	}
}

// AccountInfo returns a fixed account snapshot.
func (p *MockProvider) AccountInfo(ctx context.Context) (*ghasedak.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, mockHTTPError(0, err)
	}
	return &ghasedak.Account{Credit: 1_000_000, PlanName: "mock", Lines: []string{"30005006"}}, nil
}

// Sent returns a copy of every request the mock has accepted.
func (p *MockProvider) Sent() []ghasedak.SendRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ghasedak.SendRequest(nil), p.sent...)
}

func mockHTTPError(status int, cause error) *ghasedak.DeliveryError {
	de := ghasedak.NewError(ghasedak.GenerationCurrent, ghasedak.KindHTTPError, ghasedak.CodeHTTPError)
	de.Status = status
	de.Err = cause
	return de
}

func (p *MockProvider) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if p.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
