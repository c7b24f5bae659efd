package sms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

func verifyRequest() ghasedak.TemplateSend {
	return ghasedak.TemplateSend{Recipient: "09123456789", TemplateKey: "phoneVerifyCode", Parameters: []string{"1234"}}
}

func TestMockProviderSuccess(t *testing.T) {
	provider := NewMockProvider(zerolog.Nop(), WithLatency(0))

	first, err := provider.Send(context.Background(), verifyRequest())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	second, err := provider.Send(context.Background(), ghasedak.SimpleSend{Recipient: "09123456789", Message: "hi"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if first.MessageID <= 0 || second.MessageID <= first.MessageID {
		t.Fatalf("expected increasing message ids, got %d then %d", first.MessageID, second.MessageID)
	}
	if second.Kind != ghasedak.KindSimple {
		t.Fatalf("unexpected kind %q", second.Kind)
	}
	if got := len(provider.Sent()); got != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", got)
	}
}

func TestMockProviderScenarioFromContext(t *testing.T) {
	provider := NewMockProvider(zerolog.Nop(), WithLatency(0))

	tests := []struct {
		scenario Scenario
		kind     ghasedak.ErrorKind
	}{
		{ScenarioRejected, ghasedak.KindProviderRejected},
		{ScenarioTransient, ghasedak.KindHTTPError},
		{ScenarioSendFailed, ghasedak.KindSendFailed},
	}
	for _, tt := range tests {
		_, err := provider.Send(ContextWithScenario(context.Background(), tt.scenario), verifyRequest())
		de, ok := ghasedak.AsDeliveryError(err)
		if !ok {
			t.Fatalf("%s: expected delivery error, got %v", tt.scenario, err)
		}
		if de.Kind != tt.kind {
			t.Fatalf("%s: expected kind %s, got %s", tt.scenario, tt.kind, de.Kind)
		}
	}
}

func TestMockProviderTimeoutScenario(t *testing.T) {
	provider := NewMockProvider(zerolog.Nop(), WithLatency(0), WithScenario(ScenarioTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := provider.Send(ctx, verifyRequest())
	de, ok := ghasedak.AsDeliveryError(err)
	if !ok || de.Kind != ghasedak.KindHTTPError || de.Status != 0 {
		t.Fatalf("expected http error without status, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestMockProviderCancelledBeforeSend(t *testing.T) {
	provider := NewMockProvider(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Send(ctx, verifyRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if _, ok := ghasedak.AsDeliveryError(err); !ok {
		t.Fatalf("expected delivery error, got %T", err)
	}
	if len(provider.Sent()) != 0 {
		t.Fatalf("cancelled send must not be recorded")
	}
}

func TestMockProviderTimeoutScenarioIsBounded(t *testing.T) {
	provider := NewMockProvider(zerolog.Nop(), WithLatency(0), WithScenario(ScenarioTimeout), WithTimeoutAfter(20*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		_, err := provider.Send(context.Background(), verifyRequest())
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded in chain, got %v", err)
		}
		if de, ok := ghasedak.AsDeliveryError(err); !ok || de.Kind != ghasedak.KindHTTPError {
			t.Fatalf("expected http error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout scenario did not return without a context deadline")
	}
}

func TestMockProviderTypedNilRequest(t *testing.T) {
	provider := NewMockProvider(zerolog.Nop(), WithLatency(0))

	var req *ghasedak.SimpleSend
	_, err := provider.Send(context.Background(), req)
	de, ok := ghasedak.AsDeliveryError(err)
	if !ok || de.Kind != ghasedak.KindMethodNotFound {
		t.Fatalf("expected method not found, got %v", err)
	}
	if len(provider.Sent()) != 0 {
		t.Fatalf("nil request must not be recorded")
	}
}

func TestMockProviderAccountInfo(t *testing.T) {
	acct, err := NewMockProvider(zerolog.Nop()).AccountInfo(context.Background())
	if err != nil || acct.Credit <= 0 {
		t.Fatalf("unexpected account info %+v %v", acct, err)
	}
}

func TestParseScenario(t *testing.T) {
	if ParseScenario(" Transient ") != ScenarioTransient {
		t.Fatalf("expected transient scenario")
	}
	if ParseScenario("bogus") != ScenarioSuccess {
		t.Fatalf("expected fallback to success")
	}
}
