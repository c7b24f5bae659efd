package config_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ajayykmr/ghasedak-sms-go/internal/config"
	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KAFKA_BROKERS", "broker-a:9092")
	t.Setenv("KAFKA_SMS_REQUEST_TOPIC", "sms.request")
	t.Setenv("KAFKA_SMS_STATUS_TOPIC", "sms.status")
	t.Setenv("KAFKA_SMS_DLQ_TOPIC", "sms.dlq")
	t.Setenv("SMS_CONSUMER_GROUP", "sms-consumer")
	t.Setenv("GHASEDAK_API_KEY", "key-123")
}

func TestLoadSuccess(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9093")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("COMMIT_ON_SUCCESS_ONLY", "false")
	t.Setenv("GHASEDAK_SENDER", "30005006")
	t.Setenv("GHASEDAK_API_GENERATION", "legacy")
	t.Setenv("GHASEDAK_TEMPLATE_POLICY", "strict")
	t.Setenv("GHASEDAK_TEMPLATES", "welcome=WelcomeTpl, orderShipped=ShippedTpl")
	t.Setenv("GHASEDAK_TEMPLATE_VERIFY_CODE", "VerifyTpl")
	t.Setenv("GHASEDAK_TIMEOUT_SECONDS", "5")
	t.Setenv("GHASEDAK_LOGGING", "true")
	t.Setenv("GHASEDAK_SIMPLE_URL", "http://localhost:9999/simple")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBrokers := []string{"broker-a:9092", "broker-b:9093"}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, wantBrokers) {
		t.Fatalf("expected brokers %v, got %v", wantBrokers, cfg.Kafka.Brokers)
	}
	if cfg.App.Env != "production" || cfg.App.Port != 9000 || cfg.App.LogLevel != "warn" {
		t.Fatalf("unexpected app config: %+v", cfg.App)
	}
	if cfg.Topics.Request != "sms.request" || cfg.Topics.Status != "sms.status" || cfg.Topics.DLQ != "sms.dlq" {
		t.Fatalf("unexpected topics: %+v", cfg.Topics)
	}
	if cfg.Worker.Concurrency != 4 || cfg.Worker.CommitOnSuccessOnly {
		t.Fatalf("unexpected worker config: %+v", cfg.Worker)
	}
	if cfg.Provider.Name != config.ProviderGhasedak {
		t.Fatalf("expected ghasedak provider, got %s", cfg.Provider.Name)
	}

	g := cfg.Provider.Ghasedak
	if g.APIKey != "key-123" || g.Sender != "30005006" {
		t.Fatalf("unexpected credentials: %+v", g)
	}
	if g.Generation != ghasedak.GenerationLegacy {
		t.Fatalf("expected legacy generation, got %s", g.Generation)
	}
	if g.TemplatePolicy != ghasedak.PolicyStrict {
		t.Fatalf("expected strict policy, got %s", g.TemplatePolicy)
	}
	wantTemplates := map[string]string{
		"welcome":                   "WelcomeTpl",
		"orderShipped":              "ShippedTpl",
		ghasedak.TemplateVerifyCode: "VerifyTpl",
	}
	if !reflect.DeepEqual(g.Templates, wantTemplates) {
		t.Fatalf("expected templates %v, got %v", wantTemplates, g.Templates)
	}
	if g.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", g.Timeout)
	}
	if !g.LoggingEnabled {
		t.Fatalf("expected logging enabled")
	}
	if g.Endpoints.Simple != "http://localhost:9999/simple" {
		t.Fatalf("unexpected simple endpoint %s", g.Endpoints.Simple)
	}
	if g.Endpoints.OTP != ghasedak.DefaultEndpoints().OTP {
		t.Fatalf("expected default otp endpoint, got %s", g.Endpoints.OTP)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Env != "development" || cfg.App.Port != 8080 {
		t.Fatalf("unexpected defaults: %+v", cfg.App)
	}
	if cfg.Worker.Concurrency != 10 || !cfg.Worker.CommitOnSuccessOnly {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Worker)
	}
	g := cfg.Provider.Ghasedak
	if g.Generation != ghasedak.GenerationCurrent || g.TemplatePolicy != ghasedak.PolicyFallback {
		t.Fatalf("unexpected provider defaults: %s %s", g.Generation, g.TemplatePolicy)
	}
	if g.Timeout != 30*time.Second || g.LoggingEnabled {
		t.Fatalf("unexpected timeout/logging defaults: %s %v", g.Timeout, g.LoggingEnabled)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_SMS_REQUEST_TOPIC", "")
	t.Setenv("KAFKA_SMS_STATUS_TOPIC", "sms.status")
	t.Setenv("KAFKA_SMS_DLQ_TOPIC", "sms.dlq")
	t.Setenv("SMS_CONSUMER_GROUP", "sms-consumer")
	t.Setenv("GHASEDAK_API_KEY", "")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected error for missing required values")
	}
	for _, key := range []string{"KAFKA_BROKERS", "KAFKA_SMS_REQUEST_TOPIC", "GHASEDAK_API_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error to mention %s, got %v", key, err)
		}
	}
}

func TestLoadMockProviderDoesNotNeedKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GHASEDAK_API_KEY", "")
	t.Setenv("SMS_PROVIDER", "mock")
	t.Setenv("SMS_MOCK_SCENARIO", "permanent")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider.Name != config.ProviderMock || cfg.Provider.MockScenario != "permanent" {
		t.Fatalf("unexpected provider config: %+v", cfg.Provider)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("GHASEDAK_LOGGING", "maybe")
	t.Setenv("GHASEDAK_API_GENERATION", "v3")
	t.Setenv("GHASEDAK_TEMPLATES", "broken")
	t.Setenv("SMS_PROVIDER", "kavenegar")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"APP_PORT", "SMS_PROVIDER"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestLoadGhasedakOnly(t *testing.T) {
	t.Setenv("GHASEDAK_API_KEY", "cli-key")
	t.Setenv("GHASEDAK_TEMPLATES", "welcome=WelcomeTpl")
	t.Setenv("GHASEDAK_API_GENERATION", "v3")

	if _, err := config.LoadGhasedak(); err == nil || !strings.Contains(err.Error(), "GHASEDAK_API_GENERATION") {
		t.Fatalf("expected generation error, got %v", err)
	}

	t.Setenv("GHASEDAK_API_GENERATION", "current")
	cfg, err := config.LoadGhasedak()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "cli-key" || cfg.Templates["welcome"] != "WelcomeTpl" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
