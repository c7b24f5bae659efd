package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

// Provider backends selectable with SMS_PROVIDER.
const (
	ProviderGhasedak = "ghasedak"
	ProviderMock     = "mock"
)

// Config captures all runtime configuration for the SMS worker.
type Config struct {
	App        AppConfig
	Kafka      KafkaConfig
	Topics     TopicConfig
	Worker     WorkerConfig
	Validation ValidationConfig
	Provider   ProviderConfig
	Health     HealthConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// KafkaConfig defines broker information.
type KafkaConfig struct {
	Brokers []string
}

// TopicConfig names the request, status and DLQ topics of the SMS channel.
type TopicConfig struct {
	Request string
	Status  string
	DLQ     string
}

// WorkerConfig controls how records are consumed. Every record gets exactly one
// send attempt.
type WorkerConfig struct {
	ConsumerGroup       string
	Concurrency         int
	CommitOnSuccessOnly bool
}

// ValidationConfig holds the limits used while validating inbound requests.
type ValidationConfig struct {
	MsgMaxBytes       int
	RecipientsMax     int
	BodyMax           int
	TemplateParamsMax int
	MetaMaxEntries    int
	MetaMaxKeyLen     int
	MetaMaxValueLen   int
}

// ProviderConfig selects the SMS backend.
type ProviderConfig struct {
	Name         string
	MockScenario string
	Ghasedak     ghasedak.Config
}

// HealthConfig controls the ops server probes.
type HealthConfig struct {
	CheckTimeoutMs      int
	EnableProviderProbe bool
}

// Load reads .env and the environment, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", true)

	cfg.Topics = TopicConfig{
		Request: ldr.getString("KAFKA_SMS_REQUEST_TOPIC", "", true),
		Status:  ldr.getString("KAFKA_SMS_STATUS_TOPIC", "", true),
		DLQ:     ldr.getString("KAFKA_SMS_DLQ_TOPIC", "", true),
	}

	cfg.Worker.ConsumerGroup = ldr.getString("SMS_CONSUMER_GROUP", "", true)
	cfg.Worker.Concurrency = ldr.getInt("WORKER_CONCURRENCY", 10, false)
	cfg.Worker.CommitOnSuccessOnly = ldr.getBool("COMMIT_ON_SUCCESS_ONLY", true, false)
	if cfg.Worker.Concurrency <= 0 {
		ldr.addError("WORKER_CONCURRENCY must be positive")
	}

	cfg.Validation.MsgMaxBytes = ldr.getInt("MSG_MAX_BYTES", 200000, false)
	cfg.Validation.RecipientsMax = ldr.getInt("SMS_RECIPIENTS_MAX", 10, false)
	cfg.Validation.BodyMax = ldr.getInt("SMS_BODY_MAX", 1600, false)
	cfg.Validation.TemplateParamsMax = ldr.getInt("SMS_TEMPLATE_PARAMS_MAX", 10, false)
	cfg.Validation.MetaMaxEntries = ldr.getInt("META_MAX_ENTRIES", 20, false)
	cfg.Validation.MetaMaxKeyLen = ldr.getInt("META_MAX_KEY_LEN", 64, false)
	cfg.Validation.MetaMaxValueLen = ldr.getInt("META_MAX_VALUE_LEN", 256, false)

	cfg.Provider.Name = strings.ToLower(ldr.getString("SMS_PROVIDER", ProviderGhasedak, false))
	cfg.Provider.MockScenario = ldr.getString("SMS_MOCK_SCENARIO", "success", false)
	switch cfg.Provider.Name {
	case ProviderGhasedak:
		cfg.Provider.Ghasedak = loadGhasedak(ldr, true)
	case ProviderMock:
		cfg.Provider.Ghasedak = loadGhasedak(ldr, false)
	default:
		ldr.addError(fmt.Sprintf("SMS_PROVIDER must be %q or %q", ProviderGhasedak, ProviderMock))
	}

	cfg.Health.CheckTimeoutMs = ldr.getInt("HEALTH_CHECK_TIMEOUT_MS", 2000, false)
	cfg.Health.EnableProviderProbe = ldr.getBool("HEALTH_ENABLE_PROVIDER_PROBE", false, false)

	if err := ldr.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadGhasedak reads only the GHASEDAK_* section. The API key is required.
func LoadGhasedak() (ghasedak.Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}
	cfg := loadGhasedak(ldr, true)
	if err := ldr.validate(); err != nil {
		return ghasedak.Config{}, err
	}
	return cfg, nil
}

func loadGhasedak(ldr *envLoader, keyRequired bool) ghasedak.Config {
	cfg := ghasedak.DefaultConfig()
	cfg.APIKey = ldr.getString("GHASEDAK_API_KEY", "", keyRequired)
	cfg.Sender = ldr.getString("GHASEDAK_SENDER", "", false)
	cfg.LoggingEnabled = ldr.getBool("GHASEDAK_LOGGING", false, false)
	cfg.Timeout = time.Duration(ldr.getInt("GHASEDAK_TIMEOUT_SECONDS", int(ghasedak.DefaultTimeout/time.Second), false)) * time.Second

	gen, err := ghasedak.ParseGeneration(ldr.getString("GHASEDAK_API_GENERATION", string(ghasedak.GenerationCurrent), false))
	if err != nil {
		ldr.addError("GHASEDAK_API_GENERATION must be current or legacy")
	}
	cfg.Generation = gen

	policy, err := ghasedak.ParseTemplatePolicy(ldr.getString("GHASEDAK_TEMPLATE_POLICY", string(ghasedak.PolicyFallback), false))
	if err != nil {
		ldr.addError("GHASEDAK_TEMPLATE_POLICY must be fallback or strict")
	}
	cfg.TemplatePolicy = policy

	cfg.Templates = ldr.getPairs("GHASEDAK_TEMPLATES")
	if name := ldr.getString("GHASEDAK_TEMPLATE_VERIFY_CODE", "", false); name != "" {
		cfg.Templates[ghasedak.TemplateVerifyCode] = name
	}
	if name := ldr.getString("GHASEDAK_TEMPLATE_ORDER_CONFIRMED", "", false); name != "" {
		cfg.Templates[ghasedak.TemplateOrderConfirmed] = name
	}

	cfg.Endpoints.OTP = ldr.getString("GHASEDAK_OTP_URL", cfg.Endpoints.OTP, false)
	cfg.Endpoints.Template = ldr.getString("GHASEDAK_TEMPLATE_URL", cfg.Endpoints.Template, false)
	cfg.Endpoints.Simple = ldr.getString("GHASEDAK_SIMPLE_URL", cfg.Endpoints.Simple, false)
	cfg.Endpoints.AccountInfo = ldr.getString("GHASEDAK_ACCOUNT_INFO_URL", cfg.Endpoints.AccountInfo, false)
	return cfg
}

// envLoader reads typed values from the environment and collects every problem
// so Load can report them together.
type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

// lookup returns the trimmed value of key and whether it is set and non-empty.
func (l *envLoader) lookup(key string, required bool) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if required {
			l.addError(fmt.Sprintf("%s is required", key))
		}
		return "", false
	}
	return val, true
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := l.lookup(key, required); ok {
		return val
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid boolean", key))
		return def
	}
	return parsed
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	val, _ := l.lookup(key, required)
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if required && val != "" && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

// getPairs parses "key=value,key=value".
func (l *envLoader) getPairs(key string) map[string]string {
	out := map[string]string{}
	for _, entry := range l.getStringSlice(key, false) {
		k, v, found := strings.Cut(entry, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !found || k == "" || v == "" {
			l.addError(fmt.Sprintf("%s entry %q must look like key=name", key, entry))
			continue
		}
		out[k] = v
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
