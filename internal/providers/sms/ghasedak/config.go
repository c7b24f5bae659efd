package ghasedak

import (
	"fmt"
	"strings"
	"time"
)

// Generation selects which of the two provider API contracts the client speaks.
type Generation string

const (
	// GenerationCurrent is the JSON gateway (IsSuccess/Data envelopes, ApiKey header).
	GenerationCurrent Generation = "current"
	// GenerationLegacy is the form-encoded API (result/messageids, apikey header).
	GenerationLegacy Generation = "legacy"
)

// ParseGeneration accepts "current" or "legacy"; empty means current.
func ParseGeneration(value string) (Generation, error) {
	switch Generation(strings.ToLower(strings.TrimSpace(value))) {
	case "", GenerationCurrent:
		return GenerationCurrent, nil
	case GenerationLegacy:
		return GenerationLegacy, nil
	default:
		return "", fmt.Errorf("ghasedak: unsupported api generation %q", value)
	}
}

// TemplatePolicy decides what happens when a template key has no configured name.
type TemplatePolicy string

const (
	// PolicyFallback sends the key itself as the provider template name.
	PolicyFallback TemplatePolicy = "fallback"
	// PolicyStrict fails with KindTemplateNotFound.
	PolicyStrict TemplatePolicy = "strict"
)

// ParseTemplatePolicy accepts "fallback" or "strict"; empty means fallback.
func ParseTemplatePolicy(value string) (TemplatePolicy, error) {
	switch TemplatePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyFallback:
		return PolicyFallback, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("ghasedak: unsupported template policy %q", value)
	}
}

const (
	DefaultBaseURL = "https://gateway.ghasedak.me/rest/api/v1/WebService"
	DefaultTimeout = 30 * time.Second
)

// Endpoints lists the provider URLs. The legacy generation posts forms to the
// Template and Simple URLs.
type Endpoints struct {
	OTP         string
	Template    string
	Simple      string
	AccountInfo string
}

// DefaultEndpoints returns the production gateway URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		OTP:         DefaultBaseURL + "/SendOtpSMS",
		Template:    DefaultBaseURL + "/SendOtpWithParams",
		Simple:      DefaultBaseURL + "/SendSingleSMS",
		AccountInfo: DefaultBaseURL + "/GetAccountInformation",
	}
}

// Config is the provider configuration. NewClient copies it, so later changes by
// the caller have no effect on a running client.
type Config struct {
	APIKey         string
	Sender         string
	Templates      map[string]string
	Generation     Generation
	TemplatePolicy TemplatePolicy
	Endpoints      Endpoints
	Timeout        time.Duration
	LoggingEnabled bool
}

// DefaultConfig returns a configuration with production endpoints and no key.
func DefaultConfig() Config {
	return Config{
		Templates:      map[string]string{},
		Generation:     GenerationCurrent,
		TemplatePolicy: PolicyFallback,
		Endpoints:      DefaultEndpoints(),
		Timeout:        DefaultTimeout,
	}
}

func (c Config) normalized() (Config, error) {
	gen, err := ParseGeneration(string(c.Generation))
	if err != nil {
		return Config{}, err
	}
	policy, err := ParseTemplatePolicy(string(c.TemplatePolicy))
	if err != nil {
		return Config{}, err
	}

	out := c
	out.APIKey = strings.TrimSpace(c.APIKey)
	out.Sender = strings.TrimSpace(c.Sender)
	out.Generation = gen
	out.TemplatePolicy = policy
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}

	defaults := DefaultEndpoints()
	if strings.TrimSpace(out.Endpoints.OTP) == "" {
		out.Endpoints.OTP = defaults.OTP
	}
	if strings.TrimSpace(out.Endpoints.Template) == "" {
		out.Endpoints.Template = defaults.Template
	}
	if strings.TrimSpace(out.Endpoints.Simple) == "" {
		out.Endpoints.Simple = defaults.Simple
	}
	if strings.TrimSpace(out.Endpoints.AccountInfo) == "" {
		out.Endpoints.AccountInfo = defaults.AccountInfo
	}

	out.Templates = make(map[string]string, len(c.Templates))
	for key, name := range c.Templates {
		out.Templates[strings.TrimSpace(key)] = strings.TrimSpace(name)
	}
	return out, nil
}

// ResolveTemplate maps a logical key to the provider template name according to
// the configured policy.
func (c Config) ResolveTemplate(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", templateNotFound(key)
	}
	if name := c.Templates[key]; name != "" {
		return name, nil
	}
	if c.TemplatePolicy == PolicyStrict {
		return "", templateNotFound(key)
	}
	return key, nil
}
