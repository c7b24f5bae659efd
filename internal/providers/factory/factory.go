package factory

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/ghasedak-sms-go/internal/config"
	smsprovider "github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms"
	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

// SMS constructs the configured SMS provider. Supports the Ghasedak gateway and
// the mock backend.
func SMS(cfg config.ProviderConfig, logger zerolog.Logger) (smsprovider.Provider, error) {
	backend := normalize(cfg.Name, config.ProviderGhasedak)
	switch backend {
	case config.ProviderGhasedak:
		client, err := ghasedak.NewClient(cfg.Ghasedak, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: ghasedak client init: %w", err)
		}
		logger.Info().
			Str("backend", backend).
			Str("generation", string(client.Generation())).
			Msg("sms provider initialised")
		return client, nil
	case config.ProviderMock:
		provider := smsprovider.NewMockProvider(logger, smsprovider.WithScenario(smsprovider.ParseScenario(cfg.MockScenario)))
		logger.Info().
			Str("backend", backend).
			Str("scenario", cfg.MockScenario).
			Msg("sms provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported sms provider backend %q", cfg.Name)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
