package common

import "context"

// Adapter converts a validated message into a provider call and returns a
// normalized ProviderResponse. Failures are wrapped with ErrPermanent or
// ErrTransient.
type Adapter interface {
	Send(ctx context.Context, msg *ValidatedMessage) (*ProviderResponse, error)
}
