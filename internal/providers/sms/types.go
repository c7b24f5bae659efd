package sms

import (
	"context"

	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
)

// Provider is the outbound SMS backend used by the adapter. Failures are
// returned as *ghasedak.DeliveryError regardless of implementation.
type Provider interface {
	Send(ctx context.Context, req ghasedak.SendRequest) (*ghasedak.Response, error)
	AccountInfo(ctx context.Context) (*ghasedak.Account, error)
}

var (
	_ Provider = (*ghasedak.Client)(nil)
	_ Provider = (*MockProvider)(nil)
)
