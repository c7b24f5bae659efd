package common

import (
	"time"

	"github.com/ajayykmr/ghasedak-sms-go/internal/models"
)

// ValidatedMessage captures the canonical representation of a request after it
// has passed validation. The adapter receives it when sending, and the worker
// engine uses it to enrich status and DLQ events.
type ValidatedMessage struct {
	MessageID    string
	TraceID      string
	TenantID     string
	CreatedAt    time.Time
	Metadata     map[string]string
	Request      *models.SMSRequest
	RawPayload   []byte
	Key          []byte
	KafkaHeaders map[string][]byte
}
