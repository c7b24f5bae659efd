package models

import "time"

// Status event types. A record produces queued, attempt and then exactly one of
// sent or failed.
const (
	StatusEventQueued  = "queued"
	StatusEventAttempt = "attempt"
	StatusEventSent    = "sent"
	StatusEventFailed  = "failed"
)

// ProviderResponse is the normalized provider outcome carried on status events.
type ProviderResponse struct {
	Status    string            `json:"status"`
	Code      *int              `json:"code,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Raw       string            `json:"raw,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// StatusEvent represents a lifecycle event emitted for an outbound message.
type StatusEvent struct {
	MessageID        string            `json:"message_id"`
	Channel          string            `json:"channel"`
	EventType        string            `json:"event_type"`
	Attempt          int               `json:"attempt,omitempty"`
	ProviderResponse *ProviderResponse `json:"provider_response,omitempty"`
	Error            string            `json:"error,omitempty"`
	TraceID          string            `json:"trace_id,omitempty"`
	TenantID         string            `json:"tenant_id,omitempty"`
	DurationMs       int64             `json:"duration_ms,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}
