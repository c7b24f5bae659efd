package models

import "time"

// Failure types for DLQ records.
const (
	FailureTypePermanent  = "permanent"
	FailureTypeTransient  = "transient"
	FailureTypeValidation = "validation"
	FailureTypeUnknown    = "unknown"
)

// DLQRecord is written once for every record that was not delivered.
type DLQRecord struct {
	MessageID       string            `json:"message_id"`
	Channel         string            `json:"channel"`
	OriginalMessage any               `json:"original_message"`
	Attempts        int               `json:"attempts"`
	FailureType     string            `json:"failure_type"`
	ErrorCode       string            `json:"error_code,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
	FailedAt        time.Time         `json:"failed_at"`
	TraceID         string            `json:"trace_id,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
}
