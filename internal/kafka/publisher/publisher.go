package publisher

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ajayykmr/ghasedak-sms-go/internal/models"
)

// ErrProducerNotInitialised is returned when a publisher has no producer.
var ErrProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

// SyncProducer captures the subset of producer behaviour required by the Kafka publishers.
type SyncProducer interface {
	PublishSync(ctx context.Context, topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// StatusPublisher emits status events to a Kafka topic using the shared producer.
type StatusPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewStatusPublisher constructs a StatusPublisher instance.
func NewStatusPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *StatusPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &StatusPublisher{producer: prod, topic: topic, logger: logger}
}

// PublishStatus writes the supplied status event to Kafka synchronously, keyed by
// message id.
func (p *StatusPublisher) PublishStatus(ctx context.Context, event models.StatusEvent) error {
	if p == nil || p.producer == nil {
		return ErrProducerNotInitialised
	}

	headers := baseHeaders(event.TraceID)
	headers["event-type"] = []byte(event.EventType)
	if err := publish(ctx, p.producer, p.topic, event.MessageID, headers, event); err != nil {
		return fmt.Errorf("kafka publisher: status event: %w", err)
	}
	p.logger.Debug().
		Str("message_id", event.MessageID).
		Str("event", event.EventType).
		Msg("status event published")
	return nil
}

// DLQPublisher writes DLQ records to the configured Kafka topic.
type DLQPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewDLQPublisher constructs a DLQPublisher instance.
func NewDLQPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *DLQPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &DLQPublisher{producer: prod, topic: topic, logger: logger}
}

// PublishDLQ writes the supplied DLQ record to Kafka synchronously.
func (p *DLQPublisher) PublishDLQ(ctx context.Context, record models.DLQRecord) error {
	if p == nil || p.producer == nil {
		return ErrProducerNotInitialised
	}

	headers := baseHeaders(record.TraceID)
	headers["failure-type"] = []byte(record.FailureType)
	if err := publish(ctx, p.producer, p.topic, record.MessageID, headers, record); err != nil {
		return fmt.Errorf("kafka publisher: dlq record: %w", err)
	}
	p.logger.Info().
		Str("message_id", record.MessageID).
		Str("failure_type", record.FailureType).
		Str("error_code", record.ErrorCode).
		Msg("dlq record published")
	return nil
}

func publish(ctx context.Context, prod SyncProducer, topic, key string, headers map[string][]byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	var k []byte
	if key != "" {
		k = []byte(key)
	}
	return prod.PublishSync(ctx, topic, k, headers, payload)
}

func baseHeaders(traceID string) map[string][]byte {
	headers := map[string][]byte{
		"content-type": []byte("application/json"),
	}
	if traceID != "" {
		headers["trace-id"] = []byte(traceID)
	}
	return headers
}
