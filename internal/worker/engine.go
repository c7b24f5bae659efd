package worker

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	common "github.com/ajayykmr/ghasedak-sms-go/internal/adapters/common"
	"github.com/ajayykmr/ghasedak-sms-go/internal/metrics"
	"github.com/ajayykmr/ghasedak-sms-go/internal/models"
	"github.com/ajayykmr/ghasedak-sms-go/internal/util"
)

const (
	// deliveryAttempt is the only attempt number a record ever reaches; a failed
	// send is reported, never repeated.
	deliveryAttempt = 1

	defaultPublishGrace = 5 * time.Second
)

// Config contains the runtime settings of the worker engine.
type Config struct {
	Channel           string
	MsgMaxBytes       int
	WorkerConcurrency int
	// PublishGrace bounds status and DLQ publishing after the processing
	// context has been cancelled mid-send.
	PublishGrace time.Duration
}

// CommitFunc commits the offset of a processed record.
type CommitFunc func(ctx context.Context, record *Record) error

// Commit implements Committer.
func (f CommitFunc) Commit(ctx context.Context, record *Record) error {
	if f == nil {
		return nil
	}
	return f(ctx, record)
}

// Record represents a Kafka message delivered to the worker, decoupled from the
// concrete consumer implementation.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	commit func(context.Context) error
}

func (r *Record) setCommitFn(fn func(context.Context) error) {
	r.commit = fn
}

// Clone returns a deep copy of the record so it can be safely shared with
// asynchronous goroutines. The bound commit function is shared.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	clone := *r
	clone.Key = cloneBytes(r.Key)
	clone.Value = cloneBytes(r.Value)
	if len(r.Headers) > 0 {
		clone.Headers = cloneHeaders(r.Headers)
	}
	return &clone
}

// Validator parses and validates inbound Kafka records. On failure the returned
// message may be nil or partially populated.
type Validator interface {
	ParseAndValidate(ctx context.Context, payload []byte) (*common.ValidatedMessage, error)
}

// StatusPublisher publishes lifecycle updates for a message.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event models.StatusEvent) error
}

// DLQPublisher writes failed messages to the DLQ topic.
type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record models.DLQRecord) error
}

// Committer commits Kafka offsets for records without a bound commit function.
type Committer interface {
	Commit(ctx context.Context, record *Record) error
}

// Dependencies collects the runtime collaborators required by the engine.
type Dependencies struct {
	Adapter         common.Adapter
	Validator       Validator
	StatusPublisher StatusPublisher
	DLQPublisher    DLQPublisher
	Committer       Committer
	Logger          zerolog.Logger
	Now             func() time.Time
}

// Engine validates inbound records, performs exactly one provider call for each
// valid record, emits status and DLQ events and commits offsets.
type Engine struct {
	cfg             Config
	adapter         common.Adapter
	validator       Validator
	statusPublisher StatusPublisher
	dlqPublisher    DLQPublisher
	committer       Committer
	logger          zerolog.Logger

	semaphore *semaphore.Weighted
	inflight  sync.WaitGroup

	now func() time.Time
}

// NewEngine constructs a worker engine using the supplied configuration and
// collaborators.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if cfg.Channel == "" {
		return nil, errors.New("worker: channel must be provided")
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, errors.New("worker: worker concurrency must be >= 1")
	}
	if cfg.MsgMaxBytes < 0 {
		return nil, errors.New("worker: msg max bytes cannot be negative")
	}
	if cfg.PublishGrace <= 0 {
		cfg.PublishGrace = defaultPublishGrace
	}
	if deps.Adapter == nil {
		return nil, errors.New("worker: adapter dependency is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("worker: validator dependency is required")
	}
	if deps.StatusPublisher == nil {
		return nil, errors.New("worker: status publisher dependency is required")
	}
	if deps.DLQPublisher == nil {
		return nil, errors.New("worker: DLQ publisher dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Engine{
		cfg:             cfg,
		adapter:         deps.Adapter,
		validator:       deps.Validator,
		statusPublisher: deps.StatusPublisher,
		dlqPublisher:    deps.DLQPublisher,
		committer:       deps.Committer,
		logger:          logger.With().Str("component", "worker_engine").Logger(),
		semaphore:       semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
		now:             nowFunc,
	}, nil
}

// HandleRecord checks the record size, validates the payload and dispatches
// processing on a bounded goroutine pool. Invalid records are reported and
// committed synchronously.
func (e *Engine) HandleRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}

	if err := util.EnsureMaxBytes("payload", record.Value, e.cfg.MsgMaxBytes); err != nil {
		e.rejectRecord(ctx, record, e.partialMessageFromRecord(record), err)
		return
	}

	validated, err := e.validator.ParseAndValidate(ctx, record.Value)
	if err != nil {
		if validated == nil {
			validated = e.partialMessageFromRecord(record)
		}
		e.fillFromRecord(validated, record)
		e.rejectRecord(ctx, record, validated, err)
		return
	}
	e.fillFromRecord(validated, record)

	if err := e.semaphore.Acquire(ctx, 1); err != nil {
		e.logger.Error().
			Str("message_id", validated.MessageID).
			Err(err).
			Msg("worker: failed to acquire concurrency semaphore")
		return
	}

	e.inflight.Add(1)
	metrics.IncInFlight()
	go e.processRecord(ctx, record.Clone(), validated)
}

// Wait blocks until every dispatched record has finished or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) rejectRecord(ctx context.Context, record *Record, msg *common.ValidatedMessage, err error) {
	e.logger.Warn().
		Str("message_id", msg.MessageID).
		Str("topic", record.Topic).
		Int64("offset", record.Offset).
		Err(err).
		Msg("worker: record rejected by validation")

	now := e.now()
	e.publishStatus(ctx, msg, models.StatusEvent{EventType: models.StatusEventFailed, Error: err.Error(), Timestamp: now})
	e.publishDLQ(ctx, msg, models.DLQRecord{FailureType: models.FailureTypeValidation, LastError: err.Error(), FailedAt: now})
	e.commitRecord(ctx, record)
	metrics.RecordRecord(models.StatusEventFailed)
}

func (e *Engine) processRecord(ctx context.Context, record *Record, msg *common.ValidatedMessage) {
	defer func() {
		e.semaphore.Release(1)
		metrics.DecInFlight()
		e.inflight.Done()
	}()

	log := e.logger.With().
		Str("message_id", msg.MessageID).
		Str("trace_id", msg.TraceID).
		Logger()

	if ctx.Err() != nil {
		log.Warn().Msg("worker: context cancelled before send; record left for redelivery")
		return
	}

	e.publishStatus(ctx, msg, models.StatusEvent{EventType: models.StatusEventQueued})
	e.publishStatus(ctx, msg, models.StatusEvent{EventType: models.StatusEventAttempt, Attempt: deliveryAttempt})

	start := e.now()
	providerResp, err := e.adapter.Send(ctx, msg)
	duration := e.now().Sub(start)

	// Once the provider has been called the record is always finalised and
	// committed, even when ctx was cancelled during the send.
	finalCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		finalCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), e.cfg.PublishGrace)
		defer cancel()
	}

	if err == nil {
		log.Info().Dur("duration", duration).Msg("worker: message sent")
		e.publishStatus(finalCtx, msg, models.StatusEvent{
			EventType:        models.StatusEventSent,
			Attempt:          deliveryAttempt,
			ProviderResponse: toModelResponse(providerResp),
			DurationMs:       duration.Milliseconds(),
		})
		e.commitRecord(finalCtx, record)
		metrics.RecordRecord(models.StatusEventSent)
		return
	}

	failureType := classifyFailure(err)
	log.Warn().
		Str("failure_type", failureType).
		Dur("duration", duration).
		Err(err).
		Msg("worker: send failed")

	now := e.now()
	resp := toModelResponse(providerResp)
	e.publishStatus(finalCtx, msg, models.StatusEvent{
		EventType:        models.StatusEventFailed,
		Attempt:          deliveryAttempt,
		ProviderResponse: resp,
		Error:            err.Error(),
		DurationMs:       duration.Milliseconds(),
		Timestamp:        now,
	})
	dlq := models.DLQRecord{
		FailureType: failureType,
		Attempts:    deliveryAttempt,
		LastError:   err.Error(),
		FailedAt:    now,
	}
	if resp != nil {
		dlq.ErrorCode = resp.ErrorCode
	}
	e.publishDLQ(finalCtx, msg, dlq)
	e.commitRecord(finalCtx, record)
	metrics.RecordRecord(models.StatusEventFailed)
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, common.ErrPermanent):
		return models.FailureTypePermanent
	case errors.Is(err, common.ErrTransient), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.FailureTypeTransient
	default:
		return models.FailureTypeUnknown
	}
}

func (e *Engine) publishStatus(ctx context.Context, msg *common.ValidatedMessage, event models.StatusEvent) {
	if msg == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	event.MessageID = msg.MessageID
	event.Channel = e.cfg.Channel
	event.TraceID = msg.TraceID
	event.TenantID = msg.TenantID

	if err := e.statusPublisher.PublishStatus(ctx, event); err != nil {
		e.logger.Error().
			Str("message_id", msg.MessageID).
			Str("event", event.EventType).
			Err(err).
			Msg("worker: failed to publish status event")
	}
}

func (e *Engine) publishDLQ(ctx context.Context, msg *common.ValidatedMessage, record models.DLQRecord) {
	if msg == nil {
		return
	}
	if record.FailedAt.IsZero() {
		record.FailedAt = e.now()
	}
	record.MessageID = msg.MessageID
	record.Channel = e.cfg.Channel
	record.TraceID = msg.TraceID
	record.Meta = msg.Metadata
	record.OriginalMessage = originalMessage(msg.RawPayload)

	if err := e.dlqPublisher.PublishDLQ(ctx, record); err != nil {
		e.logger.Error().
			Str("message_id", msg.MessageID).
			Err(err).
			Msg("worker: failed to publish DLQ record")
	}
}

func (e *Engine) commitRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}
	var err error
	switch {
	case record.commit != nil:
		err = record.commit(ctx)
	case e.committer != nil:
		err = e.committer.Commit(ctx, record)
	default:
		return
	}
	if err != nil {
		e.logger.Error().
			Str("topic", record.Topic).
			Int32("partition", record.Partition).
			Int64("offset", record.Offset).
			Err(err).
			Msg("worker: failed to commit record offset")
	}
}

func (e *Engine) fillFromRecord(msg *common.ValidatedMessage, record *Record) {
	if msg.MessageID == "" {
		msg.MessageID = string(record.Key)
	}
	if len(msg.RawPayload) == 0 {
		msg.RawPayload = cloneBytes(record.Value)
	}
	if len(msg.Key) == 0 {
		msg.Key = cloneBytes(record.Key)
	}
	if len(msg.KafkaHeaders) == 0 && len(record.Headers) > 0 {
		msg.KafkaHeaders = cloneHeaders(record.Headers)
	}
	if msg.TraceID == "" {
		if trace, ok := record.Headers["trace-id"]; ok {
			msg.TraceID = string(trace)
		}
	}
}

func (e *Engine) partialMessageFromRecord(record *Record) *common.ValidatedMessage {
	return &common.ValidatedMessage{
		MessageID:    string(record.Key),
		RawPayload:   cloneBytes(record.Value),
		Key:          cloneBytes(record.Key),
		KafkaHeaders: cloneHeaders(record.Headers),
	}
}

func toModelResponse(resp *common.ProviderResponse) *models.ProviderResponse {
	if resp == nil {
		return nil
	}
	return &models.ProviderResponse{
		Status:    resp.Status,
		Code:      resp.Code,
		ErrorCode: resp.ErrorCode,
		Message:   resp.Message,
		Raw:       resp.Raw,
		Meta:      resp.Meta,
	}
}

// originalMessage embeds JSON payloads as-is and anything else as a string.
func originalMessage(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(cloneBytes(raw))
	}
	return string(raw)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return clone
}

func cloneHeaders(headers map[string][]byte) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	clone := make(map[string][]byte, len(headers))
	for k, v := range headers {
		clone[k] = cloneBytes(v)
	}
	return clone
}
