package worker

import (
	"context"

	"github.com/ajayykmr/ghasedak-sms-go/internal/kafka/consumer"
)

// RecordCommitter commits consumer records. *consumer.Consumer satisfies it.
type RecordCommitter interface {
	Commit(ctx context.Context, record *consumer.Record) error
}

// KafkaHandler returns a consumer.Handler that converts consumer records into
// worker records bound to cons and hands them to the engine.
func KafkaHandler(engine *Engine, cons RecordCommitter) consumer.Handler {
	return func(ctx context.Context, rec *consumer.Record) error {
		if engine == nil || rec == nil {
			return nil
		}

		var commitFn func(context.Context) error
		if cons != nil {
			commitFn = func(c context.Context) error {
				return cons.Commit(c, rec)
			}
		}

		engine.HandleRecord(ctx, NewRecordFromConsumer(rec, commitFn))
		return nil
	}
}
