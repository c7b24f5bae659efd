package consumer

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

func TestBuildConfigCommitMode(t *testing.T) {
	manual := buildConfig(&options{clientID: "c"}, true)
	if manual.Consumer.Offsets.AutoCommit.Enable {
		t.Fatalf("expected auto-commit disabled when committing on success only")
	}
	auto := buildConfig(&options{clientID: "c"}, false)
	if !auto.Consumer.Offsets.AutoCommit.Enable {
		t.Fatalf("expected auto-commit enabled")
	}
}

func TestBuildConfigOptions(t *testing.T) {
	o := &options{clientID: defaultClientID}
	WithClientID("sms-worker-1")(o)
	WithOldestOffset()(o)
	cfg := buildConfig(o, true)
	if cfg.ClientID != "sms-worker-1" {
		t.Fatalf("unexpected client id %q", cfg.ClientID)
	}
	if cfg.Consumer.Offsets.Initial != sarama.OffsetOldest {
		t.Fatalf("expected oldest initial offset")
	}
}

func TestBuildConfigClonesCallerConfig(t *testing.T) {
	caller := sarama.NewConfig()
	caller.ClientID = "caller"
	cfg := buildConfig(&options{config: caller, clientID: "ours"}, true)
	if caller.ClientID != "caller" || cfg.ClientID != "ours" {
		t.Fatalf("expected caller config to stay untouched")
	}
}

func TestFromHeaders(t *testing.T) {
	headers := fromHeaders([]*sarama.RecordHeader{
		{Key: []byte("trace"), Value: []byte("abc")},
		nil,
		{Key: nil, Value: []byte("skip")},
	})
	if len(headers) != 1 || string(headers["trace"]) != "abc" {
		t.Fatalf("unexpected headers %+v", headers)
	}
	if fromHeaders(nil) != nil {
		t.Fatalf("expected nil for no headers")
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New(nil, "group", zerolog.Nop(), true); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := New([]string{"localhost:9092"}, "", zerolog.Nop(), true); err == nil {
		t.Fatalf("expected error without group id")
	}
}

func TestCommitRequiresSession(t *testing.T) {
	c := &Consumer{}
	if err := c.Commit(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil record")
	}
	if err := c.Commit(context.Background(), &Record{}); err == nil {
		t.Fatalf("expected error for record without session")
	}
}
