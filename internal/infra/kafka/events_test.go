package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, fake *fakeAsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: fake,
		logger:   zaptest.NewLogger(t),
		cfg:      config.KafkaSettings{TopicPrefix: "trend-diary"},
		errChan:  make(chan error, 1),
		done:     make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "trend-diary-auth",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func int64Ptr(v int64) *int64 { return &v }

func TestPublishPolicyChanged(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	occurredAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	event := domain.PolicyChangedEvent{
		EventID:       "event-123",
		Kind:          domain.PolicyChangeRolePermissionsReplaced,
		ActorID:       int64Ptr(1),
		RoleID:        int64Ptr(7),
		PermissionIDs: []int64{3, 5},
		OccurredAt:    occurredAt,
	}

	if err := publisher.PublishPolicyChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishPolicyChanged returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "trend-diary.policy.changed" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		key, err := msg.Key.Encode()
		if err != nil {
			t.Fatalf("Key.Encode returned error: %v", err)
		}
		if string(key) != "role:7" {
			t.Fatalf("unexpected key: %s", key)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_id"]; got != "event-123" {
			t.Fatalf("unexpected event_id: %v", got)
		}
		if got := envelope["event_type"]; got != PolicyChangedEventType {
			t.Fatalf("unexpected event_type: %v", got)
		}
		if got := envelope["actor_id"]; got != float64(1) {
			t.Fatalf("unexpected actor_id: %v", got)
		}
		if got := envelope["timestamp"]; got != occurredAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected timestamp: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}
		if got := payload["kind"]; got != string(domain.PolicyChangeRolePermissionsReplaced) {
			t.Fatalf("unexpected kind: %v", got)
		}
		if got := payload["role_id"]; got != float64(7) {
			t.Fatalf("unexpected role_id: %v", got)
		}
		if _, present := payload["endpoint_id"]; present {
			t.Fatalf("endpoint_id should be omitted, got %v", payload["endpoint_id"])
		}
		ids, ok := payload["permission_ids"].([]any)
		if !ok || len(ids) != 2 {
			t.Fatalf("unexpected permission_ids: %v", payload["permission_ids"])
		}

		metadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}
		if metadata["service"] != "trend-diary-auth" {
			t.Fatalf("unexpected metadata service: %v", metadata["service"])
		}
		if metadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", metadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishPolicyChangedFillsEventID(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	err := publisher.PublishPolicyChanged(context.Background(), domain.PolicyChangedEvent{
		Kind:   domain.PolicyChangeAdminGranted,
		UserID: int64Ptr(42),
	})
	if err != nil {
		t.Fatalf("PublishPolicyChanged returned error: %v", err)
	}

	msg := <-asyncProducer.input
	key, _ := msg.Key.Encode()
	if string(key) != "user:42" {
		t.Fatalf("unexpected key: %s", key)
	}

	bytes, _ := msg.Value.Encode()
	var envelope map[string]any
	if err := json.Unmarshal(bytes, &envelope); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}
	if id, _ := envelope["event_id"].(string); len(id) != 36 {
		t.Fatalf("expected generated uuid event_id, got %v", envelope["event_id"])
	}
	if _, present := envelope["actor_id"]; present {
		t.Fatalf("system actor should be omitted")
	}
}

func TestPublishPolicyChangedHonoursContext(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	asyncProducer.input <- &sarama.ProducerMessage{}
	publisher := newTestPublisher(t, asyncProducer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishPolicyChanged(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRoleCreated})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProducerForwardsDeliveryErrors(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	producer := newProducer(asyncProducer, config.KafkaSettings{TopicPrefix: "trend-diary"}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = producer.Close() })

	deliveryErr := errors.New("broker unavailable")
	asyncProducer.errors <- &sarama.ProducerError{
		Msg: &sarama.ProducerMessage{Topic: "trend-diary.policy.changed"},
		Err: deliveryErr,
	}

	select {
	case err := <-producer.Errors():
		if !errors.Is(err, deliveryErr) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for forwarded error")
	}
}

func TestTopicName(t *testing.T) {
	cases := []struct {
		prefix    string
		eventType string
		want      string
	}{
		{"", "policy.changed", "policy.changed"},
		{"trend-diary", "policy.changed", "trend-diary.policy.changed"},
		{"trend-diary", "trend-diary.policy.changed", "trend-diary.policy.changed"},
	}

	for _, tc := range cases {
		p := &Producer{cfg: config.KafkaSettings{TopicPrefix: tc.prefix}}
		if got := p.TopicName(tc.eventType); got != tc.want {
			t.Fatalf("TopicName(%q) with prefix %q = %q, want %q", tc.eventType, tc.prefix, got, tc.want)
		}
	}
}

func TestStubPublisherLogsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	publisher := NewStubPublisher(zap.New(core))

	err := publisher.PublishPolicyChanged(context.Background(), domain.PolicyChangedEvent{
		EventID:    "event-1",
		Kind:       domain.PolicyChangeEndpointDeleted,
		EndpointID: int64Ptr(9),
	})
	if err != nil {
		t.Fatalf("PublishPolicyChanged returned error: %v", err)
	}

	entries := logs.FilterMessage("stub event published").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != string(domain.PolicyChangeEndpointDeleted) {
		t.Fatalf("unexpected kind field: %v", fields["kind"])
	}
	if fields["endpoint_id"] != int64(9) {
		t.Fatalf("unexpected endpoint_id field: %v", fields["endpoint_id"])
	}
}
