package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/carelink/mission-service/internal/application"
	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOutbox struct {
	records   []ports.OutboxRecord
	published map[uuid.UUID]time.Time
	failed    map[uuid.UUID]string
}

func (f *fakeOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }

func (f *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	out := []ports.OutboxRecord{}
	for _, rec := range f.records {
		if _, ok := f.published[rec.OutboxID]; ok {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, id uuid.UUID, at time.Time) error {
	f.published[id] = at
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, msg string, _ time.Time) error {
	f.failed[id] = msg
	return nil
}

type flakyPublisher struct {
	inner  *MemoryBus
	reject string
}

func (p *flakyPublisher) Publish(ctx context.Context, eventType string, payload []byte, key string) error {
	if eventType == p.reject {
		return errors.New("broker unavailable")
	}
	return p.inner.Publish(ctx, eventType, payload, key)
}

type recordingHandler struct {
	types []string
	fail  string
}

func (h *recordingHandler) HandleCanonicalEvent(_ context.Context, eventType string, _ []byte) error {
	h.types = append(h.types, eventType)
	if eventType == h.fail {
		return errors.New("handler failed")
	}
	return nil
}

func envelope(t *testing.T, eventType string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"event_id":   uuid.NewString(),
		"event_type": eventType,
		"data":       map[string]any{"request_id": uuid.NewString()},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

func TestOutboxWorkerPublishesAndRetainsFailures(t *testing.T) {
	okID, failID := uuid.New(), uuid.New()
	outbox := &fakeOutbox{
		records: []ports.OutboxRecord{
			{OutboxID: okID, EventType: "care.request.needs_reassignment", PartitionKey: "r1", Payload: envelope(t, "care.request.needs_reassignment")},
			{OutboxID: failID, EventType: "care.mission.completed", PartitionKey: "m1", Payload: envelope(t, "care.mission.completed")},
		},
		published: map[uuid.UUID]time.Time{},
		failed:    map[uuid.UUID]string{},
	}
	bus := NewMemoryBus(map[string]string{"care.request.needs_reassignment": "care.requests"})
	worker := NewOutboxWorker(discardLogger(), outbox, &flakyPublisher{inner: bus, reject: "care.mission.completed"}, time.Second, 10)

	n, err := worker.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 published, got %d", n)
	}
	if _, ok := outbox.published[okID]; !ok {
		t.Fatalf("expected %s marked published", okID)
	}
	if outbox.failed[failID] != "broker unavailable" {
		t.Fatalf("expected failure recorded, got %q", outbox.failed[failID])
	}

	msgs, _ := bus.Poll(context.Background(), 10)
	if len(msgs) != 1 || msgs[0].Topic != "care.requests" || string(msgs[0].Key) != "r1" {
		t.Fatalf("unexpected bus contents: %+v", msgs)
	}

	n, err = worker.RunOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected failed row retried without success, n=%d err=%v", n, err)
	}
}

func TestConsumerWorkerDispatchesByEnvelopeType(t *testing.T) {
	bus := NewMemoryBus(nil)
	ctx := context.Background()
	_ = bus.Publish(ctx, "care.request.needs_reassignment", envelope(t, "care.request.needs_reassignment"), "r1")
	_ = bus.Publish(ctx, "care.mission.completed", envelope(t, "care.mission.completed"), "m1")
	_ = bus.Publish(ctx, "legacy.topic", []byte("not json"), "x")

	handler := &recordingHandler{fail: "care.mission.completed"}
	worker := NewConsumerWorker(discardLogger(), bus, handler, time.Second)

	n, err := worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 handled, got %d", n)
	}
	want := []string{"care.request.needs_reassignment", "care.mission.completed", "legacy.topic"}
	if len(handler.types) != len(want) {
		t.Fatalf("expected %v, got %v", want, handler.types)
	}
	for i := range want {
		if handler.types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, handler.types)
		}
	}
	if bus.Pending() != 1 {
		t.Fatalf("expected the failed event requeued, %d pending", bus.Pending())
	}
	msgs, _ := bus.Poll(ctx, 10)
	if len(msgs) != 1 || msgs[0].Attempts != 1 || envelopeType(msgs[0]) != "care.mission.completed" {
		t.Fatalf("unexpected requeued message: %+v", msgs)
	}
}

type flakyHandler struct {
	calls    int
	failures int
	err      error
}

func (h *flakyHandler) HandleCanonicalEvent(context.Context, string, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return h.err
	}
	return nil
}

func TestConsumerWorkerRetriesFailedEventUntilHandled(t *testing.T) {
	bus := NewMemoryBus(nil)
	ctx := context.Background()
	_ = bus.Publish(ctx, "care.request.needs_reassignment", envelope(t, "care.request.needs_reassignment"), "r1")

	handler := &flakyHandler{failures: 1, err: errors.New("database unavailable")}
	worker := NewConsumerWorker(discardLogger(), bus, handler, time.Second)

	if n, err := worker.RunOnce(ctx); err != nil || n != 0 {
		t.Fatalf("first pass: n=%d err=%v", n, err)
	}
	if bus.Pending() != 1 {
		t.Fatalf("expected reassignment event kept for retry, %d pending", bus.Pending())
	}
	if n, err := worker.RunOnce(ctx); err != nil || n != 1 {
		t.Fatalf("second pass: n=%d err=%v", n, err)
	}
	if handler.calls != 2 || bus.Pending() != 0 {
		t.Fatalf("expected 2 calls and a drained bus, calls=%d pending=%d", handler.calls, bus.Pending())
	}
}

func TestConsumerWorkerDropsAfterMaxAttempts(t *testing.T) {
	bus := NewMemoryBus(nil)
	ctx := context.Background()
	_ = bus.Publish(ctx, "care.request.needs_reassignment", envelope(t, "care.request.needs_reassignment"), "r1")

	handler := &flakyHandler{failures: 100, err: errors.New("database unavailable")}
	worker := NewConsumerWorker(discardLogger(), bus, handler, time.Second)

	for i := 0; i < 10 && bus.Pending() > 0; i++ {
		if _, err := worker.RunOnce(ctx); err != nil {
			t.Fatalf("run once: %v", err)
		}
	}
	if handler.calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", handler.calls)
	}
	if bus.Pending() != 0 {
		t.Fatalf("expected event dropped after max attempts, %d pending", bus.Pending())
	}
}

func TestConsumerWorkerDropsMalformedEventImmediately(t *testing.T) {
	bus := NewMemoryBus(nil)
	ctx := context.Background()
	_ = bus.Publish(ctx, "care.request.needs_reassignment", []byte(`{"event_type":"care.request.needs_reassignment"}`), "r1")

	handler := &flakyHandler{failures: 100, err: fmt.Errorf("%w: event_id is required", domain.ErrInvalidInput)}
	worker := NewConsumerWorker(discardLogger(), bus, handler, time.Second)

	if _, err := worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if handler.calls != 1 || bus.Pending() != 0 {
		t.Fatalf("expected a single attempt, calls=%d pending=%d", handler.calls, bus.Pending())
	}
}

func TestKafkaConsumerHoldsCommitBehindRetry(t *testing.T) {
	c := &KafkaConsumer{deferred: map[partitionKey][]kafka.Message{}}
	ctx := context.Background()
	failed := Message{Topic: "care.requests", raw: kafka.Message{Topic: "care.requests", Partition: 0, Offset: 5}}
	later := Message{Topic: "care.requests", raw: kafka.Message{Topic: "care.requests", Partition: 0, Offset: 6}}

	if err := c.Requeue(ctx, failed); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if err := c.Ack(ctx, later); err != nil {
		t.Fatalf("ack: %v", err)
	}
	held := c.deferred[partitionKey{topic: "care.requests", partition: 0}]
	if len(held) != 1 || held[0].Offset != 6 {
		t.Fatalf("expected offset 6 held behind the retry, got %+v", held)
	}

	msgs, err := c.Poll(ctx, 1)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(msgs) != 1 || msgs[0].raw.Offset != 5 || msgs[0].Attempts != 1 {
		t.Fatalf("expected the retried message first, got %+v", msgs)
	}
}

func TestLoggingPublisherForwardsWithCareFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	bus := NewMemoryBus(nil)
	ctx := context.Background()
	missionID := uuid.NewString()
	payload, err := json.Marshal(map[string]any{
		"event_id":   "evt-9",
		"event_type": "care.mission.completed",
		"data":       map[string]any{"mission_id": missionID, "status_verification": "VALIDEE"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := NewLoggingPublisher(logger, bus).Publish(ctx, "care.mission.completed", payload, "r1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if bus.Pending() != 1 {
		t.Fatalf("expected event forwarded, %d pending", bus.Pending())
	}
	for _, want := range []string{`"request_id":"r1"`, `"mission_id":"` + missionID + `"`, `"status_verification":"VALIDEE"`, `"outcome":"success"`} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %s in log, got %s", want, buf.String())
		}
	}

	failing := &flakyPublisher{inner: bus, reject: "care.mission.completed"}
	if err := NewLoggingPublisher(logger, failing).Publish(ctx, "care.mission.completed", payload, "r1"); err == nil {
		t.Fatal("expected broker error to propagate")
	}
}

func TestNoopConsumerReturnsNothing(t *testing.T) {
	msgs, err := NewNoopConsumer().Poll(context.Background(), 10)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty poll, got %v %v", msgs, err)
	}
}

func TestTopicForFallsBackToEventType(t *testing.T) {
	mapping := map[string]string{"a": "topic.a", "b": ""}
	if got := TopicFor("a", mapping); got != "topic.a" {
		t.Fatalf("expected topic.a, got %s", got)
	}
	if got := TopicFor("b", mapping); got != "b" {
		t.Fatalf("expected b, got %s", got)
	}
	if got := TopicFor("c", nil); got != "c" {
		t.Fatalf("expected c, got %s", got)
	}
}

type countingSweeper struct {
	scheduled int
	unstarted int
	ran       bool
	err       error
}

func (s *countingSweeper) RunScheduledSweep(context.Context) (bool, application.SweepReport, error) {
	s.scheduled++
	return s.ran, application.SweepReport{RequestsExpired: 1}, s.err
}

func (s *countingSweeper) ExpireUnstartedMissions(context.Context) (application.SweepReport, error) {
	s.unstarted++
	return application.SweepReport{}, nil
}

func TestSweepWorkerRunsBothPassesEvenOnFailure(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	worker := NewSweepWorker(discardLogger(), sweeper, time.Minute)
	worker.RunOnce(context.Background())
	if sweeper.scheduled != 1 || sweeper.unstarted != 1 {
		t.Fatalf("expected both passes once, got %d/%d", sweeper.scheduled, sweeper.unstarted)
	}
}

func TestSweepWorkerStopsOnCancel(t *testing.T) {
	sweeper := &countingSweeper{ran: true}
	worker := NewSweepWorker(discardLogger(), sweeper, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sweeper.scheduled != 1 {
		t.Fatalf("expected a single pass before exit, got %d", sweeper.scheduled)
	}
}
