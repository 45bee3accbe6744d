package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process broker: what the outbox worker publishes, the
// consumer worker of the same process polls. It lets a single worker run the
// reassignment loop without Kafka.
type MemoryBus struct {
	mu           sync.Mutex
	queue        []Message
	topicByEvent map[string]string
}

func NewMemoryBus(topicByEvent map[string]string) *MemoryBus {
	return &MemoryBus{queue: []Message{}, topicByEvent: topicByEvent}
}

func (b *MemoryBus) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, Message{
		Topic:   TopicFor(eventType, b.topicByEvent),
		Key:     []byte(partitionKey),
		Payload: append([]byte(nil), payload...),
	})
	return nil
}

func (b *MemoryBus) Poll(_ context.Context, max int) ([]Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if max <= 0 {
		max = 1
	}
	n := min(max, len(b.queue))
	out := append([]Message(nil), b.queue[:n]...)
	b.queue = b.queue[n:]
	return out, nil
}

// Ack is a no-op: Poll already removed the messages.
func (b *MemoryBus) Ack(context.Context, ...Message) error { return nil }

func (b *MemoryBus) Requeue(_ context.Context, msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg.Attempts++
	b.queue = append(b.queue, msg)
	return nil
}

func (b *MemoryBus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
