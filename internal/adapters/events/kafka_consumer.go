package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type Message struct {
	Topic    string
	Key      []byte
	Payload  []byte
	Attempts int

	raw kafka.Message
}

// Consumer delivers messages until they are acknowledged. A requeued message
// comes back from a later Poll with Attempts incremented.
type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
	Ack(ctx context.Context, msgs ...Message) error
	Requeue(ctx context.Context, msg Message) error
}

type partitionKey struct {
	topic     string
	partition int
}

// KafkaConsumer fetches without auto-commit. Offsets are committed on Ack,
// and never past a message of the same partition that is waiting for a retry.
type KafkaConsumer struct {
	reader *kafka.Reader

	mu       sync.Mutex
	retry    []Message
	deferred map[partitionKey][]kafka.Message
}

func NewKafkaConsumer(brokers []string, groupID string, topics []string) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one topic")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return &KafkaConsumer{reader: reader, deferred: map[partitionKey][]kafka.Message{}}, nil
}

func (c *KafkaConsumer) Poll(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	c.mu.Lock()
	n := min(max, len(c.retry))
	out := append(make([]Message, 0, max), c.retry[:n]...)
	c.retry = c.retry[n:]
	c.mu.Unlock()

	for len(out) < max {
		readCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		msg, err := c.reader.FetchMessage(readCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				return out, nil
			case errors.Is(err, context.Canceled):
				return out, ctx.Err()
			default:
				return out, err
			}
		}
		out = append(out, Message{
			Topic:   msg.Topic,
			Key:     msg.Key,
			Payload: msg.Value,
			raw:     msg,
		})
	}
	return out, nil
}

func (c *KafkaConsumer) Ack(ctx context.Context, msgs ...Message) error {
	c.mu.Lock()
	for _, msg := range msgs {
		k := partitionKey{topic: msg.raw.Topic, partition: msg.raw.Partition}
		c.deferred[k] = append(c.deferred[k], msg.raw)
	}
	commit := make([]kafka.Message, 0, len(msgs))
	for k, held := range c.deferred {
		low, waiting := c.lowestRetryOffset(k)
		kept := held[:0]
		for _, m := range held {
			if waiting && m.Offset > low {
				kept = append(kept, m)
				continue
			}
			commit = append(commit, m)
		}
		if len(kept) == 0 {
			delete(c.deferred, k)
		} else {
			c.deferred[k] = kept
		}
	}
	c.mu.Unlock()

	if len(commit) == 0 {
		return nil
	}
	return c.reader.CommitMessages(ctx, commit...)
}

func (c *KafkaConsumer) Requeue(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg.Attempts++
	c.retry = append(c.retry, msg)
	return nil
}

// lowestRetryOffset must be called with mu held.
func (c *KafkaConsumer) lowestRetryOffset(k partitionKey) (int64, bool) {
	var (
		low   int64
		found bool
	)
	for _, m := range c.retry {
		if m.raw.Topic != k.topic || m.raw.Partition != k.partition {
			continue
		}
		if !found || m.raw.Offset < low {
			low, found = m.raw.Offset, true
		}
	}
	return low, found
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (n *NoopConsumer) Poll(_ context.Context, _ int) ([]Message, error) {
	return nil, nil
}

func (n *NoopConsumer) Ack(context.Context, ...Message) error { return nil }

func (n *NoopConsumer) Requeue(context.Context, Message) error { return nil }
