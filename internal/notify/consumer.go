package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// defaultMaxRetries is the number of delivery attempts before an event is
// routed to the DLQ when the config does not say otherwise.
const defaultMaxRetries = 3

// Consumer reads Events from the notify outbox topic and dispatches them via
// a Sender. It commits Kafka offsets only after a terminal outcome, giving
// at-least-once delivery semantics.
//
// On repeated failure an event is forwarded to the DLQ topic so the consumer
// can keep making progress without losing the problematic record. Duplicate
// texts are acceptable; silent misses are not, so producers use stable IDs
// and the sender logs them.
type Consumer struct {
	reader     *kafka.Reader
	dlq        *kafka.Writer
	sender     Sender
	maxRetries int
}

// ConsumerConfig names the Kafka endpoints a Consumer uses. MaxRetries
// bounds delivery attempts per event; zero means the default of 3.
type ConsumerConfig struct {
	Brokers    []string
	Topic      string
	DLQTopic   string
	GroupID    string
	MaxRetries int
}

// NewConsumer creates a Consumer connected to the given Kafka brokers.
func NewConsumer(cfg ConsumerConfig, sender Sender) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       1 << 20, // 1 MiB
		CommitInterval: 0,       // explicit commits only
		StartOffset:    kafka.LastOffset,
	})

	dlq := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &Consumer{
		reader:     reader,
		dlq:        dlq,
		sender:     sender,
		maxRetries: retries,
	}
}

// Run blocks, consuming events until ctx is cancelled.
// It logs each attempt and handles retries + DLQ routing internally.
func (c *Consumer) Run(ctx context.Context) error {
	log.Printf("notify-sender: consuming from topic %q", c.reader.Config().Topic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Clean shutdown.
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if err := c.dispatch(ctx, m); err != nil {
			// dispatch already logged the error and sent to DLQ.
			// We still commit so the consumer does not get stuck.
			log.Printf("notify-sender: routed event key=%s to DLQ: %v", string(m.Key), err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Printf("notify-sender: commit failed (event may be redelivered): %v", err)
		}
	}
}

// Close releases all Kafka resources.
func (c *Consumer) Close() error {
	rerr := c.reader.Close()
	werr := c.dlq.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// dispatch attempts to send the event up to maxRetries times with exponential
// backoff. If all attempts fail it writes the raw Kafka message to the DLQ.
func (c *Consumer) dispatch(ctx context.Context, m kafka.Message) error {
	var ev Event
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		return c.sendToDLQ(ctx, m, fmt.Errorf("unmarshal: %w", err))
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.sender.Send(ctx, ev)
		if lastErr == nil {
			log.Printf("notify-sender: sent id=%s kind=%s to=%s (attempt %d)", ev.ID, ev.Kind, ev.To, attempt)
			return nil
		}

		log.Printf("notify-sender: attempt %d/%d failed for id=%s: %v", attempt, c.maxRetries, ev.ID, lastErr)

		if attempt < c.maxRetries {
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return c.sendToDLQ(ctx, m, lastErr)
}

// sendToDLQ writes the original raw Kafka message to the dead-letter topic so
// it can be inspected and replayed without blocking the main consumer.
func (c *Consumer) sendToDLQ(ctx context.Context, original kafka.Message, reason error) error {
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   original.Key,
		Value: original.Value,
	})
	if err != nil {
		log.Printf("notify-sender: CRITICAL - could not write to DLQ: %v", err)
	}
	return reason
}
