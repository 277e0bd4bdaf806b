package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kafka "github.com/segmentio/kafka-go"
)

// Publisher is what the coordination services see. Delivery failures must
// never fail the business operation that triggered them, so implementations
// log and swallow transport errors.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}

// KafkaPublisher writes Events to the outbox topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish writes ev to the outbox. The event ID is the Kafka key so replays
// of a partition keep related deliveries together.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		log.Printf("notify: marshal event id=%s: %v", ev.ID, err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ID),
		Value: value,
	}); err != nil {
		log.Printf("notify: publish event id=%s kind=%s: %v", ev.ID, ev.Kind, err)
	}
}

// Close releases the Kafka writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

// Discard is a Publisher that drops every event. Used in tests and when no
// brokers are configured.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
func (Discard) Close() error                   { return nil }

// Recorder is a Publisher that captures events for test assertions.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.Events = append(r.Events, ev)
}

func (r *Recorder) Close() error { return nil }
