// notify-sender is a long-running Kafka consumer that reads notification
// events from the outbox topic and delivers them as texts via the configured
// SMS gateway.
//
// Configuration is done entirely via environment variables so the binary runs
// identically in Docker, on bare metal, or in any CI environment:
//
//	KAFKA_BROKERS      comma-separated broker list, e.g. "kafka:9092"
//	KAFKA_NOTIFY_TOPIC outbox topic (default "notify-outbox")
//	KAFKA_DLQ_TOPIC    dead-letter topic (default "notify-dlq")
//	KAFKA_GROUP_ID     consumer group (default "notify-sender")
//	SMS_GATEWAY_URL    REST endpoint accepting {from, to, text} POSTs
//	SMS_API_KEY        bearer token for the gateway
//	SMS_FROM           E.164 sending number, e.g. "+56900000000"
//	SMS_MAX_RETRIES    delivery attempts before DLQ routing (default 3)
package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Edw01/Taller-integro/config"
	"github.com/Edw01/Taller-integro/internal/notify"
)

func main() {
	cfg := config.Load()
	requireSet("KAFKA_BROKERS", cfg.Kafka.Brokers)
	requireSet("SMS_GATEWAY_URL", cfg.SMS.GatewayURL)
	requireSet("SMS_API_KEY", cfg.SMS.APIKey)
	requireSet("SMS_FROM", cfg.SMS.From)

	sender := notify.NewGatewaySender(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.From)
	consumer := notify.NewConsumer(notify.ConsumerConfig{
		Brokers:    strings.Split(cfg.Kafka.Brokers, ","),
		Topic:      cfg.Kafka.NotifyTopic,
		DLQTopic:   cfg.Kafka.DLQTopic,
		GroupID:    cfg.Kafka.GroupID,
		MaxRetries: cfg.SMS.MaxRetries,
	}, sender)
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Printf("notify-sender: error closing consumer: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("notify-sender: starting (brokers=%s topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.NotifyTopic)
	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("notify-sender: fatal error: %v", err)
	}
	log.Println("notify-sender: shutdown complete")
}

// requireSet calls log.Fatal when a required setting is empty. This keeps
// startup-time misconfiguration loud and obvious rather than surfacing as a
// runtime auth failure later.
func requireSet(name, value string) {
	if value == "" {
		log.Fatalf("notify-sender: required environment variable %q is not set", name)
	}
}
