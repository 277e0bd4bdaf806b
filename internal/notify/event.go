// Package notify provides outbound notification delivery via Kafka-driven
// pub/sub and a configurable SMS gateway backend. Coordination services
// publish Events to the outbox topic; the notify-sender consumer reads them
// and dispatches texts to the people involved.
package notify

// Event kinds published by the coordination services.
const (
	KindRequestAssigned     = "request_assigned"
	KindRequestFinalized    = "request_finalized"
	KindApplicationAccepted = "application_accepted"
	KindApplicationRejected = "application_rejected"
	KindNewMessage          = "new_message"
)

// Event is the canonical schema for messages on the notify outbox topic.
// Producers publish JSON-encoded Events; the notify-sender consumer reads
// them and dispatches them to the configured SMS gateway.
type Event struct {
	// ID is a producer-generated UUID used for idempotency and correlation.
	// The sender logs this value alongside the delivery outcome so duplicate
	// sends can be detected when replaying a partition.
	ID string `json:"id"`

	// Kind names what happened, one of the Kind constants above.
	Kind string `json:"kind"`

	// To is the E.164-formatted destination phone number.
	To string `json:"to"`

	// Body is the UTF-8 text to deliver.
	Body string `json:"body"`

	// RequestID ties the event back to the request it concerns.
	RequestID string `json:"request_id,omitempty"`
}
