// Package bus abstracts the subject-addressed message bus every pipeline
// stage communicates over (§6.1). Production wiring supplies a NATS-backed
// Bus; tests substitute the in-memory implementation in memory.go.
package bus

import "context"

// Message is a single bus message: a subject, an opaque body, and an
// optional reply subject for request/reply interactions.
type Message struct {
	Subject string
	Body    []byte
	ReplyTo string
}

// Handler processes one inbound message. It returns nothing, so the bus
// never nacks or retries the delivery, per §7's "errors never propagate
// across subjects implicitly" policy — a handler that needs to signal
// failure must do so by publishing a typed failure record itself.
type Handler func(ctx context.Context, msg Message)

// Subscription is a live queue-grouped (or plain) subscription. Cancel via
// Unsubscribe, which must unwind any transport resources cooperatively.
type Subscription interface {
	Unsubscribe() error
}

// Bus is the abstract pub/sub + request/reply + queue-grouped transport
// every stage takes as a host interface, per §9 "trait-object host
// interface, not concrete clients".
type Bus interface {
	// Publish sends body to subject, fire-and-forget.
	Publish(ctx context.Context, subject string, body []byte) error

	// PublishRequest sends body to subject and blocks for a single reply,
	// bounded by ctx. A deadline exceeded or cancellation must unwind
	// transport resources (§5 "Cancellation and timeouts").
	PublishRequest(ctx context.Context, subject string, body []byte) (Message, error)

	// Subscribe attaches handler to subject. If queueGroup is non-empty,
	// only one member of the group receives each message (load balancing
	// across horizontally-scaled stage instances, §5).
	Subscribe(ctx context.Context, subject, queueGroup string, handler Handler) (Subscription, error)

	// Close releases all subscriptions and connections held by the bus.
	Close(ctx context.Context) error
}
