package bus

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// InMemoryBus is a process-local Bus used by unit tests. Subscriptions match
// subjects literally (no wildcard expansion, matching "all wildcards
// literal" in §6.1).
type InMemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]*memorySubscription

	requestTimeout time.Duration
}

// NewInMemoryBus returns a ready InMemoryBus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		subs:           make(map[string][]*memorySubscription),
		requestTimeout: 5 * time.Second,
	}
}

type memorySubscription struct {
	bus        *InMemoryBus
	subject    string
	queueGroup string
	handler    Handler

	// round-robin counter for queue-grouped delivery across subscriptions
	// sharing the same group.
	next *int
}

// Unsubscribe implements Subscription.
func (s *memorySubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	subs := s.bus.subs[s.subject]
	for i, sub := range subs {
		if sub == s {
			s.bus.subs[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}

// Publish implements Bus. Delivery is synchronous and in-process.
func (b *InMemoryBus) Publish(ctx context.Context, subject string, body []byte) error {
	b.mu.RLock()
	subs := append([]*memorySubscription(nil), b.subs[subject]...)
	b.mu.RUnlock()

	delivered := map[string]bool{}
	for _, s := range subs {
		if s.queueGroup != "" {
			if delivered[s.queueGroup] {
				continue
			}
			delivered[s.queueGroup] = true
		}
		s.handler(ctx, Message{Subject: subject, Body: body})
	}
	return nil
}

// PublishRequest implements Bus by generating a synthetic reply subject,
// subscribing to it, publishing the request, and waiting for a response.
func (b *InMemoryBus) PublishRequest(ctx context.Context, subject string, body []byte) (Message, error) {
	replySubject := subject + ".reply." + randSuffix()
	replyCh := make(chan Message, 1)
	sub, err := b.Subscribe(ctx, replySubject, "", func(_ context.Context, m Message) {
		select {
		case replyCh <- m:
		default:
		}
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "subscribing to reply subject")
	}
	defer func() { _ = sub.Unsubscribe() }()

	b.mu.RLock()
	subs := append([]*memorySubscription(nil), b.subs[subject]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.handler(ctx, Message{Subject: subject, Body: body, ReplyTo: replySubject})
	}

	timeout := b.requestTimeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	select {
	case m := <-replyCh:
		return m, nil
	case <-time.After(timeout):
		return Message{}, errors.Wrap(errNatsTimeout, "nats_error")
	case <-ctx.Done():
		return Message{}, errors.Wrap(ctx.Err(), "nats_error")
	}
}

var errNatsTimeout = errors.New("request timed out")

// Subscribe implements Bus.
func (b *InMemoryBus) Subscribe(_ context.Context, subject, queueGroup string, handler Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &memorySubscription{bus: b, subject: subject, queueGroup: queueGroup, handler: handler}
	b.subs[subject] = append(b.subs[subject], s)
	return s, nil
}

// Close implements Bus.
func (b *InMemoryBus) Close(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]*memorySubscription)
	return nil
}

// Reply publishes a response to the ReplyTo subject carried by msg, the
// convenience a handler uses to answer a request/reply call.
func Reply(ctx context.Context, b Bus, msg Message, body []byte) error {
	if msg.ReplyTo == "" {
		return errors.New("message has no reply subject")
	}
	return b.Publish(ctx, msg.ReplyTo, body)
}

var randCounter uint64
var randMu sync.Mutex

func randSuffix() string {
	randMu.Lock()
	defer randMu.Unlock()
	randCounter++
	return itoa(randCounter)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
