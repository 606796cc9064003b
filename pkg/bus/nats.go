package bus

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NatsBus adapts a *nats.Conn to the Bus interface.
type NatsBus struct {
	conn           *nats.Conn
	requestTimeout time.Duration
}

// NewNatsBus dials url and returns a ready Bus. requestTimeout bounds
// PublishRequest calls (§5 default 5s).
func NewNatsBus(url string, requestTimeout time.Duration) (*NatsBus, error) {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	conn, err := nats.Connect(url,
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("bus disconnected")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to nats")
	}
	return &NatsBus{conn: conn, requestTimeout: requestTimeout}, nil
}

// Publish implements Bus.
func (b *NatsBus) Publish(_ context.Context, subject string, body []byte) error {
	return errors.Wrap(b.conn.Publish(subject, body), "publishing message")
}

// PublishRequest implements Bus. A context deadline shorter than the bus's
// default requestTimeout takes precedence.
func (b *NatsBus) PublishRequest(ctx context.Context, subject string, body []byte) (Message, error) {
	timeout := b.requestTimeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	reply, err := b.conn.RequestWithContext(reqCtx, subject, body)
	if err != nil {
		return Message{}, errors.Wrap(err, "nats_error")
	}
	return Message{Subject: reply.Subject, Body: reply.Data}, nil
}

// Subscribe implements Bus.
func (b *NatsBus) Subscribe(_ context.Context, subject, queueGroup string, handler Handler) (Subscription, error) {
	cb := func(m *nats.Msg) {
		handler(context.Background(), Message{Subject: m.Subject, Body: m.Data, ReplyTo: m.Reply})
	}
	var (
		sub *nats.Subscription
		err error
	)
	if queueGroup != "" {
		sub, err = b.conn.QueueSubscribe(subject, queueGroup, cb)
	} else {
		sub, err = b.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return nil, errors.Wrap(err, "subscribing")
	}
	return natsSubscription{sub}, nil
}

// Conn exposes the underlying *nats.Conn so callers can open JetStream
// contexts (e.g. to bind the key-value bucket for kv.NewNatsKV).
func (b *NatsBus) Conn() *nats.Conn {
	return b.conn
}

// Close implements Bus.
func (b *NatsBus) Close(_ context.Context) error {
	b.conn.Close()
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
