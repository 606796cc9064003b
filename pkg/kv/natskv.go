package kv

import (
	"context"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	pkgerrors "github.com/pkg/errors"
)

// NatsKV adapts a NATS JetStream key-value bucket to the Store interface.
// It implements the single-key operations (Get, Set, SetIfAbsent, Incr,
// Exists); the set and sorted-set operations return an error.
type NatsKV struct {
	kv nats.KeyValue
}

// NewNatsKV wraps an already-bound JetStream KV bucket.
func NewNatsKV(bucket nats.KeyValue) *NatsKV {
	return &NatsKV{kv: bucket}
}

// Get implements Store.
func (n *NatsKV) Get(_ context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(key)
	if err != nil {
		if pkgerrors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "kv get")
	}
	return entry.Value(), nil
}

// Set implements Store.
func (n *NatsKV) Set(_ context.Context, key string, value []byte) error {
	_, err := n.kv.Put(key, value)
	return pkgerrors.Wrap(err, "kv put")
}

// SetIfAbsent implements Store with JetStream KV's Create. A positive ttl
// writes the expiry time to a sidecar key "{key}:expires_at"; no operation
// reads that key, so the entry itself does not expire and a later
// SetIfAbsent on the same key keeps returning false.
func (n *NatsKV) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	_, err := n.kv.Create(key, value)
	if err != nil {
		if pkgerrors.Is(err, nats.ErrKeyExists) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "kv create")
	}
	if ttl > 0 {
		_ = n.Set(ctx, key+":expires_at", []byte(strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)))
	}
	return true, nil
}

// Incr implements Store.
func (n *NatsKV) Incr(ctx context.Context, key string) (int64, error) {
	raw, err := n.Get(ctx, key)
	var cur int64
	if err == nil {
		cur, _ = strconv.ParseInt(string(raw), 10, 64)
	} else if pkgerrors.Cause(err) != ErrNotFound {
		return 0, err
	}
	cur++
	if err := n.Set(ctx, key, []byte(strconv.FormatInt(cur, 10))); err != nil {
		return 0, err
	}
	return cur, nil
}

// Exists implements Store.
func (n *NatsKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if pkgerrors.Cause(err) == ErrNotFound {
		return false, nil
	}
	return false, err
}

// SMembers, SAdd, SScan, and the sorted-set operations are not implemented
// on the JetStream KV adapter: each returns an error. cmd/streamproc and
// cmd/ekkoctl use NatsKV as their Store, so these operations fail there.
// Tests use MemoryStore instead.

func (n *NatsKV) SMembers(context.Context, string) ([]string, error) {
	return nil, pkgerrors.New("NatsKV: set and sorted-set operations are not supported")
}

func (n *NatsKV) SAdd(context.Context, string, ...string) error {
	return pkgerrors.New("NatsKV: set and sorted-set operations are not supported")
}

func (n *NatsKV) SScan(context.Context, string, uint64, int64) ([]string, uint64, error) {
	return nil, 0, pkgerrors.New("NatsKV: set and sorted-set operations are not supported")
}

func (n *NatsKV) ZAddNX(context.Context, string, float64, string) error {
	return pkgerrors.New("NatsKV: set and sorted-set operations are not supported")
}

func (n *NatsKV) ZAddXX(context.Context, string, float64, string) error {
	return pkgerrors.New("NatsKV: set and sorted-set operations are not supported")
}

func (n *NatsKV) ZRem(context.Context, string, string) error {
	return pkgerrors.New("NatsKV: set and sorted-set operations are not supported")
}

func (n *NatsKV) ZRangeByScore(context.Context, string, float64, float64) ([]string, error) {
	return nil, pkgerrors.New("NatsKV: set and sorted-set operations are not supported")
}
