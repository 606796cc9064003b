// Package kv abstracts the shared key-value store (§6.2): a string->bytes
// map with set-if-absent, counters, sets, sorted sets, and time-bounded
// leases. Every stage owns the namespaces it writes; the store itself
// enforces no access control.
package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get (and so by GetJSON) when the key is absent.
var ErrNotFound = errors.New("missing key")

// Store is the abstract KV host interface every stage takes, per §9.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	// SetIfAbsent sets key to value only if it doesn't already exist, with
	// an optional TTL (zero means no expiry). Returns true if the set took
	// effect.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Incr atomically increments the counter at key by 1 and returns the
	// post-increment value. A missing key starts at 0.
	Incr(ctx context.Context, key string) (int64, error)

	Exists(ctx context.Context, key string) (bool, error)

	SMembers(ctx context.Context, key string) ([]string, error)
	SAdd(ctx context.Context, key string, members ...string) error

	// SScan iterates set members in cursor-paginated batches, returning the
	// next cursor (0 when exhausted).
	SScan(ctx context.Context, key string, cursor uint64, count int64) (members []string, nextCursor uint64, err error)

	ZAddNX(ctx context.Context, key string, score float64, member string) error
	ZAddXX(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key, member string) error
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error)
}

// GetJSON fetches key and JSON-unmarshals it into v. Returns ErrNotFound if
// the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return unmarshal(raw, v)
}
