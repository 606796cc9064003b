package kv

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by unit tests and local
// development. It is not a production backend.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	expires map[string]time.Time
	sets    map[string]map[string]struct{}
	zsets   map[string]map[string]float64
}

// NewMemoryStore returns a ready MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string][]byte),
		expires: make(map[string]time.Time),
		sets:    make(map[string]map[string]struct{}),
		zsets:   make(map[string]map[string]float64),
	}
}

func (m *MemoryStore) expired(key string) bool {
	exp, ok := m.expires[key]
	return ok && time.Now().After(exp)
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		delete(m.values, key)
		delete(m.expires, key)
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	delete(m.expires, key)
	return nil
}

// SetIfAbsent implements Store.
func (m *MemoryStore) SetIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		delete(m.values, key)
		delete(m.expires, key)
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	}
	return true, nil
}

// Incr implements Store.
func (m *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur int64
	if v, ok := m.values[key]; ok && !m.expired(key) {
		cur = decodeInt64(v)
	}
	cur++
	m.values[key] = encodeInt64(cur)
	return cur, nil
}

// Exists implements Store.
func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		delete(m.values, key)
		delete(m.expires, key)
		return false, nil
	}
	_, ok := m.values[key]
	return ok, nil
}

// SMembers implements Store.
func (m *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// SAdd implements Store.
func (m *MemoryStore) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, mem := range members {
		set[mem] = struct{}{}
	}
	return nil
}

// SScan implements Store by paging through the sorted member list, count
// members per page starting at index cursor; count <= 0 returns every
// member from cursor on.
func (m *MemoryStore) SScan(ctx context.Context, key string, cursor uint64, count int64) ([]string, uint64, error) {
	all, err := m.SMembers(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	if cursor >= uint64(len(all)) {
		return nil, 0, nil
	}
	end := cursor + uint64(count)
	if end > uint64(len(all)) || count <= 0 {
		end = uint64(len(all))
	}
	page := all[cursor:end]
	next := end
	if next >= uint64(len(all)) {
		next = 0
	}
	return page, next, nil
}

// ZAddNX implements Store.
func (m *MemoryStore) ZAddNX(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.zset(key)
	if _, ok := z[member]; ok {
		return nil
	}
	z[member] = score
	return nil
}

// ZAddXX implements Store.
func (m *MemoryStore) ZAddXX(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.zset(key)
	if _, ok := z[member]; !ok {
		return nil
	}
	z[member] = score
	return nil
}

// ZRem implements Store.
func (m *MemoryStore) ZRem(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.zset(key), member)
	return nil
}

// ZRangeByScore implements Store.
func (m *MemoryStore) ZRangeByScore(_ context.Context, key string, min, max float64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.zset(key)
	type pair struct {
		member string
		score  float64
	}
	var pairs []pair
	for mem, score := range z {
		if score >= min && score <= max {
			pairs = append(pairs, pair{mem, score})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.member
	}
	return out, nil
}

func (m *MemoryStore) zset(key string) map[string]float64 {
	z, ok := m.zsets[key]
	if !ok {
		z = make(map[string]float64)
		m.zsets[key] = z
	}
	return z
}

func encodeInt64(v int64) []byte {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		if neg {
			return []byte("-0")
		}
		return []byte("0")
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}

func decodeInt64(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	neg := b[0] == '-'
	start := 0
	if neg {
		start = 1
	}
	var v int64
	for i := start; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return 0
		}
		v = v*10 + int64(b[i]-'0')
	}
	if neg {
		v = -v
	}
	return v
}
