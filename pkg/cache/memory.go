package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type memLock struct {
	token string
	until time.Time
}

// MemoryCache is a size-bounded in-process cache with per-key expiration.
type MemoryCache struct {
	entries    *lru.Cache[string, memEntry]
	defaultTTL time.Duration

	mu    sync.Mutex
	locks map[string]memLock
}

// NewMemoryCache creates an in-process LRU cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := defaultMemoryConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMemoryConfig().MaxSize
	}
	entries, _ := lru.New[string, memEntry](cfg.MaxSize)
	return &MemoryCache{
		entries:    entries,
		defaultTTL: cfg.DefaultTTL,
		locks:      make(map[string]memLock),
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = m.defaultTTL
	}
	e := memEntry{data: data}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}
	m.entries.Add(key, e)
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	e, ok := m.entries.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if e.expired(time.Now()) {
		m.entries.Remove(key)
		return ErrCacheMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.entries.Remove(k)
	}
	return nil
}

func (m *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if cur, held := m.locks[key]; held && (cur.until.IsZero() || now.Before(cur.until)) {
		return "", false, nil
	}
	l := memLock{token: uuid.NewString()}
	if ttl > 0 {
		l.until = now.Add(ttl)
	}
	m.locks[key] = l
	return l.token, true, nil
}

func (m *MemoryCache) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.locks[key]; !ok || cur.token != token {
		return ErrLockNotHeld
	}
	delete(m.locks, key)
	return nil
}

// Len reports the number of entries, including expired ones not yet evicted.
func (m *MemoryCache) Len() int { return m.entries.Len() }

func (m *MemoryCache) Close() error {
	m.entries.Purge()
	return nil
}

var _ Service = (*MemoryCache)(nil)
