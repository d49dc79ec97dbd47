package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists non-viewing flow entries.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, entry Entry) error
	Delete(ctx context.Context, key Key) error
}

// MemoryStore keeps entries in process. Entries expire ttl after their last
// write, like the Redis store, so abandoned flows do not accumulate.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore uses DefaultTTL.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithTTL(DefaultTTL)
}

// NewMemoryStoreWithTTL keeps entries for ttl; a non-positive ttl uses DefaultTTL.
func NewMemoryStoreWithTTL(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{entries: make(map[Key]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return Entry{}, false, nil
	}
	return e.entry, true, nil
}

// Put also sweeps expired entries.
func (s *MemoryStore) Put(_ context.Context, key Key, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{entry: entry, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of stored entries, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// DefaultTTL bounds how long an abandoned flow lingers in Redis.
const DefaultTTL = 30 * time.Minute

const redisKeyPrefix = "bytereview:confirm:"

// RedisStore keeps entries as JSON strings that expire after ttl, so flows
// survive restarts and are shared between server replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client; a non-positive ttl uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisStoreWithURL parses a redis:// URL and verifies the connection.
func NewRedisStoreWithURL(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode entry: %w", err)
	}
	return e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+key.String(), raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	return s.client.Del(ctx, redisKeyPrefix+key.String()).Err()
}
