package likes

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"bookbazaar/internal/domain"
)

// Cache is the persisted id -> LikeState record shared by every view of a
// session. Only liked entities are kept; unliking deletes the entry.
// Reads never fail: missing or unreadable data is a miss.
type Cache interface {
	Namespace() string
	Get(ctx context.Context, id int) (domain.LikeState, bool)
	Set(ctx context.Context, id int, st domain.LikeState) error
	Delete(ctx context.Context, id int) error
	// IDs lists the cached ids in ascending order.
	IDs(ctx context.Context) []int
}

// BlobStore persists one opaque record per key (sqlite or redis).
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, payload []byte) error
	Remove(ctx context.Context, key string) error
}

// Namespace derives the cache key for a session. The raw session id never
// reaches storage.
func Namespace(kind Kind, sid string) string {
	sum := blake2b.Sum256([]byte(sid))
	return kind.cachePrefix() + ":" + hex.EncodeToString(sum[:16])
}

// recordLocks serializes read-modify-write of a record within the process.
// PersistedCache values are short-lived (one per request), so the locks live
// here, keyed by namespace, and are dropped once nobody holds them.
var recordLocks = keyLocks{m: map[string]*keyLock{}}

type keyLock struct {
	sync.Mutex
	refs int
}

type keyLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

func (k *keyLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}

// PersistedCache keeps the whole record under one key, the way a browser
// keeps it under one localStorage entry. Every call reads the record fresh;
// writers of the same record are serialized so concurrent toggles of
// different entities all land.
type PersistedCache struct {
	store  BlobStore
	key    string
	logger *zap.Logger
}

func NewPersistedCache(store BlobStore, key string, logger *zap.Logger) *PersistedCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistedCache{store: store, key: key, logger: logger}
}

func (c *PersistedCache) Namespace() string { return c.key }

func (c *PersistedCache) load(ctx context.Context) map[int]domain.LikeState {
	raw, ok, err := c.store.Load(ctx, c.key)
	if err != nil {
		c.logger.Warn("like cache read failed", zap.String("key", c.key), zap.Error(err))
		return map[int]domain.LikeState{}
	}
	if !ok || len(raw) == 0 {
		return map[int]domain.LikeState{}
	}
	entries := map[int]domain.LikeState{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("like cache record is corrupt, treating as empty", zap.String("key", c.key), zap.Error(err))
		return map[int]domain.LikeState{}
	}
	return entries
}

func (c *PersistedCache) save(ctx context.Context, entries map[int]domain.LikeState) error {
	if len(entries) == 0 {
		return c.store.Remove(ctx, c.key)
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.store.Save(ctx, c.key, b)
}

func (c *PersistedCache) Get(ctx context.Context, id int) (domain.LikeState, bool) {
	st, ok := c.load(ctx)[id]
	return st, ok
}

func (c *PersistedCache) Set(ctx context.Context, id int, st domain.LikeState) error {
	defer recordLocks.lock(c.key)()
	entries := c.load(ctx)
	st.Count = clampCount(st.Count)
	entries[id] = st
	return c.save(ctx, entries)
}

func (c *PersistedCache) Delete(ctx context.Context, id int) error {
	defer recordLocks.lock(c.key)()
	entries := c.load(ctx)
	if _, ok := entries[id]; !ok {
		return nil
	}
	delete(entries, id)
	return c.save(ctx, entries)
}

func (c *PersistedCache) IDs(ctx context.Context) []int {
	return slices.Sorted(maps.Keys(c.load(ctx)))
}

// MemoryCache is an in-process Cache, used in tests and when no store is
// configured.
type MemoryCache struct {
	mu      sync.Mutex
	ns      string
	entries map[int]domain.LikeState
}

func NewMemoryCache(namespace string) *MemoryCache {
	return &MemoryCache{ns: namespace, entries: map[int]domain.LikeState{}}
}

func (m *MemoryCache) Namespace() string { return m.ns }

func (m *MemoryCache) Get(_ context.Context, id int) (domain.LikeState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.entries[id]
	return st, ok
}

func (m *MemoryCache) Set(_ context.Context, id int, st domain.LikeState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.Count = clampCount(st.Count)
	m.entries[id] = st
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryCache) IDs(_ context.Context) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.entries))
}

// Len reports how many entries are held.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
