package core

import (
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"avular-packages/internal/types"
)

const l1ShardCount = 16

// L2Store is the persistence contract the Intelligent Cache's second
// tier is built on (§4.4). A concrete implementation lives in
// internal/adapters (disk-backed, CRC-checked records); tests can
// substitute an in-memory fake.
type L2Store interface {
	Get(key string) ([]byte, types.CacheEntryMetadata, bool, error)
	Put(key string, value []byte, meta types.CacheEntryMetadata) error
	Remove(key string) error
	Keys() ([]string, error)
}

// Codec converts cache values to and from the byte form L2Store
// persists.
type Codec[V any] struct {
	Encode func(V) ([]byte, error)
	Decode func([]byte) (V, error)
}

type l1Entry[V any] struct {
	value V
	meta  types.CacheEntryMetadata
}

type shard[V any] struct {
	mu      sync.RWMutex
	entries map[string]l1Entry[V]
}

// Cache is the two-level intelligent cache of §4.4: an in-memory L1
// sharded by key hash, backed by an L2Store. Promotion moves entries
// from L2 into L1 on access; eviction runs a retention-score scan over
// an L1 shard that is over its share of the L1 capacity. The L2
// capacity is reported in Stats but not enforced: L2 entries are
// removed only through Remove.
type Cache[K comparable, V any] struct {
	l1Capacity int
	l2Capacity int
	shards     [l1ShardCount]*shard[V]
	l2         L2Store
	codec      Codec[V]
	keyFunc    func(K) string

	mu    sync.Mutex
	stats types.CacheStats

	now func() time.Time
}

// NewCache constructs a Cache with the given per-tier capacities
// (entry counts), L2 backing store, value codec, and a function to
// render keys of type K to the strings the store and shard router use.
func NewCache[K comparable, V any](l1Capacity, l2Capacity int, l2 L2Store, codec Codec[V], keyFunc func(K) string) *Cache[K, V] {
	c := &Cache[K, V]{
		l1Capacity: l1Capacity,
		l2Capacity: l2Capacity,
		l2:         l2,
		codec:      codec,
		keyFunc:    keyFunc,
		now:        time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &shard[V]{entries: map[string]l1Entry[V]{}}
	}
	c.stats.L1Capacity = l1Capacity
	c.stats.L2Capacity = l2Capacity
	return c
}

func (c *Cache[K, V]) shardFor(key string) *shard[V] {
	h := xxhash.Sum64String(key)
	return c.shards[h%uint64(l1ShardCount)]
}

// Get looks up key, first in L1, then in L2 (promoting on hit).
func (c *Cache[K, V]) Get(k K) (V, bool, error) {
	key := c.keyFunc(k)
	sh := c.shardFor(key)

	sh.mu.RLock()
	entry, ok := sh.entries[key]
	sh.mu.RUnlock()
	if ok && !entry.meta.Expired(c.now()) {
		entry.meta.LastAccessed = c.now()
		entry.meta.AccessCount++
		sh.mu.Lock()
		sh.entries[key] = entry
		sh.mu.Unlock()
		c.recordHit()
		return entry.value, true, nil
	}

	var zero V
	if c.l2 == nil {
		c.recordMiss()
		return zero, false, nil
	}
	raw, meta, found, err := c.l2.Get(key)
	if err != nil {
		return zero, false, err
	}
	if !found || meta.Expired(c.now()) {
		c.recordMiss()
		return zero, false, nil
	}
	value, err := c.codec.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	meta.LastAccessed = c.now()
	meta.AccessCount++
	meta.Level = types.CacheLevelL1
	c.promoteToL1(sh, key, value, meta)
	c.recordHit()
	c.recordPromotion()
	return value, true, nil
}

// Put inserts or replaces key's value in L1, evicting by retention
// score if the shard's share of the L1 capacity is exceeded.
func (c *Cache[K, V]) Put(k K, v V, ttl time.Duration) error {
	key := c.keyFunc(k)
	sh := c.shardFor(key)
	meta := types.CacheEntryMetadata{
		CreatedAt:    c.now(),
		LastAccessed: c.now(),
		AccessCount:  1,
		TTL:          ttl,
		Level:        types.CacheLevelL1,
	}

	var raw []byte
	if c.codec.Encode != nil {
		var err error
		raw, err = c.codec.Encode(v)
		if err != nil {
			return err
		}
		meta.SizeBytes = int64(len(raw))
	}

	c.promoteToL1(sh, key, v, meta)

	if c.l2 != nil {
		l2Meta := meta
		l2Meta.Level = types.CacheLevelL2
		if err := c.l2.Put(key, raw, l2Meta); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache[K, V]) promoteToL1(sh *shard[V], key string, v V, meta types.CacheEntryMetadata) {
	sh.mu.Lock()
	sh.entries[key] = l1Entry[V]{value: v, meta: meta}
	overCapacity := c.l1Capacity > 0 && len(sh.entries) > c.l1Capacity/l1ShardCount+1
	var evictKey string
	if overCapacity {
		evictKey = lowestRetentionKey(sh.entries, c.now())
		if evictKey != "" {
			delete(sh.entries, evictKey)
		}
	}
	sh.mu.Unlock()
	if evictKey != "" {
		c.recordEviction()
	}
}

// Remove deletes key from both tiers.
func (c *Cache[K, V]) Remove(k K) error {
	key := c.keyFunc(k)
	sh := c.shardFor(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
	if c.l2 != nil {
		return c.l2.Remove(key)
	}
	return nil
}

// Stats returns a snapshot of cumulative cache statistics.
func (c *Cache[K, V]) Stats() types.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.L1Entries = 0
	for _, sh := range c.shards {
		sh.mu.RLock()
		stats.L1Entries += len(sh.entries)
		sh.mu.RUnlock()
	}
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

func (c *Cache[K, V]) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *Cache[K, V]) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

func (c *Cache[K, V]) recordPromotion() {
	c.mu.Lock()
	c.stats.Promotions++
	c.mu.Unlock()
}

func (c *Cache[K, V]) recordEviction() {
	c.mu.Lock()
	c.stats.Evictions++
	c.mu.Unlock()
}

// retentionScore implements §4.4's retention formula exactly:
// priority × ln(max(access_count,1)) × 1/(1+(last_accessed−created_at)/3600) × 1/(1+size_bytes/1024).
// Higher scores are evicted last; expiry is handled separately by
// Expired, not folded into this score.
func retentionScore(meta types.CacheEntryMetadata, now time.Time) float64 {
	priority := meta.Priority
	if priority == 0 {
		priority = 1.0
	}
	accessCount := meta.AccessCount
	if accessCount < 1 {
		accessCount = 1
	}
	ageHours := meta.LastAccessed.Sub(meta.CreatedAt).Seconds() / 3600
	sizeKB := float64(meta.SizeBytes) / 1024
	return priority * math.Log(float64(accessCount)) * (1 / (1 + ageHours)) * (1 / (1 + sizeKB))
}

func lowestRetentionKey[V any](entries map[string]l1Entry[V], now time.Time) string {
	var worstKey string
	var worstScore float64
	first := true
	for key, entry := range entries {
		score := retentionScore(entry.meta, now)
		if first || score < worstScore {
			worstScore = score
			worstKey = key
			first = false
		}
	}
	return worstKey
}
