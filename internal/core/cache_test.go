package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/types"
)

func TestRetentionScore_HigherAccessCountScoresHigher(t *testing.T) {
	now := time.Now()
	base := types.CacheEntryMetadata{CreatedAt: now, LastAccessed: now, AccessCount: 1}
	frequent := base
	frequent.AccessCount = 20

	require.Greater(t, retentionScore(frequent, now), retentionScore(base, now))
}

func TestRetentionScore_LongerCreatedToLastAccessSpanScoresLower(t *testing.T) {
	now := time.Now()
	created := now.Add(-2 * time.Hour)
	shortSpan := types.CacheEntryMetadata{CreatedAt: created, LastAccessed: created, AccessCount: 5}
	longSpan := types.CacheEntryMetadata{CreatedAt: created, LastAccessed: now, AccessCount: 5}

	require.Greater(t, retentionScore(shortSpan, now), retentionScore(longSpan, now))
}

func TestRetentionScore_LargerSizeScoresLower(t *testing.T) {
	now := time.Now()
	small := types.CacheEntryMetadata{CreatedAt: now, LastAccessed: now, AccessCount: 5, SizeBytes: 1024}
	large := small
	large.SizeBytes = 1024 * 1024

	require.Greater(t, retentionScore(small, now), retentionScore(large, now))
}

func TestRetentionScore_HigherPriorityScoresHigher(t *testing.T) {
	now := time.Now()
	low := types.CacheEntryMetadata{CreatedAt: now, LastAccessed: now, AccessCount: 5, Priority: 1}
	high := low
	high.Priority = 10

	require.Greater(t, retentionScore(high, now), retentionScore(low, now))
}

func TestRetentionScore_ZeroPriorityFallsBackToOne(t *testing.T) {
	now := time.Now()
	zero := types.CacheEntryMetadata{CreatedAt: now, LastAccessed: now, AccessCount: 5}
	one := zero
	one.Priority = 1

	require.Equal(t, retentionScore(one, now), retentionScore(zero, now))
}

func TestCachePut_PopulatesSizeBytesFromEncodedValue(t *testing.T) {
	codec := Codec[string]{
		Encode: func(s string) ([]byte, error) { return json.Marshal(s) },
		Decode: func(b []byte) (string, error) {
			var s string
			err := json.Unmarshal(b, &s)
			return s, err
		},
	}
	cache := NewCache[string, string](16, 16, nil, codec, func(s string) string { return s })
	require.NoError(t, cache.Put("k", "hello world", time.Hour))

	sh := cache.shardFor("k")
	sh.mu.RLock()
	entry, ok := sh.entries["k"]
	sh.mu.RUnlock()
	require.True(t, ok)
	require.Greater(t, entry.meta.SizeBytes, int64(0))
}
