package core

import (
	"sort"
	"sync"

	"avular-packages/internal/types"
)

// Preheater mines sequential access patterns (A accessed, then B soon
// after) from an access trace and predicts which keys to warm next
// (§4.4 "Predictive preheater"). Confidence for A→B is
// count(A then B) / count(A).
type Preheater struct {
	mu        sync.Mutex
	trace     []types.AccessTraceEntry
	follows   map[string]map[string]int64
	occurs    map[string]int64
	maxTrace  int
}

// NewPreheater creates a preheater retaining at most maxTrace recent
// access events.
func NewPreheater(maxTrace int) *Preheater {
	if maxTrace <= 0 {
		maxTrace = 10000
	}
	return &Preheater{
		follows:  map[string]map[string]int64{},
		occurs:   map[string]int64{},
		maxTrace: maxTrace,
	}
}

// Record appends an access event and updates the A→B follow counts
// against the most recent prior access in the same context.
func (p *Preheater) Record(entry types.AccessTraceEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.occurs[entry.Key]++
	for i := len(p.trace) - 1; i >= 0; i-- {
		prev := p.trace[i]
		if prev.Context != entry.Context {
			continue
		}
		if prev.Key != entry.Key {
			if p.follows[prev.Key] == nil {
				p.follows[prev.Key] = map[string]int64{}
			}
			p.follows[prev.Key][entry.Key]++
		}
		break
	}
	p.trace = append(p.trace, entry)
	if len(p.trace) > p.maxTrace {
		p.trace = p.trace[len(p.trace)-p.maxTrace:]
	}
}

// predictionPair is a candidate (key, confidence) association used by
// Predict below.
type predictionPair struct {
	key        string
	confidence float64
}

// Predict returns the keys most likely to follow key, sorted by
// descending confidence, limited to limit entries. A key with no
// observed occurrences yields no predictions.
func (p *Preheater) Predict(key string, limit int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	total, ok := p.occurs[key]
	if !ok || total == 0 {
		return nil
	}
	follows := p.follows[key]
	if len(follows) == 0 {
		return nil
	}
	pairs := make([]predictionPair, 0, len(follows))
	for next, count := range follows {
		pairs = append(pairs, predictionPair{key: next, confidence: float64(count) / float64(total)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].confidence != pairs[j].confidence {
			return pairs[i].confidence > pairs[j].confidence
		}
		return pairs[i].key < pairs[j].key
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]string, len(pairs))
	for i, pr := range pairs {
		out[i] = pr.key
	}
	return out
}
