package searcher

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/capmatch-mcp/pkg/types"
)

// cacheEntry is one memoized ranked list with its expiry.
type cacheEntry struct {
	results   []types.SearchResult
	expiresAt time.Time
}

// ResultCache memoizes ranked result lists keyed by a query
// fingerprint. Entries expire after a fixed TTL and are proactively
// invalidated when the registry reports a removal or a significant
// update touching a module they contain. Staleness is never an error:
// a miss or an invalidated entry just recomputes.
type ResultCache struct {
	mu       sync.Mutex
	cache    *lru.Cache[[32]byte, *cacheEntry]
	byModule map[string]map[[32]byte]struct{}
	ttl      time.Duration
}

// NewResultCache creates a cache with the given entry capacity and TTL.
func NewResultCache(maxEntries int, ttl time.Duration) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	rc := &ResultCache{
		byModule: make(map[string]map[[32]byte]struct{}),
		ttl:      ttl,
	}
	cache, err := lru.NewWithEvict[[32]byte, *cacheEntry](maxEntries, rc.onEvict)
	if err != nil {
		// Only possible with a non-positive size.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	rc.cache = cache
	return rc
}

// Get returns a deep copy of the cached ranked list, or false on a
// miss. Expired entries are removed lazily.
func (rc *ResultCache) Get(key [32]byte) ([]types.SearchResult, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	entry, found := rc.cache.Get(key)
	if !found {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		rc.cache.Remove(key)
		return nil, false
	}

	out := make([]types.SearchResult, len(entry.results))
	for i, r := range entry.results {
		out[i] = r.Clone()
	}
	return out, true
}

// Put stores a ranked list under the key and records which module ids
// it contains so targeted invalidation can find it.
func (rc *ResultCache) Put(key [32]byte, results []types.SearchResult) {
	stored := make([]types.SearchResult, len(results))
	for i, r := range results {
		stored[i] = r.Clone()
	}
	entry := &cacheEntry{
		results:   stored,
		expiresAt: time.Now().Add(rc.ttl),
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.cache.Add(key, entry)
	for _, r := range stored {
		keys, ok := rc.byModule[r.Module.ID]
		if !ok {
			keys = make(map[[32]byte]struct{})
			rc.byModule[r.Module.ID] = keys
		}
		keys[key] = struct{}{}
	}
}

// InvalidateModule drops every cached list containing the module id.
// The registry calls this on removal and on significant updates.
func (rc *ResultCache) InvalidateModule(id string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for key := range rc.byModule[id] {
		rc.cache.Remove(key)
	}
}

// Purge drops every entry.
func (rc *ResultCache) Purge() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cache.Purge()
}

// Len returns the live entry count.
func (rc *ResultCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.cache.Len()
}

// onEvict keeps the module index in step with LRU eviction. Runs under
// rc.mu via the lru callbacks.
func (rc *ResultCache) onEvict(key [32]byte, entry *cacheEntry) {
	for _, r := range entry.results {
		keys := rc.byModule[r.Module.ID]
		delete(keys, key)
		if len(keys) == 0 {
			delete(rc.byModule, r.Module.ID)
		}
	}
}

// Fingerprint computes the cache key. It deliberately covers every
// field that can affect the output — skills, description, thresholds,
// constraints, weights, result bound, and any pre-computed vector — so
// two queries differing in any of them can never collide.
func Fingerprint(q types.SearchQuery) [32]byte {
	var data strings.Builder

	data.WriteString(strings.Join(q.Requirements.PrimarySkills, ","))
	data.WriteString("|")
	data.WriteString(strings.Join(q.Requirements.SecondarySkills, ","))
	data.WriteString("|")
	data.WriteString(q.Requirements.Description)
	data.WriteString("|")
	data.WriteString(q.Requirements.Specialization)
	data.WriteString(fmt.Sprintf("|prof:%.6f", q.Requirements.ProficiencyThreshold))

	excluded := append([]string(nil), q.Constraints.ExcludedIDs...)
	sort.Strings(excluded)
	required := append([]string(nil), q.Constraints.RequiredCompatibilityTags...)
	sort.Strings(required)

	data.WriteString("|excl:")
	data.WriteString(strings.Join(excluded, ","))
	data.WriteString("|tags:")
	data.WriteString(strings.Join(required, ","))
	data.WriteString(fmt.Sprintf("|lat:%.3f|max:%d|node:%s",
		q.Constraints.MaxLatencyMs, q.Constraints.MaxResults, q.Constraints.NodeAffinity))
	data.WriteString(fmt.Sprintf("|w:%.6f,%.6f,%.6f,%.6f,%.6f",
		q.Weights.Similarity, q.Weights.Performance, q.Weights.Availability,
		q.Weights.Recency, q.Weights.Community))

	if q.Vector != nil {
		data.WriteString("|vec:")
		for _, v := range q.Vector {
			data.WriteString(fmt.Sprintf("%x,", v))
		}
	}

	return sha256.Sum256([]byte(data.String()))
}
