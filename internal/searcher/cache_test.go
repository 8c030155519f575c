package searcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/capmatch-mcp/pkg/types"
)

func cachedResult(id string) types.SearchResult {
	return types.SearchResult{
		Module: &types.CapabilityModule{ID: id, Name: id},
		Rank:   1,
	}
}

func baseQuery() types.SearchQuery {
	return types.SearchQuery{
		Requirements: types.Requirements{PrimarySkills: []string{"summarization"}},
		Constraints:  types.Constraints{MaxResults: 5},
		Weights:      types.Weights{Similarity: 1},
	}
}

func TestCachePutGet(t *testing.T) {
	rc := NewResultCache(10, time.Minute)
	key := Fingerprint(baseQuery())

	_, hit := rc.Get(key)
	assert.False(t, hit)

	rc.Put(key, []types.SearchResult{cachedResult("a")})
	got, hit := rc.Get(key)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Module.ID)
}

func TestCacheReturnsCopies(t *testing.T) {
	rc := NewResultCache(10, time.Minute)
	key := Fingerprint(baseQuery())
	rc.Put(key, []types.SearchResult{cachedResult("a")})

	got, _ := rc.Get(key)
	got[0].Module.Name = "mutated"

	again, _ := rc.Get(key)
	assert.Equal(t, "a", again[0].Module.Name)
}

func TestCacheTTLExpiry(t *testing.T) {
	rc := NewResultCache(10, 10*time.Millisecond)
	key := Fingerprint(baseQuery())
	rc.Put(key, []types.SearchResult{cachedResult("a")})

	time.Sleep(20 * time.Millisecond)
	_, hit := rc.Get(key)
	assert.False(t, hit)
	assert.Zero(t, rc.Len(), "expired entry removed lazily")
}

func TestInvalidateModuleDropsOnlyTouchedEntries(t *testing.T) {
	rc := NewResultCache(10, time.Minute)

	qa := baseQuery()
	qb := baseQuery()
	qb.Requirements.PrimarySkills = []string{"vision"}
	keyA := Fingerprint(qa)
	keyB := Fingerprint(qb)

	rc.Put(keyA, []types.SearchResult{cachedResult("shared"), cachedResult("a-only")})
	rc.Put(keyB, []types.SearchResult{cachedResult("b-only")})

	rc.InvalidateModule("shared")

	_, hit := rc.Get(keyA)
	assert.False(t, hit, "entry containing the module is dropped")
	_, hit = rc.Get(keyB)
	assert.True(t, hit, "unrelated entry survives")
}

func TestFingerprintCoversWeightsAndConstraints(t *testing.T) {
	base := baseQuery()

	variants := []func(*types.SearchQuery){
		func(q *types.SearchQuery) { q.Weights.Performance = 0.9 },
		func(q *types.SearchQuery) { q.Constraints.MaxResults = 7 },
		func(q *types.SearchQuery) { q.Constraints.ExcludedIDs = []string{"x"} },
		func(q *types.SearchQuery) { q.Constraints.RequiredCompatibilityTags = []string{"gpu"} },
		func(q *types.SearchQuery) { q.Constraints.MaxLatencyMs = 100 },
		func(q *types.SearchQuery) { q.Constraints.NodeAffinity = "node-2" },
		func(q *types.SearchQuery) { q.Requirements.ProficiencyThreshold = 0.5 },
		func(q *types.SearchQuery) { q.Requirements.Description = "different" },
		func(q *types.SearchQuery) { q.Vector = []float32{1, 0} },
	}

	seen := map[[32]byte]bool{Fingerprint(base): true}
	for i, mutate := range variants {
		q := baseQuery()
		mutate(&q)
		key := Fingerprint(q)
		assert.False(t, seen[key], "variant %d collided", i)
		seen[key] = true
	}
}

func TestFingerprintIgnoresExclusionOrder(t *testing.T) {
	qa := baseQuery()
	qa.Constraints.ExcludedIDs = []string{"a", "b"}
	qb := baseQuery()
	qb.Constraints.ExcludedIDs = []string{"b", "a"}

	assert.Equal(t, Fingerprint(qa), Fingerprint(qb))
}

func TestCacheEvictionPrunesModuleIndex(t *testing.T) {
	rc := NewResultCache(2, time.Minute)

	for i, skills := range [][]string{{"a"}, {"b"}, {"c"}} {
		q := baseQuery()
		q.Requirements.PrimarySkills = skills
		rc.Put(Fingerprint(q), []types.SearchResult{cachedResult("shared")})
		_ = i
	}

	assert.Equal(t, 2, rc.Len())
	assert.LessOrEqual(t, len(rc.byModule["shared"]), 2)
}
