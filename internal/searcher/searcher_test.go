package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/capmatch-mcp/internal/health"
	"github.com/dshills/capmatch-mcp/internal/registry"
	"github.com/dshills/capmatch-mcp/internal/scorer"
	"github.com/dshills/capmatch-mcp/internal/vectorindex"
	"github.com/dshills/capmatch-mcp/pkg/types"
)

// fixedProvider returns the same vector for every requirement.
type fixedProvider struct {
	vector []float32
}

func (p *fixedProvider) Embed(ctx context.Context, req types.Requirements) ([]float32, error) {
	return p.vector, nil
}
func (p *fixedProvider) Dimension() int { return len(p.vector) }
func (p *fixedProvider) Name() string   { return "fixed" }
func (p *fixedProvider) Close() error   { return nil }

type pipeline struct {
	svc *Service
	reg *registry.Registry
}

func newPipeline(t *testing.T, cfg Config) *pipeline {
	t.Helper()

	idx := vectorindex.NewFlat(2)
	reg := registry.New(idx, registry.Config{})

	store := health.NewStore()
	store.Update(health.Snapshot{"node-1": {Online: true, ResponseTimeMs: 40}})

	sc := scorer.New(store, scorer.Config{})
	svc := NewService(reg, idx, &fixedProvider{vector: []float32{1, 0}}, sc, cfg)
	return &pipeline{svc: svc, reg: reg}
}

func pipelineModule(id string, vec []float32) *types.CapabilityModule {
	return &types.CapabilityModule{
		ID:             id,
		Name:           "Module " + id,
		Version:        "1.0.0",
		Embedding:      vec,
		Specialization: "nlp",
		Proficiency:    0.9,
		HostLocation:   "node-1",
		LastUpdated:    time.Now(),
		Performance: types.PerformanceMetrics{
			Accuracy: map[string]float64{"summarize": 0.5},
		},
	}
}

func searchQuery(maxResults int) types.SearchQuery {
	return types.SearchQuery{
		Requirements: types.Requirements{PrimarySkills: []string{"summarization"}},
		Constraints:  types.Constraints{MaxResults: maxResults},
		Weights:      types.Weights{Similarity: 1},
	}
}

func TestSearchValidation(t *testing.T) {
	p := newPipeline(t, Config{})

	q := searchQuery(0)
	_, err := p.svc.Search(context.Background(), q)
	require.ErrorIs(t, err, types.ErrValidation)

	q = searchQuery(5)
	q.Requirements.PrimarySkills = nil
	_, err = p.svc.Search(context.Background(), q)
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestRegisterThenSearchReturnsTopHit(t *testing.T) {
	p := newPipeline(t, Config{})
	require.NoError(t, p.reg.Add(pipelineModule("target", []float32{1, 0})))
	require.NoError(t, p.reg.Add(pipelineModule("other", []float32{0, 1})))

	// Query with the target's exact embedding.
	q := searchQuery(5)
	q.Vector = []float32{1, 0}

	resp, err := p.svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "target", resp.Results[0].Module.ID)
	assert.InDelta(t, 1.0, resp.Results[0].Scores.Similarity, 1e-9)
}

func TestSearchRespectsMaxResults(t *testing.T) {
	p := newPipeline(t, Config{})
	vecs := [][]float32{{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0.7, 0.3}}
	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		require.NoError(t, p.reg.Add(pipelineModule(id, vecs[i])))
	}

	resp, err := p.svc.Search(context.Background(), searchQuery(2))
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Equal(t, 2, resp.Results[1].Rank)
}

func TestSearchCacheHit(t *testing.T) {
	p := newPipeline(t, Config{})
	require.NoError(t, p.reg.Add(pipelineModule("a", []float32{1, 0})))

	first, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results[0].Module.ID, second.Results[0].Module.ID)
}

func TestDifferentWeightsMissCache(t *testing.T) {
	p := newPipeline(t, Config{})
	require.NoError(t, p.reg.Add(pipelineModule("a", []float32{1, 0})))

	_, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)

	q := searchQuery(5)
	q.Weights = types.Weights{Performance: 1}
	resp, err := p.svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit, "weights are part of the fingerprint")
}

func TestRemovalInvalidatesCachedResults(t *testing.T) {
	p := newPipeline(t, Config{})
	require.NoError(t, p.reg.Add(pipelineModule("doomed", []float32{1, 0})))
	require.NoError(t, p.reg.Add(pipelineModule("stays", []float32{0.9, 0.1})))

	first, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)
	require.Equal(t, "doomed", first.Results[0].Module.ID)

	require.True(t, p.reg.Remove("doomed"))

	// The pre-removal cache entry referenced the module; invalidation
	// forces a recompute that can no longer see it.
	after, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)
	assert.False(t, after.CacheHit)
	for _, r := range after.Results {
		assert.NotEqual(t, "doomed", r.Module.ID)
	}
}

func TestSignificantUpdateInvalidatesCachedResults(t *testing.T) {
	p := newPipeline(t, Config{})
	require.NoError(t, p.reg.Add(pipelineModule("a", []float32{1, 0})))

	_, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)

	// Accuracy 0.5 -> 0.95: above the significance threshold.
	sig, err := p.reg.UpdatePerformance("a", types.MetricSample{TaskType: "summarize", Accuracy: 0.95})
	require.NoError(t, err)
	require.True(t, sig)

	resp, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)
	assert.False(t, resp.CacheHit, "significant update drops entries containing the module")
}

func TestInsignificantUpdateKeepsCache(t *testing.T) {
	p := newPipeline(t, Config{})
	require.NoError(t, p.reg.Add(pipelineModule("a", []float32{1, 0})))

	_, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)

	sig, err := p.reg.UpdatePerformance("a", types.MetricSample{TaskType: "summarize", Accuracy: 0.52})
	require.NoError(t, err)
	require.False(t, sig)

	resp, err := p.svc.Search(context.Background(), searchQuery(5))
	require.NoError(t, err)
	assert.True(t, resp.CacheHit)
}

func TestSearchAppliesConstraintFilter(t *testing.T) {
	p := newPipeline(t, Config{})

	skilled := pipelineModule("skilled", []float32{1, 0})
	novice := pipelineModule("novice", []float32{0.95, 0.05})
	novice.Proficiency = 0.2
	require.NoError(t, p.reg.Add(skilled))
	require.NoError(t, p.reg.Add(novice))

	q := searchQuery(5)
	q.Requirements.ProficiencyThreshold = 0.5

	resp, err := p.svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "skilled", resp.Results[0].Module.ID)
	assert.Equal(t, 2, resp.Candidates)
	assert.Equal(t, 1, resp.Survivors)
}

func TestSearchDefaultsToBalancedPreset(t *testing.T) {
	p := newPipeline(t, Config{})
	require.NoError(t, p.reg.Add(pipelineModule("a", []float32{1, 0})))

	q := searchQuery(5)
	q.Weights = types.Weights{}

	resp, err := p.svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Greater(t, resp.Results[0].CompositeScore, 0.0)
}

func TestSearchWithCacheDisabled(t *testing.T) {
	p := newPipeline(t, Config{DisableCache: true})
	require.NoError(t, p.reg.Add(pipelineModule("a", []float32{1, 0})))

	for i := 0; i < 2; i++ {
		resp, err := p.svc.Search(context.Background(), searchQuery(5))
		require.NoError(t, err)
		assert.False(t, resp.CacheHit)
	}
}
