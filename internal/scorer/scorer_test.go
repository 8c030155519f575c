package scorer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/capmatch-mcp/internal/health"
	"github.com/dshills/capmatch-mcp/pkg/types"
)

func newTestScorer(snap health.Snapshot) *Scorer {
	store := health.NewStore()
	if snap != nil {
		store.Update(snap)
	}
	return New(store, Config{})
}

func scoringModule() *types.CapabilityModule {
	return &types.CapabilityModule{
		ID:              "mod-1",
		Name:            "Summarizer",
		Specialization:  "nlp",
		Proficiency:     0.9,
		CommunityRating: 5,
		UsageCount:      1000,
		HostLocation:    "node-1",
		LastUpdated:     time.Now(),
		Performance: types.PerformanceMetrics{
			Accuracy:           map[string]float64{"summarize": 1.0},
			LatencyMs:          map[string]float64{"summarize": 100, "extract": 300},
			WinCount:           1000,
			CollaborationScore: 1.0,
		},
	}
}

func TestScoreSubScoreRanges(t *testing.T) {
	s := newTestScorer(health.Snapshot{"node-1": {Online: true, ResponseTimeMs: 50}})

	query := types.SearchQuery{
		Constraints: types.Constraints{MaxResults: 10},
		Weights:     types.Weights{Similarity: 1, Performance: 1, Availability: 1, Recency: 1, Community: 1},
	}

	results, err := s.Score(context.Background(), []Candidate{{Module: scoringModule(), Similarity: 1.2}}, query, time.Now())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.NoError(t, r.Validate())
	assert.Equal(t, 1.0, r.Scores.Similarity, "similarity clamped to [0,1]")
	assert.InDelta(t, 1.0, r.Scores.Availability, 1e-9)
	assert.Greater(t, r.Scores.Performance, 0.9)
	assert.Greater(t, r.Scores.Community, 0.9)
	assert.InDelta(t, 200, r.EstimatedLatencyMs, 1e-9)
}

func TestAvailabilityUnknownHostPenalized(t *testing.T) {
	s := newTestScorer(nil)

	mod := scoringModule()
	assert.InDelta(t, 0.2, s.availabilityScore(mod, ""), 1e-9)
}

func TestAvailabilitySlowHostPenalized(t *testing.T) {
	s := newTestScorer(health.Snapshot{"node-1": {Online: true, ResponseTimeMs: 900}})

	mod := scoringModule()
	assert.InDelta(t, 0.2, s.availabilityScore(mod, ""), 1e-9)
}

func TestAvailabilityAffinityMismatchSoftPenalty(t *testing.T) {
	s := newTestScorer(health.Snapshot{"node-1": {Online: true, ResponseTimeMs: 50}})

	mod := scoringModule()
	assert.InDelta(t, 1.0, s.availabilityScore(mod, "node-1"), 1e-9)
	assert.InDelta(t, 0.85, s.availabilityScore(mod, "node-2"), 1e-9)
}

func TestRecencyDecay(t *testing.T) {
	s := newTestScorer(nil)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	fresh := scoringModule()
	fresh.LastUpdated = now
	assert.InDelta(t, 1.0, s.recencyScore(fresh, now), 1e-9)

	monthOld := scoringModule()
	monthOld.LastUpdated = now.AddDate(0, 0, -30)
	assert.InDelta(t, math.Exp(-1), s.recencyScore(monthOld, now), 1e-6, "~37% weight at 30 days")

	never := scoringModule()
	never.LastUpdated = time.Time{}
	assert.Zero(t, s.recencyScore(never, now))
}

func TestCompositeIsRawWeightedSum(t *testing.T) {
	s := newTestScorer(health.Snapshot{"node-1": {Online: true, ResponseTimeMs: 50}})

	query := types.SearchQuery{
		Constraints: types.Constraints{MaxResults: 5},
		Weights:     types.Weights{Similarity: 2, Performance: 0, Availability: 0, Recency: 0, Community: 0},
	}

	results, err := s.Score(context.Background(), []Candidate{{Module: scoringModule(), Similarity: 0.5}}, query, time.Now())
	require.NoError(t, err)

	// Weights are not renormalized: 2 * 0.5 = 1.0.
	assert.InDelta(t, 1.0, results[0].CompositeScore, 1e-9)
}

func TestScoreOrdersByCompositeDescending(t *testing.T) {
	s := newTestScorer(health.Snapshot{"node-1": {Online: true, ResponseTimeMs: 50}})

	strong := Candidate{Module: scoringModule(), Similarity: 0.95}
	weak := Candidate{Module: scoringModule(), Similarity: 0.1}
	weak.Module = weak.Module.Clone()
	weak.Module.ID = "mod-2"

	query := types.SearchQuery{
		Constraints: types.Constraints{MaxResults: 5},
		Weights:     types.Weights{Similarity: 1},
	}

	results, err := s.Score(context.Background(), []Candidate{weak, strong}, query, time.Now())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "mod-1", results[0].Module.ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
}

func TestRationaleNamesHighFactors(t *testing.T) {
	s := newTestScorer(health.Snapshot{"node-1": {Online: true, ResponseTimeMs: 50}})

	query := types.SearchQuery{
		Constraints: types.Constraints{MaxResults: 5},
		Weights:     types.Weights{Similarity: 1},
	}

	results, err := s.Score(context.Background(), []Candidate{{Module: scoringModule(), Similarity: 0.99}}, query, time.Now())
	require.NoError(t, err)

	r := results[0].Rationale
	assert.Contains(t, r, "close capability match")
	assert.Contains(t, r, "host responsive")
}

func TestWarnings(t *testing.T) {
	s := newTestScorer(nil)

	query := types.SearchQuery{
		Constraints: types.Constraints{
			MaxResults:   5,
			MaxLatencyMs: 150,
			NodeAffinity: "node-9",
		},
		Weights: types.Weights{Similarity: 1},
	}

	results, err := s.Score(context.Background(), []Candidate{{Module: scoringModule(), Similarity: 0.5}}, query, time.Now())
	require.NoError(t, err)

	warnings := results[0].CompatibilityWarnings
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "estimated latency")
	assert.Contains(t, warnings[1], "node-9")
}

func TestPresetLookup(t *testing.T) {
	s := newTestScorer(nil)

	perf, ok := s.Preset(PresetPerformance)
	require.True(t, ok)
	assert.Greater(t, perf.Performance, perf.Similarity)

	sim, ok := s.Preset(PresetSimilarity)
	require.True(t, ok)
	assert.Greater(t, sim.Similarity, sim.Performance)

	_, ok = s.Preset("nonsense")
	assert.False(t, ok)
}

func TestPresetOverrideFromConfig(t *testing.T) {
	store := health.NewStore()
	s := New(store, Config{
		Presets: map[string]types.Weights{
			"custom": {Similarity: 9},
		},
	})

	w, ok := s.Preset("custom")
	require.True(t, ok)
	assert.Equal(t, 9.0, w.Similarity)

	// Defaults still present.
	_, ok = s.Preset(PresetBalanced)
	assert.True(t, ok)
}
