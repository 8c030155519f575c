package assembler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/capmatch-mcp/pkg/types"
)

func result(id, specialization string, rank int, score float64, tags ...string) types.SearchResult {
	return types.SearchResult{
		Module: &types.CapabilityModule{
			ID:                id,
			Name:              id,
			Specialization:    specialization,
			CompatibilityTags: tags,
			Performance: types.PerformanceMetrics{
				Accuracy: map[string]float64{"summarize": score},
			},
		},
		Rank:           rank,
		CompositeScore: score,
	}
}

func TestBestMatchIsPrefix(t *testing.T) {
	sel := New(Config{})

	ranked := make([]types.SearchResult, 10)
	for i := range ranked {
		ranked[i] = result(fmt.Sprintf("m-%d", i), "nlp", i+1, 1.0-float64(i)*0.05)
	}

	out, err := sel.Assemble(ranked, StrategyBestMatch, "team")
	require.NoError(t, err)
	require.Len(t, out.Selected, DefaultBestMatchSize)

	for i, r := range out.Selected {
		assert.Equal(t, ranked[i].Module.ID, r.Module.ID, "best-match preserves input order")
	}
}

func TestBestMatchShortInput(t *testing.T) {
	sel := New(Config{})

	ranked := []types.SearchResult{result("only", "nlp", 1, 0.9)}
	out, err := sel.Assemble(ranked, StrategyBestMatch, "team")
	require.NoError(t, err)
	assert.Len(t, out.Selected, 1)
}

func TestDiverseEnsembleUniqueSpecializations(t *testing.T) {
	sel := New(Config{})

	ranked := []types.SearchResult{
		result("a", "nlp", 1, 0.9),
		result("b", "nlp", 2, 0.85),
		result("c", "vision", 3, 0.8),
		result("d", "vision", 4, 0.75),
		result("e", "audio", 5, 0.7),
	}

	out, err := sel.Assemble(ranked, StrategyDiverseEnsemble, "team")
	require.NoError(t, err)
	require.Len(t, out.Selected, 3)

	seen := map[string]bool{}
	for _, r := range out.Selected {
		spec := r.Module.Specialization
		assert.False(t, seen[spec], "specialization %q selected twice", spec)
		seen[spec] = true
	}
	// Highest-ranked representative wins per specialization.
	assert.Equal(t, "a", out.Selected[0].Module.ID)
	assert.Equal(t, "c", out.Selected[1].Module.ID)
}

func TestDiverseEnsembleBound(t *testing.T) {
	sel := New(Config{DiverseSize: 2})

	ranked := []types.SearchResult{
		result("a", "nlp", 1, 0.9),
		result("b", "vision", 2, 0.8),
		result("c", "audio", 3, 0.7),
	}

	out, err := sel.Assemble(ranked, StrategyDiverseEnsemble, "team")
	require.NoError(t, err)
	assert.Len(t, out.Selected, 2)
}

func TestSpecialistStackCompatibilityGate(t *testing.T) {
	sel := New(Config{})

	// Seed S; X outranks Y but is less compatible with S.
	seed := result("S", "nlp", 1, 0.95, "a", "b", "c", "d")
	x := result("X", "vision", 2, 0.9, "a", "b") // jaccard 0.5, no spec bonus
	y := result("Y", "nlp", 3, 0.85, "a", "b", "c")

	assert.InDelta(t, 0.5, Compatibility(x.Module, seed.Module), 1e-9)
	assert.InDelta(t, 1.0, Compatibility(y.Module, seed.Module), 1e-9)

	out, err := sel.Assemble([]types.SearchResult{seed, x, y}, StrategySpecialistStack, "stack")
	require.NoError(t, err)
	require.Len(t, out.Selected, 2)
	assert.Equal(t, "S", out.Selected[0].Module.ID)
	assert.Equal(t, "Y", out.Selected[1].Module.ID, "Y included despite X outranking it")
}

func TestSpecialistStackEmptyInput(t *testing.T) {
	sel := New(Config{})

	out, err := sel.Assemble(nil, StrategySpecialistStack, "stack")
	require.NoError(t, err)
	assert.Empty(t, out.Selected)
}

func TestInvalidStrategy(t *testing.T) {
	sel := New(Config{})

	_, err := sel.Assemble([]types.SearchResult{result("a", "nlp", 1, 0.9)}, "top-3", "team")
	require.ErrorIs(t, err, types.ErrInvalidStrategy)
}

func TestAggregateAndProjection(t *testing.T) {
	sel := New(Config{})

	a := result("a", "nlp", 1, 0.9)
	a.Module.Performance.Accuracy = map[string]float64{"summarize": 0.8, "extract": 0.6}
	b := result("b", "vision", 2, 0.7)
	b.Module.Performance.Accuracy = map[string]float64{"summarize": 0.6}

	out, err := sel.Assemble([]types.SearchResult{a, b}, StrategyBestMatch, "team")
	require.NoError(t, err)

	assert.InDelta(t, 0.8, out.AggregateScore, 1e-9)
	assert.InDelta(t, 0.7, out.TaskProjection["summarize"], 1e-9)
	assert.InDelta(t, 0.6, out.TaskProjection["extract"], 1e-9)
	assert.Equal(t, StrategyBestMatch, out.Strategy)
	assert.Equal(t, "team", out.Name)
}

func TestCompatibilityProperties(t *testing.T) {
	a := &types.CapabilityModule{Specialization: "nlp", CompatibilityTags: []string{"x", "y"}}
	b := &types.CapabilityModule{Specialization: "nlp", CompatibilityTags: []string{"x", "y"}}
	c := &types.CapabilityModule{Specialization: "vision"}

	assert.Equal(t, Compatibility(a, b), Compatibility(b, a), "symmetric")
	assert.InDelta(t, 1.0, Compatibility(a, b), 1e-9, "identical tags + shared specialization saturates")
	assert.Zero(t, Compatibility(a, c), "no overlap at all")
}
