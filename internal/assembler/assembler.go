package assembler

import (
	"fmt"

	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Strategy identifiers.
const (
	StrategyBestMatch       = "best-match"
	StrategyDiverseEnsemble = "diverse-ensemble"
	StrategySpecialistStack = "specialist-stack"
)

// Default subset bounds and the specialist compatibility threshold.
const (
	DefaultBestMatchSize      = 5
	DefaultDiverseSize        = 8
	DefaultSpecialistSize     = 6
	DefaultCompatThreshold    = 0.7
	specializationCompatBonus = 0.25
)

// Config tunes the per-strategy bounds.
type Config struct {
	BestMatchSize  int
	DiverseSize    int
	SpecialistSize int

	// CompatThreshold is the minimum average compatibility against the
	// already-selected set for specialist-stack acceptance.
	CompatThreshold float64
}

func (c *Config) setDefaults() {
	if c.BestMatchSize <= 0 {
		c.BestMatchSize = DefaultBestMatchSize
	}
	if c.DiverseSize <= 0 {
		c.DiverseSize = DefaultDiverseSize
	}
	if c.SpecialistSize <= 0 {
		c.SpecialistSize = DefaultSpecialistSize
	}
	if c.CompatThreshold <= 0 {
		c.CompatThreshold = DefaultCompatThreshold
	}
}

// Selector turns a rank-sorted result list into a bounded composed
// subset. It never re-ranks: every strategy scans in the order given.
type Selector struct {
	cfg Config
}

// New creates a selector.
func New(cfg Config) *Selector {
	cfg.setDefaults()
	return &Selector{cfg: cfg}
}

// Assemble applies the named strategy to an already rank-sorted list.
// An unrecognized strategy fails with types.ErrInvalidStrategy; there
// is deliberately no fallback.
func (s *Selector) Assemble(results []types.SearchResult, strategy, name string) (*types.AssemblyResult, error) {
	var selected []types.SearchResult
	switch strategy {
	case StrategyBestMatch:
		selected = s.bestMatch(results)
	case StrategyDiverseEnsemble:
		selected = s.diverseEnsemble(results)
	case StrategySpecialistStack:
		selected = s.specialistStack(results)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidStrategy, strategy)
	}

	return &types.AssemblyResult{
		Name:           name,
		Strategy:       strategy,
		Selected:       selected,
		AggregateScore: aggregateScore(selected),
		TaskProjection: taskProjection(selected),
	}, nil
}

// bestMatch takes the first N results in their existing order, overlap
// ignored.
func (s *Selector) bestMatch(results []types.SearchResult) []types.SearchResult {
	n := s.cfg.BestMatchSize
	if n > len(results) {
		n = len(results)
	}
	return append([]types.SearchResult(nil), results[:n]...)
}

// diverseEnsemble greedily keeps at most one result per specialization,
// scanning in rank order.
func (s *Selector) diverseEnsemble(results []types.SearchResult) []types.SearchResult {
	seen := make(map[string]struct{})
	selected := make([]types.SearchResult, 0, s.cfg.DiverseSize)
	for _, r := range results {
		if len(selected) == s.cfg.DiverseSize {
			break
		}
		spec := r.Module.Specialization
		if _, dup := seen[spec]; dup {
			continue
		}
		seen[spec] = struct{}{}
		selected = append(selected, r)
	}
	return selected
}

// specialistStack seeds with the top result, then accepts later results
// only when their average compatibility with the already-selected set
// exceeds the threshold.
func (s *Selector) specialistStack(results []types.SearchResult) []types.SearchResult {
	if len(results) == 0 {
		return nil
	}

	selected := make([]types.SearchResult, 0, s.cfg.SpecialistSize)
	selected = append(selected, results[0])

	for _, r := range results[1:] {
		if len(selected) == s.cfg.SpecialistSize {
			break
		}
		if s.setCompatibility(r, selected) > s.cfg.CompatThreshold {
			selected = append(selected, r)
		}
	}
	return selected
}

// setCompatibility is the mean pairwise compatibility between a
// candidate and every already-selected result.
func (s *Selector) setCompatibility(cand types.SearchResult, selected []types.SearchResult) float64 {
	var sum float64
	for _, r := range selected {
		sum += Compatibility(cand.Module, r.Module)
	}
	return sum / float64(len(selected))
}

// Compatibility scores how well two modules work together: the Jaccard
// overlap of their compatibility tags plus a fixed bonus for a shared
// specialization, clamped to [0, 1]. Deterministic and symmetric.
func Compatibility(a, b *types.CapabilityModule) float64 {
	score := jaccard(a.CompatibilityTags, b.CompatibilityTags)
	if a.Specialization != "" && a.Specialization == b.Specialization {
		score += specializationCompatBonus
	}
	return types.Clamp01(score)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}
	var intersection int
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, tag := range b {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := set[tag]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// aggregateScore is the mean composite score of the selection.
func aggregateScore(selected []types.SearchResult) float64 {
	if len(selected) == 0 {
		return 0
	}
	var sum float64
	for _, r := range selected {
		sum += r.CompositeScore
	}
	return sum / float64(len(selected))
}

// taskProjection estimates per-task expected accuracy: for every task
// type measured by any selected module, the mean accuracy across the
// modules that have measured it.
func taskProjection(selected []types.SearchResult) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range selected {
		for task, acc := range r.Module.Performance.Accuracy {
			sums[task] += acc
			counts[task]++
		}
	}
	if len(sums) == 0 {
		return nil
	}
	projection := make(map[string]float64, len(sums))
	for task, sum := range sums {
		projection[task] = sum / float64(counts[task])
	}
	return projection
}
