package scorer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/capmatch-mcp/internal/health"
	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Named weight presets resolved from configuration.
const (
	PresetBalanced    = "balanced"
	PresetPerformance = "performance" // latency-sensitive callers
	PresetSimilarity  = "similarity"  // exploratory search
)

// Config tunes the five sub-score computations.
type Config struct {
	// ResponseTimeCeilingMs is the probe response time above which a
	// host no longer counts as fully available (default 500).
	ResponseTimeCeilingMs float64

	// UnavailablePenalty is the availability score for offline, slow,
	// or unknown hosts (default 0.2).
	UnavailablePenalty float64

	// RecencyTauDays is the e-folding time of the recency decay:
	// exp(-days/tau), so ~37% weight remains after tau days
	// (default 30).
	RecencyTauDays float64

	// WinSaturation and UsageSaturation are the half-way points of the
	// saturating win-count and usage-count bonuses (defaults 20, 50).
	WinSaturation   float64
	UsageSaturation float64

	// AffinityPenalty is subtracted from availability when the query
	// carries a node affinity the module's host does not match
	// (default 0.15).
	AffinityPenalty float64

	// HighConfidence is the sub-score threshold above which a factor is
	// named in the rationale (default 0.8).
	HighConfidence float64

	// Workers bounds parallel candidate scoring (default GOMAXPROCS).
	Workers int

	// Presets maps preset name to weights. Defaults provide balanced,
	// performance, and similarity; entries here override or extend.
	Presets map[string]types.Weights
}

func (c *Config) setDefaults() {
	if c.ResponseTimeCeilingMs <= 0 {
		c.ResponseTimeCeilingMs = 500
	}
	if c.UnavailablePenalty <= 0 {
		c.UnavailablePenalty = 0.2
	}
	if c.RecencyTauDays <= 0 {
		c.RecencyTauDays = 30
	}
	if c.WinSaturation <= 0 {
		c.WinSaturation = 20
	}
	if c.UsageSaturation <= 0 {
		c.UsageSaturation = 50
	}
	if c.AffinityPenalty <= 0 {
		c.AffinityPenalty = 0.15
	}
	if c.HighConfidence <= 0 {
		c.HighConfidence = 0.8
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}

	presets := map[string]types.Weights{
		PresetBalanced:    {Similarity: 0.3, Performance: 0.25, Availability: 0.2, Recency: 0.1, Community: 0.15},
		PresetPerformance: {Similarity: 0.15, Performance: 0.4, Availability: 0.3, Recency: 0.1, Community: 0.05},
		PresetSimilarity:  {Similarity: 0.55, Performance: 0.15, Availability: 0.1, Recency: 0.1, Community: 0.1},
	}
	for name, w := range c.Presets {
		presets[name] = w
	}
	c.Presets = presets
}

// Scorer computes the five-factor composite score. Scoring is a pure
// read over the candidate and the health snapshot, so candidates are
// scored in parallel.
type Scorer struct {
	cfg    Config
	health *health.Store
}

// New creates a scorer reading availability from the given snapshot
// store.
func New(healthStore *health.Store, cfg Config) *Scorer {
	cfg.setDefaults()
	return &Scorer{cfg: cfg, health: healthStore}
}

// Preset resolves a named weight preset from configuration.
func (s *Scorer) Preset(name string) (types.Weights, bool) {
	w, ok := s.cfg.Presets[name]
	return w, ok
}

// Score ranks the surviving candidates. The returned slice is sorted by
// descending composite score with ranks assigned 1-based. Weights are
// applied as a raw linear combination; the engine never renormalizes
// them, so the caller's scale passes straight through to the composite.
func (s *Scorer) Score(ctx context.Context, candidates []Candidate, query types.SearchQuery, now time.Time) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, cand := range candidates {
		g.Go(func() error {
			results[i] = s.scoreOne(cand, query, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CompositeScore != results[j].CompositeScore {
			return results[i].CompositeScore > results[j].CompositeScore
		}
		return results[i].Module.ID < results[j].Module.ID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

func (s *Scorer) scoreOne(cand Candidate, query types.SearchQuery, now time.Time) types.SearchResult {
	mod := cand.Module
	w := query.Weights

	scores := types.SubScores{
		Similarity:   types.Clamp01(cand.Similarity),
		Performance:  s.performanceScore(mod),
		Availability: s.availabilityScore(mod, query.Constraints.NodeAffinity),
		Recency:      s.recencyScore(mod, now),
		Community:    s.communityScore(mod),
	}

	composite := w.Similarity*scores.Similarity +
		w.Performance*scores.Performance +
		w.Availability*scores.Availability +
		w.Recency*scores.Recency +
		w.Community*scores.Community

	estLatency := mod.Performance.MeanLatencyMs()

	return types.SearchResult{
		Module:                mod,
		Scores:                scores,
		CompositeScore:        composite,
		Rationale:             s.rationale(scores),
		EstimatedLatencyMs:    estLatency,
		CompatibilityWarnings: s.warnings(mod, query.Constraints, estLatency),
	}
}

// performanceScore blends mean per-task accuracy, a saturating win
// bonus, and the collaboration score.
func (s *Scorer) performanceScore(mod *types.CapabilityModule) float64 {
	accuracy := mod.Performance.MeanAccuracy()
	winBonus := saturate(float64(mod.Performance.WinCount), s.cfg.WinSaturation)
	return types.Clamp01(0.6*accuracy + 0.2*winBonus + 0.2*mod.Performance.CollaborationScore)
}

// availabilityScore reads the health snapshot. Unknown hosts are
// treated as unavailable. A node-affinity mismatch applies the soft
// penalty here rather than excluding the candidate.
func (s *Scorer) availabilityScore(mod *types.CapabilityModule, affinity string) float64 {
	score := s.cfg.UnavailablePenalty
	if st, known := s.health.Lookup(mod.HostLocation); known && st.Online && st.ResponseTimeMs <= s.cfg.ResponseTimeCeilingMs {
		score = 1.0
	}
	if affinity != "" && mod.HostLocation != affinity {
		score -= s.cfg.AffinityPenalty
	}
	return types.Clamp01(score)
}

// recencyScore decays exponentially with days since last update.
func (s *Scorer) recencyScore(mod *types.CapabilityModule, now time.Time) float64 {
	if mod.LastUpdated.IsZero() {
		return 0
	}
	days := now.Sub(mod.LastUpdated).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / s.cfg.RecencyTauDays)
}

// communityScore blends the normalized rating with a saturating usage
// bonus. Unrated modules contribute only usage.
func (s *Scorer) communityScore(mod *types.CapabilityModule) float64 {
	var rating float64
	if mod.CommunityRating >= 1 {
		rating = (mod.CommunityRating - 1) / 4
	}
	usage := saturate(float64(mod.UsageCount), s.cfg.UsageSaturation)
	return types.Clamp01(0.6*rating + 0.4*usage)
}

func (s *Scorer) rationale(scores types.SubScores) string {
	var parts []string
	if scores.Similarity >= s.cfg.HighConfidence {
		parts = append(parts, "close capability match")
	}
	if scores.Performance >= s.cfg.HighConfidence {
		parts = append(parts, "strong measured performance")
	}
	if scores.Availability >= s.cfg.HighConfidence {
		parts = append(parts, "host responsive")
	}
	if scores.Recency >= s.cfg.HighConfidence {
		parts = append(parts, "recently active")
	}
	if scores.Community >= s.cfg.HighConfidence {
		parts = append(parts, "well regarded")
	}
	if len(parts) == 0 {
		return "no factor above confidence threshold"
	}
	return strings.Join(parts, "; ")
}

func (s *Scorer) warnings(mod *types.CapabilityModule, cons types.Constraints, estLatency float64) []string {
	var warnings []string
	if cons.MaxLatencyMs > 0 && estLatency > cons.MaxLatencyMs {
		warnings = append(warnings, fmt.Sprintf("estimated latency %.0fms exceeds limit %.0fms", estLatency, cons.MaxLatencyMs))
	}
	if cons.NodeAffinity != "" && mod.HostLocation != cons.NodeAffinity {
		warnings = append(warnings, fmt.Sprintf("host %s does not match preferred node %s", mod.HostLocation, cons.NodeAffinity))
	}
	return warnings
}

// saturate maps v >= 0 into [0, 1) with half saturation at half.
func saturate(v, half float64) float64 {
	if v <= 0 {
		return 0
	}
	return v / (v + half)
}
