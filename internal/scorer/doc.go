// Package scorer implements the hard constraint filter and the
// five-factor composite ranking over filtered candidates.
//
// # Pipeline position
//
// Candidates arrive from the vector index already carrying their
// similarity; the filter drops hard-disqualified modules and the
// scorer ranks the survivors:
//
//	survivors := scorer.Filter(candidates, query.Requirements, query.Constraints)
//	ranked, err := sc.Score(ctx, survivors, query, time.Now())
//
// # Sub-scores
//
// Each factor is computed independently in [0, 1]:
//
//   - Similarity: the index's cosine similarity, clamped, never
//     recomputed.
//   - Performance: 0.6*mean accuracy + 0.2*saturating win bonus +
//     0.2*collaboration score.
//   - Availability: 1.0 when the health snapshot shows the host online
//     under the response-time ceiling, else a fixed penalty. Unknown
//     hosts are unavailable. Node-affinity mismatches are penalized
//     here, never filtered.
//   - Recency: exp(-days/tau) over days since last update; with the
//     default tau of 30 days ~37% of the weight remains after a month.
//   - Community: 0.6*normalized rating + 0.4*saturating usage bonus.
//
// The composite is the raw weighted sum of the five sub-scores. Weights
// come from the caller and are deliberately not renormalized — scaling
// all weights scales all composites equally and changes no ordering.
//
// # Presets
//
// Named weight presets are configuration, not pipeline logic:
//
//	w, ok := sc.Preset(scorer.PresetPerformance)
//
// The defaults cover balanced, performance-dominant (latency-sensitive
// callers), and similarity-dominant (exploratory search); Config can
// override or extend them.
//
// # Concurrency
//
// Scoring one candidate touches no shared mutable state, so candidates
// are scored on an errgroup bounded by Config.Workers. The health
// snapshot is read-only for the duration of a pass.
package scorer
