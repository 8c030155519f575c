package types

// SubScores are the five independent factor scores, each in [0, 1].
type SubScores struct {
	Similarity   float64
	Performance  float64
	Availability float64
	Recency      float64
	Community    float64
}

// SearchResult is one ranked candidate with its scoring breakdown.
type SearchResult struct {
	Module *CapabilityModule
	Rank   int // position in the ranked list (1-based)

	Scores         SubScores
	CompositeScore float64

	// Rationale is a short human-readable note naming the factors that
	// crossed the high-confidence thresholds.
	Rationale string

	// EstimatedLatencyMs comes from the module's own measured per-task
	// latency, not from a live probe.
	EstimatedLatencyMs float64

	CompatibilityWarnings []string
}

// AssemblyResult is the bounded subset of search results chosen by a
// strategy, meant to be used together.
type AssemblyResult struct {
	Name     string
	Strategy string

	// Selected preserves rank order within the chosen subset.
	Selected []SearchResult

	// AggregateScore is the mean composite score of the selection.
	AggregateScore float64

	// TaskProjection maps task type to the selection's expected
	// accuracy, averaged across selected modules that have measured
	// that task type.
	TaskProjection map[string]float64
}

// Validate checks a search result's invariants.
func (r *SearchResult) Validate() error {
	if r.Module == nil {
		return ErrValidation
	}
	if r.Rank < 1 {
		return ErrValidation
	}
	for _, s := range []float64{r.Scores.Similarity, r.Scores.Performance, r.Scores.Availability, r.Scores.Recency, r.Scores.Community} {
		if s < 0 || s > 1 {
			return ErrValidation
		}
	}
	return nil
}

// Clone returns a deep copy, used by the result cache so cached lists
// are never aliased by callers.
func (r SearchResult) Clone() SearchResult {
	dst := r
	dst.Module = r.Module.Clone()
	dst.CompatibilityWarnings = append([]string(nil), r.CompatibilityWarnings...)
	return dst
}
