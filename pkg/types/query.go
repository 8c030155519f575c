package types

import "fmt"

// Requirements describes the capability being searched for.
type Requirements struct {
	PrimarySkills   []string
	SecondarySkills []string
	Description     string

	ProficiencyThreshold float64 // minimum proficiency, [0, 1]
	Specialization       string  // preferred specialization (soft)
}

// Constraints holds the hard and soft limits applied to candidates.
// NodeAffinity is a soft preference: mismatches are penalized by the
// scorer, never excluded by the filter.
type Constraints struct {
	MaxLatencyMs              float64
	ExcludedIDs               []string
	RequiredCompatibilityTags []string
	MaxResults                int
	NodeAffinity              string
}

// Weights are the five factor weights applied as a raw linear
// combination. They are not required to sum to one and the engine never
// renormalizes them: doubling every weight doubles every composite
// score and leaves the ranking unchanged, so callers may use any scale
// they find readable.
type Weights struct {
	Similarity   float64
	Performance  float64
	Availability float64
	Recency      float64
	Community    float64
}

// SearchQuery is a structured requirement plus constraints and factor
// weights. Vector, when non-nil, is a pre-computed query embedding;
// otherwise the search service embeds Requirements before the pipeline
// starts.
type SearchQuery struct {
	Requirements Requirements
	Constraints  Constraints
	Weights      Weights
	Vector       []float32
}

// Validate rejects malformed queries before the pipeline runs.
func (q *SearchQuery) Validate() error {
	if q.Constraints.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive, got %d", ErrValidation, q.Constraints.MaxResults)
	}
	if len(q.Requirements.PrimarySkills) == 0 && q.Requirements.Description == "" && q.Vector == nil {
		return fmt.Errorf("%w: requirements are empty", ErrValidation)
	}
	if t := q.Requirements.ProficiencyThreshold; t < 0 || t > 1 {
		return fmt.Errorf("%w: proficiency threshold must be in [0,1]", ErrValidation)
	}
	if q.Weights.Similarity < 0 || q.Weights.Performance < 0 || q.Weights.Availability < 0 ||
		q.Weights.Recency < 0 || q.Weights.Community < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrValidation)
	}
	return nil
}

// IsZero reports whether no weight has been set, so a default preset
// should apply.
func (w Weights) IsZero() bool {
	return w.Similarity == 0 && w.Performance == 0 && w.Availability == 0 &&
		w.Recency == 0 && w.Community == 0
}
