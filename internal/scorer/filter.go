package scorer

import (
	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Candidate is a module paired with the similarity the vector index
// reported for it. Similarity is carried through scoring, never
// recomputed.
type Candidate struct {
	Module     *types.CapabilityModule
	Similarity float64
}

// Filter applies the hard exclusions: excluded ids, proficiency below
// the requirement threshold, and missing required compatibility tags (a
// survivor must hold every required tag). Node affinity is a soft
// preference handled by the scorer, never an exclusion here. Input
// order is not preserved for dropped gaps; survivors keep their
// relative order.
func Filter(candidates []Candidate, req types.Requirements, cons types.Constraints) []Candidate {
	excluded := make(map[string]struct{}, len(cons.ExcludedIDs))
	for _, id := range cons.ExcludedIDs {
		excluded[id] = struct{}{}
	}

	survivors := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Module == nil {
			continue
		}
		if _, skip := excluded[c.Module.ID]; skip {
			continue
		}
		if c.Module.Proficiency < req.ProficiencyThreshold {
			continue
		}
		if !hasAllTags(c.Module.CompatibilityTags, cons.RequiredCompatibilityTags) {
			continue
		}
		survivors = append(survivors, c)
	}
	return survivors
}

func hasAllTags(have, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, tag := range have {
		set[tag] = struct{}{}
	}
	for _, tag := range required {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}
