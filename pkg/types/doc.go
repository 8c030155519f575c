// Package types provides shared type definitions for the CapMatch MCP server.
//
// This package defines the domain records used across the engine:
// capability modules, performance metrics, search queries, search
// results, and assembly results, together with the sentinel errors the
// engine surfaces.
//
// # Core Types
//
// CapabilityModule is a reusable, versioned unit of skill with a
// capability vector and a measured performance history:
//
//	mod := &types.CapabilityModule{
//	    ID:             "mod-summarizer",
//	    Name:           "Summarizer",
//	    Version:        "1.2.0",
//	    Embedding:      vector,
//	    Specialization: "nlp",
//	    Proficiency:    0.85,
//	}
//
// SearchQuery pairs a structured requirement with constraints and the
// five factor weights:
//
//	query := types.SearchQuery{
//	    Requirements: types.Requirements{
//	        PrimarySkills: []string{"summarization", "extraction"},
//	        Description:   "condense long incident reports",
//	    },
//	    Constraints: types.Constraints{MaxResults: 10},
//	    Weights:     types.Weights{Similarity: 0.5, Performance: 0.2, Availability: 0.1, Recency: 0.1, Community: 0.1},
//	}
//
// Weights are applied as a raw linear combination and are never
// renormalized; see the Weights documentation.
//
// # Errors
//
// The engine's failure categories are sentinel errors, matched with
// errors.Is after unwrapping:
//
//	if errors.Is(err, types.ErrDimensionMismatch) { ... }
//
// Validation helpers clamp or reject values outside their documented
// ranges (proficiency in [0,1], community rating in [1,5]).
package types
