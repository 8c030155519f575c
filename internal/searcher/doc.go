// Package searcher orchestrates the retrieval pipeline and owns the
// result cache.
//
// # Pipeline
//
// A search runs five stages, none of which performs network I/O:
//
//  1. Validate the query (types.ErrValidation on malformed input).
//  2. Resolve the query vector: use the caller's pre-computed vector,
//     or embed the requirements through the injected provider.
//  3. Query the vector index for the top K candidates (K widened
//     beyond MaxResults so filtering still leaves enough survivors)
//     and intersect with the registry's records.
//  4. Apply the hard constraint filter, then the five-factor scorer.
//  5. Truncate to MaxResults and memoize the ranked list.
//
//	svc := searcher.NewService(reg, idx, provider, sc, searcher.Config{})
//
//	resp, err := svc.Search(ctx, types.SearchQuery{
//	    Requirements: types.Requirements{PrimarySkills: []string{"summarization"}},
//	    Constraints:  types.Constraints{MaxResults: 10},
//	})
//
// # Caching
//
// Results are memoized in an LRU keyed by a sha256 fingerprint of the
// query. The fingerprint covers every output-affecting field —
// requirements, constraints, weights, and any pre-computed vector — so
// queries differing only in weights never collide.
//
// Entries expire after a fixed TTL (default 5 minutes) and are dropped
// proactively when the registry reports a removal or a significant
// performance update touching a module the entry contains. Cache
// staleness is never an error: a dropped or expired entry simply
// recomputes on the next search.
package searcher
