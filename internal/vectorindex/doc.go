// Package vectorindex provides the nearest-neighbor store over
// fixed-dimension capability vectors.
//
// The Index interface is intentionally implementation-agnostic: it
// exposes insert, remove, and top-K query only, so a brute-force scan
// and a true approximate-nearest-neighbor structure are
// interchangeable. Flat is the brute-force implementation; a linear
// scan is acceptable below roughly 10^5 entries.
//
// # Usage
//
//	idx := vectorindex.NewFlat(384)
//
//	_ = idx.Insert("mod-a", vecA)
//	_ = idx.Insert("mod-b", vecB)
//
//	matches, err := idx.Query(queryVec, 10)
//	for _, m := range matches {
//	    fmt.Printf("%s %.3f\n", m.ID, m.Similarity)
//	}
//
// Matches come back sorted by descending cosine similarity with a
// deterministic id tie-break. Similarity is defined as 0 when either
// vector has zero magnitude.
//
// Inserting or querying with a vector whose length differs from the
// index dimension fails with types.ErrDimensionMismatch; a
// non-positive topK fails with types.ErrValidation.
//
// Flat is safe for concurrent use. Queries are pure reads under an
// RWMutex; Insert replaces any prior entry for the same id atomically.
package vectorindex
