package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Match is one nearest-neighbor hit.
type Match struct {
	ID         string
	Similarity float64
}

// Index is the nearest-neighbor contract. Flat satisfies it with a
// brute-force scan, which is fine below ~100k entries; larger
// deployments can substitute an approximate-neighbor structure behind
// the same interface without touching callers.
type Index interface {
	// Insert adds or replaces the vector stored under id.
	Insert(id string, vector []float32) error

	// Remove deletes id's entry. Removing an unknown id is a no-op.
	Remove(id string)

	// Query returns up to topK (id, similarity) pairs sorted by
	// descending cosine similarity to the query vector.
	Query(vector []float32, topK int) ([]Match, error)

	// Size returns the current entry count.
	Size() int

	// Dimension returns the fixed vector dimension.
	Dimension() int
}

// Flat is the brute-force Index implementation: a mutex-guarded map
// scanned linearly per query.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	vectors map[string][]float32
}

// NewFlat creates a brute-force index over vectors of the given
// dimension.
func NewFlat(dimension int) *Flat {
	return &Flat{
		dim:     dimension,
		vectors: make(map[string][]float32),
	}
}

// Insert adds or replaces the vector stored under id.
func (f *Flat) Insert(id string, vector []float32) error {
	if len(vector) != f.dim {
		return fmt.Errorf("%w: index dimension %d, vector length %d", types.ErrDimensionMismatch, f.dim, len(vector))
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)

	f.mu.Lock()
	f.vectors[id] = stored
	f.mu.Unlock()
	return nil
}

// Remove deletes id's entry if present.
func (f *Flat) Remove(id string) {
	f.mu.Lock()
	delete(f.vectors, id)
	f.mu.Unlock()
}

// Query scans every entry, computing cosine similarity against the
// query vector, and returns the topK best matches sorted descending.
func (f *Flat) Query(vector []float32, topK int) ([]Match, error) {
	if len(vector) != f.dim {
		return nil, fmt.Errorf("%w: index dimension %d, query length %d", types.ErrDimensionMismatch, f.dim, len(vector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", types.ErrValidation, topK)
	}

	f.mu.RLock()
	matches := make([]Match, 0, len(f.vectors))
	for id, stored := range f.vectors {
		matches = append(matches, Match{
			ID:         id,
			Similarity: CosineSimilarity(vector, stored),
		})
	}
	f.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID // deterministic tie-break
	})

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Size returns the current entry count.
func (f *Flat) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dimension returns the fixed vector dimension.
func (f *Flat) Dimension() int {
	return f.dim
}

// CosineSimilarity computes dot(a,b)/(|a|*|b|). It returns 0 when the
// lengths differ or either vector has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
