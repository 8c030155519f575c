package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Common errors
var (
	ErrEmptyRequirement  = errors.New("requirement has no skills or description")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Provider turns a structured requirement into a capability vector. The
// engine consumes vectors, never produces them: a provider is invoked
// before the pipeline starts, never mid-scoring. Production deployments
// plug a real semantic model in behind this interface; the bundled
// local provider is a deterministic placeholder.
type Provider interface {
	// Embed returns a vector of length Dimension for the requirement.
	Embed(ctx context.Context, req types.Requirements) ([]float32, error)

	// Dimension returns the fixed vector dimension.
	Dimension() int

	// Name returns the provider name.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// Cache provides in-memory LRU caching of vectors by requirement hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector with automatic LRU eviction.
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Size returns the current cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// CanonicalText flattens a requirement into the deterministic string
// providers embed and the cache hashes.
func CanonicalText(req types.Requirements) string {
	var b strings.Builder
	b.WriteString(strings.Join(req.PrimarySkills, " "))
	if len(req.SecondarySkills) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(req.SecondarySkills, " "))
	}
	if req.Specialization != "" {
		b.WriteString(" ")
		b.WriteString(req.Specialization)
	}
	if req.Description != "" {
		b.WriteString(" ")
		b.WriteString(req.Description)
	}
	return strings.TrimSpace(b.String())
}

// ComputeHash returns the cache key for a requirement text.
func ComputeHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
