package searcher

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/capmatch-mcp/internal/embedder"
	"github.com/dshills/capmatch-mcp/internal/registry"
	"github.com/dshills/capmatch-mcp/internal/scorer"
	"github.com/dshills/capmatch-mcp/internal/vectorindex"
	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Config tunes the search pipeline.
type Config struct {
	// CacheTTL is the result cache expiry (default 5m).
	CacheTTL time.Duration

	// CacheSize is the result cache entry capacity (default 1000).
	CacheSize int

	// CandidateMultiplier widens the index query beyond MaxResults so
	// filtering still leaves enough survivors (default 4).
	CandidateMultiplier int

	// DisableCache turns result memoization off.
	DisableCache bool
}

func (c *Config) setDefaults() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 1000
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 4
	}
}

// Service orchestrates the retrieval pipeline: embed (if needed) ->
// index top-K -> constraint filter -> composite scoring -> cache.
type Service struct {
	cfg      Config
	registry *registry.Registry
	index    vectorindex.Index
	provider embedder.Provider
	scorer   *scorer.Scorer
	cache    *ResultCache
}

// Response carries results plus pipeline metadata.
type Response struct {
	Results    []types.SearchResult
	CacheHit   bool
	Candidates int // index matches before filtering
	Survivors  int // candidates left after the constraint filter
	Duration   time.Duration
}

// NewService wires the pipeline. The result cache subscribes to the
// registry so removals and significant updates drop the entries that
// name the affected module.
func NewService(reg *registry.Registry, index vectorindex.Index, provider embedder.Provider, sc *scorer.Scorer, cfg Config) *Service {
	cfg.setDefaults()

	s := &Service{
		cfg:      cfg,
		registry: reg,
		index:    index,
		provider: provider,
		scorer:   sc,
		cache:    NewResultCache(cfg.CacheSize, cfg.CacheTTL),
	}
	reg.Subscribe(s.cache)
	return s
}

// Cache exposes the result cache, mainly for status reporting.
func (s *Service) Cache() *ResultCache {
	return s.cache
}

// Search runs the full pipeline and returns at most
// query.Constraints.MaxResults ranked results.
func (s *Service) Search(ctx context.Context, query types.SearchQuery) (*Response, error) {
	start := time.Now()

	if err := query.Validate(); err != nil {
		return nil, err
	}

	// Zero weights resolve to the balanced preset before
	// fingerprinting, so an explicit balanced query and a defaulted one
	// share a cache entry.
	if query.Weights.IsZero() {
		if preset, ok := s.scorer.Preset(scorer.PresetBalanced); ok {
			query.Weights = preset
		}
	}

	vector := query.Vector
	if vector == nil {
		embedded, err := s.provider.Embed(ctx, query.Requirements)
		if err != nil {
			return nil, fmt.Errorf("embed requirements: %w", err)
		}
		vector = embedded
	}

	key := Fingerprint(query)
	if !s.cfg.DisableCache {
		if cached, hit := s.cache.Get(key); hit {
			return &Response{
				Results:  cached,
				CacheHit: true,
				Duration: time.Since(start),
			}, nil
		}
	}

	topK := query.Constraints.MaxResults * s.cfg.CandidateMultiplier
	matches, err := s.index.Query(vector, topK)
	if err != nil {
		return nil, err
	}

	candidates := s.resolveCandidates(matches)
	survivors := scorer.Filter(candidates, query.Requirements, query.Constraints)

	ranked, err := s.scorer.Score(ctx, survivors, query, time.Now())
	if err != nil {
		return nil, err
	}

	if len(ranked) > query.Constraints.MaxResults {
		ranked = ranked[:query.Constraints.MaxResults]
	}

	if !s.cfg.DisableCache && len(ranked) > 0 {
		s.cache.Put(key, ranked)
	}

	return &Response{
		Results:    ranked,
		Candidates: len(candidates),
		Survivors:  len(survivors),
		Duration:   time.Since(start),
	}, nil
}

// resolveCandidates intersects index matches with the registry's
// records. A match whose record vanished between the index query and
// the record fetch is dropped; the registry's pairing of both
// mutations under one lock makes that window the only source of such
// gaps.
func (s *Service) resolveCandidates(matches []vectorindex.Match) []scorer.Candidate {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	similarity := make(map[string]float64, len(matches))
	for _, m := range matches {
		similarity[m.ID] = m.Similarity
	}

	mods := s.registry.GetMany(ids)
	candidates := make([]scorer.Candidate, 0, len(mods))
	for _, mod := range mods {
		candidates = append(candidates, scorer.Candidate{
			Module:     mod,
			Similarity: similarity[mod.ID],
		})
	}
	return candidates
}
