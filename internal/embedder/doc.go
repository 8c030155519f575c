// Package embedder turns structured requirements into capability
// vectors behind an injectable Provider interface.
//
// The engine consumes vectors, never produces them: Embed runs before
// the retrieval pipeline starts, so no pipeline stage ever blocks on a
// provider call.
//
// # Providers
//
// Two providers ship with the engine:
//
//   - openai: the OpenAI embeddings API (1536 dimensions), with
//     exponential-backoff retry and a 30s request timeout.
//   - local: a deterministic token-seeded placeholder (384 dimensions)
//     for development and tests. It is stable but carries no semantic
//     meaning; production deployments substitute a real model behind
//     the same interface.
//
// # Selection
//
//	provider, err := embedder.NewFromEnv()
//
// CAPMATCH_EMBEDDING_PROVIDER selects explicitly ("openai", "local");
// otherwise an available OPENAI_API_KEY picks openai and the local
// provider is the fallback.
//
// # Caching
//
// Vectors are cached in an LRU keyed by a sha256 of the canonical
// requirement text, so repeated searches for the same requirement skip
// the provider entirely.
package embedder
