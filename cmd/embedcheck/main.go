package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/dshills/capmatch-mcp/internal/embedder"
	"github.com/dshills/capmatch-mcp/internal/vectorindex"
	"github.com/dshills/capmatch-mcp/pkg/types"
)

func main() {
	fmt.Println("Checking embedding provider integration...")

	log.SetOutput(os.Stderr)

	provider, err := embedder.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to create provider: %v", err)
	}
	defer func() { _ = provider.Close() }()

	fmt.Printf("Provider: %s (dimension %d)\n", provider.Name(), provider.Dimension())

	ctx := context.Background()

	first := types.Requirements{
		PrimarySkills: []string{"summarization", "text analysis"},
		Description:   "condense long documents into short briefs",
	}
	second := types.Requirements{
		PrimarySkills: []string{"image classification"},
		Description:   "label photographs by subject",
	}

	a, err := provider.Embed(ctx, first)
	if err != nil {
		log.Fatalf("Embed failed: %v", err)
	}
	b, err := provider.Embed(ctx, second)
	if err != nil {
		log.Fatalf("Embed failed: %v", err)
	}

	fmt.Printf("Vector length: %d\n", len(a))
	fmt.Printf("Norm: %.6f\n", norm(a))
	fmt.Printf("Similarity (text vs text): %.6f\n", vectorindex.CosineSimilarity(a, a))
	fmt.Printf("Similarity (text vs image): %.6f\n", vectorindex.CosineSimilarity(a, b))

	// Re-embedding identical requirements must hit the provider cache
	// and return the same vector.
	again, err := provider.Embed(ctx, first)
	if err != nil {
		log.Fatalf("Embed failed: %v", err)
	}
	if vectorindex.CosineSimilarity(a, again) < 0.9999 {
		log.Fatalf("Provider is not deterministic for identical requirements")
	}

	fmt.Println("Embedding provider check passed")
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
