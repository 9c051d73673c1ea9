// Command benchmark checks retrieval quality and latency against an indexed
// vector store without calling the generation model.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sprintrag/config"
	"sprintrag/internal/adapter/embedding"
	"sprintrag/internal/adapter/store"
	"sprintrag/internal/port"
	"sprintrag/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding rag.yaml and the vector store")
	query := flag.String("q", "", "Query to test (repeat with ';' between queries)")
	topK := flag.Int("k", 5, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"velocity; blockers\"")
		fmt.Println("\nReports for each query:")
		fmt.Println("  1. Embedding latency")
		fmt.Println("  2. Search latency and distances of the top matches")
		fmt.Println("  3. Which reports the matches come from")
		os.Exit(1)
	}

	_ = godotenv.Load(filepath.Join(*dir, ".env"))

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder not available: %v\n", err)
		os.Exit(1)
	}

	idx, err := store.OpenReadOnly(cfg.ResolveStorePath(*dir), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vector store: %v\n", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx := context.Background()
	coll, err := idx.GetCollection(ctx, cfg.Store.Collection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Collection not available: %v\n", err)
		os.Exit(1)
	}
	info := coll.Info()
	count, _ := coll.Count(ctx)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Collection: %s (%d chunks)\n", info.Name, count)
	fmt.Printf("Model:      %s, %d dims, %s distance\n", info.Model, info.Dimension, info.Metric)
	fmt.Printf("Chunking:   %d/%d\n\n", info.ChunkSize, info.ChunkOverlap)

	var totalEmbed, totalSearch time.Duration
	queries := strings.Split(*query, ";")
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		fmt.Printf("Query: %q\n", q)
		fmt.Println(strings.Repeat("-", 70))

		start := time.Now()
		vec, err := embedder.Embed(ctx, usecase.TruncateInput(q, cfg.Embedding.MaxInputChars))
		embedTook := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Embedding error: %v\n\n", err)
			continue
		}

		start = time.Now()
		results, err := coll.Query(ctx, vec, *topK)
		searchTook := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n\n", err)
			continue
		}
		totalEmbed += embedTook
		totalSearch += searchTook

		for i, r := range results {
			preview := []rune(strings.ReplaceAll(r.Text, "\n", " "))
			if len(preview) > 120 {
				preview = append(preview[:120], []rune("...")...)
			}
			fmt.Printf("%d. [%.4f] %s\n", i+1, r.Distance, r.Metadata.ChunkID)
			fmt.Printf("   %s\n", string(preview))
		}
		fmt.Printf("\n  embed %s, search %s, sources: %s\n\n",
			embedTook.Round(time.Millisecond), searchTook.Round(time.Microsecond),
			strings.Join(usecase.UniqueSources(results), ", "))
	}

	fmt.Println(strings.Repeat("=", 70))
	n := time.Duration(len(queries))
	fmt.Printf("Average embed latency:  %s\n", (totalEmbed / n).Round(time.Millisecond))
	fmt.Printf("Average search latency: %s\n", (totalSearch / n).Round(time.Microsecond))
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	opts := embedding.Options{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   cfg.Embedding.Timeout(),
	}
	switch cfg.Embedding.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(opts)
	case "openai":
		return embedding.NewOpenAIEmbedder(opts)
	case "local":
		return embedding.NewLocalEmbedder(cfg.Embedding.Dimension), nil
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
