package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"sprintrag/internal/adapter/chunker"
	"sprintrag/internal/adapter/extract"
	"sprintrag/internal/adapter/fs"
	"sprintrag/internal/adapter/store"
	"sprintrag/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [folder]",
	Short: "Build the vector store from a folder of reports",
	Long: `Extract, chunk and embed every report in the folder and replace the
collection in the vector store. Indexing is always a full rebuild.

Examples:
  rag index              # Index ./data (or index.folder from the config)
  rag index ./reports    # Index a specific folder`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := GetLogger()

	folder := cfg.Index.Folder
	if len(args) > 0 {
		folder = args[0]
	}
	if !filepath.IsAbs(folder) {
		folder = filepath.Join(GetRootDir(), folder)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	chk, err := chunker.NewWindowChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return err
	}

	storePath := cfg.ResolveStorePath(GetRootDir())
	idx, err := store.Open(storePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer idx.Close()

	if existing, err := idx.GetCollection(cmd.Context(), cfg.Store.Collection); err == nil {
		if drift := store.CheckDrift(existing.Info(), currentBuild(cfg, embedder)); drift.NeedsRebuild() {
			for _, reason := range drift.Reasons {
				fmt.Printf("Settings changed since last build: %s\n", reason)
			}
		}
	}

	indexer := usecase.NewIndexer(
		fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes),
		extract.NewExtractor(),
		chk,
		embedder,
		idx,
		usecase.IndexOptions{
			Collection:    cfg.Store.Collection,
			Metric:        cfg.Store.Metric,
			ChunkSize:     chk.Size(),
			ChunkOverlap:  chk.Overlap(),
			BatchSize:     cfg.Index.BatchSize,
			Workers:       cfg.Index.Workers,
			MaxInputChars: cfg.Embedding.MaxInputChars,
			FailurePolicy: usecase.FailurePolicy(cfg.Index.EmbedFailurePolicy),
		},
		logger,
	)

	fmt.Printf("Indexing %s...\n", folder)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(processed, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		_ = bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-processed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := indexer.IndexFolder(cmd.Context(), folder, progressCallback)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files indexed:  %d of %d\n", result.FilesIndexed, result.FilesFound)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)
	fmt.Printf("  Chunks stored:  %d\n", result.ChunksStored)
	if result.EmbedFailures > 0 {
		fmt.Printf("  Embed failures: %d (%s)\n", result.EmbedFailures, cfg.Index.EmbedFailurePolicy)
	}
	fmt.Printf("  Took:           %s\n", formatDuration(result.Duration))

	if len(result.Skipped) > 0 {
		fmt.Printf("\nSkipped files:\n")
		for _, s := range result.Skipped {
			fmt.Printf("  - %s: %v\n", s.Filename, s.Err)
		}
	}

	fmt.Printf("\nCollection %q stored at: %s\n", result.Collection.Name, store.DBPath(storePath))
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
