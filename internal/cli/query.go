package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sprintrag/internal/domain"
	"sprintrag/internal/usecase"
)

var (
	queryText    string
	queryTopK    int
	queryJSON    bool
	queryContext bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the chunks retrieved for a query",
	Long: `Search the vector store and print the nearest chunks without calling the
language model. Useful for checking what context a question would get.

Examples:
  rag query -q "velocity"
  rag query -q "hiring plans" --top-k 5 --json
  rag query -q "blockers" --context`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "print the formatted context block given to the model")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	s, err := openServing(cmd.Context(), cfg, false, GetLogger())
	if err != nil {
		return err
	}
	defer s.Close()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := s.retriever.Search(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch {
	case queryJSON:
		if results == nil {
			results = []domain.SearchResult{}
		}
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
	case queryContext:
		fmt.Println(usecase.FormatContext(results))
	default:
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
		for i, r := range results {
			fmt.Printf("--- [%d] %s (distance: %.4f) ---\n", i+1, r.Metadata.ChunkID, r.Distance)
			text := []rune(r.Text)
			if len(text) > 500 {
				text = append(text[:500], []rune("...")...)
			}
			fmt.Println(string(text))
			fmt.Println()
		}
	}
	return nil
}
