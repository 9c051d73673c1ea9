package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askJSON bool
	askTopK int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed reports",
	Long: `Answer a question using the reports in the vector store. A request that
says "summarize" and names a report file is answered with a summary of that
report instead.

Examples:
  rag ask "What were the key accomplishments?"
  rag ask "Summarize sprint_report_2024_06.pdf"
  rag ask --json "Which risks were raised?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "chunks retrieved for a question (default from config)")
}

type askOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Intent  string   `json:"intent"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if askTopK > 0 {
		cfg.Retrieve.TopK = askTopK
	}

	s, err := openServing(cmd.Context(), cfg, true, GetLogger())
	if err != nil {
		return err
	}
	defer s.Close()

	resp := s.router.Answer(cmd.Context(), strings.Join(args, " "))

	if askJSON {
		sources := resp.Sources
		if sources == nil {
			sources = []string{}
		}
		output, _ := json.MarshalIndent(askOutput{
			Answer:  resp.Text,
			Sources: sources,
			Intent:  resp.Intent.Kind(),
		}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(resp.Text)
	return nil
}
