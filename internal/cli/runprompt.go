package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <question>",
	Short: "Print the prompt a question would send to the model",
	Long: `Route the question, retrieve its context and print the rendered prompt
without calling the language model. The output can be pasted into any chat
model for manual use.

Examples:
  rag prompt "What were the key accomplishments?"
  rag prompt "Summarize sprint_report_2024_06.pdf"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	s, err := openServing(cmd.Context(), GetConfig(), false, GetLogger())
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.router.BuildPrompt(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}
	if p.Reply != "" {
		fmt.Println(p.Reply)
		return nil
	}
	fmt.Println(p.Text)
	if len(p.Sources) > 0 {
		fmt.Printf("\n# sources: %s\n", strings.Join(p.Sources, ", "))
	}
	return nil
}
