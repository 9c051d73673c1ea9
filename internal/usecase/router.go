package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sprintrag/internal/port"
)

// Intent is the outcome of classifying a request.
type Intent interface {
	Kind() string
}

// SummarizeIntent asks for a summary of one named report.
type SummarizeIntent struct {
	Filename string
}

func (SummarizeIntent) Kind() string { return "summarize" }

// GeneralQuestion is answered from the top retrieved chunks.
type GeneralQuestion struct {
	Text string
}

func (GeneralQuestion) Kind() string { return "general" }

// MatchRule decides which tokens name a report.
type MatchRule struct {
	Extensions  []string // matched as a case-insensitive suffix
	NameMarkers []string // matched as a case-insensitive substring
}

// DefaultMatchRule recognizes PDF files and sprint report names.
var DefaultMatchRule = MatchRule{
	Extensions:  []string{".pdf"},
	NameMarkers: []string{"sprint_report"},
}

const tokenPunct = "\"'`,;:!?()[]{}<>"

// ParseIntent classifies text. It is a summarize request when the text
// contains "summarize" in any case and at least one whitespace-separated
// token, stripped of surrounding quotes and punctuation, ends with a report
// extension or contains a report name marker. The first such token is the
// filename. Everything else is a general question.
func ParseIntent(text string, rule MatchRule) Intent {
	if !strings.Contains(strings.ToLower(text), "summarize") {
		return GeneralQuestion{Text: text}
	}
	for _, tok := range strings.Fields(text) {
		name := strings.TrimRight(strings.TrimLeft(tok, tokenPunct), tokenPunct+".")
		if rule.names(name) {
			return SummarizeIntent{Filename: name}
		}
	}
	return GeneralQuestion{Text: text}
}

func (m MatchRule) names(token string) bool {
	lower := strings.ToLower(token)
	for _, ext := range m.Extensions {
		ext = strings.ToLower(ext)
		if ext != "" && len(lower) > len(ext) && strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, marker := range m.NameMarkers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// RouterOptions configures a Router.
type RouterOptions struct {
	TopK            int
	SummarizeTopK   int
	SummaryMaxChars int
	Rule            MatchRule
	Generate        port.GenerateOptions
}

// DefaultRouterOptions returns the retrieval and sampling defaults.
func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		TopK:            DefaultTopK,
		SummarizeTopK:   5,
		SummaryMaxChars: 3000,
		Rule:            DefaultMatchRule,
		Generate: port.GenerateOptions{
			MaxTokens:   512,
			Temperature: 0.7,
			TopP:        0.9,
		},
	}
}

// Response is a displayable answer.
type Response struct {
	Text    string
	Sources []string
	Intent  Intent
}

// Router dispatches a request to the summarize or question path. It keeps
// no state between calls.
type Router struct {
	searcher  port.Searcher
	generator port.Generator
	opts      RouterOptions
	logger    *zap.Logger
}

func NewRouter(searcher port.Searcher, generator port.Generator, opts RouterOptions, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		searcher:  searcher,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Query answers text and always returns a displayable string.
func (r *Router) Query(ctx context.Context, text string) string {
	return r.Answer(ctx, text).Text
}

// Prompt is a generation request prepared for one intent. When Reply is
// set the request was settled without the model and Text is empty.
type Prompt struct {
	Intent  Intent
	Text    string
	Sources []string
	Reply   string
}

// Answer is Query with the sources and intent kept apart from the text.
// Failures are reported in Response.Text, never as an error.
func (r *Router) Answer(ctx context.Context, text string) Response {
	p, err := r.BuildPrompt(ctx, text)
	if err != nil {
		r.logger.Error("retrieval failed", zap.Error(err))
		return Response{Text: fmt.Sprintf("Error retrieving context: %v", err), Intent: p.Intent}
	}
	if p.Reply != "" {
		return Response{Text: p.Reply, Intent: p.Intent}
	}

	out, err := r.generator.Generate(ctx, p.Text, r.opts.Generate)
	if err != nil {
		r.logger.Warn("generation failed", zap.String("intent", p.Intent.Kind()), zap.Error(err))
		return Response{Text: fmt.Sprintf("Error generating %s: %v", failureNoun(p.Intent), err), Intent: p.Intent}
	}

	resp := Response{Text: out, Sources: p.Sources, Intent: p.Intent}
	if _, ok := p.Intent.(GeneralQuestion); ok {
		resp.Text += SourcesFooter(p.Sources)
	}
	return resp
}

func failureNoun(intent Intent) string {
	if _, ok := intent.(SummarizeIntent); ok {
		return "summary"
	}
	return "response"
}

// BuildPrompt classifies text and retrieves the context its prompt needs.
// The returned Prompt always carries the intent, even alongside an error.
func (r *Router) BuildPrompt(ctx context.Context, text string) (Prompt, error) {
	intent := ParseIntent(text, r.opts.Rule)
	r.logger.Debug("routing request", zap.String("intent", intent.Kind()))

	switch in := intent.(type) {
	case SummarizeIntent:
		return r.summaryPrompt(ctx, in)
	case GeneralQuestion:
		return r.answerPrompt(ctx, in)
	default:
		return Prompt{Intent: intent}, fmt.Errorf("unsupported intent %s", intent.Kind())
	}
}

func (r *Router) summaryPrompt(ctx context.Context, in SummarizeIntent) (Prompt, error) {
	p := Prompt{Intent: in}

	results, err := r.searcher.Search(ctx, "filename:"+in.Filename, r.opts.SummarizeTopK)
	if err != nil {
		return p, err
	}

	var texts []string
	for _, res := range results {
		if res.Metadata.Source == in.Filename {
			texts = append(texts, res.Text)
		}
	}
	if len(texts) == 0 {
		p.Reply = fmt.Sprintf("Report '%s' not found.", in.Filename)
		return p, nil
	}

	p.Text, err = SummaryPrompt(TruncateInput(strings.Join(texts, "\n"), r.opts.SummaryMaxChars))
	if err != nil {
		return p, err
	}
	p.Sources = []string{in.Filename}
	return p, nil
}

func (r *Router) answerPrompt(ctx context.Context, in GeneralQuestion) (Prompt, error) {
	p := Prompt{Intent: in}

	results, err := r.searcher.Search(ctx, in.Text, r.opts.TopK)
	if err != nil {
		return p, err
	}

	p.Text, err = AnswerPrompt(FormatContext(results), in.Text)
	if err != nil {
		return p, err
	}
	p.Sources = UniqueSources(results)
	return p, nil
}

// SourcesFooter renders the citation line appended to answers.
func SourcesFooter(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n*Sources: %s*", strings.Join(sources, ", "))
}

var _ port.Searcher = (*Retriever)(nil)
