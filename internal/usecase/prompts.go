package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var (
	answerTmpl  = mustParse("templates/answer_prompt.txt")
	summaryTmpl = mustParse("templates/summary_prompt.txt")
)

type answerData struct {
	Context  string
	Question string
}

type summaryData struct {
	Report string
}

func mustParse(name string) *template.Template {
	content, err := promptTemplates.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("template not found: %s", name))
	}
	return template.Must(template.New(name).Parse(string(content)))
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// AnswerPrompt builds the grounded question prompt.
func AnswerPrompt(context, question string) (string, error) {
	return render(answerTmpl, answerData{Context: context, Question: question})
}

// SummaryPrompt builds the report summary prompt.
func SummaryPrompt(report string) (string, error) {
	return render(summaryTmpl, summaryData{Report: report})
}
