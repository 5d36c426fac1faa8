// Package analyzer produces an LLM suitability assessment from an interview's
// vacancy info, questions, and collected answers.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkov/intervu/internal/llm"
)

const (
	temperature = 0.7
	maxTokens   = 1000

	systemPrompt = "You are an expert HR analyst tasked with evaluating candidate responses to interview questions."
)

type Analyzer struct {
	llm llm.Completer
}

func New(completer llm.Completer) *Analyzer {
	return &Analyzer{llm: completer}
}

// Analyze builds one prompt from the vacancy info and the positionally
// aligned (question, response) pairs and returns the model's assessment,
// trimmed but otherwise verbatim. Pairs beyond the shorter slice are dropped.
func (a *Analyzer) Analyze(ctx context.Context, vacancyInfo string, questions, responses []string) (string, error) {
	raw, err := a.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(vacancyInfo, questions, responses)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("response analysis: %w", err)
	}

	return strings.TrimSpace(raw), nil
}

func buildPrompt(vacancyInfo string, questions, responses []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `Analyze the candidate's responses to the following interview questions based on the job vacancy information:

Job Vacancy Information:
%s

Interview Questions and Responses:
`, vacancyInfo)

	pairs := len(questions)
	if len(responses) < pairs {
		pairs = len(responses)
	}
	for i := 0; i < pairs; i++ {
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n\n", questions[i], responses[i])
	}

	sb.WriteString(`Please provide a comprehensive analysis of the candidate's suitability for the position, considering:
1. Relevance of responses to the job requirements
2. Depth of knowledge and experience demonstrated
3. Problem-solving and critical thinking skills
4. Communication skills and clarity of responses
5. Cultural fit and alignment with company values
6. Overall strengths and areas for improvement

Analysis:`)

	return sb.String()
}
