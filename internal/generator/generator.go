// Package generator turns free-text vacancy information into an ordered list
// of interview questions via a language model.
package generator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/avolkov/intervu/internal/llm"
)

// DefaultNumQuestions is used when the caller does not request a count.
const DefaultNumQuestions = 5

const (
	temperature = 0.7
	maxTokens   = 500

	systemPrompt = "You are an experienced HR assistant tasked with creating relevant interview questions."
)

// Models often number their output despite instructions not to.
var leadingNumber = regexp.MustCompile(`^\d+\.?\s*`)

type Generator struct {
	llm llm.Completer
}

func New(completer llm.Completer) *Generator {
	return &Generator{llm: completer}
}

// Generate asks the model for numQuestions interview questions seeded by
// vacancyInfo and returns the cleaned list in model order. The list is
// truncated to numQuestions but never padded: a model that produces fewer
// usable lines yields a shorter list, which is accepted rather than retried.
func (g *Generator) Generate(ctx context.Context, vacancyInfo string, numQuestions int) ([]string, error) {
	if numQuestions <= 0 {
		numQuestions = DefaultNumQuestions
	}

	raw, err := g.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(vacancyInfo, numQuestions)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("question generation: %w", err)
	}

	return cleanQuestions(raw, numQuestions), nil
}

func buildPrompt(vacancyInfo string, numQuestions int) string {
	return fmt.Sprintf(`Based on the following job vacancy information, generate %d relevant and insightful interview questions:

Job Vacancy Information:
%s

Please provide exactly %d interview questions that will help assess the candidate's suitability for this position. Format each question on a new line, without numbering.

Generated questions:`, numQuestions, vacancyInfo, numQuestions)
}

// cleanQuestions splits the raw completion into lines, strips any leading
// ordinal numbering and surrounding whitespace, drops lines that end up
// empty, and truncates to at most limit entries.
func cleanQuestions(raw string, limit int) []string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	cleaned := make([]string, 0, limit)
	for _, line := range lines {
		q := strings.TrimSpace(leadingNumber.ReplaceAllString(strings.TrimSpace(line), ""))
		if q == "" {
			continue
		}
		cleaned = append(cleaned, q)
		if len(cleaned) == limit {
			break
		}
	}
	return cleaned
}
