// Package interview sequences the three lifecycle phases — create, conduct,
// review — against the store and the two LLM-backed components. Each phase is
// entered fresh via a lookup by interview id; nothing is chained automatically
// and no session state lives outside the store.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkov/intervu/internal/analyzer"
	"github.com/avolkov/intervu/internal/extract"
	"github.com/avolkov/intervu/internal/generator"
	"github.com/avolkov/intervu/internal/storage"
)

// ErrNoVacancyInfo is returned by Create when neither the inline text nor the
// uploaded document yields any vacancy information.
var ErrNoVacancyInfo = errors.New("vacancy info is required")

// GenerationError reports a failed language-model call. The failed phase
// leaves no rows behind, so the action can simply be retried.
type GenerationError struct {
	Phase string // "generate" or "analyze"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type Service struct {
	store     *storage.Store
	questions *generator.Generator
	analysis  *analyzer.Analyzer
}

func NewService(store *storage.Store, questions *generator.Generator, analysis *analyzer.Analyzer) *Service {
	return &Service{store: store, questions: questions, analysis: analysis}
}

// CreateInput carries the create phase's two input sources. When a document
// is present its extracted text takes precedence over VacancyInfo.
type CreateInput struct {
	VacancyInfo  string
	Document     []byte
	ContentType  string
	NumQuestions int
}

type CreateResult struct {
	ID        string
	Questions []string
}

// Create extracts vacancy text, generates questions, and persists the
// interview with its question set as one unit. A generation failure creates
// no interview row.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	vacancy := strings.TrimSpace(in.VacancyInfo)

	if len(in.Document) > 0 {
		text, err := extract.Text(in.Document, in.ContentType)
		if err != nil {
			return CreateResult{}, err
		}
		// Uploaded document takes precedence over inline text.
		vacancy = strings.TrimSpace(text)
	}

	if vacancy == "" {
		return CreateResult{}, ErrNoVacancyInfo
	}

	questions, err := s.questions.Generate(ctx, vacancy, in.NumQuestions)
	if err != nil {
		return CreateResult{}, &GenerationError{Phase: "generate", Err: err}
	}
	if len(questions) == 0 {
		return CreateResult{}, &GenerationError{Phase: "generate", Err: errors.New("model returned no usable questions")}
	}

	id, err := s.store.CreateInterview(vacancy, questions)
	if err != nil {
		return CreateResult{}, fmt.Errorf("saving interview: %w", err)
	}

	return CreateResult{ID: id, Questions: questions}, nil
}

// Load fetches an interview and its ordered questions for the conduct phase.
// Returns storage.ErrNotFound when the id is unknown.
func (s *Service) Load(id string) (storage.Interview, []storage.Question, error) {
	return s.store.GetInterview(id)
}

// SubmitResponses records one answer per question in a single batch. Questions
// missing from answers are stored as empty strings; empty answers are
// permitted. Answer keys for questions outside the interview fail the batch.
func (s *Service) SubmitResponses(id string, answers map[string]string) error {
	_, questions, err := s.store.GetInterview(id)
	if err != nil {
		return err
	}

	complete := make(map[string]string, len(questions))
	for _, q := range questions {
		complete[q.ID] = answers[q.ID]
	}
	for qid, text := range answers {
		if _, ok := complete[qid]; !ok {
			// Unknown keys are passed through so the store rejects the batch.
			complete[qid] = text
		}
	}

	return s.store.AppendResponses(id, complete)
}

// QA is one displayed question/answer pair. Answered is false when no
// response row exists for the question.
type QA struct {
	QuestionID string
	Question   string
	Answer     string
	Answered   bool
}

type ReviewResult struct {
	Interview   storage.Interview
	Items       []QA
	Analysis    string
	HasAnalysis bool
}

// Review resolves the interview, each question's latest stored response, and
// any existing analysis for display. Missing responses are not errors.
func (s *Service) Review(id string) (ReviewResult, error) {
	iv, questions, err := s.store.GetInterview(id)
	if err != nil {
		return ReviewResult{}, err
	}

	result := ReviewResult{Interview: iv, Items: make([]QA, 0, len(questions))}
	for _, q := range questions {
		item := QA{QuestionID: q.ID, Question: q.Text}
		answer, err := s.store.ResponseForQuestion(q.ID)
		switch {
		case err == nil:
			item.Answer = answer
			item.Answered = true
		case errors.Is(err, storage.ErrNotFound):
			// No response recorded; displayed as a placeholder by callers.
		default:
			return ReviewResult{}, err
		}
		result.Items = append(result.Items, item)
	}

	analysisText, err := s.store.LatestAnalysis(id)
	switch {
	case err == nil:
		result.Analysis = analysisText
		result.HasAnalysis = true
	case errors.Is(err, storage.ErrNotFound):
	default:
		return ReviewResult{}, err
	}

	return result, nil
}

// Analyze runs the suitability analysis over the interview's questions and
// their latest responses, persists the result as a new analysis row, and
// returns the text. Unanswered questions are analyzed as empty answers.
// Running analysis before any responses exist is allowed. An analysis failure
// appends no row.
func (s *Service) Analyze(ctx context.Context, id string) (string, error) {
	iv, questions, err := s.store.GetInterview(id)
	if err != nil {
		return "", err
	}

	questionTexts := make([]string, len(questions))
	responseTexts := make([]string, len(questions))
	for i, q := range questions {
		questionTexts[i] = q.Text
		answer, err := s.store.ResponseForQuestion(q.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
		responseTexts[i] = answer
	}

	analysisText, err := s.analysis.Analyze(ctx, iv.VacancyInfo, questionTexts, responseTexts)
	if err != nil {
		return "", &GenerationError{Phase: "analyze", Err: err}
	}

	if err := s.store.AppendAnalysis(id, analysisText); err != nil {
		return "", fmt.Errorf("saving analysis: %w", err)
	}

	return analysisText, nil
}
