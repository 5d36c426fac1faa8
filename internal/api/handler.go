package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/intervu/internal/extract"
	"github.com/avolkov/intervu/internal/interview"
	"github.com/avolkov/intervu/internal/storage"
)

const maxRequestBodySize = 10 << 20 // 10MB, documents arrive base64-encoded
const maxURLFetchSize = 5 << 20     // 5MB

// Deps holds the handler's collaborators.
type Deps struct {
	Service          *interview.Service
	Store            *storage.Store
	Token            string // bearer token; empty disables auth
	HTTPClient       *http.Client
	DefaultQuestions int // used when a create request omits num_questions
}

// NewHandler returns the interview REST API. The health endpoint is always
// open; everything else sits behind bearer auth when a token is configured.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Post("/interviews", handleCreateInterview(deps))
		r.Get("/interviews", handleListInterviews(deps))
		r.Get("/interviews/{id}", handleGetInterview(deps))
		r.Post("/interviews/{id}/responses", handleSubmitResponses(deps))
		r.Get("/interviews/{id}/review", handleReview(deps))
		r.Post("/interviews/{id}/analysis", handleAnalyze(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// CreateInterviewRequest carries the create phase inputs. Exactly one source
// of vacancy text is used: an uploaded document (base64 content) wins over a
// URL, which wins over inline text.
type CreateInterviewRequest struct {
	VacancyInfo  string `json:"vacancy_info"`
	Content      string `json:"content"` // base64-encoded document
	ContentType  string `json:"content_type"`
	URL          string `json:"url"`
	NumQuestions int    `json:"num_questions"`
}

type CreateInterviewResponse struct {
	ID        string   `json:"id"`
	Questions []string `json:"questions"`
}

func handleCreateInterview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req CreateInterviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		in := interview.CreateInput{
			VacancyInfo:  req.VacancyInfo,
			NumQuestions: req.NumQuestions,
		}
		if in.NumQuestions <= 0 {
			in.NumQuestions = deps.DefaultQuestions
		}

		switch {
		case req.Content != "":
			decoded, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
				return
			}
			in.Document = decoded
			in.ContentType = req.ContentType

		case req.URL != "":
			body, err := fetchURL(r.Context(), deps.HTTPClient, req.URL)
			if err != nil {
				httpError(w, http.StatusBadGateway, "api_error", "failed to fetch url: %v", err)
				return
			}
			in.Document = body
			in.ContentType = extract.TypeHTML
		}

		result, err := deps.Service.Create(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CreateInterviewResponse{ID: result.ID, Questions: result.Questions})
	}
}

func fetchURL(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("url returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxURLFetchSize))
}

// InterviewResponse is an interview with its ordered questions.
type InterviewResponse struct {
	Interview storage.Interview  `json:"interview"`
	Questions []storage.Question `json:"questions"`
}

func handleGetInterview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		iv, questions, err := deps.Service.Load(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if questions == nil {
			questions = []storage.Question{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(InterviewResponse{Interview: iv, Questions: questions})
	}
}

func handleListInterviews(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		interviews, err := deps.Store.ListInterviews(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interviews: %v", err)
			return
		}
		if interviews == nil {
			interviews = []storage.Interview{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interviews)
	}
}

// SubmitResponsesRequest maps question ids to free-text answers. Empty
// answers are stored as empty strings.
type SubmitResponsesRequest struct {
	Answers map[string]string `json:"answers"`
}

func handleSubmitResponses(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		id := chi.URLParam(r, "id")

		var req SubmitResponsesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if err := deps.Service.SubmitResponses(id, req.Answers); err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "recorded"})
	}
}

// ReviewItem is one displayed question/answer pair. Answered distinguishes an
// empty answer from no answer at all.
type ReviewItem struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Answered   bool   `json:"answered"`
}

type ReviewResponse struct {
	Interview   storage.Interview `json:"interview"`
	Items       []ReviewItem      `json:"items"`
	Analysis    string            `json:"analysis,omitempty"`
	HasAnalysis bool              `json:"has_analysis"`
}

func handleReview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		review, err := deps.Service.Review(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		items := make([]ReviewItem, len(review.Items))
		for i, item := range review.Items {
			items[i] = ReviewItem{
				QuestionID: item.QuestionID,
				Question:   item.Question,
				Answer:     item.Answer,
				Answered:   item.Answered,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ReviewResponse{
			Interview:   review.Interview,
			Items:       items,
			Analysis:    review.Analysis,
			HasAnalysis: review.HasAnalysis,
		})
	}
}

func handleAnalyze(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		analysis, err := deps.Service.Analyze(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"analysis": analysis})
	}
}

// writeServiceError maps orchestrator failures onto the wire taxonomy:
// validation problems are 400, unknown ids are 404, LLM failures are 502 and
// retryable, storage failures are 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var genErr *interview.GenerationError
	switch {
	case errors.Is(err, interview.ErrNoVacancyInfo):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "vacancy info is required: provide text, a document, or a url")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "unsupported document format: upload a PDF or DOCX file")
	case errors.Is(err, storage.ErrForeignQuestion):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "interview not found")
	case errors.As(err, &genErr):
		httpError(w, http.StatusBadGateway, "generation_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
