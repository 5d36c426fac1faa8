package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrForeignQuestion is returned when a response targets a question that does
// not belong to the interview it is being recorded against.
var ErrForeignQuestion = errors.New("question does not belong to interview")

// Interview is the root record: vacancy text plus its generated questions,
// collected responses, and suitability analyses.
type Interview struct {
	ID          string    `json:"id"`
	VacancyInfo string    `json:"vacancy_info"`
	CreatedAt   time.Time `json:"created_at"`
}

// Question is one generated interview question. The question set is fixed at
// interview creation time; Position preserves generation order.
type Question struct {
	ID          string `json:"id"`
	InterviewID string `json:"interview_id"`
	Position    int    `json:"position"`
	Text        string `json:"text"`
}

// Response is one recorded answer to a question. Responses are append-only;
// read paths resolve the latest row per question.
type Response struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interview_id"`
	QuestionID  string    `json:"question_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// Analysis is one suitability assessment. Re-running the analysis appends a
// new row; read paths resolve the latest one.
type Analysis struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interview_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}
