package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Score tiers assigned to the four answers of every question.
const (
	ScoreCorrect           = 5  // risposta corretta
	ScorePartiallyCorrect  = 2  // risposta quasi corretta
	ScoreIncorrect         = 0  // risposta sbagliata
	ScoreStronglyIncorrect = -2 // risposta molto sbagliata
)

// AnswersPerQuestion is the fixed number of answers every question carries,
// one per score tier.
const AnswersPerQuestion = 4

// ScoreTiers lists the four fixed score values in descending order.
var ScoreTiers = [AnswersPerQuestion]int{
	ScoreCorrect,
	ScorePartiallyCorrect,
	ScoreIncorrect,
	ScoreStronglyIncorrect,
}

// ScoredAnswer is one answer option with its point value.
type ScoredAnswer struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Question is a multiple-choice question with exactly four scored answers.
type Question struct {
	Text    string         `json:"question"`
	Answers []ScoredAnswer `json:"answers"`
}

// Validate checks that the question carries exactly one answer per score tier.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("question has empty text")
	}
	if len(q.Answers) != AnswersPerQuestion {
		return fmt.Errorf("question has %d answers, want %d", len(q.Answers), AnswersPerQuestion)
	}
	seen := make(map[int]bool, AnswersPerQuestion)
	for _, a := range q.Answers {
		seen[a.Score] = true
	}
	for _, tier := range ScoreTiers {
		if !seen[tier] {
			return fmt.Errorf("question is missing an answer with score %d", tier)
		}
	}
	return nil
}

// Quiz is an ordered sequence of questions generated from one document.
type Quiz struct {
	ID         uuid.UUID  `json:"id"`
	Identifier string     `json:"identifier"` // document base name, extension stripped
	Language   string     `json:"language"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GenerationOptions carries the per-segment context passed to the
// text-completion service: the output language and, for documents split into
// several chunks, the position of this chunk.
type GenerationOptions struct {
	Language   string
	ChunkIndex int // zero-based
	ChunkTotal int
}

// GeminiQuizResponse is the structured JSON payload requested from Gemini
// when generating questions.
type GeminiQuizResponse struct {
	Questions []GeminiQuestion `json:"questions"`
}

// GeminiQuestion is one question in the Gemini response.
type GeminiQuestion struct {
	Question string         `json:"question"`
	Answers  []GeminiAnswer `json:"answers"`
}

// GeminiAnswer is one answer option in the Gemini response.
type GeminiAnswer struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// QuizListResponse is the response for listing quizzes.
type QuizListResponse struct {
	Quizzes []Quiz `json:"quizzes"`
	Total   int    `json:"total"`
}

// DocumentResult reports the outcome of one document's pipeline run.
type DocumentResult struct {
	Filename   string     `json:"filename"`
	Identifier string     `json:"identifier,omitempty"`
	QuizID     *uuid.UUID `json:"quiz_id,omitempty"`
	Questions  int        `json:"questions"`
	Error      string     `json:"error,omitempty"`
}

// ErrorResponse is a generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
