package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a quiz does not exist.
var ErrNotFound = errors.New("quiz not found")

// SaveQuiz stores a finalized quiz with its questions and answers in one
// transaction.
func (db *DB) SaveQuiz(ctx context.Context, quiz *models.Quiz) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO quizzes (id, identifier, language, created_at) VALUES ($1, $2, $3, $4)`,
		quiz.ID, quiz.Identifier, quiz.Language, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}

	for qPos, question := range quiz.Questions {
		questionID := uuid.New()
		_, err = tx.Exec(ctx,
			`INSERT INTO questions (id, quiz_id, position, text) VALUES ($1, $2, $3, $4)`,
			questionID, quiz.ID, qPos, question.Text)
		if err != nil {
			return fmt.Errorf("failed to insert question %d: %w", qPos, err)
		}

		for aPos, answer := range question.Answers {
			_, err = tx.Exec(ctx,
				`INSERT INTO answers (id, question_id, position, text, score) VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), questionID, aPos, answer.Text, answer.Score)
			if err != nil {
				return fmt.Errorf("failed to insert answer %d of question %d: %w", aPos, qPos, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quiz: %w", err)
	}
	return nil
}

// GetQuiz loads one quiz with its questions and answers in original order.
func (db *DB) GetQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := db.Pool.QueryRow(ctx,
		`SELECT id, identifier, language, created_at FROM quizzes WHERE id = $1`, id).
		Scan(&quiz.ID, &quiz.Identifier, &quiz.Language, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz %s: %w", id, err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT q.id, q.text FROM questions q WHERE q.quiz_id = $1 ORDER BY q.position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for quiz %s: %w", id, err)
	}
	defer rows.Close()

	var questionIDs []uuid.UUID
	for rows.Next() {
		var qID uuid.UUID
		var question models.Question
		if err := rows.Scan(&qID, &question.Text); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questionIDs = append(questionIDs, qID)
		quiz.Questions = append(quiz.Questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	for i, qID := range questionIDs {
		answers, err := db.loadAnswers(ctx, qID)
		if err != nil {
			return nil, err
		}
		quiz.Questions[i].Answers = answers
	}

	return &quiz, nil
}

func (db *DB) loadAnswers(ctx context.Context, questionID uuid.UUID) ([]models.ScoredAnswer, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT text, score FROM answers WHERE question_id = $1 ORDER BY position`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers for question %s: %w", questionID, err)
	}
	defer rows.Close()

	var answers []models.ScoredAnswer
	for rows.Next() {
		var a models.ScoredAnswer
		if err := rows.Scan(&a.Text, &a.Score); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return answers, nil
}

// ListQuizzes returns the quiz headers (no questions) for the given IDs,
// newest first. Unknown IDs are silently skipped.
func (db *DB) ListQuizzes(ctx context.Context, ids []uuid.UUID) ([]models.Quiz, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, identifier, language, created_at FROM quizzes WHERE id = ANY($1) ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []models.Quiz
	for rows.Next() {
		var quiz models.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.Identifier, &quiz.Language, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quizzes: %w", err)
	}
	return quizzes, nil
}

// DeleteQuiz removes a quiz; questions and answers cascade.
func (db *DB) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quiz %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
