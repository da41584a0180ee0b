package handlers

import (
	"log"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/db"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/models"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/pipeline"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/r2"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// quizIDsSessionKey holds the IDs of the quizzes generated in this browser
// session.
const quizIDsSessionKey = "quizIDs"

// Handler bundles the collaborators the API handlers need.
type Handler struct {
	DB        *db.DB
	Generator *pipeline.Generator
	R2        *r2.Client // nil when R2 uploads are disabled
}

// NewHandler creates a new Handler.
func NewHandler(database *db.DB, generator *pipeline.Generator, r2Client *r2.Client) *Handler {
	return &Handler{
		DB:        database,
		Generator: generator,
		R2:        r2Client,
	}
}

// handleError logs the error and sends a JSON error response.
func (h *Handler) handleError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		log.Printf("ERROR: %s: %v", message, err)
	} else {
		log.Printf("ERROR: %s", message)
	}
	c.JSON(status, models.ErrorResponse{Error: message})
}

// sessionQuizIDs returns the quiz IDs stored in the current session.
func sessionQuizIDs(c *gin.Context) []uuid.UUID {
	session := sessions.Default(c)
	raw, ok := session.Get(quizIDsSessionKey).([]string)
	if !ok {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// rememberQuiz appends a quiz ID to the session.
func rememberQuiz(c *gin.Context, id uuid.UUID) {
	session := sessions.Default(c)
	raw, _ := session.Get(quizIDsSessionKey).([]string)
	raw = append(raw, id.String())
	session.Set(quizIDsSessionKey, raw)
	if err := session.Save(); err != nil {
		log.Printf("WARN: failed to save session: %v", err)
	}
}

// forgetQuiz removes a quiz ID from the session.
func forgetQuiz(c *gin.Context, id uuid.UUID) {
	session := sessions.Default(c)
	raw, ok := session.Get(quizIDsSessionKey).([]string)
	if !ok {
		return
	}

	kept := raw[:0]
	for _, s := range raw {
		if s != id.String() {
			kept = append(kept, s)
		}
	}
	session.Set(quizIDsSessionKey, kept)
	if err := session.Save(); err != nil {
		log.Printf("WARN: failed to save session: %v", err)
	}
}
