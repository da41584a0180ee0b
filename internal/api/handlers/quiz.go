package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/db"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/excel"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/extract"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultLanguage     = "italiano"
	defaultNumQuestions = 10
)

// HandleGenerateQuiz generates one quiz per uploaded document. Form fields:
// files[] (.txt/.md/.pdf), language, num_questions. A document that fails to
// produce a quiz is reported in its result entry; the batch itself always
// answers 200 so callers can proceed document by document.
func (h *Handler) HandleGenerateQuiz(c *gin.Context) {
	ctx := c.Request.Context()

	if err := c.Request.ParseMultipartForm(64 << 20); err != nil {
		h.handleError(c, http.StatusBadRequest, "failed to parse multipart form", err)
		return
	}

	language := c.PostForm("language")
	if language == "" {
		language = defaultLanguage
	}

	numQuestions := defaultNumQuestions
	if raw := c.PostForm("num_questions"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.handleError(c, http.StatusBadRequest, "num_questions must be an integer", err)
			return
		}
		numQuestions = n
	}

	files := c.Request.MultipartForm.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "no files uploaded", nil)
		return
	}
	log.Printf("INFO: received %d file(s) for quiz generation (language=%s, target=%d)",
		len(files), language, numQuestions)

	var tempPaths []string
	defer func() {
		for _, path := range tempPaths {
			if err := os.Remove(path); err != nil {
				log.Printf("WARN: failed to remove temporary file %s: %v", path, err)
			}
		}
	}()

	results := make([]models.DocumentResult, 0, len(files))
	for _, fileHeader := range files {
		result := models.DocumentResult{Filename: fileHeader.Filename}

		if !extract.Supported(fileHeader.Filename) {
			result.Error = fmt.Sprintf("unsupported file type %s", filepath.Ext(fileHeader.Filename))
			results = append(results, result)
			continue
		}

		tempPath, err := saveUploadToTemp(c, fileHeader)
		if err != nil {
			result.Error = "failed to store upload"
			log.Printf("ERROR: storing upload %s: %v", fileHeader.Filename, err)
			results = append(results, result)
			continue
		}
		tempPaths = append(tempPaths, tempPath)

		text, err := extract.FromFile(tempPath)
		if err != nil {
			result.Error = "failed to extract text"
			log.Printf("ERROR: extracting text from %s: %v", fileHeader.Filename, err)
			results = append(results, result)
			continue
		}

		quiz, identifier := h.Generator.CreateQuizFromText(ctx, text, fileHeader.Filename, language, numQuestions)
		result.Identifier = identifier
		if quiz == nil {
			result.Error = "no quiz produced"
			results = append(results, result)
			continue
		}

		if err := h.DB.SaveQuiz(ctx, quiz); err != nil {
			result.Error = "failed to store quiz"
			log.Printf("ERROR: storing quiz for %s: %v", identifier, err)
			results = append(results, result)
			continue
		}
		rememberQuiz(c, quiz.ID)
		h.uploadArtifacts(c, quiz)

		result.QuizID = &quiz.ID
		result.Questions = len(quiz.Questions)
		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// uploadArtifacts pushes the Excel export to R2 when a client is configured.
func (h *Handler) uploadArtifacts(c *gin.Context, quiz *models.Quiz) {
	if h.R2 == nil {
		return
	}

	buf, err := excel.QuizToBuffer(quiz)
	if err != nil {
		log.Printf("WARN: failed to build Excel artifact for %s: %v", quiz.Identifier, err)
		return
	}
	filename := quiz.Identifier + "_quiz.xlsx"
	if _, err := h.R2.UploadArtifact(c.Request.Context(), quiz.ID, filename, buf); err != nil {
		log.Printf("WARN: failed to upload Excel artifact for %s: %v", quiz.Identifier, err)
	}
}

// saveUploadToTemp writes an uploaded file to a temporary path, keeping the
// original extension so extraction can dispatch on it.
func saveUploadToTemp(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	tempPath := filepath.Join(os.TempDir(), uuid.New().String()+"_"+filepath.Base(fh.Filename))
	if err := c.SaveUploadedFile(fh, tempPath); err != nil {
		return "", err
	}
	return tempPath, nil
}

// HandleListQuizzes lists the quizzes created in this session.
func (h *Handler) HandleListQuizzes(c *gin.Context) {
	ids := sessionQuizIDs(c)
	quizzes, err := h.DB.ListQuizzes(c.Request.Context(), ids)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to list quizzes", err)
		return
	}
	c.JSON(http.StatusOK, models.QuizListResponse{Quizzes: quizzes, Total: len(quizzes)})
}

// HandleGetQuiz returns one quiz with its questions and answers.
func (h *Handler) HandleGetQuiz(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	quiz, err := h.DB.GetQuiz(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "quiz not found", nil)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to load quiz", err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// HandleDeleteQuiz deletes one quiz.
func (h *Handler) HandleDeleteQuiz(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	if err := h.DB.DeleteQuiz(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "quiz not found", nil)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "failed to delete quiz", err)
		return
	}
	forgetQuiz(c, id)
	c.Status(http.StatusNoContent)
}

// HandleExportQuiz streams one quiz as an xlsx download.
func (h *Handler) HandleExportQuiz(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	quiz, err := h.DB.GetQuiz(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "quiz not found", nil)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to load quiz", err)
		return
	}

	buf, err := excel.QuizToBuffer(quiz)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to build Excel file", err)
		return
	}

	filename := quiz.Identifier + "_quiz.xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// combinedExportRequest is the body of the combined export endpoint.
type combinedExportRequest struct {
	QuizIDs []uuid.UUID `json:"quiz_ids" binding:"required,min=1"`
}

// HandleExportCombined streams several quizzes as one xlsx download.
func (h *Handler) HandleExportCombined(c *gin.Context) {
	var req combinedExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "quiz_ids is required", err)
		return
	}

	entries := make([]excel.QuizEntry, 0, len(req.QuizIDs))
	for _, id := range req.QuizIDs {
		quiz, err := h.DB.GetQuiz(c.Request.Context(), id)
		if errors.Is(err, db.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, fmt.Sprintf("quiz %s not found", id), nil)
			return
		}
		if err != nil {
			h.handleError(c, http.StatusInternalServerError, "failed to load quiz", err)
			return
		}
		entries = append(entries, excel.QuizEntry{Quiz: quiz, Identifier: quiz.Identifier})
	}

	buf, err := excel.CombineQuizzesToBuffer(entries)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to build Excel file", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="combined_quiz.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
