package api

import (
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes.
func SetupRoutes(router *gin.Engine, handler *handlers.Handler) {
	router.Use(CORSMiddleware())

	api := router.Group("/api")
	{
		api.POST("/quizzes/generate", handler.HandleGenerateQuiz)          // generate quizzes from uploaded documents
		api.GET("/quizzes", handler.HandleListQuizzes)                     // list quizzes created in this session
		api.GET("/quizzes/:quizId", handler.HandleGetQuiz)                 // get a specific quiz
		api.DELETE("/quizzes/:quizId", handler.HandleDeleteQuiz)           // delete a specific quiz
		api.GET("/quizzes/:quizId/export", handler.HandleExportQuiz)       // download one quiz as xlsx
		api.POST("/quizzes/export-combined", handler.HandleExportCombined) // download several quizzes as one xlsx
	}
}
