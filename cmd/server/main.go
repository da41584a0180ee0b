package main

import (
	"context"
	"encoding/gob"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/api"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/api/handlers"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/db"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/gemini"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/pipeline"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/r2"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const storeName = "aiquizmaker_session"

func init() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("FATAL: error loading .env file: %v", err)
		}
		log.Println("WARN: .env file not found, relying on system environment variables")
	}

	// The session only carries the quiz IDs created in this browser session.
	gob.Register([]string{})
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.NewDB(ctx)
	if err != nil {
		log.Fatalf("FATAL: failed to connect to database: %v", err)
	}
	defer database.Close()

	geminiClient, err := gemini.NewClient(ctx)
	if err != nil {
		log.Fatalf("FATAL: failed to initialize Gemini client: %v", err)
	}
	defer geminiClient.Close()

	summaryDir := os.Getenv("SUMMARY_DIR")
	if summaryDir == "" {
		summaryDir = "summaries"
	}
	generator := pipeline.NewGenerator(geminiClient, summaryDir)

	// R2 uploads are optional; a nil client disables them.
	r2Client, err := r2.NewClient()
	if err != nil {
		log.Fatalf("FATAL: failed to initialize R2 client: %v", err)
	}

	router := gin.Default()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("FATAL: SESSION_SECRET environment variable must be set")
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(storeName, store))

	handler := handlers.NewHandler(database, generator, r2Client)
	api.SetupRoutes(router, handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("INFO: server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("FATAL: server forced to shutdown: %v", err)
	}

	log.Println("INFO: server exited properly")
}
