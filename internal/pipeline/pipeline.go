package pipeline

import (
	"context"
	"log"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/fileutil"
	"github.com/Helaglobe-srl/AI-quiz-maker/internal/models"

	"github.com/google/uuid"
)

// CompletionService is the narrow capability the pipeline needs from the
// text-completion backend. internal/gemini implements it; tests use a fake
// with scripted outputs and failures.
type CompletionService interface {
	// Summarize produces a disease-focused summary of one segment's text.
	Summarize(ctx context.Context, text string, opts models.GenerationOptions) (string, error)

	// GenerateQuestions produces up to count scored multiple-choice questions
	// grounded strictly in the given summary.
	GenerateQuestions(ctx context.Context, summary string, opts models.GenerationOptions, count int) ([]models.Question, error)
}

// Generator drives the per-document quiz pipeline: split, summarize, allocate,
// generate, aggregate.
type Generator struct {
	svc        CompletionService
	summaryDir string
	chunkSize  int
}

// NewGenerator creates a pipeline generator. Aggregated summaries are written
// under summaryDir, one file per document.
func NewGenerator(svc CompletionService, summaryDir string) *Generator {
	return &Generator{
		svc:        svc,
		summaryDir: summaryDir,
		chunkSize:  DefaultChunkSize,
	}
}

// aggregationState is the mutable per-document state: questions and summaries
// accumulated so far and the global target. Owned by a single
// CreateQuizFromText call; segments are processed strictly in order because
// each allocation depends on the running totals left by earlier segments.
type aggregationState struct {
	target    int
	questions []models.Question
	summaries []string
}

func (s *aggregationState) remainingTarget() int {
	return s.target - len(s.questions)
}

// targetMet reports whether question generation should stop. With a
// non-positive target this is true from the start, so at most the first
// segment gets summarized and none get questions.
func (s *aggregationState) targetMet() bool {
	return len(s.questions) >= s.target
}

// aggregatedSummary joins the non-empty segment summaries, in segment order,
// with a blank line between them.
func (s *aggregationState) aggregatedSummary() string {
	return strings.Join(s.summaries, "\n\n")
}

// finalQuestions truncates the accumulated questions to the first target
// entries. A target <= 0 keeps everything: the truncation step treats zero as
// unbounded, unlike the allocator, which treats it as "generate nothing".
func (s *aggregationState) finalQuestions() []models.Question {
	if s.target > 0 && len(s.questions) > s.target {
		return s.questions[:s.target]
	}
	return s.questions
}

// CreateQuizFromText runs the full pipeline for one document and returns the
// finalized quiz together with the document identifier (base filename with
// the extension stripped).
//
// Per-segment failures are logged and skipped. A document that yields no
// questions returns (nil, identifier). An unexpected internal error is caught
// at this boundary and returns (nil, ""). The method never panics and never
// returns an error: callers treat a nil quiz as "proceed to the next
// document".
func (g *Generator) CreateQuizFromText(ctx context.Context, text, filename, language string, numQuestions int) (quiz *models.Quiz, identifier string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: unexpected error processing %s: %v\n%s", filename, r, debug.Stack())
			quiz, identifier = nil, ""
		}
	}()

	base := baseIdentifier(filename)

	segments := SplitText(text, g.chunkSize)
	if len(segments) == 0 {
		log.Printf("WARN: document %s is empty, no quiz generated", base)
		return nil, base
	}
	log.Printf("INFO: processing %s: %d segment(s), target %d question(s), language %s",
		base, len(segments), numQuestions, language)

	state := &aggregationState{target: numQuestions}

	for i, segment := range segments {
		opts := models.GenerationOptions{
			Language:   language,
			ChunkIndex: i,
			ChunkTotal: len(segments),
		}

		summary, err := g.svc.Summarize(ctx, segment, opts)
		if err != nil {
			log.Printf("ERROR: summarizing segment %d/%d of %s: %v", i+1, len(segments), base, err)
			continue
		}
		if strings.TrimSpace(summary) == "" {
			log.Printf("WARN: empty summary for segment %d/%d of %s, skipping", i+1, len(segments), base)
			continue
		}
		state.summaries = append(state.summaries, summary)

		if state.targetMet() {
			log.Printf("INFO: question target met for %s, skipping remaining segments", base)
			break
		}

		attempt := questionsToAttempt(state.remainingTarget(), len(segments)-i)
		if attempt == 0 {
			continue
		}

		questions, err := g.svc.GenerateQuestions(ctx, summary, opts, attempt)
		if err != nil {
			log.Printf("ERROR: generating questions for segment %d/%d of %s: %v", i+1, len(segments), base, err)
			continue
		}
		state.questions = append(state.questions, questions...)
	}

	if len(state.summaries) > 0 {
		path := filepath.Join(g.summaryDir, base+"_summary.txt")
		if err := fileutil.SaveTextToFile(state.aggregatedSummary(), path); err != nil {
			log.Printf("ERROR: saving summary for %s: %v", base, err)
		}
	}

	if len(state.questions) == 0 {
		log.Printf("WARN: no questions generated for %s", base)
		return nil, base
	}

	final := state.finalQuestions()
	log.Printf("INFO: generated %d question(s) for %s", len(final), base)

	return &models.Quiz{
		ID:         uuid.New(),
		Identifier: base,
		Language:   language,
		Questions:  final,
		CreatedAt:  time.Now(),
	}, base
}
