package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/models"
)

// fakeService is a scripted CompletionService. summaries[i] is the summary
// for chunk i; "" makes that summarization fail. deliver[n] is the number of
// questions returned by the n-th generation call (-1 fails the call); calls
// beyond the script deliver exactly the requested count.
type fakeService struct {
	summaries []string
	deliver   []int

	summarized     []int // chunk indices passed to Summarize
	generateCounts []int // requested counts passed to GenerateQuestions

	panicOnSummarize bool
}

func (f *fakeService) Summarize(_ context.Context, _ string, opts models.GenerationOptions) (string, error) {
	if f.panicOnSummarize {
		panic("summarizer exploded")
	}
	f.summarized = append(f.summarized, opts.ChunkIndex)
	if opts.ChunkIndex >= len(f.summaries) || f.summaries[opts.ChunkIndex] == "" {
		return "", errors.New("service unavailable")
	}
	return f.summaries[opts.ChunkIndex], nil
}

func (f *fakeService) GenerateQuestions(_ context.Context, summary string, _ models.GenerationOptions, count int) ([]models.Question, error) {
	call := len(f.generateCounts)
	f.generateCounts = append(f.generateCounts, count)

	n := count
	if call < len(f.deliver) {
		if f.deliver[call] < 0 {
			return nil, errors.New("generation failed")
		}
		n = f.deliver[call]
	}
	return makeQuestions(summary, n), nil
}

func makeQuestions(tag string, n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = models.Question{
			Text: fmt.Sprintf("%s question %d", tag, i),
			Answers: []models.ScoredAnswer{
				{Text: "correct", Score: models.ScoreCorrect},
				{Text: "almost", Score: models.ScorePartiallyCorrect},
				{Text: "wrong", Score: models.ScoreIncorrect},
				{Text: "very wrong", Score: models.ScoreStronglyIncorrect},
			},
		}
	}
	return qs
}

func newTestGenerator(t *testing.T, svc CompletionService, chunkSize int) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	g := NewGenerator(svc, dir)
	g.chunkSize = chunkSize
	return g, dir
}

func summaryFile(t *testing.T, dir, base string) (string, bool) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, base+"_summary.txt"))
	if os.IsNotExist(err) {
		return "", false
	}
	if err != nil {
		t.Fatalf("reading summary file: %v", err)
	}
	return string(data), true
}

func TestCreateQuizFromText_SingleSegment(t *testing.T) {
	svc := &fakeService{summaries: []string{"summary A"}}
	g, dir := newTestGenerator(t, svc, 100)

	quiz, id := g.CreateQuizFromText(context.Background(), "text about diabetes", "diabetes.pdf", "italiano", 10)
	if id != "diabetes" {
		t.Errorf("identifier: got %q, want %q", id, "diabetes")
	}
	if quiz == nil {
		t.Fatal("quiz: got nil, want a quiz")
	}
	if len(quiz.Questions) != 10 {
		t.Errorf("questions: got %d, want 10", len(quiz.Questions))
	}
	if quiz.Identifier != "diabetes" || quiz.Language != "italiano" {
		t.Errorf("quiz metadata: got (%q, %q)", quiz.Identifier, quiz.Language)
	}

	content, ok := summaryFile(t, dir, "diabetes")
	if !ok {
		t.Fatal("summary file not written")
	}
	if content != "summary A" {
		t.Errorf("summary file: got %q, want %q", content, "summary A")
	}
}

func TestCreateQuizFromText_EmptyDocument(t *testing.T) {
	svc := &fakeService{}
	g, dir := newTestGenerator(t, svc, 100)

	quiz, id := g.CreateQuizFromText(context.Background(), "", "empty.txt", "italiano", 10)
	if quiz != nil {
		t.Errorf("quiz: got %v, want nil", quiz)
	}
	if id != "empty" {
		t.Errorf("identifier: got %q, want %q", id, "empty")
	}
	if len(svc.summarized) != 0 {
		t.Errorf("summarize calls: got %d, want 0", len(svc.summarized))
	}
	if _, ok := summaryFile(t, dir, "empty"); ok {
		t.Error("summary file written for empty document")
	}
}

func TestCreateQuizFromText_AllSummariesFail(t *testing.T) {
	svc := &fakeService{summaries: []string{"", "", ""}}
	g, dir := newTestGenerator(t, svc, 10)

	quiz, id := g.CreateQuizFromText(context.Background(), strings.Repeat("x", 30), "report.pdf", "italiano", 6)
	if quiz != nil {
		t.Errorf("quiz: got %v, want nil", quiz)
	}
	if id != "report" {
		t.Errorf("identifier: got %q, want %q", id, "report")
	}
	if len(svc.generateCounts) != 0 {
		t.Errorf("generate calls: got %d, want 0", len(svc.generateCounts))
	}
	if _, ok := summaryFile(t, dir, "report"); ok {
		t.Error("summary file written although every summarization failed")
	}
}

func TestCreateQuizFromText_FailedSegmentSkipped(t *testing.T) {
	// Middle segment fails: it contributes no questions and is excluded from
	// the persisted summary; the others carry on.
	svc := &fakeService{summaries: []string{"first", "", "third"}}
	g, dir := newTestGenerator(t, svc, 10)

	quiz, id := g.CreateQuizFromText(context.Background(), strings.Repeat("x", 30), "copd.txt", "italiano", 6)
	if quiz == nil {
		t.Fatal("quiz: got nil, want a quiz")
	}
	if id != "copd" {
		t.Errorf("identifier: got %q, want %q", id, "copd")
	}

	// ceil(6/3)=2, failed segment skipped, then ceil(4/1)=4.
	wantCounts := []int{2, 4}
	if len(svc.generateCounts) != len(wantCounts) {
		t.Fatalf("generate calls: got %v, want %v", svc.generateCounts, wantCounts)
	}
	for i, want := range wantCounts {
		if svc.generateCounts[i] != want {
			t.Errorf("generate call %d: got %d, want %d", i, svc.generateCounts[i], want)
		}
	}

	content, ok := summaryFile(t, dir, "copd")
	if !ok {
		t.Fatal("summary file not written")
	}
	if content != "first\n\nthird" {
		t.Errorf("summary file: got %q, want %q", content, "first\n\nthird")
	}
}

func TestCreateQuizFromText_AllocationSequence(t *testing.T) {
	// 40,000 characters at chunk size 15,000 give 3 segments; target 9 is
	// allocated 3+3+3 when every segment delivers its full quota.
	svc := &fakeService{summaries: []string{"s1", "s2", "s3"}}
	g, _ := newTestGenerator(t, svc, 15000)

	quiz, _ := g.CreateQuizFromText(context.Background(), strings.Repeat("x", 40000), "long.txt", "english", 9)
	if quiz == nil {
		t.Fatal("quiz: got nil, want a quiz")
	}
	if len(quiz.Questions) != 9 {
		t.Errorf("questions: got %d, want 9", len(quiz.Questions))
	}

	wantCounts := []int{3, 3, 3}
	if len(svc.generateCounts) != len(wantCounts) {
		t.Fatalf("generate calls: got %v, want %v", svc.generateCounts, wantCounts)
	}
	for i, want := range wantCounts {
		if svc.generateCounts[i] != want {
			t.Errorf("generate call %d: got %d, want %d", i, svc.generateCounts[i], want)
		}
	}
}

func TestCreateQuizFromText_UnderDeliveryReallocates(t *testing.T) {
	// Target 10 across 3 segments. The first two calls ask ceil shares but
	// deliver only 3 each, so the last segment is asked for the remaining 4.
	svc := &fakeService{
		summaries: []string{"s1", "s2", "s3"},
		deliver:   []int{3, 3},
	}
	g, _ := newTestGenerator(t, svc, 10)

	quiz, _ := g.CreateQuizFromText(context.Background(), strings.Repeat("x", 30), "doc.txt", "english", 10)
	if quiz == nil {
		t.Fatal("quiz: got nil, want a quiz")
	}

	if got := svc.generateCounts[len(svc.generateCounts)-1]; got != 4 {
		t.Errorf("last allocation: got %d, want 4", got)
	}
	if len(quiz.Questions) != 10 {
		t.Errorf("questions: got %d, want 10", len(quiz.Questions))
	}
}

func TestCreateQuizFromText_ShortCircuitWhenTargetMet(t *testing.T) {
	// Target 5 is met by the first segment. The second segment is still
	// summarized (its summary joins the summary file) but gets no question
	// generation, and the third segment is never touched.
	svc := &fakeService{
		summaries: []string{"s1", "s2", "s3"},
		deliver:   []int{5},
	}
	g, dir := newTestGenerator(t, svc, 10)

	quiz, _ := g.CreateQuizFromText(context.Background(), strings.Repeat("x", 30), "doc.txt", "english", 5)
	if quiz == nil {
		t.Fatal("quiz: got nil, want a quiz")
	}
	if len(quiz.Questions) != 5 {
		t.Errorf("questions: got %d, want 5", len(quiz.Questions))
	}

	if len(svc.generateCounts) != 1 {
		t.Errorf("generate calls: got %v, want exactly one", svc.generateCounts)
	}
	wantSummarized := []int{0, 1}
	if len(svc.summarized) != len(wantSummarized) {
		t.Fatalf("summarized segments: got %v, want %v", svc.summarized, wantSummarized)
	}

	content, _ := summaryFile(t, dir, "doc")
	if content != "s1\n\ns2" {
		t.Errorf("summary file: got %q, want %q", content, "s1\n\ns2")
	}
}

func TestCreateQuizFromText_ZeroTarget(t *testing.T) {
	// A zero target generates nothing: the first segment is summarized, the
	// loop then stops, and the run reports "no quiz" with the identifier.
	svc := &fakeService{summaries: []string{"s1", "s2", "s3"}}
	g, dir := newTestGenerator(t, svc, 10)

	quiz, id := g.CreateQuizFromText(context.Background(), strings.Repeat("x", 30), "doc.txt", "english", 0)
	if quiz != nil {
		t.Errorf("quiz: got %v, want nil", quiz)
	}
	if id != "doc" {
		t.Errorf("identifier: got %q, want %q", id, "doc")
	}
	if len(svc.generateCounts) != 0 {
		t.Errorf("generate calls: got %v, want none", svc.generateCounts)
	}
	if len(svc.summarized) != 1 {
		t.Errorf("summarized segments: got %v, want just the first", svc.summarized)
	}

	content, ok := summaryFile(t, dir, "doc")
	if !ok {
		t.Fatal("summary file not written")
	}
	if content != "s1" {
		t.Errorf("summary file: got %q, want %q", content, "s1")
	}
}

func TestCreateQuizFromText_GenerationFailureTolerated(t *testing.T) {
	// The first generation call fails; its segment contributes zero questions
	// and the rest of the document still produces a quiz.
	svc := &fakeService{
		summaries: []string{"s1", "s2"},
		deliver:   []int{-1},
	}
	g, _ := newTestGenerator(t, svc, 10)

	quiz, _ := g.CreateQuizFromText(context.Background(), strings.Repeat("x", 20), "doc.txt", "english", 4)
	if quiz == nil {
		t.Fatal("quiz: got nil, want a quiz")
	}
	if len(quiz.Questions) != 4 {
		t.Errorf("questions: got %d, want 4", len(quiz.Questions))
	}
	// ceil(4/2)=2 failed, then ceil(4/1)=4.
	wantCounts := []int{2, 4}
	for i, want := range wantCounts {
		if svc.generateCounts[i] != want {
			t.Errorf("generate call %d: got %d, want %d", i, svc.generateCounts[i], want)
		}
	}
}

func TestCreateQuizFromText_PanicRecovered(t *testing.T) {
	svc := &fakeService{panicOnSummarize: true}
	g, _ := newTestGenerator(t, svc, 100)

	quiz, id := g.CreateQuizFromText(context.Background(), "some text", "doc.txt", "english", 5)
	if quiz != nil {
		t.Errorf("quiz after panic: got %v, want nil", quiz)
	}
	if id != "" {
		t.Errorf("identifier after panic: got %q, want empty", id)
	}
}
