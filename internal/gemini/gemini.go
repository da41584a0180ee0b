package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ModelName is the Gemini model used for both pipeline stages.
const ModelName = "gemini-2.0-flash"

const maxAttempts = 3

// summaryPrompt is the fixed instruction set for the summarization stage.
// The %s placeholder is the output language.
const summaryPrompt = `You are an expert at writing detailed summaries of medical texts about diseases.
Write a complete summary that captures all the important information about the disease(s) described in the text.
Focus on extracting key medical information such as:
- disease names and classifications
- symptoms and clinical manifestations
- causes and risk factors
- diagnostic methods
- treatment approaches and management
- prevention strategies
- epidemiology and statistics

The summary must be written in %s.
Preserve medical accuracy while making the content more concise.
Organize the information in a structured way that highlights the most important aspects of the disease(s).`

// fragmentNote is appended to the summary instructions when the document was
// split into several chunks, so the model scopes its output to this fragment.
const fragmentNote = `

Note: the text below is fragment %d of %d of a larger document. Summarize only the content of this fragment; it may begin or end mid-sentence.`

// quizPrompt is the fixed instruction set for the question-generation stage.
// Placeholders: question count, output language.
const quizPrompt = `You are an expert at creating educational quizzes specifically about diseases.
Create exactly %d multiple-choice questions based strictly on the summary provided below.

IMPORTANT: Focus ONLY on the disease described in the summary. Do not go off topic.
These questions will be used in a serious game for people living with the condition, so accuracy and relevance are essential.

For each question:
1. identify a specific aspect of the disease mentioned in the summary (symptoms, causes, treatments, etc.)
2. write a clear, medically accurate question about that aspect, phrased for a lay audience
3. provide exactly 4 answers with these scores:
   - one correct answer (score 5)
   - one nearly correct answer (score 2)
   - one wrong answer (score 0)
   - one very wrong answer (score -2)

Assign the scores according to medical accuracy and the summary provided.
All questions and answers must be written in %s.
Do not write trick questions or include information unrelated to the disease.
The questions must NOT mention the reference text or the summary.
Make sure every question has exactly 4 answers.

Format your response as a JSON object with the following structure:
{
  "questions": [
    {
      "question": "Question text here?",
      "answers": [
        {"text": "Correct answer", "score": 5},
        {"text": "Nearly correct answer", "score": 2},
        {"text": "Wrong answer", "score": 0},
        {"text": "Very wrong answer", "score": -2}
      ]
    }
  ]
}`

// Client wraps the Gemini client with one model per pipeline stage: plain
// text for summaries, JSON output for question generation.
type Client struct {
	client       *genai.Client
	summaryModel *genai.GenerativeModel
	quizModel    *genai.GenerativeModel
}

// NewClient creates a new Gemini client from the GEMINI_API_KEY environment
// variable.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	summaryModel := client.GenerativeModel(ModelName)
	summaryModel.SetTemperature(0.2)
	summaryModel.SetTopK(40)
	summaryModel.SetTopP(0.95)

	quizModel := client.GenerativeModel(ModelName)
	quizModel.ResponseMIMEType = "application/json"
	quizModel.SetTemperature(0.2)
	quizModel.SetTopK(40)
	quizModel.SetTopP(0.95)
	quizModel.SetMaxOutputTokens(8192)

	return &Client{
		client:       client,
		summaryModel: summaryModel,
		quizModel:    quizModel,
	}, nil
}

// Close closes the underlying Gemini client.
func (c *Client) Close() {
	c.client.Close()
}

// Summarize produces a disease-focused summary of one segment's text in the
// requested language.
func (c *Client) Summarize(ctx context.Context, text string, opts models.GenerationOptions) (string, error) {
	instructions := fmt.Sprintf(summaryPrompt, languageOrDefault(opts.Language))
	if opts.ChunkTotal > 1 {
		instructions += fmt.Sprintf(fragmentNote, opts.ChunkIndex+1, opts.ChunkTotal)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.summaryModel.GenerateContent(ctx, genai.Text(instructions+"\n\nText:\n"+text))
		if err != nil {
			lastErr = fmt.Errorf("failed to generate summary (attempt %d): %w", attempt, err)
			time.Sleep(2 * time.Second)
			continue
		}

		summary := responseText(resp)
		if strings.TrimSpace(summary) == "" {
			lastErr = fmt.Errorf("no summary content generated (attempt %d)", attempt)
			time.Sleep(2 * time.Second)
			continue
		}
		return summary, nil
	}
	return "", fmt.Errorf("failed to summarize after %d attempts: %w", maxAttempts, lastErr)
}

// GenerateQuestions produces up to count scored multiple-choice questions
// grounded strictly in the given summary. Questions that do not carry exactly
// one answer per score tier are discarded.
func (c *Client) GenerateQuestions(ctx context.Context, summary string, opts models.GenerationOptions, count int) ([]models.Question, error) {
	if count < 1 {
		return nil, fmt.Errorf("question count must be >= 1, got %d", count)
	}
	instructions := fmt.Sprintf(quizPrompt, count, languageOrDefault(opts.Language))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.quizModel.GenerateContent(ctx, genai.Text(instructions+"\n\nSummary:\n"+summary))
		if err != nil {
			lastErr = fmt.Errorf("failed to generate questions (attempt %d): %w", attempt, err)
			time.Sleep(2 * time.Second)
			continue
		}

		jsonText := extractJSONFromText(responseText(resp))
		if jsonText == "" {
			lastErr = fmt.Errorf("no JSON content found in response (attempt %d)", attempt)
			time.Sleep(2 * time.Second)
			continue
		}

		var payload models.GeminiQuizResponse
		if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
			lastErr = fmt.Errorf("failed to parse JSON response (attempt %d): %w", attempt, err)
			time.Sleep(2 * time.Second)
			continue
		}

		questions := validQuestions(payload, count)
		if len(questions) == 0 {
			lastErr = fmt.Errorf("response contained no valid questions (attempt %d)", attempt)
			time.Sleep(2 * time.Second)
			continue
		}
		return questions, nil
	}
	return nil, fmt.Errorf("failed to generate questions after %d attempts: %w", maxAttempts, lastErr)
}

// validQuestions converts the wire payload into domain questions, dropping
// malformed entries and capping the result at count.
func validQuestions(payload models.GeminiQuizResponse, count int) []models.Question {
	questions := make([]models.Question, 0, len(payload.Questions))
	for _, pq := range payload.Questions {
		answers := make([]models.ScoredAnswer, 0, len(pq.Answers))
		for _, pa := range pq.Answers {
			answers = append(answers, models.ScoredAnswer{Text: pa.Text, Score: pa.Score})
		}
		q := models.Question{Text: pq.Question, Answers: answers}
		if err := q.Validate(); err != nil {
			log.Printf("WARN: discarding malformed question from Gemini: %v", err)
			continue
		}
		questions = append(questions, q)
		if len(questions) == count {
			break
		}
	}
	return questions
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*"questions".*\}`)
	codeBlockPattern  = regexp.MustCompile("```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// extractJSONFromText pulls a JSON object out of a response that might wrap
// it in markdown fences or surrounding prose, and tries to close truncated
// objects by balancing braces.
func extractJSONFromText(text string) string {
	if matches := jsonObjectPattern.FindString(text); matches != "" {
		return matches
	}

	if matches := codeBlockPattern.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}

	startIdx := strings.Index(text, `{"questions"`)
	if startIdx < 0 {
		return ""
	}
	partial := text[startIdx:]

	openBraces, closeBraces := 0, 0
	inString, escaped := false, false
	for _, char := range partial {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case char == '\\':
			escaped = true
		case char == '"':
			inString = !inString
		case !inString && char == '{':
			openBraces++
		case !inString && char == '}':
			closeBraces++
		}
	}
	for i := 0; i < openBraces-closeBraces; i++ {
		partial += "}"
	}

	var probe map[string]interface{}
	if err := json.Unmarshal([]byte(partial), &probe); err != nil {
		return ""
	}
	return partial
}

func languageOrDefault(language string) string {
	if strings.TrimSpace(language) == "" {
		return "italiano"
	}
	return language
}
