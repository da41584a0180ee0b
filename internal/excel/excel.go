package excel

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Helaglobe-srl/AI-quiz-maker/internal/models"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet layout: one row per question, one column for the question text
// and an option/score column pair per answer.
const (
	questionHeader = "DOMANDA"
	optionHeader   = "OPZIONE %d"
	scoreHeader    = "PUNTEGGIO %d"

	maxColumnWidth = 50
)

// QuizEntry pairs a quiz with the identifier used when combining several
// quizzes into one sheet.
type QuizEntry struct {
	Quiz       *models.Quiz
	Identifier string
}

// QuizToBuffer renders one quiz to an xlsx byte buffer.
func QuizToBuffer(quiz *models.Quiz) (*bytes.Buffer, error) {
	f, err := buildWorkbook("Quiz", quiz.Questions)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.WriteToBuffer()
}

// QuizToFile writes one quiz to <outputDir>/<identifier>_quiz.xlsx and
// returns the path.
func QuizToFile(quiz *models.Quiz, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := buildWorkbook("Quiz", quiz.Questions)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(outputDir, quiz.Identifier+"_quiz.xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file %s: %w", path, err)
	}
	return path, nil
}

// CombineQuizzesToBuffer renders several quizzes into a single sheet, in the
// given order, one row per question.
func CombineQuizzesToBuffer(entries []QuizEntry) (*bytes.Buffer, error) {
	var questions []models.Question
	for _, entry := range entries {
		if entry.Quiz == nil {
			continue
		}
		questions = append(questions, entry.Quiz.Questions...)
	}

	f, err := buildWorkbook("Combined Quiz", questions)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.WriteToBuffer()
}

// buildWorkbook creates a workbook with one sheet holding the question rows.
func buildWorkbook(sheet string, questions []models.Question) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{questionHeader}
	for i := 1; i <= models.AnswersPerQuestion; i++ {
		headers = append(headers, fmt.Sprintf(optionHeader, i), fmt.Sprintf(scoreHeader, i))
	}

	// Track the widest content per column for sizing, starting from headers.
	widths := make([]int, len(headers))
	for col, header := range headers {
		widths[col] = len(header)
		if err := setCell(f, sheet, col+1, 1, header); err != nil {
			f.Close()
			return nil, err
		}
	}

	for rowIdx, q := range questions {
		row := rowIdx + 2
		values := []interface{}{q.Text}
		for _, a := range q.Answers {
			values = append(values, a.Text, a.Score)
		}
		for col, v := range values {
			if err := setCell(f, sheet, col+1, row, v); err != nil {
				f.Close()
				return nil, err
			}
			if w := len(fmt.Sprint(v)); col < len(widths) && w > widths[col] {
				widths[col] = w
			}
		}
	}

	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to resolve column name: %w", err)
		}
		width := float64(w + 2)
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return f, nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell coordinates: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
