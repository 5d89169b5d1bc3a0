package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/HammerMeetNail/conversando/internal/models"
)

// RangeReader returns the raw rows of a spreadsheet range.
type RangeReader interface {
	ReadRange(ctx context.Context, readRange string) ([][]string, error)
}

// SheetsSource reads codes and questions from two ranges of one spreadsheet.
// The first row of each range is a header. Rows whose first cell is blank are
// dropped.
type SheetsSource struct {
	reader         RangeReader
	codesRange     string
	questionsRange string
}

var _ Registry = (*SheetsSource)(nil)

func NewSheetsSource(reader RangeReader, codesRange, questionsRange string) *SheetsSource {
	return &SheetsSource{
		reader:         reader,
		codesRange:     codesRange,
		questionsRange: questionsRange,
	}
}

func (s *SheetsSource) ListCodes(ctx context.Context) ([]models.AccessCode, error) {
	rows, err := s.reader.ReadRange(ctx, s.codesRange)
	if err != nil {
		return nil, fmt.Errorf("reading access codes: %w", err)
	}

	codes := []models.AccessCode{}
	for _, row := range dataRows(rows) {
		code := models.AccessCode{
			Code:           cell(row, 0),
			CreatedDate:    cell(row, 1),
			ExpirationDate: cell(row, 2),
		}
		if strings.TrimSpace(code.Code) == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *SheetsSource) ListQuestions(ctx context.Context) ([]models.ReflectionQuestion, error) {
	rows, err := s.reader.ReadRange(ctx, s.questionsRange)
	if err != nil {
		return nil, fmt.Errorf("reading questions: %w", err)
	}

	questions := []models.ReflectionQuestion{}
	for _, row := range dataRows(rows) {
		q := models.ReflectionQuestion{
			Question: cell(row, 0),
			Category: cell(row, 1),
		}
		if q.IsBlank() {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
