package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/HammerMeetNail/conversando/internal/models"
)

type QuestionService struct {
	source QuestionSource
}

func NewQuestionService(source QuestionSource) *QuestionService {
	return &QuestionService{source: source}
}

// List returns the questions in source order with surrounding whitespace
// trimmed. The result is never nil.
func (s *QuestionService) List(ctx context.Context) ([]models.ReflectionQuestion, error) {
	questions, err := s.source.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}

	out := make([]models.ReflectionQuestion, 0, len(questions))
	for _, q := range questions {
		q.Question = strings.TrimSpace(q.Question)
		q.Category = strings.TrimSpace(q.Category)
		if q.IsBlank() {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}
