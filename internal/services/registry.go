package services

import (
	"context"

	"github.com/HammerMeetNail/conversando/internal/models"
)

// CodeRegistry is the read-only source of access codes.
type CodeRegistry interface {
	ListCodes(ctx context.Context) ([]models.AccessCode, error)
}

// QuestionSource is the read-only source of reflection questions, in
// registry order.
type QuestionSource interface {
	ListQuestions(ctx context.Context) ([]models.ReflectionQuestion, error)
}

// Registry is a backend that serves both codes and questions.
type Registry interface {
	CodeRegistry
	QuestionSource
}
