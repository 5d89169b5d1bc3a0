package services

import (
	"context"
	"fmt"

	"github.com/HammerMeetNail/conversando/internal/models"
)

// PostgresSource serves the registry from the mirror tables created by the
// migrations in /migrations.
type PostgresSource struct {
	db DBConn
}

var _ Registry = (*PostgresSource)(nil)

func NewPostgresSource(db DBConn) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) ListCodes(ctx context.Context) ([]models.AccessCode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT code, created_date, expiration_date
		FROM access_codes
		WHERE btrim(code) <> ''
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying access codes: %w", err)
	}
	defer rows.Close()

	codes := []models.AccessCode{}
	for rows.Next() {
		var c models.AccessCode
		if err := rows.Scan(&c.Code, &c.CreatedDate, &c.ExpirationDate); err != nil {
			return nil, fmt.Errorf("scanning access code: %w", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access codes: %w", err)
	}
	return codes, nil
}

func (s *PostgresSource) ListQuestions(ctx context.Context) ([]models.ReflectionQuestion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT question, category
		FROM reflection_questions
		WHERE btrim(question) <> ''
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	questions := []models.ReflectionQuestion{}
	for rows.Next() {
		var q models.ReflectionQuestion
		if err := rows.Scan(&q.Question, &q.Category); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}
	return questions, nil
}
