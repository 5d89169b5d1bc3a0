package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HammerMeetNail/conversando/internal/config"
	"github.com/HammerMeetNail/conversando/internal/handlers"
	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/middleware"
	"github.com/HammerMeetNail/conversando/internal/models"
)

func TestResolveValidateRateLimit_Defaults(t *testing.T) {
	logger := logging.New().SetOutput(&bytes.Buffer{})
	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "production"},
		RateLimit: config.RateLimitConfig{ValidateLimit: 30},
	}

	limit := resolveValidateRateLimit(cfg, logger, func(key string) (string, bool) {
		return "", false
	})
	if limit != 30 {
		t.Fatalf("expected default limit 30, got %d", limit)
	}
}

func TestResolveValidateRateLimit_DevelopmentDefault(t *testing.T) {
	logger := logging.New().SetOutput(&bytes.Buffer{})
	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "development"},
		RateLimit: config.RateLimitConfig{ValidateLimit: 30},
	}

	limit := resolveValidateRateLimit(cfg, logger, func(key string) (string, bool) {
		return "", false
	})
	if limit != 300 {
		t.Fatalf("expected dev limit 300, got %d", limit)
	}
}

func TestResolveValidateRateLimit_FromEnv(t *testing.T) {
	logger := logging.New().SetOutput(&bytes.Buffer{})
	cfg := &config.Config{Server: config.ServerConfig{Environment: "development"}}

	limit := resolveValidateRateLimit(cfg, logger, func(key string) (string, bool) {
		return "12", true
	})
	if limit != 12 {
		t.Fatalf("expected env limit 12, got %d", limit)
	}
}

func TestResolveValidateRateLimit_InvalidEnv(t *testing.T) {
	out := &bytes.Buffer{}
	logger := logging.New().SetOutput(out)
	cfg := &config.Config{Server: config.ServerConfig{Environment: "production"}}

	limit := resolveValidateRateLimit(cfg, logger, func(key string) (string, bool) {
		return "lots", true
	})
	if limit != 30 {
		t.Fatalf("expected fallback limit 30, got %d", limit)
	}
	if !strings.Contains(out.String(), "Invalid VALIDATE_RATE_LIMIT") {
		t.Fatalf("expected warning, got %q", out.String())
	}
}

type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, code string) models.ValidationResult {
	if models.NormalizeCode(code) == "ABC123" {
		return models.ValidationResult{Valid: true}
	}
	return models.ValidationResult{Valid: false, Message: "Código no encontrado"}
}

type stubQuestions struct{}

func (stubQuestions) List(context.Context) ([]models.ReflectionQuestion, error) {
	return []models.ReflectionQuestion{{Question: "¿Qué te hace sentir en calma?", Category: "Reflexivo"}}, nil
}

func newTestRouter() *http.ServeMux {
	codes := handlers.NewCodeHandler(stubValidator{})
	return newRouter(routes{
		health:    handlers.NewHealthHandler(nil),
		codes:     codes,
		questions: handlers.NewQuestionHandler(stubQuestions{}),
		cardImage: handlers.NewCardImageHandler(),
		limiter: middleware.NewRateLimiter(nil, 1, time.Minute, "ratelimit:validate:", nil, true).
			WithLimitHandler(http.HandlerFunc(codes.RateLimited)),
	})
}

func TestRouter_ValidateCode(t *testing.T) {
	mux := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/validate-code", strings.NewReader(`{"code":" abc123 "}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var result models.ValidationResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got %+v", result)
	}
}

func TestRouter_ValidateCodeRejectsGet(t *testing.T) {
	mux := newTestRouter()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/validate-code", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRouter_Questions(t *testing.T) {
	mux := newTestRouter()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var questions []models.ReflectionQuestion
	if err := json.NewDecoder(rr.Body).Decode(&questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 1 || questions[0].Category != "Reflexivo" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestRouter_CardImageAndHealth(t *testing.T) {
	mux := newTestRouter()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cards/image?category=Cotidiano", nil))
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}

	for _, path := range []string{"/health", "/ready", "/live"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}
