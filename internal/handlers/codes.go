package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/models"
	"github.com/HammerMeetNail/conversando/internal/services"
)

const (
	msgInternalError = "Error interno del servidor"
	msgRateLimited   = "Demasiados intentos. Inténtalo más tarde."
)

type CodeValidatorInterface interface {
	Validate(ctx context.Context, code string) models.ValidationResult
}

type CodeHandler struct {
	validator CodeValidatorInterface
}

func NewCodeHandler(validator CodeValidatorInterface) *CodeHandler {
	return &CodeHandler{validator: validator}
}

// Validate answers POST /api/validate-code. Every status carries the
// {valid, message} body.
func (h *CodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("Code validation panic", map[string]interface{}{"panic": fmt.Sprint(rec)})
			writeJSON(w, http.StatusInternalServerError, models.ValidationResult{Valid: false, Message: msgInternalError})
		}
	}()

	r.Body = http.MaxBytesReader(w, r.Body, 4*1024)
	var req models.CodeValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !models.IsValidCodeLength(req.Code) {
		writeJSON(w, http.StatusBadRequest, models.ValidationResult{Valid: false, Message: services.MsgInvalidCode})
		return
	}

	writeJSON(w, http.StatusOK, h.validator.Validate(r.Context(), req.Code))
}

// RateLimited is the 429 answer for the validate endpoint, kept in the same
// shape as every other validation response.
func (h *CodeHandler) RateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, models.ValidationResult{Valid: false, Message: msgRateLimited})
}
