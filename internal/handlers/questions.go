package handlers

import (
	"context"
	"net/http"

	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/models"
)

const msgQuestionsError = "Error al obtener las preguntas"

type QuestionServiceInterface interface {
	List(ctx context.Context) ([]models.ReflectionQuestion, error)
}

type QuestionHandler struct {
	questions QuestionServiceInterface
}

func NewQuestionHandler(questions QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.List(r.Context())
	if err != nil {
		logging.Error("Error fetching questions", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Message: msgQuestionsError})
		return
	}
	if questions == nil {
		questions = []models.ReflectionQuestion{}
	}
	writeJSON(w, http.StatusOK, questions)
}
