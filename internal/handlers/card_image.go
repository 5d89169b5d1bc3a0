package handlers

import (
	"net/http"
	"strings"

	"github.com/HammerMeetNail/conversando/internal/game"
	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/models"
	"github.com/HammerMeetNail/conversando/internal/services"
)

const maxCardTextRunes = 500

// CardImageHandler renders a card face as PNG so clients without a styled
// UI can show the same card.
type CardImageHandler struct {
	render func(models.ReflectionQuestion, game.Face) ([]byte, error)
}

func NewCardImageHandler() *CardImageHandler {
	return &CardImageHandler{render: services.RenderCardPNG}
}

func (h *CardImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := models.ReflectionQuestion{
		Category: strings.TrimSpace(query.Get("category")),
		Question: strings.TrimSpace(query.Get("question")),
	}
	if q.Category == "" {
		writeError(w, http.StatusBadRequest, "Missing category")
		return
	}
	if len([]rune(q.Category)) > maxCardTextRunes || len([]rune(q.Question)) > maxCardTextRunes {
		writeError(w, http.StatusBadRequest, "Text too long")
		return
	}

	var face game.Face
	switch query.Get("face") {
	case "", "category":
		face = game.FaceCategory
	case "question":
		if q.Question == "" {
			writeError(w, http.StatusBadRequest, "Missing question")
			return
		}
		face = game.FaceQuestion
	default:
		writeError(w, http.StatusBadRequest, "Invalid face")
		return
	}

	data, err := h.render(q, face)
	if err != nil {
		logging.Error("Error rendering card image", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to render image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
