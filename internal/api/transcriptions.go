package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meetscribe/ms-engine/internal/database"
)

type TranscriptionsHandler struct {
	db *database.DB
}

func NewTranscriptionsHandler(db *database.DB) *TranscriptionsHandler {
	return &TranscriptionsHandler{db: db}
}

func (h *TranscriptionsHandler) Routes(r chi.Router) {
	r.Get("/transcriptions", h.ListTranscriptions)
	r.Get("/transcriptions/{id}", h.GetTranscription)
}

// ListTranscriptions returns a user's saved transcripts, newest first.
func (h *TranscriptionsHandler) ListTranscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := QueryString(r, "user_id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "user_id parameter is required")
		return
	}

	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.db.ListTranscriptionsByUser(r.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list transcriptions")
		return
	}
	total, err := h.db.CountTranscriptionsByUser(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to count transcriptions")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"transcriptions": rows,
		"total":          total,
		"limit":          p.Limit,
		"offset":         p.Offset,
	})
}

// GetTranscription returns one transcript, scoped to the owning user.
func (h *TranscriptionsHandler) GetTranscription(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid transcription ID")
		return
	}
	userID, ok := QueryString(r, "user_id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "user_id parameter is required")
		return
	}

	t, err := h.db.GetTranscription(r.Context(), id, userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "transcription not found")
		return
	}
	WriteJSON(w, http.StatusOK, t)
}
