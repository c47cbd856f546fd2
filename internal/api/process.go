package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/meetscribe/ms-engine/internal/gateway"
)

// ProcessHandler exposes the transcription gateway over HTTP.
type ProcessHandler struct {
	gw *gateway.Gateway
}

func NewProcessHandler(gw *gateway.Gateway) *ProcessHandler {
	return &ProcessHandler{gw: gw}
}

func (h *ProcessHandler) Routes(r chi.Router) {
	r.Post("/process-audio", h.ProcessAudio)
}

// ProcessAudio handles POST /api/v1/process-audio. The response body is
// well-formed JSON on every path, including failures.
func (h *ProcessHandler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	var req gateway.ProcessRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteJSON(w, http.StatusBadRequest, gateway.ProcessResponse{
			Error:   "invalid_request",
			Message: "request body is not valid JSON",
		})
		return
	}

	resp, perr := h.gw.Process(r.Context(), &req)
	if perr != nil {
		hlog.FromRequest(r).Warn().
			Err(perr).
			Str("code", perr.Code).
			Str("user_id", req.UserID).
			Msg("process-audio failed")
		WriteJSON(w, perr.Status, gateway.ProcessResponse{
			Error:   perr.Code,
			Message: perr.Message,
		})
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}
