package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/service"
)

type PracticeHandler struct {
	practice *service.PracticeService
	logger   *slog.Logger
}

func NewPracticeHandler(practice *service.PracticeService, logger *slog.Logger) *PracticeHandler {
	return &PracticeHandler{practice: practice, logger: logger}
}

type submitRequest struct {
	Code string `json:"code"`
}

// HandleSubmit serves POST /api/exercises/{id}/submit.
func (h *PracticeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.practice.Submit(r.Context(), uid, chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleListAttempts serves GET /api/exercises/{id}/attempts[?limit=&offset=].
func (h *PracticeHandler) HandleListAttempts(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	attempts, err := h.practice.ListAttempts(r.Context(), uid, chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}
