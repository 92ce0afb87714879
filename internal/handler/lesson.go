package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codecoach/internal/service"
)

type LessonHandler struct {
	lessons *service.LessonService
	logger  *slog.Logger
}

func NewLessonHandler(lessons *service.LessonService, logger *slog.Logger) *LessonHandler {
	return &LessonHandler{lessons: lessons, logger: logger}
}

// HandleList serves GET /api/lessons[?language=].
func (h *LessonHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessons.List(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

// HandleGet serves GET /api/lessons/{id} as {lesson, pages}.
func (h *LessonHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.lessons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *LessonHandler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.lessons.ListExercises(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (h *LessonHandler) HandleGetExercise(w http.ResponseWriter, r *http.Request) {
	exercise, err := h.lessons.GetExercise(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercise)
}
