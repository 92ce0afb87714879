package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/service"
)

type ProgressHandler struct {
	progress *service.ProgressService
	logger   *slog.Logger
}

func NewProgressHandler(progress *service.ProgressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

func (h *ProgressHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	rows, err := h.progress.GetUserProgress(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ProgressHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	stats, err := h.progress.GetProgressStats(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleGet serves GET /api/progress/{lessonId}; a lesson the user has not
// started is a 404.
func (h *ProgressHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	lessonID := chi.URLParam(r, "lessonId")
	p, err := h.progress.GetLessonProgress(r.Context(), uid, lessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	if p == nil {
		writeError(w, apperror.NotFound("progress", lessonID))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type completeRequest struct {
	Score *int `json:"score"`
}

// HandleComplete serves POST /api/progress/{lessonId}/complete. The body is
// optional.
func (h *ProgressHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req completeRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.progress.MarkLessonCompleted(r.Context(), uid, chi.URLParam(r, "lessonId"), req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type practiceTimeRequest struct {
	Minutes int `json:"minutes"`
}

func (h *ProgressHandler) HandleAddTime(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req practiceTimeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.progress.UpdatePracticeTime(r.Context(), uid, chi.URLParam(r, "lessonId"), req.Minutes); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProgressHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	st, err := h.progress.GetLessonState(r.Context(), uid, chi.URLParam(r, "lessonId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type stateRequest struct {
	LastPage   *int  `json:"lastPage"`
	QuizPassed *bool `json:"quizPassed"`
}

// HandlePutState serves PUT /api/progress/{lessonId}/state. Omitted fields
// keep their saved values.
func (h *ProgressHandler) HandlePutState(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req stateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.LastPage == nil && req.QuizPassed == nil {
		writeError(w, apperror.ValidationFailed("body", "lastPage or quizPassed is required"))
		return
	}

	lessonID := chi.URLParam(r, "lessonId")
	var (
		st  *model.LessonState
		err error
	)
	if req.LastPage != nil {
		if st, err = h.progress.SetLessonLastPage(r.Context(), uid, lessonID, *req.LastPage); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.QuizPassed != nil {
		if st, err = h.progress.SetLessonQuizPassed(r.Context(), uid, lessonID, *req.QuizPassed); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, st)
}
