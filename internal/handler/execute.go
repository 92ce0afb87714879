package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/service"
)

type ExecuteHandler struct {
	practice *service.PracticeService
	logger   *slog.Logger
}

func NewExecuteHandler(practice *service.PracticeService, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{practice: practice, logger: logger}
}

// HandleExecute runs a snippet and returns its ExecutionResult. A snippet
// that fails to compile, throws or times out is still a 200: the failure
// is in the result body.
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req executor.ExecutionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.practice.Run(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("code execution failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
