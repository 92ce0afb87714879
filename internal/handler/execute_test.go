package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/handler"
)

func TestExecuteHandler_HandleExecute(t *testing.T) {
	t.Run("valid execution", func(t *testing.T) {
		env := newTestEnv(t)
		env.exec.ReturnRes = &executor.ExecutionResult{Output: "Hello World", ExecutionTime: 12}

		rr := httptest.NewRecorder()
		env.execute.HandleExecute(rr, newRequest(http.MethodPost, "/api/execute", `{"code":"console.log('Hello World')"}`, ""))

		assert.Equal(t, http.StatusOK, rr.Code)
		res := decodeBody[executor.ExecutionResult](t, rr)
		assert.Equal(t, "Hello World", res.Output)
		assert.Equal(t, int64(12), res.ExecutionTime)
		assert.Equal(t, "console.log('Hello World')", env.exec.CapturedReq.Code)
	})

	t.Run("snippet failure is still 200", func(t *testing.T) {
		env := newTestEnv(t)
		env.exec.ReturnRes = &executor.ExecutionResult{Error: "boom", Kind: executor.FailureRuntime}

		rr := httptest.NewRecorder()
		env.execute.HandleExecute(rr, newRequest(http.MethodPost, "/api/execute", `{"code":"throw new Error('boom')"}`, ""))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"output":"","error":"boom","executionTime":0,"kind":"runtime"}`, rr.Body.String())
	})

	t.Run("invalid json", func(t *testing.T) {
		env := newTestEnv(t)

		rr := httptest.NewRecorder()
		env.execute.HandleExecute(rr, newRequest(http.MethodPost, "/api/execute", `{bad json`, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", decodeBody[handler.ErrorResponse](t, rr).Error)
	})

	t.Run("empty code", func(t *testing.T) {
		env := newTestEnv(t)

		rr := httptest.NewRecorder()
		env.execute.HandleExecute(rr, newRequest(http.MethodPost, "/api/execute", `{"code":"  "}`, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		env := newTestEnv(t)
		body := `{"code":"` + strings.Repeat("x", 2<<20) + `"}`

		rr := httptest.NewRecorder()
		env.execute.HandleExecute(rr, newRequest(http.MethodPost, "/api/execute", body, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("executor error", func(t *testing.T) {
		env := newTestEnv(t)
		env.exec.ReturnErr = errors.New("executor closed")

		rr := httptest.NewRecorder()
		env.execute.HandleExecute(rr, newRequest(http.MethodPost, "/api/execute", `{"code":"1"}`, ""))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "internal_error", decodeBody[handler.ErrorResponse](t, rr).Error)
	})
}
