package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/codecoach/internal/auth"
	"github.com/sakif/codecoach/internal/catalog"
	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/handler"
	"github.com/sakif/codecoach/internal/repository/sqlite"
	"github.com/sakif/codecoach/internal/service"
)

type MockExecutor struct {
	CapturedReq executor.ExecutionRequest
	ReturnRes   *executor.ExecutionResult
	ReturnErr   error
}

func (m *MockExecutor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	m.CapturedReq = req
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnRes, nil
}

type testEnv struct {
	exec     *MockExecutor
	tokens   *auth.TokenService
	execute  *handler.ExecuteHandler
	lessons  *handler.LessonHandler
	practice *handler.PracticeHandler
	progress *handler.ProgressHandler
	auth     *handler.AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.Builtin()
	require.NoError(t, err)
	require.NoError(t, cat.Seed(context.Background(), db, logger))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	exec := &MockExecutor{ReturnRes: &executor.ExecutionResult{}}

	practice := service.NewPracticeService(exec, db, db, db, logger)
	authSvc := service.NewAuthService(db, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost), logger)

	return &testEnv{
		exec:     exec,
		tokens:   tokens,
		execute:  handler.NewExecuteHandler(practice, logger),
		lessons:  handler.NewLessonHandler(service.NewLessonService(db, logger), logger),
		practice: handler.NewPracticeHandler(practice, logger),
		progress: handler.NewProgressHandler(service.NewProgressService(db, db, logger), logger),
		auth:     handler.NewAuthHandler(authSvc, nil, false, logger),
	}
}

// newRequest builds a request with an optional JSON body, chi URL params
// given as key/value pairs, and an authenticated user when userID is set.
func newRequest(method, target, body, userID string, params ...string) *http.Request {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}
