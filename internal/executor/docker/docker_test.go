package docker

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/executor/sanitize"
)

func TestExecute_CancelledBeforeSlot(t *testing.T) {
	e := &Executor{
		config:    DefaultConfig(),
		logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
		sanitizer: sanitize.Default(),
		slots:     semaphore.NewWeighted(1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Execute(ctx, executor.ExecutionRequest{Code: `console.log("never")`})
	require.NoError(t, err)
	assert.Equal(t, executor.FailureCancelled, res.Kind)
	assert.Equal(t, executor.CancelledMessage, res.Error)
	assert.Empty(t, res.Output)
}

func TestDecodeResult(t *testing.T) {
	start := time.Now()

	tests := []struct {
		name   string
		stdout string
		stderr string
		want   executor.ExecutionResult
	}{
		{
			name:   "success",
			stdout: `{"output":"hello"}`,
			want:   executor.ExecutionResult{Output: "hello"},
		},
		{
			name:   "syntax error",
			stdout: `{"kind":"syntax","error":"Unexpected token ';'"}`,
			want:   executor.ExecutionResult{Error: "Unexpected token ';'", Kind: executor.FailureSyntax},
		},
		{
			name:   "runtime error",
			stdout: `{"kind":"runtime","error":"boom"}`,
			want:   executor.ExecutionResult{Error: "boom", Kind: executor.FailureRuntime},
		},
		{
			name:   "node crashed",
			stderr: "FATAL ERROR: Reached heap limit\n<stack>",
			want:   executor.ExecutionResult{Error: "FATAL ERROR: Reached heap limit", Kind: executor.FailureRuntime},
		},
		{
			name: "no output at all",
			want: executor.ExecutionResult{Error: "node exited without a result", Kind: executor.FailureRuntime},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeResult([]byte(tt.stdout), tt.stderr, start)
			assert.Equal(t, tt.want.Output, got.Output)
			assert.Equal(t, tt.want.Error, got.Error)
			assert.Equal(t, tt.want.Kind, got.Kind)
		})
	}
}

func TestHarnessReadsSnippetFromEnv(t *testing.T) {
	assert.Contains(t, harness, "process.env."+snippetEnv)
}

func requireDocker(t *testing.T) {
	t.Helper()
	if os.Getenv("CI") != "" {
		t.Skip("Skipping docker test in CI environment")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		t.Skipf("docker daemon unreachable: %v", err)
	}
}

func TestDockerExecutor(t *testing.T) {
	requireDocker(t)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := DefaultConfig()
	cfg.PoolSize = 1

	exec, err := New(cfg, sanitize.Default(), logger)
	require.NoError(t, err, "Should initialize docker executor without error")
	defer exec.Close()

	t.Run("successful execution", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{
			Code: `console.log("Hello from test sandbox!")`,
		})
		require.NoError(t, err)
		assert.False(t, res.Failed(), res.Error)
		assert.Equal(t, "Hello from test sandbox!", res.Output)
	})

	t.Run("return value", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{Code: "return 2 + 2"})
		require.NoError(t, err)
		assert.Equal(t, "4", res.Output)
	})

	t.Run("syntax error", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{
			Code: `console.log("Missing parenthesis"`,
		})
		require.NoError(t, err)
		assert.Equal(t, executor.FailureSyntax, res.Kind)
		assert.Empty(t, res.Output)
	})

	t.Run("multiline logic", func(t *testing.T) {
		res, err := exec.Execute(context.Background(), executor.ExecutionRequest{
			Code: strings.Join([]string{
				"function fib(n) {",
				"  if (n <= 1) return n;",
				"  return fib(n - 1) + fib(n - 2);",
				"}",
				"console.log(fib(5));",
			}, "\n"),
		})
		require.NoError(t, err)
		assert.Equal(t, "5", res.Output)
	})

	t.Run("infinite loop timeout", func(t *testing.T) {
		fastCfg := cfg
		fastCfg.Timeout = 2 * time.Second
		fastExec, err := New(fastCfg, sanitize.Default(), logger)
		require.NoError(t, err)
		defer fastExec.Close()

		res, err := fastExec.Execute(context.Background(), executor.ExecutionRequest{Code: "while (true) {}"})
		require.NoError(t, err)
		assert.Equal(t, executor.FailureTimeout, res.Kind)
		assert.Equal(t, executor.TimeoutMessage, res.Error)
	})
}
