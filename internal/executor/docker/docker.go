// Package docker runs snippets with node inside short-lived, network-less
// containers. It trades latency for OS-level isolation: the time budget is
// enforced by removing the container, which kills the process outright.
package docker

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"golang.org/x/sync/semaphore"

	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/executor/pool"
	"github.com/sakif/codecoach/internal/executor/sanitize"
)

// harness is the node program exec'd in the container. It reads the snippet
// from the environment, runs it in a fresh vm context and prints one JSON
// document describing the result.
//
//go:embed harness.js
var harness string

const snippetEnv = "CODECOACH_SNIPPET"

// Executor implements the executor.Executor interface using Docker.
type Executor struct {
	cli       *client.Client
	config    Config
	logger    *slog.Logger
	sanitizer sanitize.Sanitizer
	pool      *pool.Pool[string]
	slots     *semaphore.Weighted
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new Docker Executor and initializes the connection.
func New(cfg Config, sanitizer sanitize.Sanitizer, logger *slog.Logger) (*Executor, error) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = executor.DefaultTimeout
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	// Make sure the image is pulled
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring docker image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	// Read everything to block until the pull is complete
	_, _ = io.Copy(io.Discard, reader)
	logger.Info("docker image is ready")

	e := &Executor{
		cli:       cli,
		config:    cfg,
		logger:    logger,
		sanitizer: sanitizer,
		pool:      newContainerPool(cli, cfg, logger),
		slots:     semaphore.NewWeighted(cfg.MaxConcurrent),
	}
	e.pool.Start()

	return e, nil
}

// Close shuts down the executor pool and docker client.
func (e *Executor) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

// Execute runs the snippet with node in a sandboxed Docker container.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	start := time.Now()

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return executor.Failure(executor.FailureCancelled, executor.CancelledMessage, start), nil
	}
	defer e.slots.Release(1)

	source := e.sanitizer.Sanitize(req.Code)

	containerID, err := e.pool.Get(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return executor.Failure(executor.FailureCancelled, executor.CancelledMessage, start), nil
		}
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	// The container is single-use; removing it also kills a runaway node.
	defer e.discard(containerID)

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Env:          []string{snippetEnv + "=" + source},
		Cmd:          []string{"node", "-e", harness},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer

	done := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	select {
	case <-done:
		return decodeResult(stdout.Bytes(), stderr.String(), start), nil
	case <-executeCtx.Done():
		if ctx.Err() != nil {
			return executor.Failure(executor.FailureCancelled, executor.CancelledMessage, start), nil
		}
		e.logger.Warn("snippet exceeded its budget",
			slog.String("container", containerID),
			slog.Duration("timeout", e.config.Timeout),
		)
		return executor.Failure(executor.FailureTimeout, executor.TimeoutMessage, start), nil
	}
}

func (e *Executor) discard(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		e.logger.Error("failed to remove container", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// harnessResult is the JSON document harness.js prints.
type harnessResult struct {
	Output string `json:"output"`
	Error  string `json:"error"`
	Kind   string `json:"kind"`
}

// decodeResult turns the harness output into an ExecutionResult. Anything
// that is not a harness document (node crashed, out of memory) is reported as
// a runtime failure carrying the first line of stderr.
func decodeResult(stdout []byte, stderr string, start time.Time) *executor.ExecutionResult {
	var hr harnessResult
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &hr); err != nil {
		msg := strings.TrimSpace(stderr)
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		if msg == "" {
			msg = "node exited without a result"
		}
		return executor.Failure(executor.FailureRuntime, msg, start)
	}

	switch executor.FailureKind(hr.Kind) {
	case executor.FailureSyntax:
		return executor.Failure(executor.FailureSyntax, hr.Error, start)
	case executor.FailureRuntime:
		return executor.Failure(executor.FailureRuntime, hr.Error, start)
	}
	return executor.Success(hr.Output, start)
}
