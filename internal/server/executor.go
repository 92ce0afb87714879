package server

import (
	"fmt"
	"log/slog"

	"github.com/sakif/codecoach/internal/config"
	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/executor/docker"
	"github.com/sakif/codecoach/internal/executor/jsvm"
	"github.com/sakif/codecoach/internal/executor/sanitize"
)

// NewExecutor builds the configured backend and wraps it with metrics and
// logging. The returned close function releases the backend's pool.
func NewExecutor(cfg config.ExecutorConfig, metrics *executor.Metrics, logger *slog.Logger) (executor.Executor, func() error, error) {
	policy := sanitize.Default()

	switch cfg.Backend {
	case config.BackendGoja, "":
		e := jsvm.New(jsvm.Config{
			Timeout:          cfg.Timeout,
			PoolSize:         cfg.PoolSize,
			MaxConcurrent:    cfg.MaxConcurrent,
			MaxCallStackSize: cfg.MaxCallStack,
			MaxOutputBytes:   cfg.MaxOutputBytes,
		}, logger, jsvm.WithSanitizer(policy))
		return executor.Instrument(e, config.BackendGoja, metrics, policy, logger), e.Close, nil

	case config.BackendDocker:
		e, err := docker.New(docker.Config{
			Image:         cfg.Docker.Image,
			MemoryLimit:   cfg.Docker.MemoryLimit,
			CPULimit:      cfg.Docker.CPULimit,
			Timeout:       cfg.Timeout,
			PoolSize:      cfg.PoolSize,
			MaxConcurrent: cfg.MaxConcurrent,
		}, policy, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("starting docker executor: %w", err)
		}
		return executor.Instrument(e, config.BackendDocker, metrics, policy, logger), e.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown executor backend %q", cfg.Backend)
	}
}
