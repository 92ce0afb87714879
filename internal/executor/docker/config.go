package docker

import (
	"time"

	"github.com/sakif/codecoach/internal/executor"
)

// Config holds the configuration for Docker execution.
type Config struct {
	// Image is the Docker image to use for execution. It must provide node.
	Image string
	// MemoryLimit is the maximum amount of memory the container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs the container can use.
	CPULimit float64
	// Timeout is the maximum amount of time the execution can take.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers to maintain.
	PoolSize int
	// MaxConcurrent caps how many containers execute at the same time.
	MaxConcurrent int64
}

// DefaultConfig provides sensible defaults for a Node sandbox.
func DefaultConfig() Config {
	return Config{
		Image: "node:22-alpine",
		// 128 MB memory limit
		MemoryLimit: 128 * 1024 * 1024,
		// 0.5 CPU shares
		CPULimit:      0.5,
		Timeout:       executor.DefaultTimeout,
		PoolSize:      3,
		MaxConcurrent: 4,
	}
}
