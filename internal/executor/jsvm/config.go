package jsvm

import (
	"time"

	"github.com/sakif/codecoach/internal/executor"
)

// Config holds the configuration for in-process JavaScript execution.
type Config struct {
	// Timeout is the wall-clock budget for one snippet.
	Timeout time.Duration
	// PoolSize is the number of pre-built runtimes kept ready.
	PoolSize int
	// MaxConcurrent caps how many snippets run at the same time.
	MaxConcurrent int64
	// MaxCallStackSize bounds recursion depth inside a snippet.
	MaxCallStackSize int
	// MaxOutputBytes caps captured console output; later writes are dropped.
	MaxOutputBytes int
}

// DefaultConfig provides sensible defaults for a learner sandbox.
func DefaultConfig() Config {
	return Config{
		Timeout:          executor.DefaultTimeout,
		PoolSize:         4,
		MaxConcurrent:    8,
		MaxCallStackSize: 1024,
		MaxOutputBytes:   1 << 20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.PoolSize < 0 {
		c.PoolSize = 0
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.MaxCallStackSize <= 0 {
		c.MaxCallStackSize = d.MaxCallStackSize
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = d.MaxOutputBytes
	}
	return c
}
