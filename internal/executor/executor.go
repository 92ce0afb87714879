// Package executor defines the contract for running learner-submitted
// JavaScript snippets and the result shape every backend returns.
//
// A backend never reports a snippet's own failure (syntax error, thrown
// exception, timeout) as a Go error. Those are part of the result. The error
// return is reserved for infrastructure faults such as an unreachable docker
// daemon or a closed executor.
package executor

import (
	"context"
	"time"
)

// DefaultTimeout is the wall-clock budget for a single execution.
const DefaultTimeout = 5 * time.Second

// TimeoutMessage is the error text reported when a snippet exceeds its budget.
const TimeoutMessage = "Code execution timed out"

// CancelledMessage is the error text reported when the caller gives up first.
const CancelledMessage = "Code execution cancelled"

// FailureKind classifies why an execution did not succeed.
type FailureKind string

const (
	FailureSyntax    FailureKind = "syntax"
	FailureRuntime   FailureKind = "runtime"
	FailureTimeout   FailureKind = "timeout"
	FailureCancelled FailureKind = "cancelled"
)

// ExecutionRequest represents a request to execute a JavaScript snippet.
type ExecutionRequest struct {
	Code string `json:"code"`
}

// ExecutionResult is the outcome of one execution.
//
// On success Error is empty and Output holds the trimmed printed text (or the
// formatted return value when nothing was printed). On failure Output is
// empty and Error carries the message. ExecutionTime is always set.
type ExecutionResult struct {
	Output        string      `json:"output"`
	Error         string      `json:"error,omitempty"`
	ExecutionTime int64       `json:"executionTime"` // milliseconds
	Kind          FailureKind `json:"kind,omitempty"`
}

// Failed reports whether the execution ended in a failure.
func (r *ExecutionResult) Failed() bool {
	return r.Kind != ""
}

// Success builds a success result measured from start.
func Success(output string, start time.Time) *ExecutionResult {
	return &ExecutionResult{
		Output:        output,
		ExecutionTime: elapsedMillis(start),
	}
}

// Failure builds a failure result measured from start.
func Failure(kind FailureKind, message string, start time.Time) *ExecutionResult {
	if message == "" {
		message = "Error"
	}
	return &ExecutionResult{
		Output:        "",
		Error:         message,
		ExecutionTime: elapsedMillis(start),
		Kind:          kind,
	}
}

func elapsedMillis(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// Executor represents the core interface for running code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}
