package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/codecoach/internal/executor/sanitize"
)

// Scanner reports which denylist rules fire on a source without rewriting it.
type Scanner interface {
	Findings(source string) []sanitize.Finding
}

// Instrumented wraps an Executor with metrics and structured logging.
type Instrumented struct {
	next    Executor
	backend string
	metrics *Metrics
	scanner Scanner
	logger  *slog.Logger
}

var _ Executor = (*Instrumented)(nil)

// Instrument decorates next. scanner may be nil, in which case sanitizer hits
// are not counted.
func Instrument(next Executor, backend string, metrics *Metrics, scanner Scanner, logger *slog.Logger) *Instrumented {
	return &Instrumented{
		next:    next,
		backend: backend,
		metrics: metrics,
		scanner: scanner,
		logger:  logger,
	}
}

// Execute runs the request through the wrapped executor and records the outcome.
func (i *Instrumented) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	if i.scanner != nil {
		for _, f := range i.scanner.Findings(req.Code) {
			i.metrics.SanitizerHits.WithLabelValues(f.Rule).Add(float64(f.Count))
			i.logger.Debug("neutralized denylisted pattern",
				slog.String("rule", f.Rule),
				slog.Int("count", f.Count),
			)
		}
	}

	start := time.Now()
	res, err := i.next.Execute(ctx, req)
	i.metrics.Duration.WithLabelValues(i.backend).Observe(time.Since(start).Seconds())

	if err != nil {
		i.metrics.Executions.WithLabelValues(i.backend, "error").Inc()
		i.logger.Error("execution failed",
			slog.String("backend", i.backend),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	i.metrics.Executions.WithLabelValues(i.backend, Outcome(res)).Inc()
	i.logger.Info("snippet executed",
		slog.String("backend", i.backend),
		slog.String("outcome", Outcome(res)),
		slog.Int64("duration_ms", res.ExecutionTime),
	)
	return res, nil
}

// Outcome is the metric label for a result: "success" or the failure kind.
func Outcome(res *ExecutionResult) string {
	if res.Failed() {
		return string(res.Kind)
	}
	return "success"
}
