package jsvm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"

	"github.com/sakif/codecoach/internal/executor"
)

// hostGlobals are the browser and Node names a snippet might reach for.
// They are pinned to undefined in every runtime.
var hostGlobals = []string{
	"require", "process", "module", "exports", "global",
	"window", "document", "fetch", "XMLHttpRequest",
	"setTimeout", "setInterval", "eval",
}

// The snippet starts on line 1 of the program so compile errors point at
// the learner's own line numbers.
const (
	wrapperHead = "(function() { try { "
	wrapperTail = "\n} catch (error) {\n" +
		"throw new Error(error !== null && typeof error === \"object\" && \"message\" in error ? String(error.message) : String(error));\n" +
		"}\n})"
)

// sandbox is one isolated runtime together with the recorder its console
// writes to. It runs exactly one snippet and is then thrown away.
type sandbox struct {
	vm     *goja.Runtime
	fmt    *formatter
	out    *recorder
	logger *slog.Logger

	// halt holds the interrupt reason once the executor has given up on
	// this sandbox.
	halt atomic.Pointer[string]
}

func newSandbox(cfg Config, logger *slog.Logger, globals map[string]any) (*sandbox, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(cfg.MaxCallStackSize)

	sb := &sandbox{
		vm:     vm,
		fmt:    newFormatter(vm),
		out:    newRecorder(cfg.MaxOutputBytes),
		logger: logger,
	}

	for _, name := range hostGlobals {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return nil, fmt.Errorf("jsvm: removing global %s: %w", name, err)
		}
	}

	if err := sb.installConsole(); err != nil {
		return nil, err
	}

	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("jsvm: installing global %s: %w", name, err)
		}
	}

	return sb, nil
}

func (s *sandbox) installConsole() error {
	console := s.vm.NewObject()
	if err := console.Set("log", s.record); err != nil {
		return fmt.Errorf("jsvm: installing console.log: %w", err)
	}
	for _, name := range []string{"info", "debug", "warn", "error"} {
		if err := console.Set(name, s.forward(name)); err != nil {
			return fmt.Errorf("jsvm: installing console.%s: %w", name, err)
		}
	}
	return s.vm.Set("console", console)
}

// record is console.log: every call becomes one line of captured output.
func (s *sandbox) record(call goja.FunctionCall) goja.Value {
	s.out.write(s.line(call.Arguments))
	s.reassertHalt()
	return goja.Undefined()
}

// forward sends the other console methods to the host log; they are not
// part of the snippet's output.
func (s *sandbox) forward(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		s.logger.Debug("snippet console output",
			slog.String("level", level),
			slog.String("message", s.line(call.Arguments)),
		)
		s.reassertHalt()
		return goja.Undefined()
	}
}

func (s *sandbox) line(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = s.fmt.format(arg)
	}
	return strings.Join(parts, " ")
}

// stop interrupts the runtime. Safe to call from any goroutine.
func (s *sandbox) stop(reason string) {
	s.halt.Store(&reason)
	s.vm.Interrupt(reason)
}

// reassertHalt re-arms the interrupt after a host callback. An interrupt
// that lands while the callback is inside JSON.stringify can be absorbed by
// the formatter's error handling; this makes sure the loop still stops.
func (s *sandbox) reassertHalt() {
	if reason := s.halt.Load(); reason != nil {
		s.vm.Interrupt(*reason)
	}
}

// outcome is what the runtime goroutine reports back.
type outcome struct {
	value    string
	returned bool
	err      error
}

// run compiles the snippet as a zero-argument function and calls it. It must
// be the only code touching s.vm while it runs.
func (s *sandbox) run(source string) (res outcome) {
	defer func() {
		if r := recover(); r != nil {
			res = outcome{err: fmt.Errorf("%v", r)}
		}
	}()

	prg, err := goja.Compile("snippet.js", wrapperHead+source+wrapperTail, false)
	if err != nil {
		return outcome{err: compileError{err}}
	}

	fnVal, err := s.vm.RunProgram(prg)
	if err != nil {
		return outcome{err: err}
	}

	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return outcome{err: compileError{errors.New("snippet does not form a function body")}}
	}

	v, err := fn(goja.Undefined())
	if err != nil {
		return outcome{err: err}
	}
	if v == nil || goja.IsUndefined(v) {
		return outcome{}
	}
	return outcome{value: s.fmt.format(v), returned: true}
}

type compileError struct{ err error }

func (e compileError) Error() string { return e.err.Error() }
func (e compileError) Unwrap() error { return e.err }

// classify maps a runtime error to a failure kind and the bare message text.
func (s *sandbox) classify(err error) (executor.FailureKind, string) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if reason := s.halt.Load(); reason != nil && *reason != executor.TimeoutMessage {
			return executor.FailureCancelled, *reason
		}
		return executor.FailureTimeout, executor.TimeoutMessage
	}

	var ce compileError
	if errors.As(err, &ce) {
		var syntax *goja.CompilerSyntaxError
		if errors.As(err, &syntax) {
			return executor.FailureSyntax, syntax.Message
		}
		return executor.FailureSyntax, firstLine(ce.Error())
	}

	var exc *goja.Exception
	if errors.As(err, &exc) {
		return executor.FailureRuntime, exceptionMessage(exc)
	}

	return executor.FailureRuntime, firstLine(err.Error())
}

func exceptionMessage(exc *goja.Exception) string {
	if obj, ok := exc.Value().(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	if v := exc.Value(); v != nil {
		return v.String()
	}
	return firstLine(exc.Error())
}

// firstLine drops a trailing stack trace.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// recorder collects console.log lines for one execution. Once released it
// drops further writes, so nothing a halted runtime prints can leak into a
// result.
type recorder struct {
	mu        sync.Mutex
	buf       strings.Builder
	limit     int
	truncated bool
	released  bool
}

func newRecorder(limit int) *recorder {
	return &recorder{limit: limit}
}

func (r *recorder) write(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || r.truncated {
		return
	}
	if r.limit > 0 && r.buf.Len()+len(line)+1 > r.limit {
		r.truncated = true
		return
	}
	r.buf.WriteString(line)
	r.buf.WriteByte('\n')
}

func (r *recorder) release() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.released = true
	return r.buf.String()
}
