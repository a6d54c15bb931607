package catcher

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen11/go-catcher/internal/platform/logging"
)

// Observer is notified after every invocation of a Catcher. failure is nil
// when the callback returned normally. Implementations must be safe for
// concurrent use and must not panic.
type Observer interface {
	Observe(ctx context.Context, elapsed time.Duration, failure *Error)
}

// Result is the outcome of one invocation. The zero value is a success.
type Result struct {
	failure *Error
}

// OK reports whether the callback returned without panicking.
func (r Result) OK() bool { return r.failure == nil }

// Err returns the trapped panic as an error, or nil on success.
func (r Result) Err() error {
	if r.failure == nil {
		return nil
	}
	return r.failure
}

// Failure returns the trapped panic, or nil on success.
func (r Result) Failure() *Error { return r.failure }

// Catcher runs callbacks under a panic-trapping boundary. It is immutable after
// New and safe for concurrent use. A nil *Catcher behaves like New().
type Catcher struct {
	logger        *slog.Logger
	contextLogger bool
	captureStack  bool
	stackLimit    int
	observers     []Observer
	passthrough   []func(any) bool
}

// Option configures a Catcher.
type Option func(*Catcher)

// WithLogger logs every trapped panic at error level, stack included.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catcher) {
		c.logger = logger
	}
}

// WithContextLogger logs trapped panics with the logger carried by the context
// passed to CatchContext when no explicit logger was configured.
func WithContextLogger() Option {
	return func(c *Catcher) {
		c.contextLogger = true
	}
}

// WithStack enables or disables stack capture. Enabled by default.
func WithStack(enabled bool) Option {
	return func(c *Catcher) {
		c.captureStack = enabled
	}
}

// WithStackLimit truncates captured stacks to at most n bytes. Zero or a
// negative value means no limit.
func WithStackLimit(n int) Option {
	return func(c *Catcher) {
		c.stackLimit = n
	}
}

// WithObserver adds an observer. Nil observers are ignored.
func WithObserver(o Observer) Option {
	return func(c *Catcher) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithPassthrough re-panics with the original value whenever pred returns true
// for it, instead of trapping it. Observers and loggers are not called for
// values that pass through. A panic whose value recover cannot see (panic(nil)
// under GODEBUG=panicnil=1) is always trapped.
func WithPassthrough(pred func(v any) bool) Option {
	return func(c *Catcher) {
		if pred != nil {
			c.passthrough = append(c.passthrough, pred)
		}
	}
}

// RuntimeErrors matches panics raised by the Go runtime, such as nil pointer
// dereferences and out of range indexing. Use it with WithPassthrough to trap
// only panics raised deliberately by code.
func RuntimeErrors(v any) bool {
	_, ok := v.(runtime.Error)
	return ok
}

// New returns a Catcher configured with opts.
func New(opts ...Option) *Catcher {
	c := &Catcher{captureStack: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCatcher = New()

// Catch runs fn and traps any panic it raises.
func Catch(fn func()) Result {
	return defaultCatcher.Catch(fn)
}

// Run runs fn and reports whether it returned without panicking. On failure
// the trapped *Error is stored in *errp when errp is not nil; on success *errp
// is left untouched.
func Run(fn func(), errp *error) bool {
	return defaultCatcher.Run(fn, errp)
}

// Catch runs fn and traps any panic it raises.
func (c *Catcher) Catch(fn func()) Result {
	return c.CatchContext(context.Background(), fn)
}

// Run is the out-parameter form of Catch. See the package-level Run.
func (c *Catcher) Run(fn func(), errp *error) bool {
	res := c.Catch(fn)
	if res.OK() {
		return true
	}
	if errp != nil {
		*errp = res.failure
	}
	return false
}

// CatchContext runs fn on the calling goroutine and traps any panic it raises.
// ctx is not passed to fn; it carries the logger and span used to report a
// trapped panic and is handed to observers.
func (c *Catcher) CatchContext(ctx context.Context, fn func()) Result {
	if c == nil {
		c = defaultCatcher
	}

	start := time.Now()
	failure := c.trap(fn)
	elapsed := time.Since(start)

	if failure != nil {
		c.report(ctx, failure)
	}
	for _, o := range c.observers {
		o.Observe(ctx, elapsed, failure)
	}

	return Result{failure: failure}
}

func (c *Catcher) trap(fn func()) (failure *Error) {
	completed := false
	defer func() {
		v := recover()
		if completed {
			return
		}
		if v == nil {
			// fn did not return but recover saw nothing: panic(nil) under
			// GODEBUG=panicnil=1, or runtime.Goexit. Passthrough never applies;
			// re-panicking would turn a Goexit into a crash.
			failure = newError(new(runtime.PanicNilError), c.stack())
			return
		}
		if c.passes(v) {
			panic(v)
		}
		failure = newError(v, c.stack())
	}()

	fn()
	completed = true
	return nil
}

func (c *Catcher) passes(v any) bool {
	for _, pred := range c.passthrough {
		if pred(v) {
			return true
		}
	}
	return false
}

// stack is called from the deferred recover so the panicking frames are still
// on the goroutine stack.
func (c *Catcher) stack() []byte {
	if !c.captureStack {
		return nil
	}
	s := debug.Stack()
	if c.stackLimit > 0 && len(s) > c.stackLimit {
		s = s[:c.stackLimit]
	}
	return s
}

func (c *Catcher) report(ctx context.Context, failure *Error) {
	logger := c.logger
	if logger == nil && c.contextLogger {
		logger = logging.FromContext(ctx)
	}
	if logger != nil {
		attrs := []slog.Attr{
			slog.String("panic.kind", string(failure.Kind)),
			slog.String("panic.name", failure.Name),
			slog.String("panic.reason", failure.Reason),
		}
		if len(failure.Stack) > 0 {
			attrs = append(attrs, slog.String("stack", string(failure.Stack)))
		}
		logger.LogAttrs(ctx, slog.LevelError, "panic recovered", attrs...)
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(failure, trace.WithAttributes(
		attribute.String("panic.kind", string(failure.Kind)),
		attribute.String("panic.name", failure.Name),
	))
	span.SetStatus(codes.Error, failure.Error())
}
