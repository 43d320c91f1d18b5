package wrap

import (
	"context"
	"errors"
)

// errorWithLogCtx pairs an error with the LogCtx that was active when it
// happened, so the caller can log it with the original request fields.
type errorWithLogCtx struct {
	err    error
	logCtx LogCtx
}

func (e *errorWithLogCtx) Error() string {
	return e.err.Error()
}

func (e *errorWithLogCtx) Unwrap() error {
	return e.err
}

// Error wraps err with the LogCtx currently stored in ctx. Wrapping an
// already-wrapped error just refreshes its context.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var e *errorWithLogCtx
	if errors.As(err, &e) {
		if lc, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
			e.logCtx = lc
		}
		return e
	}

	lc, _ := ctx.Value(LogCtxKey).(LogCtx)
	return &errorWithLogCtx{err: err, logCtx: lc}
}

// ErrorCtx restores the LogCtx captured inside err into ctx, if any.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *errorWithLogCtx
	if errors.As(err, &e) && e != nil {
		return context.WithValue(ctx, LogCtxKey, e.logCtx)
	}
	return ctx
}
