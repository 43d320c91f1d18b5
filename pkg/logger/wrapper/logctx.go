package wrap

import "context"

type (
	// LogCtx carries request-scoped fields that every log record should have.
	LogCtx struct {
		Action    string
		UserID    string
		RequestID string
		RideID    string
		DriverID  string
	}

	logCtxKeyStruct struct{}
)

// LogCtxKey is the context key under which a LogCtx is stored.
var LogCtxKey = &logCtxKeyStruct{}

func merge(ctx context.Context, apply func(*LogCtx)) context.Context {
	lc, _ := ctx.Value(LogCtxKey).(LogCtx)
	apply(&lc)
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithAction sets or replaces the action field in the log context.
func WithAction(ctx context.Context, action string) context.Context {
	return merge(ctx, func(lc *LogCtx) { lc.Action = action })
}

// WithUserID sets or replaces the user id field in the log context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return merge(ctx, func(lc *LogCtx) { lc.UserID = userID })
}

// WithRequestID sets or replaces the request id field in the log context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return merge(ctx, func(lc *LogCtx) { lc.RequestID = requestID })
}

// WithRideID sets or replaces the ride id field in the log context.
func WithRideID(ctx context.Context, rideID string) context.Context {
	return merge(ctx, func(lc *LogCtx) { lc.RideID = rideID })
}

// WithDriverID sets or replaces the driver id field in the log context.
func WithDriverID(ctx context.Context, driverID string) context.Context {
	return merge(ctx, func(lc *LogCtx) { lc.DriverID = driverID })
}

// GetRequestID returns the request id from the log context, or "".
func GetRequestID(ctx context.Context) string {
	lc, _ := ctx.Value(LogCtxKey).(LogCtx)
	return lc.RequestID
}
