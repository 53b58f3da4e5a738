package dispatch

import (
	"context"
	"time"
)

// CallLogEvent describes a finished multimethod call.
type CallLogEvent struct {
	CallID   string
	Function string
	Domain   string
	Backend  string
	Outcome  Outcome
	Attempts int
	Duration time.Duration
	Err      error
}

// CallLogger records call events.
type CallLogger interface {
	LogCall(ctx context.Context, event CallLogEvent)
}

// CallLoggerFunc adapts a function to CallLogger.
type CallLoggerFunc func(ctx context.Context, event CallLogEvent)

// LogCall implements CallLogger.
func (f CallLoggerFunc) LogCall(ctx context.Context, event CallLogEvent) {
	if f != nil {
		f(ctx, event)
	}
}

type noopCallLogger struct{}

func (noopCallLogger) LogCall(context.Context, CallLogEvent) {}

// MultiCallLogger fans events out to every non-nil logger.
func MultiCallLogger(loggers ...CallLogger) CallLogger {
	filtered := make([]CallLogger, 0, len(loggers))
	for _, logger := range loggers {
		if logger != nil {
			filtered = append(filtered, logger)
		}
	}
	if len(filtered) == 0 {
		return noopCallLogger{}
	}
	return multiCallLogger(filtered)
}

type multiCallLogger []CallLogger

func (m multiCallLogger) LogCall(ctx context.Context, event CallLogEvent) {
	for _, logger := range m {
		logger.LogCall(ctx, event)
	}
}
