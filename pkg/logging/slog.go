package logging

import (
	"context"
	"log/slog"

	dispatch "github.com/goliatone/go-dispatch"
)

type slogCallLogger struct {
	logger *slog.Logger
}

// Slog returns a CallLogger backed by a slog.Logger. A nil logger uses
// slog.Default.
func Slog(logger *slog.Logger) dispatch.CallLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogCallLogger{logger: logger}
}

func (l slogCallLogger) LogCall(ctx context.Context, event dispatch.CallLogEvent) {
	attrs := []slog.Attr{
		slog.String("call_id", event.CallID),
		slog.String("function", event.Function),
		slog.String("domain", event.Domain),
		slog.String("backend", event.Backend),
		slog.String("outcome", string(event.Outcome)),
		slog.Int("attempts", event.Attempts),
		slog.Duration("elapsed", event.Duration),
	}
	level := slog.LevelDebug
	switch event.Outcome {
	case dispatch.OutcomeError:
		level = slog.LevelError
	case dispatch.OutcomeNotImplemented:
		level = slog.LevelWarn
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	l.logger.LogAttrs(ctx, level, "dispatch call", attrs...)
}
