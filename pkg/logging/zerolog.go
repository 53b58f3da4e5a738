package logging

import (
	"context"
	"io"
	"os"
	"time"

	dispatch "github.com/goliatone/go-dispatch"
	"github.com/rs/zerolog"
)

// NewConsoleLogger builds a human readable zerolog logger at level.
func NewConsoleLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("component", "dispatch").Logger()
}

type zerologCallLogger struct {
	logger zerolog.Logger
}

// Zerolog returns a CallLogger writing one entry per call. Handled and
// default calls log at debug, failures at error.
func Zerolog(logger zerolog.Logger) dispatch.CallLogger {
	return zerologCallLogger{logger: logger}
}

func (l zerologCallLogger) LogCall(_ context.Context, event dispatch.CallLogEvent) {
	var entry *zerolog.Event
	switch event.Outcome {
	case dispatch.OutcomeError:
		entry = l.logger.Error().Err(event.Err)
	case dispatch.OutcomeNotImplemented:
		entry = l.logger.Warn().Err(event.Err)
	default:
		entry = l.logger.Debug()
	}
	entry.
		Str("call_id", event.CallID).
		Str("function", event.Function).
		Str("domain", event.Domain).
		Str("backend", event.Backend).
		Str("outcome", string(event.Outcome)).
		Int("attempts", event.Attempts).
		Dur("elapsed", event.Duration).
		Msg("dispatch call")
}
