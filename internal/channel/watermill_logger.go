package channel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// watermillLogger routes watermill's logging into zerolog.
type watermillLogger struct {
	lg zerolog.Logger
}

// NewWatermillLogger adapts lg to watermill.LoggerAdapter.
func NewWatermillLogger(lg zerolog.Logger) watermill.LoggerAdapter {
	return watermillLogger{lg: lg.With().Str("component", "watermill").Logger()}
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.lg.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.lg.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.lg.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.lg.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{lg: w.lg.With().Fields(map[string]any(fields)).Logger()}
}
