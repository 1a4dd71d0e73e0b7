package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config represents logger configuration
type Config struct {
	Level       string // debug, info, warn, error, fatal
	Environment string // development, production, test
	Service     string // binary name, added to every event
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if cfg.Environment == "development" || cfg.Environment == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With().Timestamp().Caller()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	log.Logger = ctx.Logger()
}

type contextKey string

// ContextKey is the key used to store logger in context
const ContextKey contextKey = "logger"

// FromContext returns the logger from context or the global logger
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ContextKey).(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

// WithContext returns a context with the logger attached
func WithContext(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ContextKey, logger)
}

// LogWarn logs a warning message with context
func LogWarn(ctx context.Context, err error, msg string, fields ...interface{}) {
	event := FromContext(ctx).Warn()
	if err != nil {
		event = event.Err(err)
	}

	// Add fields in pairs (key, value)
	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			event.Interface(key, fields[i+1])
		}
	}

	event.Msg(msg)
}
