package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Options configures Init.
type Options struct {
	Development bool
	SentryDSN   string
	// LogFile enables an additional JSON sink rotated by lumberjack.
	LogFile string
	// Output overrides stdout for the base handler (tests).
	Output io.Writer
}

// Init initializes the global logger based on environment
// Development: Text format with Debug level
// Production: JSON format with Info level
// Optionally sends errors to Sentry and mirrors everything to a rotating file
func Init(opts Options) {
	var level slog.Level
	var handlers []slog.Handler

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	// Base handler for stdout (always enabled)
	if opts.Development {
		level = slog.LevelDebug
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: level,
		}))
	} else {
		level = slog.LevelInfo
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: level,
		}))
	}

	// Optional rotating file handler
	if opts.LogFile != "" {
		err := os.MkdirAll(filepath.Dir(opts.LogFile), 0755)
		if err == nil {
			handlers = append(handlers, slog.NewJSONHandler(&lumberjack.Logger{
				Filename:   opts.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}, &slog.HandlerOptions{
				Level: level,
			}))
		}
	}

	// Optional Sentry handler (sends errors only)
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	// Use multi-handler if we have multiple, otherwise use single
	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}
