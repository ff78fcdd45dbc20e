// Package logging wires log/slog for the diagnostic API: text to the console,
// JSON to a weekly rotating file, plus package-level helpers.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

// Options configures InitLoggerWithOptions. An empty Dir disables file output.
type Options struct {
	Dir            string
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
}

var (
	DefaultLoggingService *LoggingService

	fallbackOnce   sync.Once
	fallbackLogger *slog.Logger
)

// InitLogger initializes the global logger with default retention and level.
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{Dir: logDir})
}

// InitLoggerWithOptions replaces the global logger and slog's default.
func InitLoggerWithOptions(opts Options) *LoggingService {
	if DefaultLoggingService != nil && DefaultLoggingService.rotating != nil {
		_ = DefaultLoggingService.rotating.Close()
	}

	level := ParseLevel(opts.Level)
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	service := &LoggingService{Logger: slog.New(console)}

	if opts.Dir != "" {
		rl, err := NewRotatingLogger(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
		if err != nil {
			service.Logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
		} else {
			file := slog.NewJSONHandler(rl, &slog.HandlerOptions{Level: level})
			service.Logger = slog.New(&fanoutHandler{handlers: []slog.Handler{console, file}})
			service.rotating = rl
		}
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
	return service
}

// Close flushes and closes the rotating file, if any.
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		return nil
	}
	err := DefaultLoggingService.rotating.Close()
	DefaultLoggingService.rotating = nil
	return err
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logger() *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	// Not initialized yet (tests, early startup)
	fallbackOnce.Do(func() {
		fallbackLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})
	return fallbackLogger
}

func Info(msg string, args ...any)  { logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { logger().Warn(msg, args...) }
func Error(msg string, args ...any) { logger().Error(msg, args...) }
func Debug(msg string, args ...any) { logger().Debug(msg, args...) }
