package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"attendancetracker/internal/config"
)

var (
	instance *slog.Logger
	mu       sync.Mutex
)

// Init builds the process logger. Release builds with a file path write JSON into a
// rotating file, everything else writes text to stdout.
func Init(cfg config.App) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{
		AddSource: cfg.Production(),
		Level:     level(cfg.Log.Level),
	}

	var handler slog.Handler
	if cfg.Log.FilePath != "" {
		handler = slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   cfg.Log.FilePath,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		}, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	instance = slog.New(handler).With("app_name", "attendance", "env", cfg.Env)
	slog.SetDefault(instance)
	return instance
}

// Get returns the process logger, falling back to slog's default before Init runs.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		return slog.Default()
	}
	return instance
}

// New returns a logger tagged with a module field.
func New(module string) *slog.Logger {
	return Get().With("module", module)
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func level(l string) slog.Level {
	switch strings.ToLower(l) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
