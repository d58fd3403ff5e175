package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger builds the application logger from the logging section and
// installs it as the slog default. With no file configured the log goes
// to a rotated file under the state directory; set file to "-" to log to
// stderr instead.
func InitLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	level := parseLogLevel(cfg.Level)

	toConsole := cfg.File == "-"
	file := cfg.File
	if file == "" {
		file = filepath.Join(getStateDir(), appName, appName+".log")
	}

	var writer io.Writer
	if toConsole {
		writer = os.Stderr
	} else {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		writer = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		// Coloring only makes sense on a console.
		if cfg.Color && toConsole {
			handler = newColorHandler(writer, opts)
		} else {
			handler = slog.NewTextHandler(writer, opts)
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// colorHandler decorates text log lines with an ANSI color derived from
// the record level.
type colorHandler struct {
	inner  slog.Handler
	writer io.Writer
	opts   *slog.HandlerOptions
}

func newColorHandler(w io.Writer, opts *slog.HandlerOptions) *colorHandler {
	return &colorHandler{
		inner:  slog.NewTextHandler(w, opts),
		writer: w,
		opts:   opts,
	}
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\033[90m",
	slog.LevelInfo:  "\033[32m",
	slog.LevelWarn:  "\033[33m",
	slog.LevelError: "\033[31m",
}

func (h *colorHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf strings.Builder
	if err := slog.NewTextHandler(&buf, h.opts).Handle(ctx, r); err != nil {
		return err
	}

	line := buf.String()
	if code, ok := levelColors[r.Level]; ok {
		// Colorize the leading token, which carries the timestamp.
		if head, rest, found := strings.Cut(line, " "); found {
			line = code + head + "\033[0m " + rest
		} else {
			line = code + line + "\033[0m"
		}
	}

	_, err := h.writer.Write([]byte(line))
	return err
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorHandler{inner: h.inner.WithAttrs(attrs), writer: h.writer, opts: h.opts}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	return &colorHandler{inner: h.inner.WithGroup(name), writer: h.writer, opts: h.opts}
}

func (h *colorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
