package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger создаёт SlogAdapter по конфигурации.
//
// Output="file" пишет через lumberjack с ротацией; если каталог создать не
// удалось, логгер предупреждает в stderr и пишет туда же.
func NewLogger(config Config) *SlogAdapter {
	switch config.Output {
	case OutputFile:
		w, err := newFileWriter(config)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "WARNING: %v, логи пишутся в stderr\n", err) //nolint:errcheck // bootstrap stderr
			return NewLoggerWithWriter(config, os.Stderr)
		}
		adapter := NewLoggerWithWriter(config, w)
		adapter.closer = w
		return adapter
	case OutputStderr, "":
		return NewLoggerWithWriter(config, os.Stderr)
	default:
		_, _ = fmt.Fprintf(os.Stderr, "WARNING: неизвестный logging output %q, логи пишутся в stderr\n", config.Output) //nolint:errcheck // bootstrap stderr
		return NewLoggerWithWriter(config, os.Stderr)
	}
}

func newFileWriter(config Config) (*lumberjack.Logger, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("logging output=file без filePath")
	}
	if dir := filepath.Dir(config.FilePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог логов %q: %w", dir, err)
		}
	}
	return &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}, nil
}

// NewLoggerWithWriter создаёт SlogAdapter, пишущий в w.
func NewLoggerWithWriter(config Config, w io.Writer) *SlogAdapter {
	opts := &slog.HandlerOptions{Level: ParseLevel(config.Level)}
	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// ParseLevel переводит имя уровня в slog.Level. Неизвестное имя даёт Info.
func ParseLevel(level string) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
