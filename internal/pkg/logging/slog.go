package logging

import (
	"io"
	"log/slog"
)

// SlogAdapter реализует Logger поверх *slog.Logger.
// Если вывод идёт в файл, адаптер владеет им и закрывает в Close.
type SlogAdapter struct {
	logger *slog.Logger
	closer io.Closer
}

// NewSlogAdapter оборачивает logger. nil заменяется на slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// With возвращает адаптер с дополнительными атрибутами. Файл остаётся во владении
// исходного адаптера.
func (s *SlogAdapter) With(args ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(args...)}
}

// Slog возвращает исходный *slog.Logger.
func (s *SlogAdapter) Slog() *slog.Logger {
	return s.logger
}

// Close закрывает файл логов, если он был открыт. Повторный вызов безопасен.
func (s *SlogAdapter) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
