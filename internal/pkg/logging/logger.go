// Package logging — структурированное логирование alertgate поверх log/slog.
package logging

// Logger — структурированный логгер с парами key-value:
//
//	logger.Warn("хранилище недоступно", "strategy", name, "error", err.Error())
//
// Логгер никогда не пишет в stdout: там идёт поток пропущенных алертов.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With возвращает Logger, добавляющий args к каждой записи.
	With(args ...any) Logger
}
