package logging

import (
	"errors"
	"fmt"
)

// Форматы вывода.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Уровни логирования.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Куда писать логи. stdout занят потоком пропущенных алертов и здесь не допускается.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Значения по умолчанию.
const (
	DefaultLevel      = LevelInfo
	DefaultFormat     = FormatText
	DefaultOutput     = OutputStderr
	DefaultFilePath   = "/var/log/alertgate.log"
	DefaultMaxSize    = 100 // MB
	DefaultMaxBackups = 3
	DefaultMaxAge     = 7 // days
	DefaultCompress   = true
)

// ErrInvalidConfig — недопустимое значение в настройках логирования.
var ErrInvalidConfig = errors.New("logging: invalid config")

// Config — настройки логирования.
type Config struct {
	// Format: "json" или "text".
	Format string

	// Level: "debug", "info", "warn" или "error".
	Level string

	// Output: "stderr" или "file".
	Output string

	// FilePath — путь к файлу при Output="file".
	FilePath string

	// MaxSize — размер файла в МБ, после которого lumberjack выполняет ротацию.
	MaxSize int

	// MaxBackups — сколько ротированных файлов хранить.
	MaxBackups int

	// MaxAge — сколько дней хранить ротированные файлы.
	MaxAge int

	// Compress — сжимать ротированные файлы gzip.
	Compress bool
}

// DefaultConfig возвращает Config со значениями по умолчанию.
func DefaultConfig() Config {
	return Config{
		Level:      DefaultLevel,
		Format:     DefaultFormat,
		Output:     DefaultOutput,
		FilePath:   DefaultFilePath,
		MaxSize:    DefaultMaxSize,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAge,
		Compress:   DefaultCompress,
	}
}

// Validate проверяет значения перечислений. Пустые значения допустимы
// и заменяются значениями по умолчанию в NewLogger.
func (c Config) Validate() error {
	switch c.Level {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("%w: level %q", ErrInvalidConfig, c.Level)
	}
	switch c.Format {
	case "", FormatJSON, FormatText:
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidConfig, c.Format)
	}
	switch c.Output {
	case "", OutputStderr:
	case OutputFile:
		if c.FilePath == "" {
			return fmt.Errorf("%w: output=file requires filePath", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: output %q", ErrInvalidConfig, c.Output)
	}
	return nil
}
