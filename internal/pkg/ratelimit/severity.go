package ratelimit

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Severity определяет уровень критичности алерта.
// Нулевое значение SeverityUnknown означает "severity не задан" и считается
// ошибкой вызывающего кода.
type Severity int

const (
	// SeverityUnknown — severity не задан.
	SeverityUnknown Severity = iota
	// SeverityInfo — информационный алерт.
	SeverityInfo
	// SeverityMedium — алерт средней важности.
	SeverityMedium
	// SeverityHigh — алерт высокой важности.
	SeverityHigh
	// SeverityCritical — критический алерт.
	SeverityCritical
)

// Severities возвращает все известные уровни в порядке возрастания критичности.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityMedium, SeverityHigh, SeverityCritical}
}

// String возвращает строковое представление Severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Valid сообщает, является ли s одним из известных уровней.
func (s Severity) Valid() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

// ParseSeverity разбирает имя уровня ("critical", "High", "INFO"...).
// Пробелы по краям игнорируются, регистр сравнивается через Unicode case folding.
func ParseSeverity(name string) (Severity, error) {
	// Caser хранит состояние, поэтому создаётся на каждый вызов.
	folder := cases.Fold()
	folded := folder.String(strings.TrimSpace(name))
	for _, s := range Severities() {
		if folder.String(s.String()) == folded {
			return s, nil
		}
	}
	return SeverityUnknown, fmt.Errorf("%w: %q", ErrInvalidSeverity, name)
}

// MarshalText реализует encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeverity, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
