package ratelimit

import (
	"fmt"
	"time"
)

// Значения политики по умолчанию.
const (
	// DefaultWindow — длина окна по умолчанию.
	DefaultWindow = 5 * time.Minute

	// DefaultBucketCount — количество корзин SlidingWindowCounter по умолчанию.
	DefaultBucketCount = 5
)

// DefaultQuotas возвращает таблицу квот по умолчанию.
func DefaultQuotas() map[Severity]int {
	return map[Severity]int{
		SeverityCritical: 10,
		SeverityHigh:     5,
		SeverityMedium:   2,
		SeverityInfo:     1,
	}
}

// Policy — неизменяемое отображение severity → квота на окно W.
// Создаётся один раз при старте и читается без синхронизации.
type Policy struct {
	window time.Duration
	quotas [SeverityCritical + 1]int
}

// NewPolicy создаёт Policy и проверяет, что окно положительно,
// а для каждого известного severity задана положительная квота.
func NewPolicy(window time.Duration, quotas map[Severity]int) (Policy, error) {
	if window <= 0 {
		return Policy{}, ErrInvalidWindow
	}
	p := Policy{window: window}
	for sev, limit := range quotas {
		if !sev.Valid() {
			return Policy{}, fmt.Errorf("%w: %d", ErrInvalidSeverity, int(sev))
		}
		p.quotas[sev] = limit
	}
	for _, sev := range Severities() {
		if p.quotas[sev] <= 0 {
			return Policy{}, fmt.Errorf("%w: %s=%d", ErrInvalidQuota, sev, p.quotas[sev])
		}
	}
	return p, nil
}

// DefaultPolicy возвращает политику с окном 5 минут и таблицей DefaultQuotas.
func DefaultPolicy() Policy {
	p, err := NewPolicy(DefaultWindow, DefaultQuotas())
	if err != nil {
		panic(fmt.Sprintf("ratelimit: default policy is invalid: %v", err))
	}
	return p
}

// Window возвращает длину окна.
func (p Policy) Window() time.Duration {
	return p.window
}

// Quota возвращает квоту для severity.
// Паникует с ErrInvalidSeverity для SeverityUnknown и неизвестных значений:
// это нарушение контракта вызывающей стороной, а не runtime-ситуация.
func (p Policy) Quota(s Severity) int {
	if !s.Valid() || p.quotas[s] <= 0 {
		panic(fmt.Errorf("%w: %s (%d)", ErrInvalidSeverity, s, int(s)))
	}
	return p.quotas[s]
}

// Quotas возвращает копию таблицы квот.
func (p Policy) Quotas() map[Severity]int {
	out := make(map[Severity]int, len(p.quotas))
	for _, sev := range Severities() {
		out[sev] = p.quotas[sev]
	}
	return out
}
