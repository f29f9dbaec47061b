package alerting

import (
	"context"

	"github.com/Kargones/alertgate/internal/pkg/logging"
)

// ThrottledAlerter пропускает во вложенный Alerter только алерты, разрешённые Gate.
//
// Send всегда возвращает nil: подавление и ошибки доставки логируются, но не
// прерывают работу вызывающего кода.
type ThrottledAlerter struct {
	gate   *Gate
	next   Alerter
	logger logging.Logger
}

// NewThrottledAlerter оборачивает next. nil logger заменяется на Nop.
func NewThrottledAlerter(gate *Gate, next Alerter, logger logging.Logger) (*ThrottledAlerter, error) {
	if gate == nil {
		return nil, ErrStrategyRequired
	}
	if next == nil {
		return nil, ErrAlerterRequired
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ThrottledAlerter{gate: gate, next: next, logger: logger}, nil
}

// Send проверяет алерт в Gate и при разрешении передаёт его дальше.
// Отменённый ctx — не ошибка: алерт не проверяется и не отправляется.
func (t *ThrottledAlerter) Send(ctx context.Context, alert Alert) error {
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	if !t.gate.Allow(ctx, alert.ErrorCode, alert.Severity) {
		return nil
	}
	if err := t.next.Send(ctx, alert); err != nil {
		t.logger.Warn("ошибка доставки алерта",
			"error_code", alert.ErrorCode,
			"severity", alert.Severity.String(),
			"trace_id", alert.TraceID,
			"error", err.Error(),
		)
	}
	return nil
}
