package alerting

import "errors"

var (
	// ErrStrategyRequired — Gate создаётся без стратегии.
	ErrStrategyRequired = errors.New("alerting: strategy is required")

	// ErrAlerterRequired — ThrottledAlerter создаётся без вложенного Alerter.
	ErrAlerterRequired = errors.New("alerting: alerter is required")

	// ErrWriterRequired — WriterAlerter создаётся без io.Writer.
	ErrWriterRequired = errors.New("alerting: writer is required")

	// ErrWrite — ошибка записи алерта.
	ErrWrite = errors.New("alerting: failed to write alert")
)
