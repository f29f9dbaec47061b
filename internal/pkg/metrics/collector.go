// Package metrics собирает метрики решений rate limiting и отправляет их
// в Prometheus Pushgateway.
//
// При отключённых метриках используется NopCollector, поэтому вызывающий код
// не проверяет конфигурацию перед каждой записью.
package metrics

import (
	"context"
	"time"
)

// Collector — приёмник метрик alertgate. Реализации: PrometheusCollector и NopCollector.
// Все методы Record* безопасны для конкурентного вызова и не блокируют.
type Collector interface {
	// RecordDecision учитывает одно решение Allow.
	RecordDecision(strategy, severity string, allowed bool)

	// RecordFallback учитывает переход распределённой стратегии на локальную.
	// reason: "error", "timeout", "bad_reply" или "canceled".
	RecordFallback(strategy, reason string)

	// RecordSweep учитывает один проход очистки по target.
	RecordSweep(target string, removed int, duration time.Duration, success bool)

	// Push отправляет накопленные метрики в Pushgateway.
	// Ошибка отправки логируется, а возвращается nil: метрики не должны
	// ронять процесс.
	Push(ctx context.Context) error
}
