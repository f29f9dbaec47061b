// Package di собирает граф зависимостей alertgate через Google Wire.
package di

import (
	"github.com/Kargones/alertgate/internal/config"
	"github.com/Kargones/alertgate/internal/pkg/alerting"
	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/metrics"
	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
	"github.com/Kargones/alertgate/internal/pkg/tracing"
)

// App содержит инициализированные зависимости приложения.
// Создаётся через InitializeApp.
//
// При добавлении новых зависимостей:
// 1. Добавить поле в App
// 2. Создать провайдер в providers.go
// 3. Добавить провайдер в ProviderSet в wire.go
// 4. Перегенерировать wire_gen.go: go generate ./internal/di/...
type App struct {
	Config *config.Config

	// Logger — структурированное логирование по настройкам logging.
	Logger logging.Logger

	// MetricsCollector отправляет метрики в Pushgateway. Если метрики
	// отключены, используется NopCollector.
	MetricsCollector metrics.Collector

	// TracerShutdown выгружает буферизированные span-ы. При выключенном
	// трейсинге — nop.
	TracerShutdown tracing.Shutdown

	// Store — хранилище счётчиков; nil для локальных стратегий.
	Store ratelimit.CounterStore

	// Strategy — стратегия, выбранная в конфигурации.
	Strategy ratelimit.Strategy

	// Gate — фасад rate limiting для диспетчера алертов.
	Gate *alerting.Gate

	// Sweeper очищает состояние неактивных ключей; запускается вызывающей стороной.
	Sweeper *ratelimit.Sweeper
}
