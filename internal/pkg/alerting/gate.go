package alerting

import (
	"context"

	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/metrics"
	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
)

// Gate — фасад rate limiting для диспетчера алертов. Безопасен для
// конкурентного использования, если безопасна стратегия (все стратегии ratelimit безопасны).
type Gate struct {
	strategy ratelimit.Strategy
	logger   logging.Logger
	metrics  metrics.Collector
}

// NewGate создаёт Gate над стратегией. nil logger и collector заменяются на Nop.
func NewGate(strategy ratelimit.Strategy, logger logging.Logger, collector metrics.Collector) (*Gate, error) {
	if strategy == nil {
		return nil, ErrStrategyRequired
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if collector == nil {
		collector = metrics.NewNopCollector()
	}
	return &Gate{strategy: strategy, logger: logger, metrics: collector}, nil
}

// Allow решает, можно ли отправить алерт с кодом code и уровнем severity сейчас.
// Пустой code допустим. SeverityUnknown — ошибка вызывающего кода: panic с ratelimit.ErrInvalidSeverity.
func (g *Gate) Allow(ctx context.Context, code string, severity ratelimit.Severity) bool {
	allowed := g.strategy.Allow(ctx, ratelimit.Key{Code: code, Severity: severity})
	g.metrics.RecordDecision(g.strategy.Name(), severity.String(), allowed)
	if !allowed {
		g.logger.Debug("алерт подавлен rate limiter",
			"error_code", code,
			"severity", severity.String(),
			"strategy", g.strategy.Name(),
		)
	}
	return allowed
}

// Reset очищает всё состояние стратегии.
func (g *Gate) Reset(ctx context.Context) {
	g.strategy.Reset(ctx)
	g.logger.Info("состояние rate limiter сброшено", "strategy", g.strategy.Name())
}

// Strategy возвращает стратегию Gate.
func (g *Gate) Strategy() ratelimit.Strategy {
	return g.strategy
}
