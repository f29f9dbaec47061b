package metrics

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/urlutil"
)

const namespace = "alertgate"

// Значения label decision и status.
const (
	decisionAllowed  = "allowed"
	decisionRejected = "rejected"
	statusSuccess    = "success"
	statusError      = "error"
)

// PrometheusCollector хранит метрики в собственном registry и отправляет их
// в Pushgateway при вызове Push.
//
// Метрики:
//   - alertgate_decisions_total{strategy, severity, decision}
//   - alertgate_fallback_total{strategy, reason}
//   - alertgate_sweep_removed_total{target}
//   - alertgate_sweep_duration_seconds{target, status}
type PrometheusCollector struct {
	config   Config
	logger   logging.Logger
	registry *prometheus.Registry
	instance string

	decisions     *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	sweepRemoved  *prometheus.CounterVec
	sweepDuration *prometheus.HistogramVec
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheusCollector создаёт коллектор и регистрирует метрики.
func NewPrometheusCollector(config Config, logger logging.Logger) (*PrometheusCollector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	instance := config.InstanceLabel
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			logger.Warn("не удалось получить hostname для label instance, используется 'unknown'",
				"error", err.Error())
			hostname = "unknown"
		}
		instance = hostname
	}

	c := &PrometheusCollector{
		config:   config,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		instance: instance,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Admission decisions by strategy, severity and outcome",
		}, []string{"strategy", "severity", "decision"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_total",
			Help:      "Distributed strategy calls answered by the local fallback",
		}, []string{"strategy", "reason"}),
		sweepRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_removed_total",
			Help:      "Per-key state entries removed by the sweeper",
		}, []string{"target"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one sweep pass",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"target", "status"}),
	}

	for _, m := range []prometheus.Collector{c.decisions, c.fallbacks, c.sweepRemoved, c.sweepDuration} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("ошибка регистрации метрики: %w", err)
		}
	}
	return c, nil
}

// maxLabelLength ограничивает длину значения label.
const maxLabelLength = 128

// sanitizeLabel заменяет управляющие символы на '_' и обрезает значение
// до maxLabelLength рун.
func sanitizeLabel(value string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, value)
	if runes := []rune(clean); len(runes) > maxLabelLength {
		return string(runes[:maxLabelLength])
	}
	return clean
}

// RecordDecision учитывает решение Allow. Код ошибки в label не попадает:
// число кодов не ограничено.
func (c *PrometheusCollector) RecordDecision(strategy, severity string, allowed bool) {
	decision := decisionRejected
	if allowed {
		decision = decisionAllowed
	}
	c.decisions.WithLabelValues(sanitizeLabel(strategy), sanitizeLabel(severity), decision).Inc()
}

// RecordFallback учитывает переход на локальную стратегию.
func (c *PrometheusCollector) RecordFallback(strategy, reason string) {
	c.fallbacks.WithLabelValues(sanitizeLabel(strategy), sanitizeLabel(reason)).Inc()
}

// RecordSweep учитывает проход очистки.
func (c *PrometheusCollector) RecordSweep(target string, removed int, duration time.Duration, success bool) {
	target = sanitizeLabel(target)
	status := statusSuccess
	if !success {
		status = statusError
	}
	c.sweepDuration.WithLabelValues(target, status).Observe(duration.Seconds())
	if removed > 0 {
		c.sweepRemoved.WithLabelValues(target).Add(float64(removed))
	}
}

// Push отправляет метрики в Pushgateway. Всегда возвращает nil, ошибки логируются.
func (c *PrometheusCollector) Push(ctx context.Context) error {
	if c.config.PushgatewayURL == "" {
		return nil
	}
	if ctx.Err() != nil {
		c.logger.Debug("отправка метрик отменена")
		return nil
	}

	pusher := push.New(c.config.PushgatewayURL, c.config.JobName).
		Gatherer(c.registry).
		Grouping("instance", c.instance)

	pushCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := pusher.PushContext(pushCtx); err != nil {
		c.logger.Error("ошибка отправки метрик в Pushgateway",
			"error", err.Error(),
			"url", urlutil.MaskURL(c.config.PushgatewayURL),
			"job", c.config.JobName,
		)
		return nil
	}

	c.logger.Debug("метрики отправлены в Pushgateway",
		"url", urlutil.MaskURL(c.config.PushgatewayURL),
		"job", c.config.JobName,
		"instance", c.instance,
	)
	return nil
}

// Registry возвращает registry коллектора.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}
