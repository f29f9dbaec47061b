package ratelimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/metrics"
)

// Имена стратегий, используемые в конфигурации.
const (
	StrategyFixedWindow    = "fixed_window"
	StrategySlidingLog     = "sliding_log"
	StrategySlidingCounter = "sliding_counter"
	StrategyTokenBucket    = "token_bucket"
	StrategyCacheTTL       = "cache_ttl"
	StrategyDistributed    = "distributed"
)

// Key идентифицирует независимый домен admission control.
// Одинаковый Code с разными Severity — разные ключи.
type Key struct {
	Code     string
	Severity Severity
}

// String возвращает ключ в виде "CODE:SEVERITY".
func (k Key) String() string {
	return k.Code + ":" + k.Severity.String()
}

// Strategy — общий контракт всех алгоритмов rate limiting.
//
// Allow безопасен для конкурентного вызова с одним и тем же ключом и никогда не
// возвращает ошибку: единственный наблюдаемый результат — bool. Для
// SeverityUnknown Allow паникует с ErrInvalidSeverity.
//
// Reset очищает всё состояние стратегии; идемпотентен и безопасен
// при конкурентных вызовах Allow.
type Strategy interface {
	Name() string
	Allow(ctx context.Context, key Key) bool
	Reset(ctx context.Context)
}

// Sweepable реализуют стратегии, накапливающие состояние по числу увиденных ключей.
// Sweep удаляет состояние ключей, неактивных дольше lookback, и возвращает
// количество удалённых записей.
type Sweepable interface {
	Sweep(now time.Time, lookback time.Duration) int
}

// Clock возвращает текущее время. В production — time.Now, в тестах — управляемые часы.
type Clock func() time.Time

// options — общие параметры стратегий.
type options struct {
	clock       Clock
	logger      logging.Logger
	collector   metrics.Collector
	bucketCount int
	namespace   string
	timeout     time.Duration
	tracer      trace.TracerProvider
}

// Option настраивает стратегию.
type Option func(*options)

// WithClock задаёт источник времени.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCollector задаёт сборщик метрик.
func WithCollector(collector metrics.Collector) Option {
	return func(o *options) {
		if collector != nil {
			o.collector = collector
		}
	}
}

// WithBucketCount задаёт количество корзин SlidingWindowCounter.
func WithBucketCount(n int) Option {
	return func(o *options) {
		o.bucketCount = n
	}
}

// WithNamespace задаёт префикс ключей во внешнем хранилище.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithTimeout задаёт таймаут одного обращения к внешнему хранилищу.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithTracerProvider задаёт TracerProvider для span-ов обращений к хранилищу.
// По умолчанию используется глобальный otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracer = tp
		}
	}
}

// DefaultNamespace — префикс ключей во внешнем хранилище по умолчанию.
const DefaultNamespace = "alertgate"

// DefaultRemoteTimeout — таймаут обращения к внешнему хранилищу по умолчанию.
const DefaultRemoteTimeout = 200 * time.Millisecond

func newOptions(opts []Option) options {
	o := options{
		clock:       time.Now,
		logger:      logging.NewNopLogger(),
		collector:   metrics.NewNopCollector(),
		bucketCount: DefaultBucketCount,
		namespace:   DefaultNamespace,
		timeout:     DefaultRemoteTimeout,
		tracer:      otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// nowMillis возвращает текущее время часов в миллисекундах Unix.
func (o *options) nowMillis() int64 {
	return o.clock().UnixMilli()
}
