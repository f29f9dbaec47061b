package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Kargones/alertgate/internal/adapter/mssql"
	"github.com/Kargones/alertgate/internal/adapter/redis"
	"github.com/Kargones/alertgate/internal/config"
	"github.com/Kargones/alertgate/internal/constants"
	"github.com/Kargones/alertgate/internal/pkg/alerting"
	"github.com/Kargones/alertgate/internal/pkg/apperrors"
	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/metrics"
	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
	"github.com/Kargones/alertgate/internal/pkg/tracing"
	"github.com/Kargones/alertgate/internal/pkg/urlutil"
)

// storeConnectTimeout ограничивает проверку хранилища при старте.
const storeConnectTimeout = 5 * time.Second

// ProvideLogger создаёт Logger по настройкам logging. Пустые поля заменяются
// значениями по умолчанию. cleanup закрывает файл лога при output=file.
func ProvideLogger(cfg *config.Config) (logging.Logger, func()) {
	logCfg := logging.DefaultConfig()
	if cfg != nil {
		c := cfg.LoggingConfig()
		if c.Level != "" {
			logCfg.Level = c.Level
		}
		if c.Format != "" {
			logCfg.Format = c.Format
		}
		if c.Output != "" {
			logCfg.Output = c.Output
		}
		if c.FilePath != "" {
			logCfg.FilePath = c.FilePath
		}
		// env-default гарантирует ненулевые значения, 0 MB для lumberjack бессмыслен.
		if c.MaxSize > 0 {
			logCfg.MaxSize = c.MaxSize
		}
		if c.MaxBackups > 0 {
			logCfg.MaxBackups = c.MaxBackups
		}
		if c.MaxAge > 0 {
			logCfg.MaxAge = c.MaxAge
		}
		logCfg.Compress = c.Compress
	}

	adapter := logging.NewLogger(logCfg)
	return adapter, func() { _ = adapter.Close() }
}

// ProvideMetricsCollector создаёт Collector. При выключенных метриках или
// ошибке создания возвращает NopCollector, ошибка логируется.
func ProvideMetricsCollector(cfg *config.Config, logger logging.Logger) metrics.Collector {
	if cfg == nil {
		return metrics.NewNopCollector()
	}
	collector, err := metrics.NewCollector(cfg.MetricsConfig(), logger)
	if err != nil {
		logger.Error("ошибка создания MetricsCollector, используется NopCollector",
			"error", err.Error(),
		)
		return metrics.NewNopCollector()
	}
	return collector
}

// ProvideTracerProvider инициализирует OTel TracerProvider и возвращает его Shutdown.
// При выключенном трейсинге или ошибке возвращает nop Shutdown.
func ProvideTracerProvider(cfg *config.Config, logger logging.Logger) tracing.Shutdown {
	if cfg == nil {
		return tracing.NewNopTracerProvider()
	}
	tracingCfg := cfg.TracingConfig()
	tracingCfg.Version = constants.Version

	shutdown, err := tracing.NewTracerProvider(tracingCfg, logger)
	if err != nil {
		logger.Error("ошибка инициализации tracing, используется nop provider",
			"error", err.Error(),
		)
		return tracing.NewNopTracerProvider()
	}
	return shutdown
}

// ProvideCounterStore создаёт хранилище счётчиков для стратегии distributed.
// Для локальных стратегий возвращает nil.
//
// Недоступный при старте Redis не ошибка: клиент переподключается сам, а до
// этого Distributed работает на локальной стратегии. MSSQL проверяется при
// старте, ошибка подключения возвращается как STORE.CONNECT_FAILED.
func ProvideCounterStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (ratelimit.CounterStore, func(), error) {
	nop := func() {}
	if cfg == nil || cfg.Strategy != ratelimit.StrategyDistributed {
		return nil, nop, nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()

	d := cfg.Distributed
	switch d.Store {
	case config.StoreRedis:
		store, err := redis.NewStore(redis.ClientOptions{
			URL:         d.Redis.URL,
			Addrs:       d.Redis.Addrs,
			Username:    d.Redis.Username,
			Password:    d.Redis.Password,
			DB:          d.Redis.DB,
			DialTimeout: d.Redis.DialTimeout,
			ReadTimeout: d.Redis.ReadTimeout,
			MaxRetries:  d.Redis.MaxRetries,
		})
		if err != nil {
			return nil, nop, apperrors.NewAppError(apperrors.ErrStoreConnect, "ошибка создания клиента Redis", err)
		}
		target := fmt.Sprint(d.Redis.Addrs)
		if d.Redis.URL != "" {
			target = urlutil.MaskDSN(d.Redis.URL)
		}
		if err := store.Ping(ctx); err != nil {
			logger.Warn("Redis недоступен при старте, до восстановления используется локальная стратегия",
				"redis", target,
				"error", err.Error(),
			)
		} else {
			logger.Info("подключено хранилище счётчиков Redis", "redis", target)
		}
		return store, closeFunc(store, logger), nil

	case config.StoreMSSQL:
		store, err := mssql.NewStoreWithEncrypt(mssql.ClientOptions{
			Server:   d.MSSQL.Server,
			Port:     d.MSSQL.Port,
			User:     d.MSSQL.User,
			Password: d.MSSQL.Password,
			Database: d.MSSQL.Database,
			Table:    d.MSSQL.Table,
			Timeout:  d.MSSQL.Timeout,
		}, !d.MSSQL.DisableEncrypt)
		if err != nil {
			return nil, nop, apperrors.NewAppError(apperrors.ErrStoreConnect, "недопустимые параметры MSSQL", err)
		}
		if err := store.Connect(ctx); err != nil {
			return nil, nop, apperrors.NewAppError(apperrors.ErrStoreConnect,
				fmt.Sprintf("не удалось подключиться к MSSQL %s", d.MSSQL.Server), err)
		}
		if d.MSSQL.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, nop, apperrors.NewAppError(apperrors.ErrStoreConnect, "не удалось создать таблицу счётчиков", err)
			}
		}
		logger.Info("подключено хранилище счётчиков MSSQL",
			"server", d.MSSQL.Server,
			"database", d.MSSQL.Database,
			"table", d.MSSQL.Table,
		)
		return store, closeFunc(store, logger), nil

	default:
		return nil, nop, apperrors.NewAppError(apperrors.ErrStoreUnsupported,
			fmt.Sprintf("неизвестное хранилище %q", d.Store), nil)
	}
}

func closeFunc(c io.Closer, logger logging.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("ошибка закрытия хранилища счётчиков", "error", err.Error())
		}
	}
}

// ProvideStrategy создаёт стратегию, выбранную в конфигурации.
func ProvideStrategy(
	cfg *config.Config,
	store ratelimit.CounterStore,
	logger logging.Logger,
	collector metrics.Collector,
) (ratelimit.Strategy, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrStrategyInit, "недопустимая политика квот", err)
	}
	strategy, err := ratelimit.New(cfg.Strategy, policy, store, cfg.Distributed.Fallback,
		ratelimit.WithLogger(logger),
		ratelimit.WithCollector(collector),
		ratelimit.WithBucketCount(cfg.BucketCount),
		ratelimit.WithNamespace(cfg.Distributed.Namespace),
		ratelimit.WithTimeout(cfg.Distributed.Timeout),
	)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrStrategyInit,
			fmt.Sprintf("не удалось создать стратегию %q", cfg.Strategy), err)
	}
	logger.Info("rate limiter инициализирован",
		"strategy", strategy.Name(),
		"window", policy.Window().String(),
	)
	return strategy, nil
}

// ProvideGate создаёт Gate над стратегией.
func ProvideGate(strategy ratelimit.Strategy, logger logging.Logger, collector metrics.Collector) (*alerting.Gate, error) {
	return alerting.NewGate(strategy, logger, collector)
}

// ProvideSweeper создаёт Sweeper и регистрирует в нём стратегию.
func ProvideSweeper(
	cfg *config.Config,
	strategy ratelimit.Strategy,
	logger logging.Logger,
	collector metrics.Collector,
) (*ratelimit.Sweeper, error) {
	sweeper, err := ratelimit.NewSweeper(cfg.Cleanup.Interval, cfg.SweepLookback(),
		ratelimit.WithLogger(logger),
		ratelimit.WithCollector(collector),
	)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrStrategyInit, "недопустимые настройки очистки", err)
	}
	sweeper.Register(strategy)
	return sweeper, nil
}
