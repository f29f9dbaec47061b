package di

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/alertgate/internal/config"
	"github.com/Kargones/alertgate/internal/pkg/apperrors"
	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/metrics"
	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("AG_LOG_LEVEL", "error")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestInitializeApp_LocalStrategy(t *testing.T) {
	cfg := loadConfig(t)

	app, cleanup, err := InitializeApp(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Same(t, cfg, app.Config)
	assert.NotNil(t, app.Logger)
	assert.IsType(t, &metrics.NopCollector{}, app.MetricsCollector)
	assert.NoError(t, app.TracerShutdown(context.Background()))
	assert.Nil(t, app.Store, "локальной стратегии хранилище не нужно")
	assert.Equal(t, ratelimit.StrategySlidingCounter, app.Strategy.Name())
	assert.Equal(t, 1, app.Sweeper.Targets())

	ctx := context.Background()
	assert.True(t, app.Gate.Allow(ctx, "DB_DOWN", ratelimit.SeverityInfo))
	assert.False(t, app.Gate.Allow(ctx, "DB_DOWN", ratelimit.SeverityInfo))
}

func TestInitializeApp_DistributedRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("AG_STRATEGY", "distributed")
	t.Setenv("AG_REDIS_ADDRS", mr.Addr())
	t.Setenv("AG_DISTRIBUTED_NAMESPACE", "test")
	cfg := loadConfig(t)

	app, cleanup, err := InitializeApp(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, app.Store)
	assert.Equal(t, ratelimit.StrategyDistributed, app.Strategy.Name())
	assert.Equal(t, 1, app.Sweeper.Targets(), "Redis удаляет истёкшие ключи сам")

	ctx := context.Background()
	assert.True(t, app.Gate.Allow(ctx, "X", ratelimit.SeverityInfo))
	assert.False(t, app.Gate.Allow(ctx, "X", ratelimit.SeverityInfo))
	got, err := mr.Get("test:X:INFO")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestInitializeApp_RedisDownAtStart(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Setenv("AG_STRATEGY", "distributed")
	t.Setenv("AG_REDIS_ADDRS", addr)
	t.Setenv("AG_REDIS_MAX_RETRIES", "-1")
	cfg := loadConfig(t)

	app, cleanup, err := InitializeApp(context.Background(), cfg)
	require.NoError(t, err, "недоступный Redis не мешает старту")
	defer cleanup()

	ctx := context.Background()
	assert.True(t, app.Gate.Allow(ctx, "X", ratelimit.SeverityInfo), "решение локальной стратегии")
	assert.False(t, app.Gate.Allow(ctx, "X", ratelimit.SeverityInfo))
}

func TestInitializeApp_MSSQLUnreachable(t *testing.T) {
	t.Setenv("AG_STRATEGY", "distributed")
	t.Setenv("AG_DISTRIBUTED_STORE", "mssql")
	t.Setenv("AG_MSSQL_SERVER", "127.0.0.1")
	t.Setenv("AG_MSSQL_PORT", "1")
	t.Setenv("AG_MSSQL_TIMEOUT", "1s")
	cfg := loadConfig(t)

	_, _, err := InitializeApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrStoreConnect, apperrors.CodeOf(err))
}

func TestProvideCounterStore_UnknownStore(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Strategy = ratelimit.StrategyDistributed
	cfg.Distributed.Store = "etcd"

	_, _, err := ProvideCounterStore(context.Background(), cfg, logging.NewNopLogger())
	assert.Equal(t, apperrors.ErrStoreUnsupported, apperrors.CodeOf(err))
}

func TestProvideStrategy_Errors(t *testing.T) {
	cfg := loadConfig(t)
	logger := logging.NewNopLogger()
	collector := metrics.NewNopCollector()

	cfg.Strategy = "leaky_bucket"
	_, err := ProvideStrategy(cfg, nil, logger, collector)
	assert.Equal(t, apperrors.ErrStrategyInit, apperrors.CodeOf(err))
	assert.ErrorIs(t, err, ratelimit.ErrUnknownStrategy)

	cfg.Strategy = ratelimit.StrategyDistributed
	_, err = ProvideStrategy(cfg, nil, logger, collector)
	assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)
}

func TestProvideStrategy_AllLocal(t *testing.T) {
	cfg := loadConfig(t)
	for _, name := range []string{
		ratelimit.StrategyFixedWindow,
		ratelimit.StrategySlidingLog,
		ratelimit.StrategySlidingCounter,
		ratelimit.StrategyTokenBucket,
		ratelimit.StrategyCacheTTL,
	} {
		cfg.Strategy = name
		s, err := ProvideStrategy(cfg, nil, logging.NewNopLogger(), metrics.NewNopCollector())
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}
}

func TestProvideSweeper_InvalidInterval(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Cleanup.Interval = 0
	s, err := ProvideStrategy(cfg, nil, logging.NewNopLogger(), metrics.NewNopCollector())
	require.NoError(t, err)

	_, err = ProvideSweeper(cfg, s, logging.NewNopLogger(), metrics.NewNopCollector())
	assert.ErrorIs(t, err, ratelimit.ErrInvalidSweepConfig)
}

func TestProvideLogger_NilConfig(t *testing.T) {
	logger, cleanup := ProvideLogger(nil)
	defer cleanup()
	assert.NotNil(t, logger)
}

func TestProvideMetricsAndTracing_NilConfig(t *testing.T) {
	logger := logging.NewNopLogger()
	assert.IsType(t, &metrics.NopCollector{}, ProvideMetricsCollector(nil, logger))
	assert.NoError(t, ProvideTracerProvider(nil, logger)(context.Background()))
}
