//go:build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/Kargones/alertgate/internal/config"
)

//go:generate wire

// ProviderSet объединяет все провайдеры приложения.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideMetricsCollector,
	ProvideTracerProvider,
	ProvideCounterStore,
	ProvideStrategy,
	ProvideGate,
	ProvideSweeper,
	wire.Struct(new(App), "*"),
)

// InitializeApp создаёт App из загруженной конфигурации. cleanup закрывает
// хранилище счётчиков и файл лога; TracerShutdown вызывается отдельно.
//
//	cfg, err := config.Load(path)
//	...
//	app, cleanup, err := di.InitializeApp(ctx, cfg)
//	if err != nil { ... }
//	defer cleanup()
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
