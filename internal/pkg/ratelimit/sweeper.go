package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kargones/alertgate/internal/pkg/logging"
	"github.com/Kargones/alertgate/internal/pkg/metrics"
)

// Значения Sweeper по умолчанию.
const (
	// DefaultSweepInterval — период очистки по умолчанию.
	DefaultSweepInterval = time.Minute

	// storeSweepTimeout — таймаут очистки истёкших счётчиков во внешнем хранилище.
	storeSweepTimeout = 5 * time.Second
)

// ErrInvalidSweepConfig — период или lookback Sweeper не положительны.
var ErrInvalidSweepConfig = errors.New("ratelimit: sweep interval and lookback must be positive")

type sweepTarget struct {
	name      string
	sweepable Sweepable
}

type storeTarget struct {
	name    string
	deleter ExpiredDeleter
}

// Sweeper по таймеру удаляет состояние ключей, неактивных дольше lookback.
// Работает независимо от Allow и никогда не влияет на его результат: запись,
// удаляемая одновременно с Allow, пересоздаётся чистой (см. stateMap).
//
// Сбой одной очистки (включая panic) логируется и учитывается в метриках,
// следующий тик повторяет попытку.
type Sweeper struct {
	interval time.Duration
	lookback time.Duration
	clock    Clock
	logger   logging.Logger
	metrics  metrics.Collector
	targets  []sweepTarget
	stores   []storeTarget
}

// NewSweeper создаёт Sweeper. lookback должен быть не меньше окна политики,
// безопасное значение — 2×W.
func NewSweeper(interval, lookback time.Duration, opts ...Option) (*Sweeper, error) {
	if interval <= 0 || lookback <= 0 {
		return nil, ErrInvalidSweepConfig
	}
	o := newOptions(opts)
	return &Sweeper{
		interval: interval,
		lookback: lookback,
		clock:    o.clock,
		logger:   o.logger,
		metrics:  o.collector,
	}, nil
}

// Register добавляет стратегию в очистку. Стратегии без состояния по ключам
// игнорируются. Для Distributed дополнительно регистрируется хранилище, если оно
// реализует ExpiredDeleter. Register вызывается до Run.
func (s *Sweeper) Register(strategy Strategy) {
	if sw, ok := strategy.(Sweepable); ok {
		s.targets = append(s.targets, sweepTarget{name: strategy.Name(), sweepable: sw})
	}
	if d, ok := strategy.(*Distributed); ok {
		if deleter, ok := d.Store().(ExpiredDeleter); ok {
			s.stores = append(s.stores, storeTarget{name: d.Name(), deleter: deleter})
		}
	}
}

// Targets возвращает количество зарегистрированных стратегий и хранилищ.
func (s *Sweeper) Targets() int {
	return len(s.targets) + len(s.stores)
}

// Run выполняет очистку каждые interval до отмены ctx. Возвращает nil при отмене.
func (s *Sweeper) Run(ctx context.Context) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.logger.Debug("sweeper запущен",
		"interval", s.interval.String(),
		"lookback", s.lookback.String(),
		"targets", s.Targets(),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("sweeper остановлен")
			return nil
		case <-tick.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce выполняет один проход очистки и возвращает общее число удалённых записей.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	now := s.clock()
	total := 0
	for _, t := range s.targets {
		start := time.Now()
		removed, err := s.sweepTarget(t, now)
		s.metrics.RecordSweep(t.name, removed, time.Since(start), err == nil)
		if err != nil {
			s.logger.Error("ошибка очистки состояния стратегии",
				"strategy", t.name,
				"error", err.Error(),
			)
			continue
		}
		if removed > 0 {
			s.logger.Debug("удалено состояние неактивных ключей",
				"strategy", t.name,
				"removed", removed,
			)
		}
		total += removed
	}
	for _, st := range s.stores {
		start := time.Now()
		removed, err := s.sweepStore(ctx, st)
		s.metrics.RecordSweep(st.name+"_store", int(removed), time.Since(start), err == nil)
		if err != nil {
			s.logger.Warn("ошибка очистки истёкших счётчиков во внешнем хранилище",
				"strategy", st.name,
				"error", err.Error(),
			)
			continue
		}
		total += int(removed)
	}
	return total
}

func (s *Sweeper) sweepTarget(t sweepTarget, now time.Time) (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panic: %v", r)
		}
	}()
	return t.sweepable.Sweep(now, s.lookback), nil
}

func (s *Sweeper) sweepStore(ctx context.Context, st storeTarget) (removed int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store sweep panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, storeSweepTimeout)
	defer cancel()
	return st.deleter.DeleteExpired(ctx)
}
