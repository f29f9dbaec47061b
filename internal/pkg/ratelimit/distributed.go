package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CounterStore — внешнее хранилище атомарных счётчиков, общее для всех экземпляров процесса.
type CounterStore interface {
	// Incr атомарно увеличивает счётчик key и возвращает новое значение.
	// При первом увеличении (значение стало 1) на ключ ставится TTL.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// DeleteByPrefix удаляет все счётчики, ключ которых начинается с prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ExpiredDeleter реализуют хранилища, которые сами не удаляют истёкшие счётчики.
// Sweeper вызывает DeleteExpired на каждом тике.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Причины перехода на fallback (label метрики).
const (
	fallbackReasonError    = "error"
	fallbackReasonTimeout  = "timeout"
	fallbackReasonBadReply = "bad_reply"
	fallbackReasonCanceled = "canceled"
)

const (
	tracerName               = "github.com/Kargones/alertgate/internal/pkg/ratelimit"
	spanRemoteIncr           = "ratelimit.remote_incr"
	spanRemoteDeleteByPrefix = "ratelimit.remote_delete"
)

// Distributed считает вызовы во внешнем хранилище, так что N экземпляров
// процесса вместе соблюдают одну глобальную квоту.
//
// Если хранилище недоступно, отвечает с ошибкой, не уложилось в таймаут или вернуло
// неожиданное значение, вызов прозрачно уходит в локальную стратегию fallback.
// Во время сбоя каждый процесс соблюдает свою локальную квоту (fail-open):
// подавить настоящий алерт хуже, чем пропустить лишний.
type Distributed struct {
	policy   Policy
	store    CounterStore
	fallback Strategy
	opts     options
	tracer   trace.Tracer
}

var _ Strategy = (*Distributed)(nil)

// NewDistributed создаёт распределённую стратегию. fallback создаётся заранее
// вызывающей стороной и должен быть локальной стратегией.
func NewDistributed(policy Policy, store CounterStore, fallback Strategy, opts ...Option) (*Distributed, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: fallback is nil", ErrFallbackInvalid)
	}
	if _, nested := fallback.(*Distributed); nested {
		return nil, ErrFallbackInvalid
	}
	o := newOptions(opts)
	return &Distributed{
		policy:   policy,
		store:    store,
		fallback: fallback,
		opts:     o,
		tracer:   o.tracer.Tracer(tracerName),
	}, nil
}

// Name возвращает имя стратегии.
func (d *Distributed) Name() string { return StrategyDistributed }

// Fallback возвращает локальную стратегию, используемую при сбое хранилища.
func (d *Distributed) Fallback() Strategy { return d.fallback }

// RemoteKey строит ключ счётчика во внешнем хранилище: "namespace:CODE:SEVERITY".
func (d *Distributed) RemoteKey(key Key) string {
	return d.prefix() + key.Code + ":" + key.Severity.String()
}

func (d *Distributed) prefix() string {
	return d.opts.namespace + ":"
}

// Allow увеличивает глобальный счётчик ключа и разрешает вызов, пока значение не превысило квоту.
// Любая ошибка хранилища приводит к решению локальной стратегии fallback.
func (d *Distributed) Allow(ctx context.Context, key Key) bool {
	quota := d.policy.Quota(key.Severity)

	value, err := d.incr(ctx, key)
	if err != nil {
		reason := fallbackReason(err)
		d.opts.collector.RecordFallback(d.Name(), reason)
		d.opts.logger.Warn("хранилище счётчиков недоступно, используется локальная стратегия",
			"key", key.String(),
			"reason", reason,
			"fallback", d.fallback.Name(),
			"error", err.Error(),
		)
		return d.fallback.Allow(ctx, key)
	}
	return value <= int64(quota)
}

func (d *Distributed) incr(ctx context.Context, key Key) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	remoteKey := d.RemoteKey(key)
	ctx, span := d.tracer.Start(ctx, spanRemoteIncr, trace.WithAttributes(
		attribute.String("ratelimit.key", remoteKey),
		attribute.String("ratelimit.severity", key.Severity.String()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.opts.timeout)
	defer cancel()

	value, err := d.store.Incr(ctx, remoteKey, d.policy.Window())
	if err == nil && value < 1 {
		err = fmt.Errorf("%w: %d", ErrUnexpectedReply, value)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote increment failed")
		return 0, err
	}
	span.SetAttributes(attribute.Int64("ratelimit.value", value))
	return value, nil
}

// Reset удаляет счётчики пространства имён во внешнем хранилище (best-effort:
// ошибки логируются и не возвращаются) и очищает локальную стратегию fallback.
func (d *Distributed) Reset(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := d.tracer.Start(ctx, spanRemoteDeleteByPrefix)
	remoteCtx, cancel := context.WithTimeout(ctx, d.opts.timeout)
	if err := d.store.DeleteByPrefix(remoteCtx, d.prefix()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote reset failed")
		d.opts.logger.Warn("не удалось очистить счётчики во внешнем хранилище",
			"namespace", d.opts.namespace,
			"error", err.Error(),
		)
	}
	cancel()
	span.End()

	d.fallback.Reset(ctx)
}

// Sweep передаёт очистку локальной стратегии fallback, если она её поддерживает.
func (d *Distributed) Sweep(now time.Time, lookback time.Duration) int {
	if s, ok := d.fallback.(Sweepable); ok {
		return s.Sweep(now, lookback)
	}
	return 0
}

// Store возвращает хранилище счётчиков.
func (d *Distributed) Store() CounterStore { return d.store }

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fallbackReasonTimeout
	case errors.Is(err, context.Canceled):
		return fallbackReasonCanceled
	case errors.Is(err, ErrUnexpectedReply):
		return fallbackReasonBadReply
	default:
		return fallbackReasonError
	}
}
