package ratelimit

import "fmt"

// NewLocal создаёт локальную стратегию по имени из конфигурации.
// Для StrategyDistributed используйте NewDistributed: ему нужно хранилище.
func NewLocal(name string, policy Policy, opts ...Option) (Strategy, error) {
	switch name {
	case StrategyFixedWindow:
		return NewFixedWindow(policy, opts...), nil
	case StrategySlidingLog:
		return NewSlidingWindowLog(policy, opts...), nil
	case StrategySlidingCounter:
		return NewSlidingWindowCounter(policy, opts...)
	case StrategyTokenBucket:
		return NewTokenBucket(policy, opts...), nil
	case StrategyCacheTTL:
		return NewCacheWithTTL(policy, opts...), nil
	case StrategyDistributed:
		return nil, fmt.Errorf("%w: %q is not a local strategy", ErrFallbackInvalid, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// New создаёт стратегию по имени. Для StrategyDistributed строит локальный
// fallback с именем fallback и оборачивает его вокруг store.
func New(name string, policy Policy, store CounterStore, fallback string, opts ...Option) (Strategy, error) {
	if name != StrategyDistributed {
		return NewLocal(name, policy, opts...)
	}
	if fallback == "" {
		fallback = StrategyCacheTTL
	}
	local, err := NewLocal(fallback, policy, opts...)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return NewDistributed(policy, store, local, opts...)
}

// Names возвращает имена всех поддерживаемых стратегий.
func Names() []string {
	return []string{
		StrategyFixedWindow,
		StrategySlidingLog,
		StrategySlidingCounter,
		StrategyTokenBucket,
		StrategyCacheTTL,
		StrategyDistributed,
	}
}
