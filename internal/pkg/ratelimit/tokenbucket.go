package ratelimit

import (
	"context"
	"math"
	"time"
)

type bucketState struct {
	tokens     float64
	lastRefill int64
	primed     bool
}

// TokenBucket — ведро ёмкостью quota, пополняемое на quota токенов за окно W.
// Пополнение считается целыми токенами; lastRefill сдвигается только при
// фактическом пополнении, дробный остаток в этот момент отбрасывается.
// Первое обращение к ключу видит полное ведро.
type TokenBucket struct {
	policy Policy
	opts   options
	states *stateMap[bucketState]
}

var (
	_ Strategy  = (*TokenBucket)(nil)
	_ Sweepable = (*TokenBucket)(nil)
)

// NewTokenBucket создаёт TokenBucket с указанной политикой.
func NewTokenBucket(policy Policy, opts ...Option) *TokenBucket {
	return &TokenBucket{
		policy: policy,
		opts:   newOptions(opts),
		states: newStateMap(func() bucketState { return bucketState{} }),
	}
}

// Name возвращает имя стратегии.
func (t *TokenBucket) Name() string { return StrategyTokenBucket }

// Allow пополняет ведро за прошедшее время и забирает один токен, если он есть.
// При откате часов (now < lastRefill) пополнение не выполняется.
func (t *TokenBucket) Allow(_ context.Context, key Key) bool {
	quota := t.policy.Quota(key.Severity)
	now := t.opts.nowMillis()
	capacity := float64(quota)
	window := t.policy.Window().Milliseconds()

	return t.states.update(key, func(s *bucketState) bool {
		if !s.primed {
			s.tokens = capacity
			s.lastRefill = now
			s.primed = true
		}
		if elapsed := now - s.lastRefill; elapsed > 0 {
			// floor(elapsed * quota/W) в целых числах, без ошибок округления float.
			if added := elapsed * int64(quota) / window; added > 0 {
				s.tokens = math.Min(capacity, s.tokens+float64(added))
				s.lastRefill = now
			}
		}
		if s.tokens < 1 {
			return false
		}
		s.tokens--
		return true
	})
}

// Reset возвращает все вёдра в исходное состояние.
func (t *TokenBucket) Reset(_ context.Context) {
	t.states.clear()
}

// Sweep удаляет вёдра, не пополнявшиеся дольше lookback. За lookback >= W такое
// ведро гарантированно было бы полным, поэтому удаление не меняет решений.
func (t *TokenBucket) Sweep(now time.Time, lookback time.Duration) int {
	if lookback < t.policy.Window() {
		lookback = t.policy.Window()
	}
	cutoff := now.UnixMilli() - lookback.Milliseconds()
	return t.states.removeIf(func(s *bucketState) bool {
		return s.lastRefill <= cutoff
	})
}

// Len возвращает количество отслеживаемых ключей.
func (t *TokenBucket) Len() int {
	return t.states.count()
}
