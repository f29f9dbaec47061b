package ratelimit

import (
	"context"
	"time"
)

// logState — метки времени разрешённых вызовов в хронологическом порядке.
type logState struct {
	stamps []int64
	latest int64
}

// SlidingWindowLog хранит метку каждого разрешённого вызова и даёт точную гарантию
// по любому скользящему окну длины W ценой O(вызовов в окне) памяти на ключ.
type SlidingWindowLog struct {
	policy Policy
	opts   options
	states *stateMap[logState]
}

var (
	_ Strategy  = (*SlidingWindowLog)(nil)
	_ Sweepable = (*SlidingWindowLog)(nil)
)

// NewSlidingWindowLog создаёт SlidingWindowLog с указанной политикой.
func NewSlidingWindowLog(policy Policy, opts ...Option) *SlidingWindowLog {
	return &SlidingWindowLog{
		policy: policy,
		opts:   newOptions(opts),
		states: newStateMap(func() logState { return logState{} }),
	}
}

// Name возвращает имя стратегии.
func (l *SlidingWindowLog) Name() string { return StrategySlidingLog }

// Allow вытесняет метки старше окна и разрешает вызов, если в окне меньше quota меток.
func (l *SlidingWindowLog) Allow(_ context.Context, key Key) bool {
	quota := l.policy.Quota(key.Severity)
	now := l.opts.nowMillis()
	window := l.policy.Window().Milliseconds()

	return l.states.update(key, func(s *logState) bool {
		// Журнал монотонен: при откате часов используем последнюю увиденную метку.
		if now > s.latest {
			s.latest = now
		}
		evictBefore(s, s.latest-window)
		if len(s.stamps) >= quota {
			return false
		}
		s.stamps = append(s.stamps, s.latest)
		return true
	})
}

// evictBefore удаляет метки <= cutoff.
func evictBefore(s *logState, cutoff int64) {
	i := 0
	for i < len(s.stamps) && s.stamps[i] <= cutoff {
		i++
	}
	if i == 0 {
		return
	}
	if i == len(s.stamps) {
		s.stamps = s.stamps[:0]
		return
	}
	s.stamps = append(s.stamps[:0], s.stamps[i:]...)
}

// Reset очищает журналы всех ключей.
func (l *SlidingWindowLog) Reset(_ context.Context) {
	l.states.clear()
}

// Sweep удаляет журналы ключей без обращений дольше lookback
// и подрезает устаревшие метки у остальных.
func (l *SlidingWindowLog) Sweep(now time.Time, lookback time.Duration) int {
	nowMs := now.UnixMilli()
	cutoff := nowMs - lookback.Milliseconds()
	window := l.policy.Window().Milliseconds()
	return l.states.removeIf(func(s *logState) bool {
		if s.latest <= cutoff {
			return true
		}
		evictBefore(s, nowMs-window)
		return false
	})
}

// Len возвращает количество отслеживаемых ключей.
func (l *SlidingWindowLog) Len() int {
	return l.states.count()
}
