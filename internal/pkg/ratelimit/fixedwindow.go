package ratelimit

import (
	"context"
	"time"
)

type fixedState struct {
	windowStart int64
	count       int
	lastSeen    int64
}

// FixedWindow считает вызовы в выровненных окнах [k*W, (k+1)*W).
//
// Всплеск из quota вызовов в конце окна и ещё quota в начале следующего
// пропускается целиком: до 2×quota за короткий реальный интервал. Это свойство
// фиксированного окна, а не дефект.
type FixedWindow struct {
	policy Policy
	opts   options
	states *stateMap[fixedState]
}

var (
	_ Strategy  = (*FixedWindow)(nil)
	_ Sweepable = (*FixedWindow)(nil)
)

// NewFixedWindow создаёт FixedWindow с указанной политикой.
func NewFixedWindow(policy Policy, opts ...Option) *FixedWindow {
	return &FixedWindow{
		policy: policy,
		opts:   newOptions(opts),
		states: newStateMap(func() fixedState { return fixedState{} }),
	}
}

// Name возвращает имя стратегии.
func (f *FixedWindow) Name() string { return StrategyFixedWindow }

// Allow увеличивает счётчик текущего окна ключа и разрешает вызов, пока счётчик не превысил квоту.
func (f *FixedWindow) Allow(_ context.Context, key Key) bool {
	quota := f.policy.Quota(key.Severity)
	now := f.opts.nowMillis()
	window := f.policy.Window().Milliseconds()
	start := floorDiv(now, window) * window

	return f.states.update(key, func(s *fixedState) bool {
		// Окно только сдвигается вперёд: при откате часов считаем в уже открытом окне.
		if start > s.windowStart {
			s.windowStart = start
			s.count = 0
		}
		if now > s.lastSeen {
			s.lastSeen = now
		}
		if s.count > quota {
			return false
		}
		s.count++
		return s.count <= quota
	})
}

// Reset очищает все счётчики.
func (f *FixedWindow) Reset(_ context.Context) {
	f.states.clear()
}

// Sweep удаляет ключи, к которым не обращались дольше lookback.
func (f *FixedWindow) Sweep(now time.Time, lookback time.Duration) int {
	cutoff := now.UnixMilli() - lookback.Milliseconds()
	return f.states.removeIf(func(s *fixedState) bool {
		return s.lastSeen <= cutoff
	})
}

// Len возвращает количество отслеживаемых ключей.
func (f *FixedWindow) Len() int {
	return f.states.count()
}

// floorDiv делит с округлением вниз (для отрицательных a тоже).
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
