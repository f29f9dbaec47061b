package ratelimit

import (
	"context"
	"fmt"
	"time"
)

type bucket struct {
	start int64
	count int
	used  bool
}

// counterState — кольцо корзин одного ключа.
type counterState struct {
	ring   []bucket
	latest int64
}

// SlidingWindowCounter делит окно W на N корзин размера W/N и суммирует корзины,
// начало которых лежит в (now-W, now]. Приближает SlidingWindowLog с O(N) памятью:
// вызовы в последней миллисекунде одной корзины и первой следующей учитываются
// в одной сумме, пока старшая корзина не выйдет из окна.
type SlidingWindowCounter struct {
	policy     Policy
	opts       options
	bucketSize int64
	span       int64
	states     *stateMap[counterState]
}

var (
	_ Strategy  = (*SlidingWindowCounter)(nil)
	_ Sweepable = (*SlidingWindowCounter)(nil)
)

// NewSlidingWindowCounter создаёт SlidingWindowCounter. Количество корзин задаётся
// через WithBucketCount (по умолчанию DefaultBucketCount); окно должно делиться
// хотя бы на одну миллисекунду на корзину.
func NewSlidingWindowCounter(policy Policy, opts ...Option) (*SlidingWindowCounter, error) {
	o := newOptions(opts)
	window := policy.Window().Milliseconds()
	if o.bucketCount <= 0 || int64(o.bucketCount) > window {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBucketCount, o.bucketCount)
	}
	n := o.bucketCount
	return &SlidingWindowCounter{
		policy:     policy,
		opts:       o,
		bucketSize: window / int64(n),
		span:       window / int64(n) * int64(n),
		states: newStateMap(func() counterState {
			return counterState{ring: make([]bucket, n)}
		}),
	}, nil
}

// Name возвращает имя стратегии.
func (c *SlidingWindowCounter) Name() string { return StrategySlidingCounter }

// Allow разрешает вызов, если сумма корзин в окне меньше квоты,
// и в этом случае увеличивает счётчик текущей корзины.
func (c *SlidingWindowCounter) Allow(_ context.Context, key Key) bool {
	quota := c.policy.Quota(key.Severity)
	now := c.opts.nowMillis()

	return c.states.update(key, func(s *counterState) bool {
		if now > s.latest {
			s.latest = now
		}
		start := floorDiv(s.latest, c.bucketSize) * c.bucketSize
		slot := int(floorDiv(start, c.bucketSize) % int64(len(s.ring)))
		if slot < 0 {
			slot += len(s.ring)
		}
		cur := &s.ring[slot]
		if !cur.used || cur.start != start {
			*cur = bucket{start: start, used: true}
		}

		sum := 0
		for i := range s.ring {
			b := &s.ring[i]
			if b.used && b.start > start-c.span && b.start <= start {
				sum += b.count
			}
		}
		if sum >= quota {
			return false
		}
		cur.count++
		return true
	})
}

// Reset очищает корзины всех ключей.
func (c *SlidingWindowCounter) Reset(_ context.Context) {
	c.states.clear()
}

// Sweep удаляет ключи, самая свежая корзина которых старше lookback.
func (c *SlidingWindowCounter) Sweep(now time.Time, lookback time.Duration) int {
	cutoff := now.UnixMilli() - lookback.Milliseconds()
	return c.states.removeIf(func(s *counterState) bool {
		return s.latest <= cutoff
	})
}

// Len возвращает количество отслеживаемых ключей.
func (c *SlidingWindowCounter) Len() int {
	return c.states.count()
}
