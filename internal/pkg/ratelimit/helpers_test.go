package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kargones/alertgate/internal/pkg/testutil"
)

// t0 выровнен по границе 5-минутного окна.
var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func mustPolicy(t *testing.T, window time.Duration, quotas map[Severity]int) Policy {
	t.Helper()
	full := DefaultQuotas()
	for sev, q := range quotas {
		full[sev] = q
	}
	p, err := NewPolicy(window, full)
	require.NoError(t, err)
	return p
}

type strategyCase struct {
	name string
	make func(t *testing.T, p Policy, clock *testutil.ManualClock) Strategy
}

// localStrategies — все локальные стратегии на управляемых часах.
func localStrategies() []strategyCase {
	return []strategyCase{
		{StrategyFixedWindow, func(_ *testing.T, p Policy, c *testutil.ManualClock) Strategy {
			return NewFixedWindow(p, WithClock(c.Now))
		}},
		{StrategySlidingLog, func(_ *testing.T, p Policy, c *testutil.ManualClock) Strategy {
			return NewSlidingWindowLog(p, WithClock(c.Now))
		}},
		{StrategySlidingCounter, func(t *testing.T, p Policy, c *testutil.ManualClock) Strategy {
			s, err := NewSlidingWindowCounter(p, WithClock(c.Now))
			require.NoError(t, err)
			return s
		}},
		{StrategyTokenBucket, func(_ *testing.T, p Policy, c *testutil.ManualClock) Strategy {
			return NewTokenBucket(p, WithClock(c.Now))
		}},
		{StrategyCacheTTL, func(_ *testing.T, p Policy, _ *testutil.ManualClock) Strategy {
			return NewCacheWithTTL(p)
		}},
	}
}

// countAllowed вызывает Allow n раз и возвращает число разрешённых.
func countAllowed(s Strategy, key Key, n int) int {
	allowed := 0
	for j := 0; j < n; j++ {
		if s.Allow(context.Background(), key) {
			allowed++
		}
	}
	return allowed
}

// concurrentAllowed запускает workers горутин, каждая делает calls вызовов,
// стартуя одновременно.
func concurrentAllowed(s Strategy, key Key, workers, calls int) int {
	var (
		allowed atomic.Int64
		start   sync.WaitGroup
		done    sync.WaitGroup
	)
	start.Add(1)
	for j := 0; j < workers; j++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			for j := 0; j < calls; j++ {
				if s.Allow(context.Background(), key) {
					allowed.Add(1)
				}
			}
		}()
	}
	start.Done()
	done.Wait()
	return int(allowed.Load())
}
