package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/alertgate/internal/pkg/testutil"
)

// TestStrategies_QuotaRespected: ровно Q разрешений, затем отказ.
func TestStrategies_QuotaRespected(t *testing.T) {
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			clock := testutil.NewManualClock(t0)
			s := tc.make(t, DefaultPolicy(), clock)

			for _, sev := range Severities() {
				key := Key{Code: "DB_DOWN", Severity: sev}
				quota := DefaultQuotas()[sev]
				for i := 0; i < quota; i++ {
					assert.True(t, s.Allow(context.Background(), key), "%s вызов %d", sev, i+1)
				}
				assert.False(t, s.Allow(context.Background(), key), "%s вызов %d", sev, quota+1)
				assert.False(t, s.Allow(context.Background(), key))
			}
		})
	}
}

// TestStrategies_Independence: разные коды и разные severity не влияют друг на друга.
func TestStrategies_Independence(t *testing.T) {
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			clock := testutil.NewManualClock(t0)
			s := tc.make(t, DefaultPolicy(), clock)

			exhausted := Key{Code: "A", Severity: SeverityMedium}
			require.Equal(t, 2, countAllowed(s, exhausted, 5))

			assert.True(t, s.Allow(context.Background(), Key{Code: "B", Severity: SeverityMedium}))
			assert.True(t, s.Allow(context.Background(), Key{Code: "A", Severity: SeverityHigh}))
			assert.True(t, s.Allow(context.Background(), Key{Code: "A", Severity: SeverityInfo}))
			assert.False(t, s.Allow(context.Background(), exhausted))
		})
	}
}

// TestStrategies_EmptyCode: пустой код — обычный ключ.
func TestStrategies_EmptyCode(t *testing.T) {
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.make(t, DefaultPolicy(), testutil.NewManualClock(t0))
			key := Key{Code: "", Severity: SeverityInfo}
			assert.NotPanics(t, func() {
				assert.True(t, s.Allow(context.Background(), key))
				assert.False(t, s.Allow(context.Background(), key))
			})
		})
	}
}

// TestStrategies_UnknownSeverityPanics: SeverityUnknown — ошибка вызывающего кода.
func TestStrategies_UnknownSeverityPanics(t *testing.T) {
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.make(t, DefaultPolicy(), testutil.NewManualClock(t0))
			assert.PanicsWithError(t, "ratelimit: invalid severity: UNKNOWN (0)", func() {
				s.Allow(context.Background(), Key{Code: "X"})
			})
		})
	}
}

// TestStrategies_Reset: после Reset исчерпанный ключ снова разрешён; Reset идемпотентен.
func TestStrategies_Reset(t *testing.T) {
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.make(t, DefaultPolicy(), testutil.NewManualClock(t0))
			key := Key{Code: "X", Severity: SeverityHigh}
			require.Equal(t, 5, countAllowed(s, key, 10))

			s.Reset(context.Background())
			s.Reset(context.Background())

			assert.Equal(t, 5, countAllowed(s, key, 10))
		})
	}
}

// TestStrategies_ConcurrentExactness: 20 горутин на один ключ дают ровно Q разрешений.
func TestStrategies_ConcurrentExactness(t *testing.T) {
	policy := mustPolicy(t, 5*time.Minute, map[Severity]int{SeverityCritical: 37})
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.make(t, policy, testutil.NewManualClock(t0))
			key := Key{Code: "STORM", Severity: SeverityCritical}

			assert.Equal(t, 37, concurrentAllowed(s, key, 20, 10))
		})
	}
}

// TestStrategies_ConcurrentKeys: 10 горутин по разным ключам не мешают друг другу.
func TestStrategies_ConcurrentKeys(t *testing.T) {
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.make(t, DefaultPolicy(), testutil.NewManualClock(t0))
			results := make(chan int, 10)
			for i := 0; i < 10; i++ {
				key := Key{Code: string(rune('A' + i)), Severity: SeverityHigh}
				go func() { results <- countAllowed(s, key, 8) }()
			}
			for j := 0; j < 10; j++ {
				assert.Equal(t, 5, <-results)
			}
		})
	}
}

// TestStrategies_ResetDuringAllow: Reset на фоне Allow не ломает состояние.
func TestStrategies_ResetDuringAllow(t *testing.T) {
	for _, tc := range localStrategies() {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.make(t, DefaultPolicy(), testutil.NewManualClock(t0))
			key := Key{Code: "X", Severity: SeverityCritical}

			done := make(chan struct{})
			go func() {
				defer close(done)
				for j := 0; j < 200; j++ {
					s.Reset(context.Background())
				}
			}()
			assert.NotPanics(t, func() { concurrentAllowed(s, key, 10, 50) })
			<-done

			s.Reset(context.Background())
			assert.Equal(t, 10, countAllowed(s, key, 20))
		})
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "DB_DOWN:CRITICAL", Key{Code: "DB_DOWN", Severity: SeverityCritical}.String())
}
