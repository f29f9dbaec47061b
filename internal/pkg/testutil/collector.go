package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Kargones/alertgate/internal/pkg/metrics"
)

// Decision — одно записанное решение.
type Decision struct {
	Strategy string
	Severity string
	Allowed  bool
}

// RecordingCollector запоминает вызовы metrics.Collector для проверок в тестах.
type RecordingCollector struct {
	mu        sync.Mutex
	decisions []Decision
	fallbacks map[string]int
	sweeps    map[string]int
	pushes    int
}

var _ metrics.Collector = (*RecordingCollector)(nil)

// NewRecordingCollector создаёт пустой RecordingCollector.
func NewRecordingCollector() *RecordingCollector {
	return &RecordingCollector{
		fallbacks: make(map[string]int),
		sweeps:    make(map[string]int),
	}
}

func (c *RecordingCollector) RecordDecision(strategy, severity string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions = append(c.decisions, Decision{Strategy: strategy, Severity: severity, Allowed: allowed})
}

func (c *RecordingCollector) RecordFallback(strategy, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks[strategy+"/"+reason]++
}

func (c *RecordingCollector) RecordSweep(target string, _ int, _ time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := "success"
	if !success {
		status = "error"
	}
	c.sweeps[target+"/"+status]++
}

func (c *RecordingCollector) Push(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushes++
	return nil
}

// Decisions возвращает копию записанных решений.
func (c *RecordingCollector) Decisions() []Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Decision(nil), c.decisions...)
}

// Fallbacks возвращает число переходов на fallback для "strategy/reason".
func (c *RecordingCollector) Fallbacks(strategyReason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fallbacks[strategyReason]
}

// Sweeps возвращает число проходов очистки для "target/status".
func (c *RecordingCollector) Sweeps(targetStatus string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweeps[targetStatus]
}

// Pushes возвращает число вызовов Push.
func (c *RecordingCollector) Pushes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pushes
}
