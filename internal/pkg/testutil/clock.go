package testutil

import (
	"sync"
	"time"
)

// ManualClock — часы, которые двигаются только явно. Безопасны для конкурентного использования.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock создаёт часы, показывающие start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now возвращает текущее показание. Подходит как ratelimit.Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы на d (d может быть отрицательным).
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set переставляет часы на t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
