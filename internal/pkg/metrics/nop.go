package metrics

import (
	"context"
	"time"
)

// NopCollector отбрасывает все метрики.
type NopCollector struct{}

var _ Collector = (*NopCollector)(nil)

// NewNopCollector создаёт NopCollector.
func NewNopCollector() *NopCollector {
	return &NopCollector{}
}

func (c *NopCollector) RecordDecision(string, string, bool)          {}
func (c *NopCollector) RecordFallback(string, string)                {}
func (c *NopCollector) RecordSweep(string, int, time.Duration, bool) {}

// Push ничего не отправляет.
func (c *NopCollector) Push(context.Context) error { return nil }
