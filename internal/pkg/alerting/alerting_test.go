package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
	"github.com/Kargones/alertgate/internal/pkg/testutil"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// recordingAlerter запоминает отправленные алерты и может возвращать ошибку.
type recordingAlerter struct {
	mu   sync.Mutex
	sent []Alert
	err  error
}

func (r *recordingAlerter) Send(_ context.Context, alert Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, alert)
	return r.err
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newTestGate(t *testing.T) (*Gate, *testutil.ManualClock, *testutil.RecordingCollector, *testutil.LogBuffer) {
	t.Helper()
	clock := testutil.NewManualClock(t0)
	collector := testutil.NewRecordingCollector()
	logger, buf := testutil.CaptureLogger()
	strategy := ratelimit.NewFixedWindow(ratelimit.DefaultPolicy(), ratelimit.WithClock(clock.Now))
	gate, err := NewGate(strategy, logger, collector)
	require.NoError(t, err)
	return gate, clock, collector, buf
}

func TestNewGate_RequiresStrategy(t *testing.T) {
	_, err := NewGate(nil, nil, nil)
	assert.ErrorIs(t, err, ErrStrategyRequired)
}

func TestGate_Allow(t *testing.T) {
	gate, clock, collector, buf := newTestGate(t)
	ctx := context.Background()

	// HIGH: квота 5 за окно
	for i := 0; i < 5; i++ {
		assert.True(t, gate.Allow(ctx, "DB_DOWN", ratelimit.SeverityHigh), "вызов %d", i+1)
	}
	assert.False(t, gate.Allow(ctx, "DB_DOWN", ratelimit.SeverityHigh))
	assert.True(t, gate.Allow(ctx, "DB_DOWN", ratelimit.SeverityInfo), "другой severity — другой ключ")
	assert.True(t, buf.Contains("алерт подавлен rate limiter"))

	clock.Advance(ratelimit.DefaultWindow)
	assert.True(t, gate.Allow(ctx, "DB_DOWN", ratelimit.SeverityHigh), "новое окно")

	decisions := collector.Decisions()
	require.Len(t, decisions, 8)
	assert.Equal(t, ratelimit.StrategyFixedWindow, decisions[5].Strategy)
	assert.Equal(t, "HIGH", decisions[5].Severity)
	assert.False(t, decisions[5].Allowed)
}

func TestGate_UnknownSeverityPanics(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	assert.Panics(t, func() {
		gate.Allow(context.Background(), "X", ratelimit.SeverityUnknown)
	})
}

func TestGate_Reset(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	ctx := context.Background()

	assert.True(t, gate.Allow(ctx, "X", ratelimit.SeverityInfo))
	assert.False(t, gate.Allow(ctx, "X", ratelimit.SeverityInfo))
	gate.Reset(ctx)
	assert.True(t, gate.Allow(ctx, "X", ratelimit.SeverityInfo))
	assert.Equal(t, ratelimit.StrategyFixedWindow, gate.Strategy().Name())
}

func TestThrottledAlerter(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	next := &recordingAlerter{}
	alerter, err := NewThrottledAlerter(gate, next, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, alerter.Send(ctx, Alert{ErrorCode: "DISK_FULL", Severity: ratelimit.SeverityMedium}))
	}
	assert.Equal(t, 2, next.count(), "MEDIUM: квота 2")
}

func TestThrottledAlerter_DeliveryErrorSwallowed(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	logger, buf := testutil.CaptureLogger()
	next := &recordingAlerter{err: errors.New("smtp down")}
	alerter, err := NewThrottledAlerter(gate, next, logger)
	require.NoError(t, err)

	assert.NoError(t, alerter.Send(context.Background(), Alert{ErrorCode: "X", Severity: ratelimit.SeverityCritical}))
	assert.Equal(t, 1, next.count())
	assert.True(t, buf.Contains("smtp down"))
}

func TestThrottledAlerter_CanceledContext(t *testing.T) {
	gate, _, collector, _ := newTestGate(t)
	next := &recordingAlerter{}
	alerter, err := NewThrottledAlerter(gate, next, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, alerter.Send(ctx, Alert{ErrorCode: "X", Severity: ratelimit.SeverityCritical}))
	assert.Zero(t, next.count())
	assert.Empty(t, collector.Decisions(), "отменённый алерт не расходует квоту")
}

func TestNewThrottledAlerter_Validation(t *testing.T) {
	gate, _, _, _ := newTestGate(t)
	_, err := NewThrottledAlerter(nil, NewNopAlerter(), nil)
	assert.ErrorIs(t, err, ErrStrategyRequired)
	_, err = NewThrottledAlerter(gate, nil, nil)
	assert.ErrorIs(t, err, ErrAlerterRequired)
}

func TestWriterAlerter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriterAlerter(&buf)
	require.NoError(t, err)

	alert := Alert{
		ErrorCode: "DB_DOWN",
		Severity:  ratelimit.SeverityHigh,
		Message:   "<primary> unreachable",
		TraceID:   "abc",
		Timestamp: t0,
	}
	require.NoError(t, w.Send(context.Background(), alert))
	require.NoError(t, w.Send(context.Background(), alert))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"severity":"HIGH"`)
	assert.Contains(t, lines[0], "<primary>")

	var decoded Alert
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, alert.Key(), decoded.Key())
	assert.True(t, alert.Timestamp.Equal(decoded.Timestamp))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriterAlerter_Errors(t *testing.T) {
	_, err := NewWriterAlerter(nil)
	assert.ErrorIs(t, err, ErrWriterRequired)

	w, err := NewWriterAlerter(failingWriter{})
	require.NoError(t, err)
	assert.ErrorIs(t, w.Send(context.Background(), Alert{ErrorCode: "X", Severity: ratelimit.SeverityInfo}), ErrWrite)
}

func TestNopAlerter(t *testing.T) {
	assert.NoError(t, NewNopAlerter().Send(context.Background(), Alert{}))
}
