package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// WriterAlerter пишет каждый алерт одной JSON-строкой в io.Writer.
// Запись сериализуется мьютексом, строки разных алертов не перемешиваются.
type WriterAlerter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterAlerter создаёт WriterAlerter поверх w.
func NewWriterAlerter(w io.Writer) (*WriterAlerter, error) {
	if w == nil {
		return nil, ErrWriterRequired
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &WriterAlerter{enc: enc}, nil
}

// Send записывает алерт.
func (w *WriterAlerter) Send(_ context.Context, alert Alert) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(alert); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
