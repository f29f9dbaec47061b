// Package testutil — общие помощники тестов.
package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"github.com/Kargones/alertgate/internal/pkg/logging"
)

// LogBuffer — потокобезопасный буфер для логгера в тестах.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String возвращает всё записанное.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Contains сообщает, встречается ли s в записанном.
func (b *LogBuffer) Contains(s string) bool {
	return strings.Contains(b.String(), s)
}

// CaptureLogger возвращает логгер уровня debug в text-формате, пишущий в LogBuffer.
func CaptureLogger() (logging.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogAdapter(slog.New(handler)), buf
}
