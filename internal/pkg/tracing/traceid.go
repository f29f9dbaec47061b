// Package tracing связывает алерты с трейсами: генерирует trace ID для алерта,
// хранит его в context и настраивает OpenTelemetry экспорт span-ов.
//
// Trace ID — 32 hex-символа (16 байт), совместимо с W3C Trace Context.
package tracing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var fallbackCounter atomic.Uint64

// GenerateTraceID возвращает случайный trace ID из crypto/rand.
// Если crypto/rand недоступен, ID строится из времени и счётчика.
func GenerateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fallbackTraceID()
	}
	return hex.EncodeToString(b)
}

// fallbackTraceID: по 16 hex-символов на наносекунды и счётчик.
func fallbackTraceID() string {
	return fmt.Sprintf("%016x%016x", uint64(time.Now().UnixNano()), fallbackCounter.Add(1))
}
