// Package alerting — точка входа диспетчера алертов в rate limiting.
//
// Gate отвечает на вопрос «можно ли отправить алерт (code, severity) сейчас»,
// ThrottledAlerter применяет этот ответ к любому Alerter. Доставка (SMTP,
// webhook, мессенджеры) в пакет не входит: её реализует внешний Alerter.
package alerting

import (
	"context"
	"time"

	"github.com/Kargones/alertgate/internal/pkg/ratelimit"
)

// Alert представляет данные алерта.
type Alert struct {
	// ErrorCode — код ошибки, часть ключа rate limiting.
	ErrorCode string `json:"errorCode"`

	// Severity — уровень критичности, вторая часть ключа.
	Severity ratelimit.Severity `json:"severity"`

	// Message — человекочитаемое сообщение.
	Message string `json:"message,omitempty"`

	// TraceID — идентификатор трассировки для корреляции логов.
	TraceID string `json:"traceId,omitempty"`

	// Timestamp — время возникновения ошибки.
	Timestamp time.Time `json:"timestamp"`

	// Source — компонент или хост, породивший алерт.
	Source string `json:"source,omitempty"`
}

// Key возвращает ключ rate limiting алерта.
func (a Alert) Key() ratelimit.Key {
	return ratelimit.Key{Code: a.ErrorCode, Severity: a.Severity}
}

// Alerter доставляет алерт во внешний канал.
// Реализации: WriterAlerter, ThrottledAlerter, NopAlerter.
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}
