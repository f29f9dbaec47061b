package metrics

import (
	"net/url"
	"time"
)

// Значения по умолчанию.
const (
	DefaultJobName = "alertgate"
	DefaultTimeout = 10 * time.Second
)

// Config — настройки отправки метрик в Pushgateway.
type Config struct {
	// Enabled включает сбор метрик. По умолчанию выключено.
	Enabled bool

	// PushgatewayURL, например "http://pushgateway:9091".
	PushgatewayURL string

	// JobName группирует метрики в Pushgateway.
	JobName string

	// Timeout HTTP-запроса к Pushgateway.
	Timeout time.Duration

	// InstanceLabel переопределяет label instance (по умолчанию hostname).
	InstanceLabel string
}

// Validate проверяет конфигурацию. Выключенные метрики валидны всегда.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.PushgatewayURL == "" {
		return ErrPushgatewayURLRequired
	}
	u, err := url.Parse(c.PushgatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrPushgatewayURLInvalid
	}
	if c.JobName == "" {
		return ErrJobNameRequired
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		JobName: DefaultJobName,
		Timeout: DefaultTimeout,
	}
}
