package metrics

import "errors"

var (
	// ErrPushgatewayURLRequired — метрики включены, а URL Pushgateway не задан.
	ErrPushgatewayURLRequired = errors.New("pushgateway URL is required when metrics enabled")

	// ErrJobNameRequired — не задано имя job.
	ErrJobNameRequired = errors.New("job name is required")

	// ErrInvalidTimeout — таймаут не положителен.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrPushgatewayURLInvalid — URL Pushgateway не разбирается.
	ErrPushgatewayURLInvalid = errors.New("pushgateway URL has invalid format")
)
