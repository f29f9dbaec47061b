package ratelimit

import "errors"

// Ошибки конфигурации и контракта.
var (
	// ErrInvalidSeverity — severity не задан (SeverityUnknown) или отсутствует в политике.
	// Это ошибка вызывающего кода, Allow паникует с этой ошибкой.
	ErrInvalidSeverity = errors.New("ratelimit: invalid severity")

	// ErrInvalidWindow — длина окна должна быть положительной.
	ErrInvalidWindow = errors.New("ratelimit: window must be positive")

	// ErrInvalidQuota — квота для severity отсутствует или не положительна.
	ErrInvalidQuota = errors.New("ratelimit: quota must be positive for every severity")

	// ErrInvalidBucketCount — количество корзин SlidingWindowCounter должно быть положительным
	// и не больше длины окна в миллисекундах.
	ErrInvalidBucketCount = errors.New("ratelimit: bucket count must be positive and not exceed window millis")

	// ErrUnknownStrategy — имя стратегии не распознано фабрикой.
	ErrUnknownStrategy = errors.New("ratelimit: unknown strategy")

	// ErrStoreRequired — распределённой стратегии не передано хранилище счётчиков.
	ErrStoreRequired = errors.New("ratelimit: counter store is required for distributed strategy")

	// ErrFallbackInvalid — fallback распределённой стратегии не может быть распределённым.
	ErrFallbackInvalid = errors.New("ratelimit: fallback must be a local strategy")

	// ErrUnexpectedReply — хранилище вернуло значение, которое нельзя интерпретировать как счётчик.
	ErrUnexpectedReply = errors.New("ratelimit: unexpected counter store reply")
)
