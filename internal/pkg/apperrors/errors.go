// Package apperrors — ошибки уровня приложения с машиночитаемым кодом.
package apperrors

import (
	"errors"
	"fmt"
)

// Коды ошибок в формате CATEGORY.SPECIFIC.
const (
	ErrConfigLoad     = "CONFIG.LOAD_FAILED"
	ErrConfigParse    = "CONFIG.PARSE_FAILED"
	ErrConfigValidate = "CONFIG.VALIDATION_FAILED"

	ErrStoreConnect     = "STORE.CONNECT_FAILED"
	ErrStoreUnsupported = "STORE.UNSUPPORTED"

	ErrInputParse   = "INPUT.PARSE_FAILED"
	ErrInputRead    = "INPUT.READ_FAILED"
	ErrStrategyInit = "STRATEGY.INIT_FAILED"
)

// AppError — ошибка с кодом и описанием для оператора.
// Message не должен содержать секретов: адрес хранилища маскируется до записи сюда.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает причину для errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError создаёт AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// CodeOf возвращает код первой AppError в цепочке err или пустую строку.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
