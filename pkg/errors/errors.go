package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrTooManyAttempts    = fmt.Errorf("слишком много попыток входа")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("пользователь не найден в контексте запроса")

	// Классы ошибок предметной области
	ErrValidation = fmt.Errorf("ошибка валидации")
	ErrConflict   = fmt.Errorf("конфликт данных")
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrStorage    = fmt.Errorf("ошибка хранилища")
	ErrBadRequest = fmt.Errorf("неверный запрос")
)

type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

func NewValidationError(message string, details interface{}) *HttpError {
	return NewHttpError(http.StatusBadRequest, message, ErrValidation, details)
}

func NewConflictError(message string) *HttpError {
	return NewHttpError(http.StatusConflict, message, ErrConflict, nil)
}

func NewNotFoundError(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message, ErrNotFound, nil)
}

func NewForbiddenError(message string) *HttpError {
	return NewHttpError(http.StatusForbidden, message, ErrForbidden, nil)
}

func NewStorageError(message string, err error) *HttpError {
	return NewHttpError(http.StatusInternalServerError, message, fmt.Errorf("%w: %v", ErrStorage, err), nil)
}

// StatusCode сопоставляет ошибку с HTTP-статусом по цепочке обёрток.
func StatusCode(err error) int {
	var httpErr *HttpError
	if errors.As(err, &httpErr) && httpErr.Code != 0 {
		return httpErr.Code
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrEmptyAuthHeader), errors.Is(err, ErrInvalidAuthHeader):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
