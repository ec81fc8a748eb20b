// Package api реализует типизированный HTTP/JSON клиент REST-бэкенда системы
// жалоб и подписок. Помимо вызовов конечных точек пакет классифицирует
// неуспешные ответы: неверные учётные данные, блокировка аккаунта,
// превышение лимита попыток, сетевые сбои и ошибки сервера. Требование
// второго фактора ошибкой не считается и возвращается как обычный результат.
package api

import (
	"errors"
	"fmt"
	"time"
)

// Kind — категория неуспешного ответа бэкенда.
type Kind int

const (
	// KindUnknown — ответ, не попавший ни в одну категорию.
	KindUnknown Kind = iota
	// KindInvalidCredentials — 401: неверные учётные данные.
	KindInvalidCredentials
	// KindAccountLocked — аккаунт заблокирован, срок блокировки задаёт бэкенд.
	KindAccountLocked
	// KindRateLimited — 429: превышен лимит попыток.
	KindRateLimited
	// KindBadRequest — 4xx, отклонённый запрос.
	KindBadRequest
	// KindServer — 5xx, сбой на стороне сервера.
	KindServer
	// KindNetwork — ответа от бэкенда не было вовсе.
	KindNetwork
)

// Error — классифицированная ошибка вызова бэкенда.
//
// FailedAttempts заполняется только для KindInvalidCredentials, когда бэкенд
// сообщил счётчик неудачных попыток. LockoutUntil — только для KindAccountLocked.
type Error struct {
	Kind           Kind
	StatusCode     int
	Message        string
	FailedAttempts int
	LockoutUntil   time.Time
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend request failed: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthorized сообщает, отверг ли бэкенд саму аутентификацию (401/403).
// Только такие ошибки разрушают сессию при регидрации и обновлении профиля.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// errorBody — тело неуспешного ответа бэкенда.
type errorBody struct {
	Message        string    `json:"message"`
	FailedAttempts int       `json:"failed_attempts,omitempty"`
	AccountLocked  bool      `json:"account_locked,omitempty"`
	LockoutUntil   time.Time `json:"lockout_until,omitempty"`
}

// classify переводит статус и тело неуспешного ответа в Error.
func classify(statusCode int, body errorBody) *Error {
	apiErr := &Error{
		StatusCode:     statusCode,
		Message:        body.Message,
		FailedAttempts: body.FailedAttempts,
		LockoutUntil:   body.LockoutUntil,
	}
	switch {
	case body.AccountLocked:
		apiErr.Kind = KindAccountLocked
	case statusCode == 429:
		apiErr.Kind = KindRateLimited
	case statusCode == 401 || statusCode == 403:
		apiErr.Kind = KindInvalidCredentials
	case statusCode >= 500:
		apiErr.Kind = KindServer
	case statusCode >= 400:
		apiErr.Kind = KindBadRequest
	default:
		apiErr.Kind = KindUnknown
	}
	return apiErr
}

// networkError оборачивает транспортную ошибку: ответа не было.
func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// KindOf возвращает категорию ошибки или KindUnknown, если err — не *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsUnauthorized сообщает, является ли err отказом в аутентификации (401/403).
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}
