// Package errors содержит доменные ошибки API с машиночитаемыми кодами.
//
// Резолверы возвращают *Error, исполнитель схемы превращает код в extensions.code
// GraphQL-ошибки. Проверка делается через errors.Is по коду:
//
//	if errors.Is(err, errors.ErrUnauthenticated) { ... }
package errors

import (
	"errors"
	"fmt"
)

var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code - код ошибки, уходит клиенту в extensions.code.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeBadUserInput    Code = "BAD_USER_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL_SERVER_ERROR"
)

// Error - доменная ошибка с кодом, сообщением, деталями и исходной причиной.
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is совпадает с любой *Error с тем же кодом.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated, Message: "not authenticated"}
	ErrBadUserInput    = &Error{Code: CodeBadUserInput, Message: "bad user input"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

// Unauthenticated - нет текущего пользователя или неверные учетные данные.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// Validation - сохранение не удалось; args попадают в invalidArgs, cause - исходная ошибка хранилища.
func Validation(msg string, args any, cause error) *Error {
	return &Error{Code: CodeBadUserInput, Message: msg, Details: args, cause: cause}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// CodeOf возвращает код доменной ошибки или CodeInternal для прочих ошибок.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
