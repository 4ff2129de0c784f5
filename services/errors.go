package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind classifies lifecycle failures so the transport layer can map them
// to a status code without inspecting message strings.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindScreening         ErrorKind = "screening_rejected"
	KindOracleUnavailable ErrorKind = "oracle_unavailable"
	KindSettlement        ErrorKind = "settlement"
)

// AppError is the typed failure returned by every lifecycle operation.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
	Details interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a transport status code.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindScreening:
		return fiber.StatusUnprocessableEntity
	case KindOracleUnavailable:
		return fiber.StatusServiceUnavailable
	case KindSettlement:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrValidation(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ErrNotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func ErrConflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func ErrScreening(message string, details interface{}) *AppError {
	return &AppError{Kind: KindScreening, Message: message, Details: details}
}

func ErrOracle(err error, message string) *AppError {
	return &AppError{Kind: KindOracleUnavailable, Message: message, Err: err}
}

func ErrSettlement(err error, message string) *AppError {
	return &AppError{Kind: KindSettlement, Message: message, Err: err}
}

// AsAppError unwraps err into an AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
