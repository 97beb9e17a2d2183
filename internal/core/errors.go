// AngelaMos | 2026
// errors.go

package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrTransactionConflict = errors.New("transaction conflict")
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// ClassifyStoreError tags a raw driver error with the matching sentinel.
// Errors that already carry a store sentinel, ErrNotFound, or a context
// cancellation are returned unchanged.
func ClassifyStoreError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTransactionConflict) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %w", ErrTransactionConflict, err)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
		return err
	}

	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func BadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "BAD_REQUEST", message)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, "FORBIDDEN", message)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		http.StatusNotFound,
		"NOT_FOUND",
		fmt.Sprintf("%s not found", resource),
	)
}

func DuplicateError(what string) *AppError {
	return NewAppError(
		http.StatusConflict,
		"DUPLICATE",
		fmt.Sprintf("%s already exists", what),
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(http.StatusUnauthorized, "TOKEN_EXPIRED", "token has expired")
}

func TokenInvalidError() *AppError {
	return NewAppError(http.StatusUnauthorized, "TOKEN_INVALID", "token is invalid")
}

func RateLimitedError(retryAfterSeconds int) *AppError {
	return NewAppError(
		http.StatusTooManyRequests,
		"RATE_LIMITED",
		fmt.Sprintf("too many requests, retry in %ds", retryAfterSeconds),
	)
}

func StoreUnavailableError(err error) *AppError {
	appErr := NewAppError(
		http.StatusServiceUnavailable,
		"STORE_UNAVAILABLE",
		"operation failed, nothing was applied",
	)
	appErr.Detail = err.Error()
	return appErr
}

func InternalError(err error) *AppError {
	appErr := NewAppError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"operation failed",
	)
	appErr.Detail = err.Error()
	return appErr
}
