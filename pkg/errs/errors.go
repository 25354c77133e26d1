package errs

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrMissingIdentity = errors.New("missing identity")
	ErrUnavailable     = errors.New("service unavailable")
)

// Kind: машинно-проверяемый тип ошибки, уходит клиенту в поле "kind".
type Kind string

const (
	KindNotFound        Kind = "NotFound"
	KindForbidden       Kind = "Forbidden"
	KindMissingIdentity Kind = "MissingIdentity"
	KindValidation      Kind = "ValidationError"
	KindUnavailable     Kind = "Unavailable"
	KindInternal        Kind = "Internal"
)

func ToHTTP(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrMissingIdentity), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrMissingIdentity):
		return KindMissingIdentity
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}
