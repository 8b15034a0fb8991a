package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = fmt.Errorf("authentication required")
	ErrForbidden       = fmt.Errorf("not a participant of this chat")
	ErrNotFound        = fmt.Errorf("not found")
	ErrInvalidMessage  = fmt.Errorf("invalid message shape")
	ErrInvalidMedia    = fmt.Errorf("invalid media payload")
	ErrMediaTooLarge   = fmt.Errorf("media payload exceeds the size limit")
	ErrMediaExists     = fmt.Errorf("media blob already stored")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrSelfChat    = fmt.Errorf("a direct chat requires two distinct participants")
	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// HTTPStatus maps domain sentinels to HTTP status codes at the API boundary.
// Unknown errors are treated as internal: the store being unavailable must
// never leak implementation detail to the client.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrMediaExists):
		return http.StatusConflict
	case errors.Is(err, ErrMediaTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrInvalidMedia),
		errors.Is(err, ErrInvalidPassword), errors.Is(err, ErrSelfChat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
