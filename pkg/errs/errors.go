package errs

import (
	"errors"
	"net/http"
)

const (
	ErrStatusInternalServer = http.StatusInternalServerError
	ErrStatusClient         = http.StatusBadRequest
	ErrStatusUnauthorized   = http.StatusUnauthorized
	ErrStatusNotFound       = http.StatusNotFound
)

var (
	ErrInternalServer     = errors.New("internal server error")
	ErrPersistence        = errors.New("database error")
	ErrClient             = errors.New("bad request")
	ErrNotFound           = errors.New("user not found")
	ErrAlreadyActivated   = errors.New("user already activated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpiredToken       = errors.New("token has expired")
	ErrMalformedToken     = errors.New("invalid token")
	ErrMissingToken       = errors.New("missing authorization header")
)

var errorMap = map[error]int{
	ErrInternalServer:     ErrStatusInternalServer,
	ErrPersistence:        ErrStatusInternalServer,
	ErrClient:             ErrStatusClient,
	ErrNotFound:           ErrStatusNotFound,
	ErrAlreadyActivated:   ErrStatusClient,
	ErrInvalidCredentials: ErrStatusUnauthorized,
	ErrExpiredToken:       ErrStatusUnauthorized,
	ErrMalformedToken:     ErrStatusUnauthorized,
	ErrMissingToken:       ErrStatusUnauthorized,
}

// Public returns the sentinel that err wraps, or ErrInternalServer when err
// is not one of ours. Only the sentinel's message is ever shown to clients.
func Public(err error) error {
	for sentinel := range errorMap {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return ErrInternalServer
}

func GetErrorStatusCode(err error) int {
	return errorMap[Public(err)]
}
