package types

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrConfiguration      = errors.New("server configuration error")
	ErrInternal           = errors.New("internal server error")

	// ErrNotFound is returned by the user store when no record matches.
	ErrNotFound = errors.New("requested item not found")
)

// ValidationError carries the per-field failures of a rejected request.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// ErrorKind is the stable name of an error category, used in logs and metric attributes.
type ErrorKind string

const (
	KindNone               ErrorKind = "ok"
	KindValidation         ErrorKind = "validation_error"
	KindUserAlreadyExists  ErrorKind = "user_already_exists"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindTokenExpired       ErrorKind = "token_expired"
	KindTokenInvalid       ErrorKind = "token_invalid"
	KindConfiguration      ErrorKind = "configuration_error"
	KindInternal           ErrorKind = "internal_error"
)

// KindOf classifies err. Anything outside the taxonomy is internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUserAlreadyExists):
		return KindUserAlreadyExists
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrTokenExpired):
		return KindTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return KindTokenInvalid
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindInternal
	}
}
