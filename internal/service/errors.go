package service

import "errors"

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpired covers bad signature, malformed payload, elapsed
	// expiry and unknown subject. Deliberately not distinguished.
	ErrInvalidOrExpired = errors.New("link invalid or expired")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrWrongTokenKind   = errors.New("wrong token kind")
	ErrInactiveAccount  = errors.New("account inactive")
	ErrWrongPassword    = errors.New("wrong current password")
	ErrInvalidSlug      = errors.New("invalid confirmation slug")
	ErrNotFound         = errors.New("not found")
)

// ValidationError carries field-scoped messages, duplicate username/email
// included.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation error"
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}
