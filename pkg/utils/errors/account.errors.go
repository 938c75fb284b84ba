package xerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ParsePGErrorCode extracts the SQLSTATE code from a pgx error.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsUniqueViolation reports whether err is a postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

// Registration / Login
var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("password and confirm password do not match")
	ErrAccountNotActive   = errors.New("account not activated")
	ErrEmailRequired      = errors.New("email required")
	ErrUserIDRequired     = errors.New("user ID required")
)

// Account state
var (
	ErrAccountDeleted     = errors.New("account deleted")
	ErrAccountDeactivated = errors.New("account deactivated")
)

// Social auth
var (
	ErrSocialAccountOnly = errors.New("social account only")
	ErrMissingScope      = errors.New("id token missing required scope")
	ErrProviderMismatch  = errors.New("identity provider mismatch")
)

// Token
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Session
var (
	ErrSessionExpired  = errors.New("session not recognized on this device")
	ErrSessionNotFound = errors.New("session not found")
)

// LockoutError carries the remaining lock duration after repeated
// failed logins. Unwraps to ErrForbidden.
type LockoutError struct {
	RetryAfterSeconds int64
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account temporarily locked, retry after %d seconds", e.RetryAfterSeconds)
}

func (e *LockoutError) Unwrap() error { return ErrForbidden }

// SessionExpiredError is returned when a device session is no longer
// recognized. It lists the sessions that are still active so the client
// can show where the account is signed in.
type SessionExpiredError struct {
	ActiveSessions any
}

func (e *SessionExpiredError) Error() string { return ErrSessionExpired.Error() }

func (e *SessionExpiredError) Unwrap() error { return ErrSessionExpired }
