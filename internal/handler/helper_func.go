package handler

import (
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"account-service/pkg/response"
	xerrors "account-service/pkg/utils/errors"
)

// clientIP prefers the forwarded header set by the edge proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusForError maps usecase errors onto the HTTP surface. Unknown
// errors become 500 without leaking their message.
func statusForError(err error) (int, string) {
	var lockErr *xerrors.LockoutError
	if errors.As(err, &lockErr) {
		return http.StatusForbidden, lockErr.Error()
	}
	var sessErr *xerrors.SessionExpiredError
	if errors.As(err, &sessErr) {
		return response.StatusSessionExpired, sessErr.Error()
	}

	switch {
	case errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrPasswordMismatch),
		errors.Is(err, xerrors.ErrEmailRequired),
		errors.Is(err, xerrors.ErrUserIDRequired):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, xerrors.ErrInvalidCredentials),
		errors.Is(err, xerrors.ErrInvalidToken),
		errors.Is(err, xerrors.ErrExpiredToken),
		errors.Is(err, xerrors.ErrSocialAccountOnly),
		errors.Is(err, xerrors.ErrMissingScope),
		errors.Is(err, xerrors.ErrProviderMismatch),
		errors.Is(err, xerrors.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, xerrors.ErrAccountDeactivated),
		errors.Is(err, xerrors.ErrForbidden):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, xerrors.ErrUserNotFound),
		errors.Is(err, xerrors.ErrSessionNotFound),
		errors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, xerrors.ErrUserAlreadyExists),
		errors.Is(err, xerrors.ErrUsernameTaken),
		errors.Is(err, xerrors.ErrAccountNotActive),
		errors.Is(err, xerrors.ErrConflict):
		return http.StatusConflict, err.Error()
	}

	log.Printf("unclassified error: %v", err)
	return http.StatusInternalServerError, "internal server error"
}

// writeError renders the error, attaching extra payload for lockout and
// session-expired responses.
func writeError(w http.ResponseWriter, err error) {
	status, msg := statusForError(err)

	var lockErr *xerrors.LockoutError
	if errors.As(err, &lockErr) {
		response.ErrorData(w, status, msg, map[string]interface{}{
			"retry_after_seconds": lockErr.RetryAfterSeconds,
		})
		return
	}

	var sessErr *xerrors.SessionExpiredError
	if errors.As(err, &sessErr) {
		response.ErrorData(w, status, msg, map[string]interface{}{
			"active_sessions": sessErr.ActiveSessions,
		})
		return
	}

	response.Error(w, status, msg)
}
