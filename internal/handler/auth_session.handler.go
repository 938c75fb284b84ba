// handler/auth_session.handler.go
package handler

import (
	"net/http"

	"account-service/pkg/response"
	xerrors "account-service/pkg/utils/errors"

	"github.com/go-chi/chi/v5"
)

// ListSessions returns the authenticated user's device sessions,
// least-recently-active first.
func (h *AuthHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, xerrors.ErrUnauthorized)
		return
	}

	sessions, err := h.sessionUC.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Heartbeat refreshes the caller's device session. A device that has
// been evicted or revoked gets a session-expired response carrying the
// sessions still active elsewhere.
func (h *AuthHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	deviceID := DeviceIDFromContext(r.Context())
	if userID == "" || deviceID == "" {
		writeError(w, xerrors.ErrUnauthorized)
		return
	}

	sessions, err := h.sessionUC.UpdateActive(r.Context(), userID, deviceID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// RevokeSession deletes one of the user's device sessions by device id.
func (h *AuthHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, xerrors.ErrUnauthorized)
		return
	}

	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}

	if err := h.sessionUC.Revoke(r.Context(), userID, deviceID); err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "session revoked"})
}
