// handler/auth_login.handler.go
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"account-service/internal/usecase"
	"account-service/pkg/response"
	xerrors "account-service/pkg/utils/errors"
)

// Login authenticates an email/password pair. Every attempt, success or
// not, lands in the activity log with its resulting status code.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}

	result, err := h.localUC.Login(r.Context(), req.Email, req.Password, req.DeviceID)
	h.recordAttempt(r, req.Email, err)
	if err != nil {
		writeError(w, err)
		return
	}

	h.attachDevice(w, r, result, req.DeviceID, req.DeviceName)
}

// GoogleLogin exchanges a Google ID token for a local session, creating
// the account on first contact.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}

	result, err := h.googleUC.LoginWithGoogle(r.Context(), req.IDToken, req.DeviceID)
	if err != nil {
		// no verified email to attribute the attempt to
		writeError(w, err)
		return
	}
	h.recordAttempt(r, result.User.Email, nil)

	h.attachDevice(w, r, result, req.DeviceID, req.DeviceName)
}

// recordAttempt appends the login outcome to the activity log. Failures
// to record are logged by the recorder itself and never fail the login.
func (h *AuthHandler) recordAttempt(r *http.Request, emailAddr string, loginErr error) {
	if h.recorder == nil || emailAddr == "" {
		return
	}
	status := http.StatusOK
	reason := ""
	if loginErr != nil {
		status, reason = statusForError(loginErr)
	}
	if err := h.recorder.RecordLogin(r.Context(), emailAddr, clientIP(r), r.UserAgent(), status, reason); err != nil {
		log.Printf("failed to record login attempt for %s: %v", emailAddr, err)
	}
}

// attachDevice binds the authenticated session to the submitting
// device: prune at the cap, then upsert, then respond with the auth
// result and the session.
func (h *AuthHandler) attachDevice(w http.ResponseWriter, r *http.Request, result *usecase.AuthResult, deviceID, deviceName string) {
	if deviceID == "" {
		response.JSON(w, http.StatusOK, result)
		return
	}

	if _, err := h.sessionUC.PruneOldestIfExceeded(r.Context(), result.User.ID, deviceID); err != nil {
		writeError(w, err)
		return
	}

	upserted, err := h.sessionUC.Upsert(r.Context(), result.User.Email, result.User.ID, deviceID, deviceName, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user":                result.User,
		"access_token":        result.AccessToken,
		"is_first_time_login": result.IsFirstTimeLogin,
		"session":             upserted.Session,
	})
}
