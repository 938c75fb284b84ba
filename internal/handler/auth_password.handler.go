// handler/auth_password.handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"account-service/pkg/response"
	xerrors "account-service/pkg/utils/errors"
)

// ForgotPassword dispatches a password-reset email to an activated
// account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}
	if req.Email == "" {
		writeError(w, xerrors.ErrEmailRequired)
		return
	}

	v, err := h.localUC.SendEmailResetPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    v.UserID,
		"expired_at": v.ExpiredAt,
	})
}

// ResetPassword sets a new password after the reset token has been
// verified. The user_id comes from the verify-email step.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}
	if req.UserID == "" {
		writeError(w, xerrors.ErrUserIDRequired)
		return
	}

	if err := h.localUC.ResetPassword(r.Context(), req.UserID, req.Password, req.ConfirmPassword); err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// SendEmailDeleteAccount dispatches the delete-account confirmation
// email for the authenticated user.
func (h *AuthHandler) SendEmailDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, xerrors.ErrUnauthorized)
		return
	}

	v, err := h.localUC.SendEmailDeleteAccount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    v.UserID,
		"expired_at": v.ExpiredAt,
	})
}

// ConfirmDeleteAccount consumes the delete token and soft-deletes the
// account.
func (h *AuthHandler) ConfirmDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req ConfirmDeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}

	if err := h.localUC.ConfirmDeleteAccount(r.Context(), req.Token); err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
