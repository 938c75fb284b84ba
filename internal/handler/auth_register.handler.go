// handler/auth_register.handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"account-service/internal/usecase"
	"account-service/pkg/response"
	xerrors "account-service/pkg/utils/errors"
)

// SendEmailRegister starts registration by dispatching a verification
// email. The response never includes the raw token.
func (h *AuthHandler) SendEmailRegister(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}

	v, err := h.localUC.SendEmailRegister(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    v.UserID,
		"expired_at": v.ExpiredAt,
	})
}

// VerifyEmail consumes a signed verification token for any of the
// email-driven actions.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}

	result, err := h.localUC.VerifyEmail(r.Context(), req.Token, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Register completes a pending registration and logs the new user in on
// the submitting device.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, xerrors.ErrInvalidRequest)
		return
	}

	result, err := h.localUC.Register(r.Context(), usecase.RegisterRequest{
		UserID:          req.UserID,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PolicyIDs:       req.PolicyIDs,
		Name:            req.Name,
		Username:        req.Username,
		DeviceID:        req.DeviceID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.attachDevice(w, r, result, req.DeviceID, req.DeviceName)
}
