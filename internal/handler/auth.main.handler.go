// handler/auth.main.handler.go
package handler

import (
	"net/http"

	"account-service/internal/usecase"
	"account-service/pkg/response"
)

// AuthHandler exposes the account operations over HTTP. It owns no
// business rules: it decodes, delegates, records login attempts and
// maps errors to statuses.
type AuthHandler struct {
	localUC   *usecase.LocalAuthUsecase
	googleUC  *usecase.GoogleAuthUsecase
	sessionUC *usecase.SessionUsecase
	recorder  *usecase.ActivityRecorder
}

func NewAuthHandler(
	localUC *usecase.LocalAuthUsecase,
	googleUC *usecase.GoogleAuthUsecase,
	sessionUC *usecase.SessionUsecase,
	recorder *usecase.ActivityRecorder,
) *AuthHandler {
	return &AuthHandler{
		localUC:   localUC,
		googleUC:  googleUC,
		sessionUC: sessionUC,
		recorder:  recorder,
	}
}

func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"service": "account-service", "state": "ok"})
}
