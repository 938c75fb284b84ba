// handler/middleware.go
package handler

import (
	"context"
	"net/http"
	"strings"

	"account-service/pkg/jwtutil"
	xerrors "account-service/pkg/utils/errors"
)

type contextKey string

const (
	ContextUserID   contextKey = "user_id"
	ContextDeviceID contextKey = "device_id"
)

func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextUserID).(string)
	return v
}

func DeviceIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextDeviceID).(string)
	return v
}

// RequireAuth verifies the Bearer access token and stashes the user and
// device ids on the request context. Verification-purpose tokens are
// rejected here; they are only good for the verify-email endpoint.
func RequireAuth(jwtGen *jwtutil.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, xerrors.ErrUnauthorized)
				return
			}

			claims, err := jwtGen.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, err)
				return
			}
			if claims.Purpose != jwtutil.PurposeAccess {
				writeError(w, xerrors.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextDeviceID, claims.Device)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
