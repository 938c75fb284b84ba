// router/auth.router.go
package router

import (
	"net/http"
	"time"

	"account-service/internal/handler"
	"account-service/pkg/jwtutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New assembles the HTTP surface: public auth endpoints plus a small
// authenticated group for sessions and account deletion.
func New(h *handler.AuthHandler, jwtGen *jwtutil.Generator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register/email", h.SendEmailRegister)
		r.Post("/verify-email", h.VerifyEmail)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/google", h.GoogleLogin)
		r.Post("/password/forgot", h.ForgotPassword)
		r.Post("/password/reset", h.ResetPassword)
		r.Post("/account/delete/confirm", h.ConfirmDeleteAccount)

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireAuth(jwtGen))
			r.Post("/account/delete", h.SendEmailDeleteAccount)
			r.Get("/sessions", h.ListSessions)
			r.Post("/sessions/heartbeat", h.Heartbeat)
			r.Delete("/sessions/{deviceID}", h.RevokeSession)
		})
	})

	return r
}
