package routes

import (
	"github.com/go-chi/chi/v5"

	"Wire/internal/api/handlers/account"
	"Wire/internal/api/middleware"
	"Wire/internal/core/auth"
)

// RegisterAuthRoutes registers the account endpoints under /api/auth.
func RegisterAuthRoutes(r chi.Router, authService *auth.Service, authmw *middleware.Auth, limiter *middleware.RateLimiter) {
	signupHandler := account.NewSignupHandler(authService)
	loginHandler := account.NewLoginHandler(authService)
	sessionHandler := account.NewSessionHandler(authService)
	resetHandler := account.NewResetHandler(authService)

	strict := limiter.Limit("auth", authLimit, limitWindow)

	r.Route("/auth", func(r chi.Router) {
		r.With(strict).Post("/signup", signupHandler.HandleSignup)
		r.With(strict).Post("/login", loginHandler.HandleLogin)
		r.With(strict).Post("/reset/request", resetHandler.HandleRequest)
		r.With(strict).Post("/reset/confirm", resetHandler.HandleConfirm)

		r.Post("/refresh", sessionHandler.HandleRefresh)
		r.Post("/logout", loginHandler.HandleLogout)
		r.With(authmw.Require).Get("/me", sessionHandler.HandleMe)
	})
}
