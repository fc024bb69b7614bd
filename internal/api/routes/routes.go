// Package routes assembles the HTTP router: middleware chain, CORS and
// the per-domain route registrations.
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/config"
	"Wire/internal/core/auth"
	"Wire/internal/core/posts"
	"Wire/internal/core/timeline"
	"Wire/internal/core/users"
	"Wire/internal/kv"
)

// Per-window request budgets. The auth bucket is deliberately tight:
// signup, login and reset are the abuse surface.
const (
	generalLimit = 300
	authLimit    = 10
	limitWindow  = time.Minute
)

// Deps carries everything the router needs.
type Deps struct {
	Config   *config.Config
	Store    kv.Store
	Tokens   *auth.TokenManager
	Auth     *auth.Service
	Users    *users.Service
	Posts    *posts.Service
	Timeline *timeline.Service
}

// New builds the full HTTP handler.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authmw := middleware.NewAuth(d.Tokens)
	limiter := middleware.NewRateLimiter(d.Store)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.Empty(w, http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		// Optional auth first so the general limiter keys authenticated
		// traffic by user id instead of client IP.
		api.Use(authmw.Optional)
		api.Use(limiter.Limit("api", generalLimit, limitWindow))

		RegisterAuthRoutes(api, d.Auth, authmw, limiter)
		RegisterUserRoutes(api, d.Users, d.Posts, authmw, d.Config)
		RegisterPostRoutes(api, d.Posts, authmw, d.Config)
		RegisterFeedRoutes(api, d.Timeline, authmw)
		RegisterAdminRoutes(api, d.Users, d.Posts, authmw)
	})

	return r
}
