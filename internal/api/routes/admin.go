package routes

import (
	"github.com/go-chi/chi/v5"

	"Wire/internal/api/handlers/admin"
	"Wire/internal/api/middleware"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
)

// RegisterAdminRoutes registers moderation endpoints under /api/admin.
func RegisterAdminRoutes(r chi.Router, userService *users.Service, postService *posts.Service, authmw *middleware.Auth) {
	moderationHandler := admin.NewModerationHandler(userService, postService)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authmw.Require)
		r.Post("/users/{handle}/ban", moderationHandler.HandleBan)
		r.Post("/users/{handle}/unban", moderationHandler.HandleUnban)
		r.Post("/posts/{id}/takedown", moderationHandler.HandleTakeDown)
		r.Post("/posts/{id}/restore", moderationHandler.HandleRestore)
	})
}
