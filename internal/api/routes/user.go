package routes

import (
	"github.com/go-chi/chi/v5"

	"Wire/internal/api/handlers/user"
	"Wire/internal/api/middleware"
	"Wire/internal/config"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
)

// RegisterUserRoutes registers profile, settings, graph and listing
// endpoints under /api/users.
func RegisterUserRoutes(r chi.Router, userService *users.Service, postService *posts.Service, authmw *middleware.Auth, cfg *config.Config) {
	profileHandler := user.NewProfileHandler(userService)
	settingsHandler := user.NewSettingsHandler(userService)
	graphHandler := user.NewGraphHandler(userService)
	listHandler := user.NewListHandler(userService, cfg.DefaultFeedPage, cfg.MaxPaginationLimit)
	postsHandler := user.NewPostsHandler(userService, postService, cfg.DefaultFeedPage, cfg.MaxPaginationLimit)

	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authmw.Require)
			r.Get("/me", profileHandler.HandleGetMe)
			r.Put("/me", profileHandler.HandleUpdateMe)
			r.Get("/me/settings", settingsHandler.HandleGet)
			r.Put("/me/settings", settingsHandler.HandleUpdate)
			r.Get("/me/blocked", listHandler.HandleBlocked)

			r.Post("/{handle}/follow", graphHandler.HandleFollow)
			r.Delete("/{handle}/follow", graphHandler.HandleUnfollow)
			r.Post("/{handle}/block", graphHandler.HandleBlock)
			r.Delete("/{handle}/block", graphHandler.HandleUnblock)
		})

		r.Get("/{handle}", profileHandler.HandleGet)
		r.Get("/{handle}/followers", listHandler.HandleFollowers)
		r.Get("/{handle}/following", listHandler.HandleFollowing)
		r.Get("/{handle}/posts", postsHandler.HandleUserPosts)
	})
}
