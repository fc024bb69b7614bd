package routes

import (
	"github.com/go-chi/chi/v5"

	"Wire/internal/api/handlers/post"
	"Wire/internal/api/middleware"
	"Wire/internal/config"
	"Wire/internal/core/posts"
)

// RegisterPostRoutes registers the post endpoints under /api/posts.
func RegisterPostRoutes(r chi.Router, postService *posts.Service, authmw *middleware.Auth, cfg *config.Config) {
	createHandler := post.NewCreateHandler(postService)
	getHandler := post.NewGetHandler(postService, cfg.DefaultFeedPage, cfg.MaxPaginationLimit)
	deleteHandler := post.NewDeleteHandler(postService)
	likeHandler := post.NewLikeHandler(postService)
	repostHandler := post.NewRepostHandler(postService)

	r.Route("/posts", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authmw.Require)
			r.Post("/", createHandler.HandleCreate)
			r.Delete("/{id}", deleteHandler.HandleDelete)
			r.Post("/{id}/like", likeHandler.HandleLike)
			r.Delete("/{id}/like", likeHandler.HandleUnlike)
			r.Post("/{id}/repost", repostHandler.HandleRepost)
			r.Delete("/{id}/repost", repostHandler.HandleUnrepost)
		})

		r.Get("/{id}", getHandler.HandleGet)
		r.Get("/{id}/thread", getHandler.HandleThread)
		r.Get("/{id}/replies", getHandler.HandleReplies)
	})
}
