package routes

import (
	"github.com/go-chi/chi/v5"

	"Wire/internal/api/handlers/feed"
	"Wire/internal/api/middleware"
	"Wire/internal/core/timeline"
)

// RegisterFeedRoutes registers the timeline endpoints under /api/feed.
func RegisterFeedRoutes(r chi.Router, timelineService *timeline.Service, authmw *middleware.Auth) {
	handler := feed.NewHandler(timelineService)

	r.Route("/feed", func(r chi.Router) {
		r.With(authmw.Require).Get("/home", handler.HandleHome)
		r.With(authmw.Require).Get("/chronological", handler.HandleChronological)

		// Public, personalized when a token is present.
		r.Get("/global", handler.HandleGlobal)
	})
}
