package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/respond"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
)

// PostsHandler serves a user's authored posts and reposts, newest first.
type PostsHandler struct {
	users        *users.Service
	posts        *posts.Service
	defaultLimit int
	maxLimit     int
}

func NewPostsHandler(userService *users.Service, postService *posts.Service, defaultLimit, maxLimit int) *PostsHandler {
	return &PostsHandler{users: userService, posts: postService, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandleUserPosts handles GET /api/users/{handle}/posts.
func (h *PostsHandler) HandleUserPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := h.users.ResolveHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	limit, offset := pageParams(r, h.defaultLimit, h.maxLimit)
	records, err := h.posts.UserPosts(r.Context(), userID, limit, offset)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, records)
}
