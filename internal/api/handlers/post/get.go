package post

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Wire/internal/api/respond"
	"Wire/internal/core/posts"
)

// GetHandler serves single posts, threads and reply listings.
type GetHandler struct {
	posts        *posts.Service
	defaultLimit int
	maxLimit     int
}

func NewGetHandler(postService *posts.Service, defaultLimit, maxLimit int) *GetHandler {
	return &GetHandler{posts: postService, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandleGet handles GET /api/posts/{id}. Counts are authoritative, read
// from the PostActor.
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, record)
}

// HandleThread handles GET /api/posts/{id}/thread: the ancestor chain,
// the post itself and its direct replies.
func (h *GetHandler) HandleThread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.posts.Thread(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, thread)
}

// HandleReplies handles GET /api/posts/{id}/replies.
func (h *GetHandler) HandleReplies(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	replies, err := h.posts.Replies(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, replies)
}
