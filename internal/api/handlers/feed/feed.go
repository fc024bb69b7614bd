// Package feed exposes the timeline endpoints: ranked home, raw
// chronological and the public global feed.
package feed

import (
	"net/http"
	"strconv"

	"Wire/internal/api/middleware"
	"Wire/internal/api/respond"
	"Wire/internal/core/timeline"
)

// Handler serves the three feed variants. home and chronological require
// auth; global is public with optional viewer filtering.
type Handler struct {
	timeline *timeline.Service
}

func NewHandler(timelineService *timeline.Service) *Handler {
	return &Handler{timeline: timelineService}
}

// HandleHome handles GET /api/feed/home.
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	cursor, limit := feedParams(r)
	page, err := h.timeline.HomeFeed(r.Context(), middleware.GetUserID(r), cursor, limit)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// HandleChronological handles GET /api/feed/chronological.
func (h *Handler) HandleChronological(w http.ResponseWriter, r *http.Request) {
	cursor, limit := feedParams(r)
	page, err := h.timeline.Chronological(r.Context(), middleware.GetUserID(r), cursor, limit)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// HandleGlobal handles GET /api/feed/global. Anonymous callers get the
// unfiltered ranking; authenticated callers get their blocks and muted
// words applied.
func (h *Handler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	cursor, limit := feedParams(r)
	page, err := h.timeline.Global(r.Context(), middleware.GetUserID(r), cursor, limit)
	if err != nil {
		respond.ServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// feedParams reads cursor and limit. Limit 0 means service default; the
// service clamps the upper bound.
func feedParams(r *http.Request) (cursor string, limit int) {
	cursor = r.URL.Query().Get("cursor")
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return cursor, limit
}
