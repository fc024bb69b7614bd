// Package user exposes profile, settings, social graph and user-posts
// endpoints.
package user

import (
	"net/http"
	"strconv"
)

const maxBodySize = 1 << 20 // 1MB

// pageParams reads limit/offset query parameters, clamping limit to
// [1, max] with the given default.
func pageParams(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
