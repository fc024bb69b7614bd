package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Wire/internal/api/respond"
	"Wire/internal/kv"
)

// RateLimiter implements fixed-window rate limiting over the KV store at
// rl:{bucket}:{identifier}, so limits hold across server instances sharing
// a backend. Authenticated requests are keyed by user id, anonymous ones by
// client IP. The read-modify-write is not atomic; a burst racing the window
// record can slip a few extra requests through, which is acceptable for
// abuse control.
type RateLimiter struct {
	store kv.Store
}

func NewRateLimiter(store kv.Store) *RateLimiter {
	return &RateLimiter{store: store}
}

type rateWindow struct {
	Count int       `json:"count"`
	Start time.Time `json:"start"`
}

// Limit returns middleware enforcing max requests per window for the
// bucket. Rejections carry a Retry-After header.
func (l *RateLimiter) Limit(bucket string, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := kv.RateLimitKey(bucket, l.identify(r))
			now := time.Now().UTC()

			var win rateWindow
			if blob, err := l.store.Get(r.Context(), key); err == nil {
				_ = json.Unmarshal(blob, &win)
			}
			if now.Sub(win.Start) >= window {
				win = rateWindow{Start: now}
			}
			if win.Count >= max {
				retry := win.Start.Add(window).Sub(now)
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			win.Count++
			if blob, err := json.Marshal(win); err == nil {
				_ = l.store.Put(r.Context(), key, blob, window)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *RateLimiter) identify(r *http.Request) string {
	if id := GetUserID(r); id != "" {
		return id
	}
	return clientIP(r)
}

// clientIP resolves the originating address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
