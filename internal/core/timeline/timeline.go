// Package timeline assembles the home, chronological and global feeds from
// feed actor windows and the discovery rankings.
package timeline

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"Wire/internal/core/posts"
)

// PostView is one feed slot: a post plus where it came from.
type PostView struct {
	posts.Post
	Source string `json:"source"`
}

// Page is a feed response.
type Page struct {
	Posts   []PostView `json:"posts"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"hasMore"`
}

type cursorToken struct {
	Offset int `json:"o"`
}

func encodeOffset(offset int) string {
	blob, _ := json.Marshal(cursorToken{Offset: offset})
	return base64.RawURLEncoding.EncodeToString(blob)
}

func decodeOffset(s string) int {
	if s == "" {
		return 0
	}
	blob, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0
	}
	var tok cursorToken
	if err := json.Unmarshal(blob, &tok); err != nil || tok.Offset < 0 {
		return 0
	}
	return tok.Offset
}

// lowValueRepost reports whether a post is a bare repost with no engagement
// to justify the slot.
func lowValueRepost(rec *posts.Post) bool {
	if rec.RepostOfID == "" || strings.TrimSpace(rec.Content) != "" {
		return false
	}
	if rec.OriginalPost != nil && rec.OriginalPost.Engagement() > 0 {
		return false
	}
	return rec.Engagement() == 0
}

// originalOf collapses reposts onto the post they surface.
func originalOf(rec *posts.Post) string {
	if rec.RepostOfID != "" {
		return rec.RepostOfID
	}
	return rec.ID
}
