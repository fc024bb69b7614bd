package posts

import (
	"time"
)

// Post kinds. Beyond an original note, a post is exactly one of reply,
// quote or repost.
const (
	KindOriginal = "original"
	KindReply    = "reply"
	KindQuote    = "quote"
	KindRepost   = "repost"
)

// Post is the cached KV record at post:{id}. Counter fields are the cached
// view; the authoritative like/repost sets live in the PostActor, and the
// post service overwrites these counts with actor-returned values.
type Post struct {
	ID                string     `json:"id"`
	AuthorID          string     `json:"authorId"`
	AuthorHandle      string     `json:"authorHandle"`
	AuthorDisplayName string     `json:"authorDisplayName"`
	AuthorAvatarURL   string     `json:"authorAvatarUrl"`
	Content           string     `json:"content"`
	MediaURLs         []string   `json:"mediaUrls,omitempty"`
	ReplyToID         string     `json:"replyToId,omitempty"`
	QuoteOfID         string     `json:"quoteOfId,omitempty"`
	RepostOfID        string     `json:"repostOfId,omitempty"`
	OriginalPost      *Post      `json:"originalPost,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	LikeCount         int        `json:"likeCount"`
	ReplyCount        int        `json:"replyCount"`
	RepostCount       int        `json:"repostCount"`
	QuoteCount        int        `json:"quoteCount"`
	IsDeleted         bool       `json:"isDeleted"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty"`
	IsTakenDown       bool       `json:"isTakenDown"`
	TakenDownAt       *time.Time `json:"takenDownAt,omitempty"`
	TakenDownReason   string     `json:"takenDownReason,omitempty"`
}

// Kind derives the post kind from the reference fields, of which at most
// one is ever set.
func (p *Post) Kind() string {
	switch {
	case p.RepostOfID != "":
		return KindRepost
	case p.ReplyToID != "":
		return KindReply
	case p.QuoteOfID != "":
		return KindQuote
	default:
		return KindOriginal
	}
}

// Engagement sums the interaction counters.
func (p *Post) Engagement() int {
	return p.LikeCount + p.ReplyCount + p.RepostCount + p.QuoteCount
}

// Visible reports whether the post may be shown in feeds.
func (p *Post) Visible() bool {
	return !p.IsDeleted && !p.IsTakenDown
}

// CreateRequest is the input to the post service's Create.
type CreateRequest struct {
	Content   string   `json:"content"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
	ReplyToID string   `json:"replyToId,omitempty"`
	QuoteOfID string   `json:"quoteOfId,omitempty"`
}

// Thread is a post with its ancestor chain and direct replies.
type Thread struct {
	Ancestors []*Post `json:"ancestors"`
	Post      *Post   `json:"post"`
	Replies   []*Post `json:"replies"`
}
