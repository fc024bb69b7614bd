package posts

import (
	"context"
	"encoding/json"
	"errors"

	"Wire/internal/actor"
	"Wire/internal/core/users"
)

// Client is the typed interface to PostActors.
type Client struct {
	sys *actor.System
}

// NewClient creates a post actor client over the runtime.
func NewClient(sys *actor.System) *Client {
	return &Client{sys: sys}
}

func (c *Client) call(ctx context.Context, postID, path string, req, out any) error {
	var body []byte
	if req != nil {
		var err error
		body, err = json.Marshal(req)
		if err != nil {
			return err
		}
	}
	resp, err := c.sys.Call(ctx, Namespace, postID, path, body)
	if err != nil {
		if errors.Is(err, actor.ErrNotInitialized) {
			return ErrNotFound
		}
		return err
	}
	if out != nil && len(resp) > 0 {
		return json.Unmarshal(resp, out)
	}
	return nil
}

// Initialize creates the actor for a new post.
func (c *Client) Initialize(ctx context.Context, postID string, post Post) error {
	return c.call(ctx, postID, actor.PathInitialize, InitializeRequest{Post: post}, nil)
}

// Get returns the post with authoritative like/repost counts.
func (c *Client) Get(ctx context.Context, postID string) (Post, error) {
	var p Post
	err := c.call(ctx, postID, "get", nil, &p)
	return p, err
}

// Like adds userID to the like set and returns the authoritative count.
func (c *Client) Like(ctx context.Context, postID, userID string) (int, error) {
	var r users.CountResult
	err := c.call(ctx, postID, "like", users.UserRef{UserID: userID}, &r)
	return r.Count, err
}

// Unlike removes userID from the like set.
func (c *Client) Unlike(ctx context.Context, postID, userID string) (int, error) {
	var r users.CountResult
	err := c.call(ctx, postID, "unlike", users.UserRef{UserID: userID}, &r)
	return r.Count, err
}

// HasLiked reports like-set membership.
func (c *Client) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	var r users.BoolResult
	err := c.call(ctx, postID, "has-liked", users.UserRef{UserID: userID}, &r)
	return r.Value, err
}

// Repost adds userID to the repost set and returns the authoritative count.
func (c *Client) Repost(ctx context.Context, postID, userID string) (int, error) {
	var r users.CountResult
	err := c.call(ctx, postID, "repost", users.UserRef{UserID: userID}, &r)
	return r.Count, err
}

// Unrepost removes userID from the repost set.
func (c *Client) Unrepost(ctx context.Context, postID, userID string) (int, error) {
	var r users.CountResult
	err := c.call(ctx, postID, "unrepost", users.UserRef{UserID: userID}, &r)
	return r.Count, err
}

// HasReposted reports repost-set membership.
func (c *Client) HasReposted(ctx context.Context, postID, userID string) (bool, error) {
	var r users.BoolResult
	err := c.call(ctx, postID, "has-reposted", users.UserRef{UserID: userID}, &r)
	return r.Value, err
}

// IncrementReplies bumps the reply counter.
func (c *Client) IncrementReplies(ctx context.Context, postID string) (int, error) {
	var r users.CountResult
	err := c.call(ctx, postID, "replies/increment", nil, &r)
	return r.Count, err
}

// IncrementQuotes bumps the quote counter.
func (c *Client) IncrementQuotes(ctx context.Context, postID string) (int, error) {
	var r users.CountResult
	err := c.call(ctx, postID, "quotes/increment", nil, &r)
	return r.Count, err
}

// Delete marks the post deleted and zeroes its counters.
func (c *Client) Delete(ctx context.Context, postID string) error {
	return c.call(ctx, postID, "delete", nil, nil)
}
