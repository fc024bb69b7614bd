package feeds

import (
	"context"
	"encoding/json"
	"errors"

	"Wire/internal/actor"
)

// Client is the typed interface to FeedActors.
type Client struct {
	sys *actor.System
}

// NewClient creates a feed actor client over the runtime.
func NewClient(sys *actor.System) *Client {
	return &Client{sys: sys}
}

func (c *Client) call(ctx context.Context, userID, path string, req, out any) error {
	var body []byte
	if req != nil {
		var err error
		body, err = json.Marshal(req)
		if err != nil {
			return err
		}
	}
	resp, err := c.sys.Call(ctx, Namespace, userID, path, body)
	if err != nil {
		return err
	}
	if out != nil && len(resp) > 0 {
		return json.Unmarshal(resp, out)
	}
	return nil
}

// Initialize creates an empty feed for the user.
func (c *Client) Initialize(ctx context.Context, userID string) error {
	return c.call(ctx, userID, actor.PathInitialize, nil, nil)
}

// AddEntry prepends an entry, idempotent by post id. Feeds are created at
// signup, but fan-out may touch accounts that predate feed actors, so an
// uninitialised feed is created lazily.
func (c *Client) AddEntry(ctx context.Context, userID string, entry Entry) error {
	err := c.call(ctx, userID, "add-entry", AddEntryRequest{Entry: entry}, nil)
	if errors.Is(err, actor.ErrNotInitialized) {
		if initErr := c.Initialize(ctx, userID); initErr != nil && !errors.Is(initErr, actor.ErrAlreadyInitialized) {
			return initErr
		}
		return c.call(ctx, userID, "add-entry", AddEntryRequest{Entry: entry}, nil)
	}
	return err
}

// RemoveEntry drops the entry for a post. Removing from an absent feed is a
// no-op.
func (c *Client) RemoveEntry(ctx context.Context, userID, postID string) error {
	err := c.call(ctx, userID, "remove-entry", RemoveEntryRequest{PostID: postID}, nil)
	if errors.Is(err, actor.ErrNotInitialized) {
		return nil
	}
	return err
}

// Feed returns a filtered window of entries.
func (c *Client) Feed(ctx context.Context, userID string, req FeedRequest) (FeedResponse, error) {
	var resp FeedResponse
	err := c.call(ctx, userID, "feed", req, &resp)
	if errors.Is(err, actor.ErrNotInitialized) {
		return FeedResponse{Entries: []Entry{}}, nil
	}
	return resp, err
}

// FeedWithPosts returns a filtered window joined with post snapshots.
func (c *Client) FeedWithPosts(ctx context.Context, userID string, req FeedRequest) (JoinedResponse, error) {
	var resp JoinedResponse
	err := c.call(ctx, userID, "feed-with-posts", req, &resp)
	if errors.Is(err, actor.ErrNotInitialized) {
		return JoinedResponse{Items: []JoinedItem{}}, nil
	}
	return resp, err
}

// Count returns the number of entries.
func (c *Client) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := c.call(ctx, userID, "count", nil, &n)
	if errors.Is(err, actor.ErrNotInitialized) {
		return 0, nil
	}
	return n, err
}

// Clear empties the feed.
func (c *Client) Clear(ctx context.Context, userID string) error {
	err := c.call(ctx, userID, "clear", nil, nil)
	if errors.Is(err, actor.ErrNotInitialized) {
		return nil
	}
	return err
}

// Prune drops entries older than before, returning how many were removed.
func (c *Client) Prune(ctx context.Context, userID string, before PruneRequest) (int, error) {
	var removed int
	err := c.call(ctx, userID, "prune", before, &removed)
	if errors.Is(err, actor.ErrNotInitialized) {
		return 0, nil
	}
	return removed, err
}
