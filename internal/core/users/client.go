package users

import (
	"context"
	"encoding/json"
	"errors"

	"Wire/internal/actor"
)

// Client is the typed interface to UserActors.
type Client struct {
	sys *actor.System
}

// NewClient creates a user actor client over the runtime.
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

// Initialize creates the actor for a new user.
func (c *Client) Initialize(ctx context.Context, userID string, profile Profile, settings Settings) error {
	return c.call(ctx, userID, actor.PathInitialize, InitializeRequest{Profile: profile, Settings: settings}, nil)
}

// Profile returns the user's profile.
func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := c.call(ctx, userID, "profile/get", nil, &p)
	return p, err
}

// UpdateProfile applies a patch to the mutable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (Profile, error) {
	var p Profile
	err := c.call(ctx, userID, "profile/update", patch, &p)
	return p, err
}

// Settings returns the user's settings with muted words normalised.
func (c *Client) Settings(ctx context.Context, userID string) (Settings, error) {
	var s Settings
	err := c.call(ctx, userID, "settings/get", nil, &s)
	return s, err
}

// UpdateSettings applies a settings patch.
func (c *Client) UpdateSettings(ctx context.Context, userID string, patch SettingsPatch) (Settings, error) {
	var s Settings
	err := c.call(ctx, userID, "settings/update", patch, &s)
	return s, err
}

// Context returns blocked users, muted words and followees in one call.
func (c *Client) Context(ctx context.Context, userID string) (Context, error) {
	var uc Context
	err := c.call(ctx, userID, "context", nil, &uc)
	return uc, err
}

// Follow adds target to the user's following set.
func (c *Client) Follow(ctx context.Context, userID, targetID string) (CountPair, error) {
	var cp CountPair
	err := c.call(ctx, userID, "follow", UserRef{UserID: targetID}, &cp)
	return cp, err
}

// Unfollow removes target from the user's following set.
func (c *Client) Unfollow(ctx context.Context, userID, targetID string) (CountPair, error) {
	var cp CountPair
	err := c.call(ctx, userID, "unfollow", UserRef{UserID: targetID}, &cp)
	return cp, err
}

// AddFollower records that follower now follows the user.
func (c *Client) AddFollower(ctx context.Context, userID, followerID string) (CountPair, error) {
	var cp CountPair
	err := c.call(ctx, userID, "add-follower", UserRef{UserID: followerID}, &cp)
	return cp, err
}

// RemoveFollower records that follower stopped following the user.
func (c *Client) RemoveFollower(ctx context.Context, userID, followerID string) (CountPair, error) {
	var cp CountPair
	err := c.call(ctx, userID, "remove-follower", UserRef{UserID: followerID}, &cp)
	return cp, err
}

// Block adds target to the block list and severs both follow edges in the
// user's own state.
func (c *Client) Block(ctx context.Context, userID, targetID string) error {
	return c.call(ctx, userID, "block", UserRef{UserID: targetID}, nil)
}

// Unblock removes target from the block list.
func (c *Client) Unblock(ctx context.Context, userID, targetID string) error {
	return c.call(ctx, userID, "unblock", UserRef{UserID: targetID}, nil)
}

// IsFollowing reports whether the user follows target.
func (c *Client) IsFollowing(ctx context.Context, userID, targetID string) (bool, error) {
	var r BoolResult
	err := c.call(ctx, userID, "is-following", UserRef{UserID: targetID}, &r)
	return r.Value, err
}

// IsBlocked reports whether the user has blocked target.
func (c *Client) IsBlocked(ctx context.Context, userID, targetID string) (bool, error) {
	var r BoolResult
	err := c.call(ctx, userID, "is-blocked", UserRef{UserID: targetID}, &r)
	return r.Value, err
}

// Followers returns the user's follower ids in follow order.
func (c *Client) Followers(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := c.call(ctx, userID, "followers/list", nil, &out)
	return out, err
}

// Following returns the ids the user follows, in follow order.
func (c *Client) Following(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := c.call(ctx, userID, "following/list", nil, &out)
	return out, err
}

// Blocked returns the user's block list.
func (c *Client) Blocked(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := c.call(ctx, userID, "blocked/list", nil, &out)
	return out, err
}

// AddLikedPost pushes a post onto the liked list.
func (c *Client) AddLikedPost(ctx context.Context, userID, postID string) error {
	return c.call(ctx, userID, "liked-posts/add", PostRef{PostID: postID}, nil)
}

// RemoveLikedPost drops a post from the liked list.
func (c *Client) RemoveLikedPost(ctx context.Context, userID, postID string) error {
	return c.call(ctx, userID, "liked-posts/remove", PostRef{PostID: postID}, nil)
}

// LikedPosts returns the liked post ids, most recent first.
func (c *Client) LikedPosts(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := c.call(ctx, userID, "liked-posts/list", nil, &out)
	return out, err
}

// IncrementPosts bumps the post count.
func (c *Client) IncrementPosts(ctx context.Context, userID string) (int, error) {
	var r CountResult
	err := c.call(ctx, userID, "posts/increment", nil, &r)
	return r.Count, err
}

// DecrementPosts lowers the post count, flooring at zero.
func (c *Client) DecrementPosts(ctx context.Context, userID string) (int, error) {
	var r CountResult
	err := c.call(ctx, userID, "posts/decrement", nil, &r)
	return r.Count, err
}

// SyncCounts rewrites the cached counters from set cardinalities.
func (c *Client) SyncCounts(ctx context.Context, userID string) (CountPair, error) {
	var cp CountPair
	err := c.call(ctx, userID, "sync-counts", nil, &cp)
	return cp, err
}

// Ban marks the account banned.
func (c *Client) Ban(ctx context.Context, userID, reason string) (Profile, error) {
	var p Profile
	err := c.call(ctx, userID, "ban", BanRequest{Reason: reason}, &p)
	return p, err
}

// Unban clears the banned flag.
func (c *Client) Unban(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := c.call(ctx, userID, "unban", nil, &p)
	return p, err
}

// IsBanned reports the banned flag.
func (c *Client) IsBanned(ctx context.Context, userID string) (bool, error) {
	var r BoolResult
	err := c.call(ctx, userID, "is-banned", nil, &r)
	return r.Value, err
}

// SetAdmin flips the admin flag.
func (c *Client) SetAdmin(ctx context.Context, userID string, admin bool) (Profile, error) {
	var p Profile
	err := c.call(ctx, userID, "set-admin", SetAdminRequest{Admin: admin}, &p)
	return p, err
}

// IsAdmin reports the admin flag.
func (c *Client) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var r BoolResult
	err := c.call(ctx, userID, "is-admin", nil, &r)
	return r.Value, err
}
