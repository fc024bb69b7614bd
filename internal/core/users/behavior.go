package users

import (
	"context"
	"fmt"
	"time"

	"Wire/internal/actor"
	"Wire/internal/core/orderedset"
)

// Namespace is the actor namespace for users.
const Namespace = "user"

// InitializeRequest seeds a new UserActor.
type InitializeRequest struct {
	Profile  Profile  `json:"profile"`
	Settings Settings `json:"settings"`
}

// UserRef addresses another user in a call body.
type UserRef struct {
	UserID string `json:"userId"`
}

// PostRef addresses a post in a call body.
type PostRef struct {
	PostID string `json:"postId"`
}

// BanRequest carries the ban reason.
type BanRequest struct {
	Reason string `json:"reason"`
}

// SetAdminRequest flips the admin flag.
type SetAdminRequest struct {
	Admin bool `json:"admin"`
}

// BoolResult wraps a membership or flag check.
type BoolResult struct {
	Value bool `json:"value"`
}

// CountResult wraps a single counter value.
type CountResult struct {
	Count int `json:"count"`
}

// Behavior implements the UserActor: profile, settings, social graph,
// liked posts and moderation flags for one user.
type Behavior struct{}

// NewBehavior creates the user behavior.
func NewBehavior() Behavior { return Behavior{} }

func (Behavior) NewState() any { return &State{} }

// Initialize creates the actor with empty social sets. The profile id and
// joinedAt are forced from the actor name and clock so callers can't forge
// them.
func (Behavior) Initialize(_ context.Context, name string, body []byte) (any, error) {
	var req InitializeRequest
	if err := actor.Decode(body, &req); err != nil {
		return nil, err
	}

	st := &State{
		Profile:    req.Profile,
		Settings:   req.Settings,
		Following:  orderedset.New(),
		Followers:  orderedset.New(),
		Blocked:    orderedset.New(),
		LikedPosts: orderedset.New(),
	}
	st.Profile.ID = name
	if st.Profile.JoinedAt.IsZero() {
		st.Profile.JoinedAt = time.Now().UTC()
	}
	st.Profile.FollowerCount = 0
	st.Profile.FollowingCount = 0
	st.Profile.PostCount = 0
	st.Settings.MutedWords = NormalizeMutedWords(st.Settings.MutedWords, time.Now())
	return st, nil
}

func (b Behavior) Handle(_ context.Context, name string, state any, path string, body []byte) ([]byte, bool, error) {
	st := state.(*State)

	switch path {
	case "profile/get":
		return respond(st.Profile, false)

	case "profile/update":
		var patch ProfilePatch
		if err := actor.Decode(body, &patch); err != nil {
			return nil, false, err
		}
		applyProfilePatch(&st.Profile, patch)
		return respond(st.Profile, true)

	case "settings/get":
		view := st.Settings
		view.MutedWords = NormalizeMutedWords(view.MutedWords, time.Now())
		return respond(view, false)

	case "settings/update":
		var patch SettingsPatch
		if err := actor.Decode(body, &patch); err != nil {
			return nil, false, err
		}
		if patch.EmailNotifications != nil {
			st.Settings.EmailNotifications = *patch.EmailNotifications
		}
		if patch.PrivateAccount != nil {
			st.Settings.PrivateAccount = *patch.PrivateAccount
		}
		if patch.MutedWords != nil {
			st.Settings.MutedWords = *patch.MutedWords
		}
		st.Settings.MutedWords = NormalizeMutedWords(st.Settings.MutedWords, time.Now())
		return respond(st.Settings, true)

	case "context":
		return respond(Context{
			Blocked:    st.Blocked.Values(),
			MutedWords: NormalizeMutedWords(st.Settings.MutedWords, time.Now()),
			Following:  st.Following.Values(),
		}, false)

	case "follow":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			if userID == name {
				return respond(b.counts(st), false)
			}
			changed := st.Following.Add(userID)
			st.Profile.FollowingCount = st.Following.Len()
			return respond(b.counts(st), changed)
		})

	case "unfollow":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			if userID == name {
				return respond(b.counts(st), false)
			}
			changed := st.Following.Remove(userID)
			st.Profile.FollowingCount = st.Following.Len()
			return respond(b.counts(st), changed)
		})

	case "add-follower":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			if userID == name {
				return respond(b.counts(st), false)
			}
			changed := st.Followers.Add(userID)
			st.Profile.FollowerCount = st.Followers.Len()
			return respond(b.counts(st), changed)
		})

	case "remove-follower":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			if userID == name {
				return respond(b.counts(st), false)
			}
			changed := st.Followers.Remove(userID)
			st.Profile.FollowerCount = st.Followers.Len()
			return respond(b.counts(st), changed)
		})

	case "block":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			if userID == name {
				return respond(b.counts(st), false)
			}
			changed := st.Blocked.Add(userID)
			// Blocking severs the relationship in both directions of this
			// actor's view; the service mirrors the other side.
			if st.Following.Remove(userID) {
				changed = true
			}
			if st.Followers.Remove(userID) {
				changed = true
			}
			st.Profile.FollowingCount = st.Following.Len()
			st.Profile.FollowerCount = st.Followers.Len()
			return respond(b.counts(st), changed)
		})

	case "unblock":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			changed := st.Blocked.Remove(userID)
			return respond(b.counts(st), changed)
		})

	case "is-following":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			return respond(BoolResult{Value: st.Following.Has(userID)}, false)
		})

	case "is-blocked":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			return respond(BoolResult{Value: st.Blocked.Has(userID)}, false)
		})

	case "followers/list":
		return respond(st.Followers.Values(), false)

	case "following/list":
		return respond(st.Following.Values(), false)

	case "blocked/list":
		return respond(st.Blocked.Values(), false)

	case "liked-posts/add":
		var req PostRef
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		st.LikedPosts.PushFront(req.PostID)
		st.LikedPosts.Truncate(MaxLikedPosts)
		return nil, true, nil

	case "liked-posts/remove":
		var req PostRef
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		changed := st.LikedPosts.Remove(req.PostID)
		return nil, changed, nil

	case "liked-posts/list":
		return respond(st.LikedPosts.Values(), false)

	case "posts/increment":
		st.Profile.PostCount++
		return respond(CountResult{Count: st.Profile.PostCount}, true)

	case "posts/decrement":
		if st.Profile.PostCount > 0 {
			st.Profile.PostCount--
		}
		return respond(CountResult{Count: st.Profile.PostCount}, true)

	case "posts/reset":
		st.Profile.PostCount = 0
		return respond(CountResult{Count: 0}, true)

	case "sync-counts":
		st.Profile.FollowingCount = st.Following.Len()
		st.Profile.FollowerCount = st.Followers.Len()
		return respond(b.counts(st), true)

	case "ban":
		var req BanRequest
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		now := time.Now().UTC()
		st.Profile.IsBanned = true
		st.Profile.BannedAt = &now
		st.Profile.BannedReason = req.Reason
		return respond(st.Profile, true)

	case "unban":
		st.Profile.IsBanned = false
		st.Profile.BannedAt = nil
		st.Profile.BannedReason = ""
		return respond(st.Profile, true)

	case "is-banned":
		return respond(BoolResult{Value: st.Profile.IsBanned}, false)

	case "set-admin":
		var req SetAdminRequest
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		st.Profile.IsAdmin = req.Admin
		return respond(st.Profile, true)

	case "is-admin":
		return respond(BoolResult{Value: st.Profile.IsAdmin}, false)

	default:
		return nil, false, fmt.Errorf("%w: user/%s", actor.ErrUnknownPath, path)
	}
}

func (Behavior) counts(st *State) CountPair {
	return CountPair{
		FollowingCount: st.Profile.FollowingCount,
		FollowerCount:  st.Profile.FollowerCount,
	}
}

func (Behavior) withUser(body []byte, fn func(userID string) ([]byte, bool, error)) ([]byte, bool, error) {
	var req UserRef
	if err := actor.Decode(body, &req); err != nil {
		return nil, false, err
	}
	if req.UserID == "" {
		return nil, false, NewValidationError("userId", "userId is required")
	}
	return fn(req.UserID)
}

func applyProfilePatch(p *Profile, patch ProfilePatch) {
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Website != nil {
		p.Website = *patch.Website
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = *patch.AvatarURL
	}
	if patch.BannerURL != nil {
		p.BannerURL = *patch.BannerURL
	}
}

func respond(v any, mutated bool) ([]byte, bool, error) {
	blob, err := actor.Encode(v)
	return blob, mutated, err
}
