package users

import (
	"time"

	"Wire/internal/core/orderedset"
)

// Muted-word scopes.
const (
	ScopeAll          = "all"
	ScopeNotFollowing = "not_following"
)

// Caps on per-user collections.
const (
	MaxMutedWords = 100
	MaxLikedPosts = 1000
)

// User is the credential record stored at KV user:{id}. The profile and
// social graph live in the UserActor; this record is owned by the auth
// service.
type User struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Salt         string    `json:"salt"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLogin    time.Time `json:"lastLogin"`
}

// Profile is the public face of a user.
type Profile struct {
	ID             string     `json:"id"`
	Handle         string     `json:"handle"`
	DisplayName    string     `json:"displayName"`
	Bio            string     `json:"bio"`
	Location       string     `json:"location"`
	Website        string     `json:"website"`
	AvatarURL      string     `json:"avatarUrl"`
	BannerURL      string     `json:"bannerUrl"`
	JoinedAt       time.Time  `json:"joinedAt"`
	FollowerCount  int        `json:"followerCount"`
	FollowingCount int        `json:"followingCount"`
	PostCount      int        `json:"postCount"`
	IsVerified     bool       `json:"isVerified"`
	IsBanned       bool       `json:"isBanned"`
	IsAdmin        bool       `json:"isAdmin"`
	BannedAt       *time.Time `json:"bannedAt,omitempty"`
	BannedReason   string     `json:"bannedReason,omitempty"`
}

// MutedWord hides matching posts from the user's feeds.
type MutedWord struct {
	Word      string     `json:"word"`
	Scope     string     `json:"scope"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Settings are the user's private preferences.
type Settings struct {
	EmailNotifications bool        `json:"emailNotifications"`
	PrivateAccount     bool        `json:"privateAccount"`
	MutedWords         []MutedWord `json:"mutedWords"`
}

// State is the UserActor's durable state.
type State struct {
	Profile    Profile         `json:"profile"`
	Settings   Settings        `json:"settings"`
	Following  *orderedset.Set `json:"following"`
	Followers  *orderedset.Set `json:"followers"`
	Blocked    *orderedset.Set `json:"blocked"`
	LikedPosts *orderedset.Set `json:"likedPosts"`
}

// Context is the batched read used by feed assembly so one actor call
// replaces three.
type Context struct {
	Blocked    []string    `json:"blocked"`
	MutedWords []MutedWord `json:"mutedWords"`
	Following  []string    `json:"following"`
}

// ProfilePatch updates mutable profile fields. Nil fields are left as-is;
// identity, counters and moderation flags are immutable from this path.
type ProfilePatch struct {
	DisplayName *string `json:"displayName,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
	Website     *string `json:"website,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	BannerURL   *string `json:"bannerUrl,omitempty"`
}

// SettingsPatch updates settings fields. Nil fields are left as-is.
type SettingsPatch struct {
	EmailNotifications *bool        `json:"emailNotifications,omitempty"`
	PrivateAccount     *bool        `json:"privateAccount,omitempty"`
	MutedWords         *[]MutedWord `json:"mutedWords,omitempty"`
}

// CountPair is the response of sync-counts.
type CountPair struct {
	FollowingCount int `json:"followingCount"`
	FollowerCount  int `json:"followerCount"`
}
