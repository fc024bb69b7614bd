package users

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"Wire/internal/kv"
)

// Service coordinates UserActors, the KV handle/email indices and the
// profile cache.
type Service struct {
	actors     *Client
	store      kv.Store
	profileTTL time.Duration
}

// NewService creates the user service.
func NewService(actors *Client, store kv.Store, profileTTL time.Duration) *Service {
	return &Service{actors: actors, store: store, profileTTL: profileTTL}
}

// Actors exposes the typed actor client for collaborating services.
func (s *Service) Actors() *Client { return s.actors }

// ResolveHandle maps a handle to a user id via the KV index.
func (s *Service) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = NormalizeHandle(handle)
	blob, err := s.store.Get(ctx, kv.HandleKey(handle))
	if err == kv.ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve handle %q: %w", handle, err)
	}
	var userID string
	if err := json.Unmarshal(blob, &userID); err != nil {
		return "", fmt.Errorf("malformed handle index for %q: %w", handle, err)
	}
	return userID, nil
}

// GetProfile returns a profile by user id, straight from the actor.
func (s *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	return s.actors.Profile(ctx, userID)
}

// GetProfileByHandle returns a profile through the profile:{handle} cache.
// Cache misses fall through to the actor and repopulate the cache.
func (s *Service) GetProfileByHandle(ctx context.Context, handle string) (Profile, error) {
	handle = NormalizeHandle(handle)

	if blob, err := s.store.Get(ctx, kv.ProfileKey(handle)); err == nil {
		var p Profile
		if err := json.Unmarshal(blob, &p); err == nil {
			return p, nil
		}
		// Malformed cache entry: drop it and rebuild from the actor.
		_ = s.store.Delete(ctx, kv.ProfileKey(handle))
	}

	userID, err := s.ResolveHandle(ctx, handle)
	if err != nil {
		return Profile{}, err
	}
	profile, err := s.actors.Profile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	s.cacheProfile(ctx, profile)
	return profile, nil
}

// UpdateProfile patches mutable fields and invalidates the handle cache.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (Profile, error) {
	if err := ValidateProfilePatch(patch); err != nil {
		return Profile{}, err
	}
	profile, err := s.actors.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return Profile{}, err
	}
	s.invalidateProfile(ctx, profile.Handle)
	return profile, nil
}

// GetSettings returns the user's settings.
func (s *Service) GetSettings(ctx context.Context, userID string) (Settings, error) {
	return s.actors.Settings(ctx, userID)
}

// UpdateSettings applies a settings patch.
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch SettingsPatch) (Settings, error) {
	if patch.MutedWords != nil {
		for _, mw := range *patch.MutedWords {
			if mw.Scope != "" && mw.Scope != ScopeAll && mw.Scope != ScopeNotFollowing {
				return Settings{}, NewValidationError("mutedWords", "scope must be all or not_following")
			}
		}
	}
	return s.actors.UpdateSettings(ctx, userID, patch)
}

// Follow creates the follow edge on both actors. Rejected when either side
// has blocked the other.
func (s *Service) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return NewValidationError("userId", "cannot follow yourself")
	}
	if blocked, err := s.actors.IsBlocked(ctx, targetID, followerID); err != nil {
		return err
	} else if blocked {
		return ErrBlocked
	}
	if blocked, err := s.actors.IsBlocked(ctx, followerID, targetID); err != nil {
		return err
	} else if blocked {
		return NewValidationError("userId", "unblock this user before following them")
	}

	if _, err := s.actors.Follow(ctx, followerID, targetID); err != nil {
		return err
	}
	if _, err := s.actors.AddFollower(ctx, targetID, followerID); err != nil {
		// The edge is half-applied; sync-counts and the symmetric
		// remove below keep this recoverable.
		slog.Error("follow edge half-applied", "follower", followerID, "target", targetID, "error", err)
		return err
	}
	return nil
}

// Unfollow removes the follow edge on both actors.
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return NewValidationError("userId", "cannot unfollow yourself")
	}
	if _, err := s.actors.Unfollow(ctx, followerID, targetID); err != nil {
		return err
	}
	if _, err := s.actors.RemoveFollower(ctx, targetID, followerID); err != nil {
		slog.Error("unfollow edge half-applied", "follower", followerID, "target", targetID, "error", err)
		return err
	}
	return nil
}

// Block adds target to the user's block list and severs the follow
// relationship in both directions on both actors.
func (s *Service) Block(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return NewValidationError("userId", "cannot block yourself")
	}
	if err := s.actors.Block(ctx, userID, targetID); err != nil {
		return err
	}
	// Mirror the severed edges on the target's actor.
	if _, err := s.actors.RemoveFollower(ctx, targetID, userID); err != nil {
		return err
	}
	if _, err := s.actors.Unfollow(ctx, targetID, userID); err != nil {
		return err
	}
	return nil
}

// Unblock removes target from the block list. It does not restore follows.
func (s *Service) Unblock(ctx context.Context, userID, targetID string) error {
	return s.actors.Unblock(ctx, userID, targetID)
}

// ListFollowers pages through the user's followers, hydrated to profiles.
func (s *Service) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]Profile, error) {
	ids, err := s.actors.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, page(ids, limit, offset))
}

// ListFollowing pages through the ids the user follows.
func (s *Service) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]Profile, error) {
	ids, err := s.actors.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, page(ids, limit, offset))
}

// ListBlocked pages through the user's block list.
func (s *Service) ListBlocked(ctx context.Context, userID string, limit, offset int) ([]Profile, error) {
	ids, err := s.actors.Blocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, page(ids, limit, offset))
}

// Ban marks the account banned and invalidates the cached profile, so the
// flag is visible immediately.
func (s *Service) Ban(ctx context.Context, userID, reason string) error {
	profile, err := s.actors.Ban(ctx, userID, reason)
	if err != nil {
		return err
	}
	s.invalidateProfile(ctx, profile.Handle)
	return nil
}

// Unban clears the banned flag.
func (s *Service) Unban(ctx context.Context, userID string) error {
	profile, err := s.actors.Unban(ctx, userID)
	if err != nil {
		return err
	}
	s.invalidateProfile(ctx, profile.Handle)
	return nil
}

// SetAdmin flips the admin flag.
func (s *Service) SetAdmin(ctx context.Context, userID string, admin bool) error {
	profile, err := s.actors.SetAdmin(ctx, userID, admin)
	if err != nil {
		return err
	}
	s.invalidateProfile(ctx, profile.Handle)
	return nil
}

// RequireAdmin returns ErrNotAdmin unless the user carries the admin flag.
func (s *Service) RequireAdmin(ctx context.Context, userID string) error {
	admin, err := s.actors.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAdmin
	}
	return nil
}

func (s *Service) hydrate(ctx context.Context, ids []string) ([]Profile, error) {
	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		p, err := s.actors.Profile(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) cacheProfile(ctx context.Context, p Profile) {
	blob, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.store.Put(ctx, kv.ProfileKey(p.Handle), blob, s.profileTTL); err != nil {
		slog.Warn("profile cache write failed", "handle", p.Handle, "error", err)
	}
}

func (s *Service) invalidateProfile(ctx context.Context, handle string) {
	if err := s.store.Delete(ctx, kv.ProfileKey(handle)); err != nil {
		slog.Warn("profile cache invalidation failed", "handle", handle, "error", err)
	}
}

func page(ids []string, limit, offset int) []string {
	if offset >= len(ids) {
		return nil
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return ids[offset:end]
}
