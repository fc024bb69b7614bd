package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Wire/internal/core/feeds"
	"Wire/internal/core/ids"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
	"Wire/internal/kv"
)

// ErrInvalidCredentials is returned for both unknown email and wrong
// password, so login can't be used to probe for accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidResetToken is returned for unknown or expired reset tokens.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// Seed auto-follow caps protecting the fan-out path at signup.
const (
	maxSeedUsers    = 20
	maxSeedBackfill = 10

	resetTokenTTL = 15 * time.Minute
)

// Session is a logged-in user: the bearer token and the profile behind it.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      users.Profile `json:"user"`
}

// ResetMailer delivers password reset tokens. Mail is an external system.
type ResetMailer interface {
	SendReset(ctx context.Context, email, token string) error
}

// NopMailer drops reset mail. Used when no mailer is configured.
type NopMailer struct{}

func (NopMailer) SendReset(context.Context, string, string) error { return nil }

// Service implements accounts over the KV credential records and the user
// actors.
type Service struct {
	users  *users.Service
	posts  *posts.Service
	feeds  *feeds.Client
	store  kv.Store
	tokens *TokenManager
	ids    *ids.Generator
	mailer ResetMailer

	initialAdminHandle string
	seedHandles        []string
}

// NewService creates the auth service. seedHandles are followed
// automatically at signup; initialAdminHandle grants the admin flag to the
// matching signup.
func NewService(
	userSvc *users.Service,
	postSvc *posts.Service,
	feedActors *feeds.Client,
	store kv.Store,
	tokens *TokenManager,
	gen *ids.Generator,
	mailer ResetMailer,
	initialAdminHandle string,
	seedHandles []string,
) *Service {
	if mailer == nil {
		mailer = NopMailer{}
	}
	if len(seedHandles) > maxSeedUsers {
		seedHandles = seedHandles[:maxSeedUsers]
	}
	return &Service{
		users:              userSvc,
		posts:              postSvc,
		feeds:              feedActors,
		store:              store,
		tokens:             tokens,
		ids:                gen,
		mailer:             mailer,
		initialAdminHandle: users.NormalizeHandle(initialAdminHandle),
		seedHandles:        seedHandles,
	}
}

// Signup registers an account, creates its actor and feed, and returns a
// live session.
func (s *Service) Signup(ctx context.Context, email, password, handle string) (*Session, error) {
	handle = users.NormalizeHandle(handle)
	email = users.NormalizeEmail(email)
	if err := users.ValidateHandle(handle); err != nil {
		return nil, err
	}
	if err := users.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if _, err := s.store.Get(ctx, kv.HandleKey(handle)); err == nil {
		return nil, users.ErrHandleTaken
	}
	if _, err := s.store.Get(ctx, kv.EmailKey(email)); err == nil {
		return nil, users.ErrEmailTaken
	}

	salt, err := newSalt()
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password, salt)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := users.User{
		ID:           s.ids.New(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := s.writeUser(ctx, &user); err != nil {
		return nil, err
	}
	if err := s.writeIndex(ctx, kv.HandleKey(handle), user.ID, 0); err != nil {
		return nil, err
	}
	if err := s.writeIndex(ctx, kv.EmailKey(email), user.ID, 0); err != nil {
		return nil, err
	}

	profile := users.Profile{Handle: handle, DisplayName: handle, JoinedAt: now}
	if err := s.users.Actors().Initialize(ctx, user.ID, profile, users.Settings{}); err != nil {
		return nil, err
	}
	if err := s.feeds.Initialize(ctx, user.ID); err != nil {
		slog.Warn("feed init failed at signup", "user", user.ID, "error", err)
	}
	if handle == s.initialAdminHandle && s.initialAdminHandle != "" {
		if err := s.users.SetAdmin(ctx, user.ID, true); err != nil {
			slog.Warn("initial admin grant failed", "user", user.ID, "error", err)
		}
	}
	s.followSeeds(ctx, user.ID, handle)

	return s.session(ctx, &user)
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = users.NormalizeEmail(email)
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(user.PasswordHash, password, user.Salt) {
		return nil, ErrInvalidCredentials
	}
	if banned, err := s.users.Actors().IsBanned(ctx, user.ID); err != nil {
		return nil, err
	} else if banned {
		return nil, users.ErrBanned
	}

	user.LastLogin = time.Now().UTC()
	if err := s.writeUser(ctx, user); err != nil {
		slog.Warn("last-login update failed", "user", user.ID, "error", err)
	}
	return s.session(ctx, user)
}

// Refresh exchanges a valid token for a fresh one.
func (s *Service) Refresh(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if banned, err := s.users.Actors().IsBanned(ctx, user.ID); err != nil {
		return nil, err
	} else if banned {
		return nil, users.ErrBanned
	}
	return s.session(ctx, user)
}

// Me returns the profile behind a user id.
func (s *Service) Me(ctx context.Context, userID string) (users.Profile, error) {
	return s.users.GetProfile(ctx, userID)
}

// RequestReset mints a reset token for the address if an account exists.
// The response is identical either way; the token only leaves through the
// mailer.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	email = users.NormalizeEmail(email)
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil
	}

	// A newer request invalidates the previous token.
	if blob, err := s.store.Get(ctx, kv.ResetUserKey(user.ID)); err == nil {
		var old string
		if json.Unmarshal(blob, &old) == nil {
			_ = s.store.Delete(ctx, kv.ResetTokenKey(old))
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	if err := s.writeIndex(ctx, kv.ResetTokenKey(token), user.ID, resetTokenTTL); err != nil {
		return err
	}
	if err := s.writeIndex(ctx, kv.ResetUserKey(user.ID), token, resetTokenTTL); err != nil {
		return err
	}
	if err := s.mailer.SendReset(ctx, email, token); err != nil {
		slog.Error("reset mail delivery failed", "user", user.ID, "error", err)
	}
	return nil
}

// ConfirmReset sets a new password for the token's account and burns the
// token.
func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	blob, err := s.store.Get(ctx, kv.ResetTokenKey(token))
	if err != nil {
		return ErrInvalidResetToken
	}
	var userID string
	if err := json.Unmarshal(blob, &userID); err != nil {
		return ErrInvalidResetToken
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return ErrInvalidResetToken
	}

	salt, err := newSalt()
	if err != nil {
		return err
	}
	hash, err := hashPassword(newPassword, salt)
	if err != nil {
		return err
	}
	user.Salt = salt
	user.PasswordHash = hash
	if err := s.writeUser(ctx, user); err != nil {
		return err
	}
	_ = s.store.Delete(ctx, kv.ResetTokenKey(token))
	_ = s.store.Delete(ctx, kv.ResetUserKey(userID))
	return nil
}

// followSeeds auto-follows the configured seed accounts and backfills a few
// of their recent posts so a new feed isn't empty.
func (s *Service) followSeeds(ctx context.Context, userID, ownHandle string) {
	for _, seedHandle := range s.seedHandles {
		seedHandle = users.NormalizeHandle(seedHandle)
		if seedHandle == ownHandle {
			continue
		}
		seedID, err := s.users.ResolveHandle(ctx, seedHandle)
		if err != nil {
			continue
		}
		if err := s.users.Follow(ctx, userID, seedID); err != nil {
			slog.Warn("seed follow failed", "seed", seedHandle, "error", err)
			continue
		}
		recent, err := s.posts.UserPosts(ctx, seedID, maxSeedBackfill, 0)
		if err != nil {
			continue
		}
		for _, p := range recent {
			err := s.feeds.AddEntry(ctx, userID, feeds.Entry{
				PostID:    p.ID,
				AuthorID:  p.AuthorID,
				Timestamp: p.CreatedAt,
				Source:    feeds.SourceFollow,
			})
			if err != nil {
				slog.Warn("seed backfill failed", "seed", seedHandle, "error", err)
				break
			}
		}
	}
}

func (s *Service) session(ctx context.Context, user *users.User) (*Session, error) {
	token, expires, err := s.tokens.Generate(user.ID, user.Email, user.Handle)
	if err != nil {
		return nil, err
	}
	profile, err := s.users.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: profile}, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*users.User, error) {
	blob, err := s.store.Get(ctx, kv.EmailKey(email))
	if err != nil {
		return nil, users.ErrNotFound
	}
	var userID string
	if err := json.Unmarshal(blob, &userID); err != nil {
		return nil, users.ErrNotFound
	}
	return s.loadUser(ctx, userID)
}

func (s *Service) loadUser(ctx context.Context, userID string) (*users.User, error) {
	blob, err := s.store.Get(ctx, kv.UserKey(userID))
	if err != nil {
		return nil, users.ErrNotFound
	}
	var user users.User
	if err := json.Unmarshal(blob, &user); err != nil {
		return nil, fmt.Errorf("malformed user record %s: %w", userID, err)
	}
	return &user, nil
}

func (s *Service) writeUser(ctx context.Context, user *users.User) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, kv.UserKey(user.ID), blob, 0)
}

func (s *Service) writeIndex(ctx context.Context, key, value string, ttl time.Duration) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, key, blob, ttl)
}
