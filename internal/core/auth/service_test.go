package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/actor"
	"Wire/internal/core/feeds"
	"Wire/internal/core/ids"
	"Wire/internal/core/posts"
	"Wire/internal/core/users"
	"Wire/internal/kv/memkv"
	"Wire/internal/queue/memqueue"
)

type captureMailer struct {
	emails []string
	tokens []string
}

func (m *captureMailer) SendReset(_ context.Context, email, token string) error {
	m.emails = append(m.emails, email)
	m.tokens = append(m.tokens, token)
	return nil
}

type fixture struct {
	svc    *Service
	users  *users.Service
	posts  *posts.Service
	feeds  *feeds.Client
	tokens *TokenManager
	mailer *captureMailer
}

func newFixture(t *testing.T, seedHandles ...string) *fixture {
	t.Helper()
	store := memkv.New()
	sys := actor.NewSystem(store, 0)
	sys.Register(users.Namespace, users.NewBehavior())
	sys.Register(feeds.Namespace, feeds.NewBehavior(store, 0))
	sys.Register(posts.Namespace, posts.NewBehavior())

	gen, err := ids.NewGenerator(1)
	require.NoError(t, err)

	f := &fixture{
		users:  users.NewService(users.NewClient(sys), store, time.Hour),
		feeds:  feeds.NewClient(sys),
		tokens: NewTokenManager("test-secret", time.Hour),
		mailer: &captureMailer{},
	}
	f.posts = posts.NewService(posts.NewClient(sys), f.users.Actors(), f.feeds, store, memqueue.New(256), gen, nil, nil, 280, 10)
	f.svc = NewService(f.users, f.posts, f.feeds, store, f.tokens, gen, f.mailer, "admin_user", seedHandles)
	return f
}

func TestSignupCreatesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.svc.Signup(ctx, "A@B.com", "TestPass123!", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, "alice", sess.User.Handle, "handle normalized")

	claims, err := f.tokens.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "alice", claims.Handle)

	me, err := f.svc.Me(ctx, claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Handle)
}

func TestSignupUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)

	_, err = f.svc.Signup(ctx, "other@b.com", "TestPass123!", "ALICE")
	assert.ErrorIs(t, err, users.ErrHandleTaken, "handles are case-insensitive")

	_, err = f.svc.Signup(ctx, "a@b.com", "TestPass123!", "bob")
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "x")
	assert.True(t, users.IsValidationError(err), "short handle")

	_, err = f.svc.Signup(ctx, "not-an-email", "TestPass123!", "alice")
	assert.True(t, users.IsValidationError(err), "bad email")

	_, err = f.svc.Signup(ctx, "a@b.com", "short", "alice")
	assert.True(t, users.IsValidationError(err), "short password")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)

	sess, err := f.svc.Login(ctx, "a@b.com", "TestPass123!")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Handle)

	_, err = f.svc.Login(ctx, "a@b.com", "WrongPass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@b.com", "TestPass123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email indistinguishable from bad password")
}

func TestLoginBanned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)
	require.NoError(t, f.users.Ban(ctx, sess.User.ID, "abuse"))

	_, err = f.svc.Login(ctx, "a@b.com", "TestPass123!")
	assert.ErrorIs(t, err, users.ErrBanned)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)

	fresh, err := f.svc.Refresh(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, fresh.User.ID)

	_, err = f.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestReset(ctx, "a@b.com"))
	require.Len(t, f.mailer.tokens, 1)
	token := f.mailer.tokens[0]

	require.NoError(t, f.svc.ConfirmReset(ctx, token, "NewPass456!"))

	_, err = f.svc.Login(ctx, "a@b.com", "TestPass123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old password rejected")
	_, err = f.svc.Login(ctx, "a@b.com", "NewPass456!")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.ConfirmReset(ctx, token, "Another789!"), ErrInvalidResetToken, "token burned")
}

func TestResetUnknownEmailIsSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.RequestReset(ctx, "nobody@b.com"))
	assert.Empty(t, f.mailer.tokens, "no token minted for unknown accounts")
}

func TestResetSupersedesPreviousToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestReset(ctx, "a@b.com"))
	require.NoError(t, f.svc.RequestReset(ctx, "a@b.com"))
	require.Len(t, f.mailer.tokens, 2)

	assert.ErrorIs(t, f.svc.ConfirmReset(ctx, f.mailer.tokens[0], "NewPass456!"), ErrInvalidResetToken)
	assert.NoError(t, f.svc.ConfirmReset(ctx, f.mailer.tokens[1], "NewPass456!"))
}

func TestInitialAdminGrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.svc.Signup(ctx, "root@b.com", "TestPass123!", "admin_user")
	require.NoError(t, err)
	admin, err := f.users.Actors().IsAdmin(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.True(t, admin)

	other, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)
	admin, err = f.users.Actors().IsAdmin(ctx, other.User.ID)
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestSeedAutoFollowWithBackfill(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "seed")

	seedSess, err := f.svc.Signup(ctx, "seed@b.com", "TestPass123!", "seed")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.posts.Create(ctx, seedSess.User.ID, posts.CreateRequest{Content: "welcome aboard"})
		require.NoError(t, err)
	}

	sess, err := f.svc.Signup(ctx, "a@b.com", "TestPass123!", "alice")
	require.NoError(t, err)

	following, err := f.users.Actors().Following(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Contains(t, following, seedSess.User.ID)

	feed, err := f.feeds.Feed(ctx, sess.User.ID, feeds.FeedRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, feed.Entries, 3, "seed posts backfilled")
	for _, e := range feed.Entries {
		assert.Equal(t, feeds.SourceFollow, e.Source)
	}
}
