package posts

import (
	"context"
	"fmt"
	"time"

	"Wire/internal/actor"
	"Wire/internal/core/orderedset"
	"Wire/internal/core/users"
)

// Namespace is the actor namespace for posts.
const Namespace = "post"

// State is the PostActor's durable state. The like and repost sets are the
// authoritative engagement record; the KV post record only caches their
// sizes.
type State struct {
	Post       Post            `json:"post"`
	LikedBy    *orderedset.Set `json:"likedBy"`
	RepostedBy *orderedset.Set `json:"repostedBy"`
}

// InitializeRequest seeds a new PostActor.
type InitializeRequest struct {
	Post Post `json:"post"`
}

// Behavior implements the PostActor: per-post engagement and the deletion
// flag.
type Behavior struct{}

// NewBehavior creates the post behavior.
func NewBehavior() Behavior { return Behavior{} }

func (Behavior) NewState() any { return &State{} }

func (Behavior) Initialize(_ context.Context, name string, body []byte) (any, error) {
	var req InitializeRequest
	if err := actor.Decode(body, &req); err != nil {
		return nil, err
	}
	st := &State{
		Post:       req.Post,
		LikedBy:    orderedset.New(),
		RepostedBy: orderedset.New(),
	}
	st.Post.ID = name
	st.Post.LikeCount = 0
	st.Post.RepostCount = 0
	return st, nil
}

func (b Behavior) Handle(_ context.Context, _ string, state any, path string, body []byte) ([]byte, bool, error) {
	st := state.(*State)

	switch path {
	case "get":
		view := st.Post
		view.LikeCount = st.LikedBy.Len()
		view.RepostCount = st.RepostedBy.Len()
		return respond(view, false)

	case "like":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			if st.Post.IsDeleted {
				return nil, false, ErrDeleted
			}
			changed := st.LikedBy.Add(userID)
			return respond(users.CountResult{Count: st.LikedBy.Len()}, changed)
		})

	case "unlike":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			changed := st.LikedBy.Remove(userID)
			return respond(users.CountResult{Count: st.LikedBy.Len()}, changed)
		})

	case "has-liked":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			return respond(users.BoolResult{Value: st.LikedBy.Has(userID)}, false)
		})

	case "repost":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			if st.Post.IsDeleted {
				return nil, false, ErrDeleted
			}
			changed := st.RepostedBy.Add(userID)
			return respond(users.CountResult{Count: st.RepostedBy.Len()}, changed)
		})

	case "unrepost":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			changed := st.RepostedBy.Remove(userID)
			return respond(users.CountResult{Count: st.RepostedBy.Len()}, changed)
		})

	case "has-reposted":
		return b.withUser(body, func(userID string) ([]byte, bool, error) {
			return respond(users.BoolResult{Value: st.RepostedBy.Has(userID)}, false)
		})

	case "replies/increment":
		if st.Post.IsDeleted {
			return nil, false, ErrDeleted
		}
		st.Post.ReplyCount++
		return respond(users.CountResult{Count: st.Post.ReplyCount}, true)

	case "quotes/increment":
		if st.Post.IsDeleted {
			return nil, false, ErrDeleted
		}
		st.Post.QuoteCount++
		return respond(users.CountResult{Count: st.Post.QuoteCount}, true)

	case "delete":
		if st.Post.IsDeleted {
			return nil, false, nil
		}
		now := time.Now().UTC()
		st.Post.IsDeleted = true
		st.Post.DeletedAt = &now
		st.Post.ReplyCount = 0
		st.Post.QuoteCount = 0
		st.LikedBy = orderedset.New()
		st.RepostedBy = orderedset.New()
		return nil, true, nil

	default:
		return nil, false, fmt.Errorf("%w: post/%s", actor.ErrUnknownPath, path)
	}
}

func (Behavior) withUser(body []byte, fn func(userID string) ([]byte, bool, error)) ([]byte, bool, error) {
	var req users.UserRef
	if err := actor.Decode(body, &req); err != nil {
		return nil, false, err
	}
	if req.UserID == "" {
		return nil, false, NewValidationError("userId", "userId is required")
	}
	return fn(req.UserID)
}

func respond(v any, mutated bool) ([]byte, bool, error) {
	blob, err := actor.Encode(v)
	return blob, mutated, err
}
