package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"Wire/internal/core/feeds"
	"Wire/internal/core/ids"
	"Wire/internal/core/users"
	"Wire/internal/kv"
	"Wire/internal/queue"
)

// MaxUserPosts caps the user-posts:{userId} index. Older entries fall off;
// the full history stays reachable through the post records themselves.
const MaxUserPosts = 1000

var mentionPattern = regexp.MustCompile(`@([a-z0-9_]{3,15})`)

// Service coordinates PostActors, the KV post records, fan-out and the
// collaborating user and feed actors. Multi-step writes are not rolled back
// on partial failure: every secondary index is reconstructable from the
// actors and the post records.
type Service struct {
	actors *Client
	users  *users.Client
	feeds  *feeds.Client
	store  kv.Store
	queue  queue.Queue
	ids    *ids.Generator
	search SearchIndexer
	notify Notifier

	maxNoteLength  int
	maxThreadDepth int
}

// NewService creates the post service. maxNoteLength and maxThreadDepth
// fall back to 280 and 10 when non-positive.
func NewService(
	actors *Client,
	userActors *users.Client,
	feedActors *feeds.Client,
	store kv.Store,
	q queue.Queue,
	gen *ids.Generator,
	search SearchIndexer,
	notify Notifier,
	maxNoteLength, maxThreadDepth int,
) *Service {
	if maxNoteLength <= 0 {
		maxNoteLength = 280
	}
	if maxThreadDepth <= 0 {
		maxThreadDepth = 10
	}
	if search == nil {
		search = NopIndexer{}
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Service{
		actors:         actors,
		users:          userActors,
		feeds:          feedActors,
		store:          store,
		queue:          q,
		ids:            gen,
		search:         search,
		notify:         notify,
		maxNoteLength:  maxNoteLength,
		maxThreadDepth: maxThreadDepth,
	}
}

// Actors exposes the typed actor client for collaborating services.
func (s *Service) Actors() *Client { return s.actors }

// Create validates and publishes a new post, reply or quote.
func (s *Service) Create(ctx context.Context, authorID string, req CreateRequest) (*Post, error) {
	if err := s.requireActive(ctx, authorID); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, NewValidationError("content", "content is required")
	}
	if uniseg.GraphemeClusterCount(content) > s.maxNoteLength {
		return nil, NewValidationError("content", fmt.Sprintf("content exceeds %d characters", s.maxNoteLength))
	}
	if req.ReplyToID != "" && req.QuoteOfID != "" {
		return nil, NewValidationError("replyToId", "a post cannot be both a reply and a quote")
	}

	var parent *Post
	if req.ReplyToID != "" {
		var err error
		parent, err = s.visibleRecord(ctx, req.ReplyToID)
		if err != nil {
			return nil, err
		}
		if blocked, err := s.users.IsBlocked(ctx, parent.AuthorID, authorID); err != nil {
			return nil, err
		} else if blocked {
			return nil, users.ErrBlocked
		}
	}
	if req.QuoteOfID != "" {
		if _, err := s.visibleRecord(ctx, req.QuoteOfID); err != nil {
			return nil, err
		}
	}

	profile, err := s.users.Profile(ctx, authorID)
	if err != nil {
		return nil, err
	}
	post := &Post{
		ID:                s.ids.New(),
		AuthorID:          authorID,
		AuthorHandle:      profile.Handle,
		AuthorDisplayName: profile.DisplayName,
		AuthorAvatarURL:   profile.AvatarURL,
		Content:           content,
		MediaURLs:         req.MediaURLs,
		ReplyToID:         req.ReplyToID,
		QuoteOfID:         req.QuoteOfID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.publish(ctx, post); err != nil {
		return nil, err
	}

	if parent != nil {
		if n, err := s.actors.IncrementReplies(ctx, parent.ID); err == nil {
			s.patchRecord(ctx, parent.ID, func(p *Post) { p.ReplyCount = n })
		} else {
			slog.Warn("reply counter update failed", "post", parent.ID, "error", err)
		}
		if err := s.appendList(ctx, kv.RepliesKey(parent.ID), post.ID); err != nil {
			slog.Warn("replies index update failed", "post", parent.ID, "error", err)
		}
		if parent.AuthorID != authorID {
			if err := s.notify.Reply(ctx, parent.AuthorID, post); err != nil {
				slog.Warn("reply notification failed", "recipient", parent.AuthorID, "error", err)
			}
		}
	}
	if req.QuoteOfID != "" {
		if n, err := s.actors.IncrementQuotes(ctx, req.QuoteOfID); err == nil {
			s.patchRecord(ctx, req.QuoteOfID, func(p *Post) { p.QuoteCount = n })
		} else {
			slog.Warn("quote counter update failed", "post", req.QuoteOfID, "error", err)
		}
	}
	s.notifyMentions(ctx, post)

	return post, nil
}

// Repost publishes a repost of target: an empty-content post carrying a
// denormalised snapshot of the original, refreshed from the target author's
// current profile.
func (s *Service) Repost(ctx context.Context, reposterID, targetID string) (*Post, error) {
	if err := s.requireActive(ctx, reposterID); err != nil {
		return nil, err
	}
	target, err := s.visibleRecord(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if blocked, err := s.users.IsBlocked(ctx, target.AuthorID, reposterID); err != nil {
		return nil, err
	} else if blocked {
		return nil, users.ErrBlocked
	}
	if has, err := s.actors.HasReposted(ctx, targetID, reposterID); err != nil {
		return nil, err
	} else if has {
		return nil, ErrAlreadyReposted
	}

	snapshot := *target
	snapshot.OriginalPost = nil
	if origProfile, err := s.users.Profile(ctx, target.AuthorID); err == nil {
		snapshot.AuthorHandle = origProfile.Handle
		snapshot.AuthorDisplayName = origProfile.DisplayName
		snapshot.AuthorAvatarURL = origProfile.AvatarURL
	}

	profile, err := s.users.Profile(ctx, reposterID)
	if err != nil {
		return nil, err
	}
	post := &Post{
		ID:                s.ids.New(),
		AuthorID:          reposterID,
		AuthorHandle:      profile.Handle,
		AuthorDisplayName: profile.DisplayName,
		AuthorAvatarURL:   profile.AvatarURL,
		RepostOfID:        targetID,
		OriginalPost:      &snapshot,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.publish(ctx, post); err != nil {
		return nil, err
	}

	count, err := s.actors.Repost(ctx, targetID, reposterID)
	if err != nil {
		return nil, err
	}
	s.patchRecord(ctx, targetID, func(p *Post) { p.RepostCount = count })

	if target.AuthorID != reposterID {
		if err := s.notify.Repost(ctx, target.AuthorID, post); err != nil {
			slog.Warn("repost notification failed", "recipient", target.AuthorID, "error", err)
		}
	}
	return post, nil
}

// Unrepost removes the user from target's repost set and deletes the
// corresponding repost record. Unreposting a post never reposted is a no-op.
func (s *Service) Unrepost(ctx context.Context, reposterID, targetID string) error {
	if _, err := s.loadRecord(ctx, targetID); err != nil {
		return err
	}
	has, err := s.actors.HasReposted(ctx, targetID, reposterID)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}
	count, err := s.actors.Unrepost(ctx, targetID, reposterID)
	if err != nil {
		return err
	}
	s.patchRecord(ctx, targetID, func(p *Post) { p.RepostCount = count })

	// The repost record is one of the reposter's recent posts.
	for _, id := range s.readList(ctx, kv.UserPostsKey(reposterID)) {
		rec, err := s.loadRecord(ctx, id)
		if err != nil {
			continue
		}
		if rec.RepostOfID == targetID && !rec.IsDeleted {
			return s.remove(ctx, rec)
		}
	}
	return nil
}

// Delete soft-deletes the caller's post.
func (s *Service) Delete(ctx context.Context, authorID, postID string) error {
	rec, err := s.loadRecord(ctx, postID)
	if err != nil {
		return err
	}
	if rec.AuthorID != authorID {
		return ErrNotAuthor
	}
	if rec.IsDeleted {
		return nil
	}
	return s.remove(ctx, rec)
}

// Like adds the user to the post's like set and returns the authoritative
// count.
func (s *Service) Like(ctx context.Context, userID, postID string) (int, error) {
	if _, err := s.visibleRecord(ctx, postID); err != nil {
		return 0, err
	}
	count, err := s.actors.Like(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	if err := s.users.AddLikedPost(ctx, userID, postID); err != nil {
		slog.Warn("liked-posts update failed", "user", userID, "post", postID, "error", err)
	}
	s.patchRecord(ctx, postID, func(p *Post) { p.LikeCount = count })
	return count, nil
}

// Unlike removes the user from the like set.
func (s *Service) Unlike(ctx context.Context, userID, postID string) (int, error) {
	if _, err := s.loadRecord(ctx, postID); err != nil {
		return 0, err
	}
	count, err := s.actors.Unlike(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	if err := s.users.RemoveLikedPost(ctx, userID, postID); err != nil {
		slog.Warn("liked-posts update failed", "user", userID, "post", postID, "error", err)
	}
	s.patchRecord(ctx, postID, func(p *Post) { p.LikeCount = count })
	return count, nil
}

// Get returns the post record with authoritative engagement counts overlaid
// from the actor.
func (s *Service) Get(ctx context.Context, postID string) (*Post, error) {
	rec, err := s.loadRecord(ctx, postID)
	if err != nil {
		return nil, err
	}
	if live, err := s.actors.Get(ctx, postID); err == nil {
		rec.LikeCount = live.LikeCount
		rec.RepostCount = live.RepostCount
		rec.ReplyCount = live.ReplyCount
		rec.QuoteCount = live.QuoteCount
	}
	return rec, nil
}

// Replies pages through the direct replies of a post, oldest first.
func (s *Service) Replies(ctx context.Context, postID string, limit, offset int) ([]*Post, error) {
	if _, err := s.loadRecord(ctx, postID); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, page(s.readList(ctx, kv.RepliesKey(postID)), limit, offset)), nil
}

// Thread returns the post with its ancestor chain (oldest first, bounded by
// the thread depth) and its direct replies.
func (s *Service) Thread(ctx context.Context, postID string) (*Thread, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	var ancestors []*Post
	cursor := post.ReplyToID
	for depth := 0; cursor != "" && depth < s.maxThreadDepth; depth++ {
		parent, err := s.loadRecord(ctx, cursor)
		if err != nil {
			break
		}
		ancestors = append([]*Post{parent}, ancestors...)
		cursor = parent.ReplyToID
	}

	replies := s.hydrate(ctx, s.readList(ctx, kv.RepliesKey(postID)))
	if replies == nil {
		replies = []*Post{}
	}
	if ancestors == nil {
		ancestors = []*Post{}
	}
	return &Thread{Ancestors: ancestors, Post: post, Replies: replies}, nil
}

// UserPosts pages through a user's recent posts, newest first.
func (s *Service) UserPosts(ctx context.Context, userID string, limit, offset int) ([]*Post, error) {
	return s.hydrate(ctx, page(s.readList(ctx, kv.UserPostsKey(userID)), limit, offset)), nil
}

// TakeDown hides a post by moderator action and pulls it from feeds.
func (s *Service) TakeDown(ctx context.Context, postID, reason string) error {
	rec, err := s.loadRecord(ctx, postID)
	if err != nil {
		return err
	}
	if rec.IsTakenDown {
		return nil
	}
	now := time.Now().UTC()
	rec.IsTakenDown = true
	rec.TakenDownAt = &now
	rec.TakenDownReason = reason
	if err := s.writeRecord(ctx, rec); err != nil {
		return err
	}
	s.enqueue(ctx, Event{Type: EventDeletePost, PostID: rec.ID, AuthorID: rec.AuthorID, Timestamp: now})
	if err := s.search.Remove(ctx, rec.ID); err != nil {
		slog.Warn("search deindex failed", "post", rec.ID, "error", err)
	}
	return nil
}

// Restore reverses a takedown.
func (s *Service) Restore(ctx context.Context, postID string) error {
	rec, err := s.loadRecord(ctx, postID)
	if err != nil {
		return err
	}
	if !rec.IsTakenDown {
		return nil
	}
	rec.IsTakenDown = false
	rec.TakenDownAt = nil
	rec.TakenDownReason = ""
	return s.writeRecord(ctx, rec)
}

// publish runs the shared creation side-effects: actor init, KV record,
// user-posts index, search, own feed, fan-out and the post counter.
func (s *Service) publish(ctx context.Context, post *Post) error {
	if err := s.actors.Initialize(ctx, post.ID, *post); err != nil {
		return err
	}
	if err := s.writeRecord(ctx, post); err != nil {
		return err
	}
	if err := s.prependList(ctx, kv.UserPostsKey(post.AuthorID), post.ID, MaxUserPosts); err != nil {
		slog.Warn("user-posts index update failed", "user", post.AuthorID, "error", err)
	}
	if err := s.search.Index(ctx, post); err != nil {
		slog.Warn("search index failed", "post", post.ID, "error", err)
	}
	err := s.feeds.AddEntry(ctx, post.AuthorID, feeds.Entry{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Timestamp: post.CreatedAt,
		Source:    feeds.SourceOwn,
	})
	if err != nil {
		slog.Warn("own feed append failed", "user", post.AuthorID, "post", post.ID, "error", err)
	}
	s.enqueue(ctx, Event{Type: EventNewPost, PostID: post.ID, AuthorID: post.AuthorID, Timestamp: post.CreatedAt})
	if _, err := s.users.IncrementPosts(ctx, post.AuthorID); err != nil {
		slog.Warn("post count increment failed", "user", post.AuthorID, "error", err)
	}
	return nil
}

// remove soft-deletes a post record and undoes its visible side-effects.
func (s *Service) remove(ctx context.Context, rec *Post) error {
	if err := s.actors.Delete(ctx, rec.ID); err != nil && err != ErrNotFound {
		return err
	}
	now := time.Now().UTC()
	rec.IsDeleted = true
	rec.DeletedAt = &now
	rec.LikeCount = 0
	rec.ReplyCount = 0
	rec.RepostCount = 0
	rec.QuoteCount = 0
	if err := s.writeRecord(ctx, rec); err != nil {
		return err
	}
	s.enqueue(ctx, Event{Type: EventDeletePost, PostID: rec.ID, AuthorID: rec.AuthorID, Timestamp: now})
	if _, err := s.users.DecrementPosts(ctx, rec.AuthorID); err != nil {
		slog.Warn("post count decrement failed", "user", rec.AuthorID, "error", err)
	}
	if err := s.search.Remove(ctx, rec.ID); err != nil {
		slog.Warn("search deindex failed", "post", rec.ID, "error", err)
	}
	return nil
}

// requireActive rejects banned authors.
func (s *Service) requireActive(ctx context.Context, userID string) error {
	banned, err := s.users.IsBanned(ctx, userID)
	if err != nil {
		return err
	}
	if banned {
		return users.ErrBanned
	}
	return nil
}

// visibleRecord loads a record, rejecting deleted and taken-down posts.
func (s *Service) visibleRecord(ctx context.Context, postID string) (*Post, error) {
	rec, err := s.loadRecord(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !rec.Visible() {
		return nil, ErrDeleted
	}
	return rec, nil
}

func (s *Service) loadRecord(ctx context.Context, postID string) (*Post, error) {
	blob, err := s.store.Get(ctx, kv.PostKey(postID))
	if err == kv.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %s: %w", postID, err)
	}
	var rec Post
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("malformed post record %s: %w", postID, err)
	}
	return &rec, nil
}

func (s *Service) writeRecord(ctx context.Context, rec *Post) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, kv.PostKey(rec.ID), blob, 0)
}

// patchRecord applies a mutation to the cached record. Counter writes always
// go through here with the actor-returned value, never an increment on the
// cached one.
func (s *Service) patchRecord(ctx context.Context, postID string, mutate func(*Post)) {
	rec, err := s.loadRecord(ctx, postID)
	if err != nil {
		slog.Warn("post record patch failed", "post", postID, "error", err)
		return
	}
	mutate(rec)
	if err := s.writeRecord(ctx, rec); err != nil {
		slog.Warn("post record patch failed", "post", postID, "error", err)
	}
}

func (s *Service) readList(ctx context.Context, key string) []string {
	blob, err := s.store.Get(ctx, key)
	if err != nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(blob, &ids); err != nil {
		return nil
	}
	return ids
}

func (s *Service) writeList(ctx context.Context, key string, ids []string) error {
	blob, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, key, blob, 0)
}

func (s *Service) prependList(ctx context.Context, key, id string, bound int) error {
	ids := s.readList(ctx, key)
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append([]string{id}, ids...)
	if bound > 0 && len(ids) > bound {
		ids = ids[:bound]
	}
	return s.writeList(ctx, key, ids)
}

func (s *Service) appendList(ctx context.Context, key, id string) error {
	ids := s.readList(ctx, key)
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return s.writeList(ctx, key, append(ids, id))
}

func (s *Service) enqueue(ctx context.Context, ev Event) {
	blob, err := ev.Encode()
	if err != nil {
		slog.Error("fan-out event encode failed", "post", ev.PostID, "error", err)
		return
	}
	if err := s.queue.Send(ctx, blob); err != nil {
		slog.Error("fan-out enqueue failed", "post", ev.PostID, "type", ev.Type, "error", err)
	}
}

// notifyMentions extracts @handle references and notifies each mentioned
// user once, skipping self-mentions.
func (s *Service) notifyMentions(ctx context.Context, post *Post) {
	seen := map[string]bool{strings.ToLower(post.AuthorHandle): true}
	for _, m := range mentionPattern.FindAllStringSubmatch(strings.ToLower(post.Content), -1) {
		handle := m[1]
		if seen[handle] {
			continue
		}
		seen[handle] = true
		if err := s.notify.Mention(ctx, handle, post); err != nil {
			slog.Warn("mention notification failed", "handle", handle, "error", err)
		}
	}
}

// hydrate loads records for ids, dropping missing and invisible posts.
func (s *Service) hydrate(ctx context.Context, ids []string) []*Post {
	out := make([]*Post, 0, len(ids))
	for _, id := range ids {
		rec, err := s.loadRecord(ctx, id)
		if err != nil || !rec.Visible() {
			continue
		}
		out = append(out, rec)
	}
	return out
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
