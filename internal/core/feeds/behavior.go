package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Wire/internal/actor"
	"Wire/internal/kv"
)

// Namespace is the actor namespace for feeds. Each user has one feed actor
// named by their user id.
const Namespace = "feed"

// maxWindow bounds a single page regardless of the requested limit.
const maxWindow = 200

// postRecord is the slice of the post schema the feed filter needs. Records
// are owned by the post service; this actor only reads them.
type postRecord struct {
	AuthorID    string `json:"authorId"`
	Content     string `json:"content"`
	IsDeleted   bool   `json:"isDeleted"`
	IsTakenDown bool   `json:"isTakenDown"`
}

// Behavior implements the FeedActor: a bounded newest-first timeline with
// filtered pagination.
type Behavior struct {
	store      kv.Store
	maxEntries int
}

// NewBehavior creates the feed behavior. maxEntries <= 0 uses
// MaxFeedEntries.
func NewBehavior(store kv.Store, maxEntries int) Behavior {
	if maxEntries <= 0 {
		maxEntries = MaxFeedEntries
	}
	return Behavior{store: store, maxEntries: maxEntries}
}

func (Behavior) NewState() any { return &State{} }

// Initialize creates an empty feed. The body is ignored.
func (Behavior) Initialize(_ context.Context, _ string, _ []byte) (any, error) {
	return &State{Entries: []Entry{}}, nil
}

func (b Behavior) Handle(ctx context.Context, name string, state any, path string, body []byte) ([]byte, bool, error) {
	st := state.(*State)

	switch path {
	case "add-entry":
		var req AddEntryRequest
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		return nil, b.addEntry(st, req.Entry), nil

	case "remove-entry":
		var req RemoveEntryRequest
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		return nil, removeEntry(st, req.PostID), nil

	case "feed":
		var req FeedRequest
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		resp, err := b.window(ctx, name, st, req, false)
		if err != nil {
			return nil, false, err
		}
		blob, err := actor.Encode(FeedResponse{
			Entries: entriesOf(resp.Items),
			Cursor:  resp.Cursor,
			HasMore: resp.HasMore,
		})
		return blob, false, err

	case "feed-with-posts":
		var req FeedRequest
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		resp, err := b.window(ctx, name, st, req, true)
		if err != nil {
			return nil, false, err
		}
		blob, err := actor.Encode(resp)
		return blob, false, err

	case "count":
		blob, err := actor.Encode(len(st.Entries))
		return blob, false, err

	case "clear":
		mutated := len(st.Entries) > 0
		st.Entries = []Entry{}
		return nil, mutated, nil

	case "prune":
		var req PruneRequest
		if err := actor.Decode(body, &req); err != nil {
			return nil, false, err
		}
		kept := st.Entries[:0]
		for _, e := range st.Entries {
			if !e.Timestamp.Before(req.Before) {
				kept = append(kept, e)
			}
		}
		removed := len(st.Entries) - len(kept)
		st.Entries = kept
		blob, err := actor.Encode(removed)
		return blob, removed > 0, err

	default:
		return nil, false, fmt.Errorf("%w: feed/%s", actor.ErrUnknownPath, path)
	}
}

// addEntry prepends, deduplicating by post id and truncating the tail.
func (b Behavior) addEntry(st *State, e Entry) bool {
	for _, existing := range st.Entries {
		if existing.PostID == e.PostID {
			return false
		}
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	st.Entries = append([]Entry{e}, st.Entries...)
	if len(st.Entries) > b.maxEntries {
		st.Entries = st.Entries[:b.maxEntries]
	}
	return true
}

func removeEntry(st *State, postID string) bool {
	for i, e := range st.Entries {
		if e.PostID == postID {
			st.Entries = append(st.Entries[:i], st.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// window walks entries newest-first, applies the request filters and
// returns one page of the filtered list. Entries whose post record cannot
// be read are dropped rather than shown unfiltered.
func (b Behavior) window(ctx context.Context, viewerID string, st *State, req FeedRequest, join bool) (JoinedResponse, error) {
	offset, err := decodeCursor(req.Cursor)
	if err != nil {
		return JoinedResponse{}, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxWindow {
		limit = maxWindow
	}

	blocked := make(map[string]bool, len(req.Blocked))
	for _, id := range req.Blocked {
		blocked[id] = true
	}
	following := make(map[string]bool, len(req.Following))
	for _, id := range req.Following {
		following[id] = true
	}
	needPosts := join || len(req.Muted) > 0

	want := offset + limit + 1 // one extra to learn hasMore
	filtered := make([]JoinedItem, 0, limit)

	for _, e := range st.Entries {
		if blocked[e.AuthorID] {
			continue
		}
		item := JoinedItem{Entry: e}
		if needPosts {
			blob, err := b.store.Get(ctx, kv.PostKey(e.PostID))
			if err != nil {
				// Fail closed: an unreadable post is dropped.
				continue
			}
			var rec postRecord
			if err := json.Unmarshal(blob, &rec); err != nil {
				continue
			}
			if rec.IsDeleted || rec.IsTakenDown {
				continue
			}
			words := EffectiveWords(req.Muted, e.AuthorID, viewerID, following)
			if ContentMatchesAny(rec.Content, words) {
				continue
			}
			if join {
				item.Post = blob
			}
		}
		filtered = append(filtered, item)
		if len(filtered) == want {
			break
		}
	}

	if offset >= len(filtered) {
		return JoinedResponse{Items: []JoinedItem{}, HasMore: false}, nil
	}
	end := offset + limit
	hasMore := len(filtered) > end
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[offset:end]

	resp := JoinedResponse{Items: page, HasMore: hasMore}
	if hasMore {
		resp.Cursor = encodeCursor(end)
	}
	return resp, nil
}

func entriesOf(items []JoinedItem) []Entry {
	out := make([]Entry, len(items))
	for i, it := range items {
		out[i] = it.Entry
	}
	return out
}
