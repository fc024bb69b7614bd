package feeds

import (
	"encoding/json"
	"time"

	"Wire/internal/core/users"
)

// Entry sources.
const (
	SourceOwn    = "own"
	SourceFollow = "follow"
	SourceFof    = "fof"
)

// MaxFeedEntries bounds a timeline; older entries fall off the tail.
const MaxFeedEntries = 1000

// Entry is one timeline slot. Entries are unique by PostID and ordered
// newest-first.
type Entry struct {
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// State is the FeedActor's durable state.
type State struct {
	Entries []Entry `json:"entries"`
}

// FeedRequest is the body of the feed and feed-with-posts paths. Blocked,
// Muted and Following come from the caller's user context; the actor applies
// them so one call returns a ready window.
type FeedRequest struct {
	Cursor    string            `json:"cursor,omitempty"`
	Limit     int               `json:"limit"`
	Blocked   []string          `json:"blocked,omitempty"`
	Muted     []users.MutedWord `json:"muted,omitempty"`
	Following []string          `json:"following,omitempty"`
}

// FeedResponse is a window of entries.
type FeedResponse struct {
	Entries []Entry `json:"entries"`
	Cursor  string  `json:"cursor,omitempty"`
	HasMore bool    `json:"hasMore"`
}

// JoinedItem pairs an entry with its post record, kept as raw JSON so this
// package does not depend on the post schema.
type JoinedItem struct {
	Entry Entry           `json:"entry"`
	Post  json.RawMessage `json:"post"`
}

// JoinedResponse is a window of entries joined with post snapshots.
type JoinedResponse struct {
	Items   []JoinedItem `json:"items"`
	Cursor  string       `json:"cursor,omitempty"`
	HasMore bool         `json:"hasMore"`
}

// AddEntryRequest wraps add-entry's body.
type AddEntryRequest struct {
	Entry Entry `json:"entry"`
}

// RemoveEntryRequest wraps remove-entry's body.
type RemoveEntryRequest struct {
	PostID string `json:"postId"`
}

// PruneRequest drops entries older than Before.
type PruneRequest struct {
	Before time.Time `json:"before"`
}
