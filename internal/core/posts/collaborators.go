package posts

import "context"

// SearchIndexer receives post content for full-text search. Search itself is
// an external system; the core only feeds it.
type SearchIndexer interface {
	Index(ctx context.Context, post *Post) error
	Remove(ctx context.Context, postID string) error
}

// Notifier delivers engagement notifications. Delivery is best-effort and
// never blocks post creation.
type Notifier interface {
	Reply(ctx context.Context, recipientID string, post *Post) error
	Repost(ctx context.Context, recipientID string, post *Post) error
	Mention(ctx context.Context, handle string, post *Post) error
}

// NopIndexer discards all index calls.
type NopIndexer struct{}

func (NopIndexer) Index(context.Context, *Post) error   { return nil }
func (NopIndexer) Remove(context.Context, string) error { return nil }

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Reply(context.Context, string, *Post) error   { return nil }
func (NopNotifier) Repost(context.Context, string, *Post) error  { return nil }
func (NopNotifier) Mention(context.Context, string, *Post) error { return nil }
