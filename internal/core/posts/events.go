package posts

import (
	"encoding/json"
	"time"
)

// Fan-out event types.
const (
	EventNewPost    = "new_post"
	EventDeletePost = "delete_post"
)

// Event is the queue message distributing a post to follower timelines.
// Delivery is at-least-once, so consumers must treat it idempotently.
type Event struct {
	Type      string    `json:"type"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Timestamp time.Time `json:"timestamp"`
}

// Encode marshals the event for the queue.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses a queue message.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
