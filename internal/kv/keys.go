package kv

// Key builders for the persisted KV layout. All keys are plain strings;
// values are JSON blobs owned by the service that writes them.

const (
	PrefixUser      = "user:"
	PrefixHandle    = "handle:"
	PrefixEmail     = "email:"
	PrefixProfile   = "profile:"
	PrefixPost      = "post:"
	PrefixUserPosts = "user-posts:"
	PrefixReplies   = "replies:"
	PrefixFeed      = "feed:"
	PrefixRateLimit = "rl:"
	PrefixActor     = "actor:"

	KeyFofRanked     = "fof:ranked"
	KeyExploreRanked = "explore:ranked"
)

func UserKey(id string) string          { return PrefixUser + id }
func HandleKey(handle string) string    { return PrefixHandle + handle }
func EmailKey(email string) string      { return PrefixEmail + email }
func ProfileKey(handle string) string   { return PrefixProfile + handle }
func PostKey(id string) string          { return PrefixPost + id }
func UserPostsKey(userID string) string { return PrefixUserPosts + userID }
func RepliesKey(postID string) string   { return PrefixReplies + postID }
func FeedKey(userID string) string      { return PrefixFeed + userID }
func ResetTokenKey(token string) string { return "reset-token:" + token }
func ResetUserKey(userID string) string { return "reset:" + userID }
func RateLimitKey(bucket, id string) string {
	return PrefixRateLimit + bucket + ":" + id
}

// ActorKey is the durable state key for a named actor.
func ActorKey(namespace, name string) string {
	return PrefixActor + namespace + ":" + name
}
