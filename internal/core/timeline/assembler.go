package timeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"Wire/internal/core/feeds"
	"Wire/internal/core/posts"
	"Wire/internal/core/ranking"
	"Wire/internal/core/users"
	"Wire/internal/kv"
)

const backfillFollowees = 8

// Service assembles feeds for one viewer at a time. It has no state of its
// own; everything comes from the actors, the rankings blob and the KV post
// records.
type Service struct {
	users  *users.Client
	feeds  *feeds.Client
	posts  *posts.Service
	store  kv.Store
	params ranking.Params

	defaultLimit int
	maxLimit     int
}

// NewService creates the feed assembler. defaultLimit and maxLimit fall
// back to 20 and 50.
func NewService(userActors *users.Client, feedActors *feeds.Client, postSvc *posts.Service, store kv.Store, params ranking.Params, defaultLimit, maxLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 50
	}
	return &Service{
		users:        userActors,
		feeds:        feedActors,
		posts:        postSvc,
		store:        store,
		params:       params,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

type candidate struct {
	view   PostView
	score  float64
	author string
}

// HomeFeed returns the ranked, filtered, diversity-adjusted home timeline.
// The cursor paginates the viewer's own feed window; injected discovery
// content does not advance it.
func (s *Service) HomeFeed(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	limit = s.clamp(limit)
	uc, err := s.users.Context(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.feeds.FeedWithPosts(ctx, userID, feeds.FeedRequest{
		Cursor:    cursor,
		Limit:     limit * 3,
		Blocked:   uc.Blocked,
		Muted:     uc.MutedWords,
		Following: uc.Following,
	})
	if err != nil {
		return nil, err
	}

	following := toSet(uc.Following)
	blocked := toSet(uc.Blocked)
	seen := map[string]bool{}
	seenOriginals := map[string]bool{}
	var cands []*candidate

	// The feed actor already applied block, mute and visibility filters to
	// its own entries; the assembler adds the repost quality rules.
	for _, item := range joined.Items {
		var rec posts.Post
		if err := json.Unmarshal(item.Post, &rec); err != nil {
			continue
		}
		if lowValueRepost(&rec) || seenOriginals[originalOf(&rec)] {
			continue
		}
		seen[rec.ID] = true
		seenOriginals[originalOf(&rec)] = true
		cands = append(cands, &candidate{
			view:   PostView{Post: rec, Source: item.Entry.Source},
			author: rec.AuthorID,
		})
	}

	cands = s.appendDiscovery(ctx, cands, userID, limit, blocked, following, uc.MutedWords, seen, seenOriginals)
	cands = s.backfillFollowees(ctx, cands, uc.Following, limit, seen, seenOriginals)

	s.score(cands)
	selected := selectDiverse(cands, limit, targetUniqueAuthors(len(uc.Following), limit))

	views := make([]PostView, len(selected))
	for i, c := range selected {
		views[i] = c.view
	}
	return &Page{Posts: views, Cursor: joined.Cursor, HasMore: joined.HasMore}, nil
}

// Chronological returns the viewer's raw filtered timeline, newest first,
// with no ranking or discovery injection.
func (s *Service) Chronological(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	limit = s.clamp(limit)
	uc, err := s.users.Context(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.feeds.FeedWithPosts(ctx, userID, feeds.FeedRequest{
		Cursor:    cursor,
		Limit:     limit,
		Blocked:   uc.Blocked,
		Muted:     uc.MutedWords,
		Following: uc.Following,
	})
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(joined.Items))
	for _, item := range joined.Items {
		var rec posts.Post
		if err := json.Unmarshal(item.Post, &rec); err != nil {
			continue
		}
		views = append(views, PostView{Post: rec, Source: item.Entry.Source})
	}
	return &Page{Posts: views, Cursor: joined.Cursor, HasMore: joined.HasMore}, nil
}

// Global returns the discovery ranking as a feed, filtered by the viewer's
// blocks and mutes when a viewer is given. Pagination is a plain offset
// into the ranked blob.
func (s *Service) Global(ctx context.Context, viewerID, cursor string, limit int) (*Page, error) {
	limit = s.clamp(limit)
	ranked := s.readExplore(ctx)

	var blocked, following map[string]bool
	var muted []users.MutedWord
	if viewerID != "" {
		uc, err := s.users.Context(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		blocked = toSet(uc.Blocked)
		following = toSet(uc.Following)
		muted = uc.MutedWords
	}

	filtered := make([]PostView, 0, limit)
	offset := decodeOffset(cursor)
	skipped := 0
	hasMore := false
	for i := range ranked {
		rec := &ranked[i].Post
		if !rec.Visible() || blocked[rec.AuthorID] {
			continue
		}
		if viewerID != "" {
			words := feeds.EffectiveWords(muted, rec.AuthorID, viewerID, following)
			if feeds.ContentMatchesAny(rec.Content, words) {
				continue
			}
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(filtered) == limit {
			hasMore = true
			break
		}
		filtered = append(filtered, PostView{Post: *rec, Source: feeds.SourceFof})
	}

	page := &Page{Posts: filtered, HasMore: hasMore}
	if hasMore {
		page.Cursor = encodeOffset(offset + len(filtered))
	}
	return page, nil
}

// appendDiscovery adds fof candidates from explore:ranked, applying the
// viewer's filters and skipping content already in the feed.
func (s *Service) appendDiscovery(ctx context.Context, cands []*candidate, userID string, limit int, blocked, following map[string]bool, muted []users.MutedWord, seen, seenOriginals map[string]bool) []*candidate {
	added := 0
	for _, sp := range s.readExplore(ctx) {
		if added == limit {
			break
		}
		rec := sp.Post
		if rec.AuthorID == userID || blocked[rec.AuthorID] || !rec.Visible() {
			continue
		}
		if seen[rec.ID] || seenOriginals[originalOf(&rec)] {
			continue
		}
		words := feeds.EffectiveWords(muted, rec.AuthorID, userID, following)
		if feeds.ContentMatchesAny(rec.Content, words) {
			continue
		}
		if lowValueRepost(&rec) {
			continue
		}
		seen[rec.ID] = true
		seenOriginals[originalOf(&rec)] = true
		cands = append(cands, &candidate{
			view:   PostView{Post: rec, Source: feeds.SourceFof},
			author: rec.AuthorID,
		})
		added++
	}
	return cands
}

// backfillFollowees injects the most recent unseen post of under-represented
// followees when the candidate set is author-poor.
func (s *Service) backfillFollowees(ctx context.Context, cands []*candidate, followingList []string, limit int, seen, seenOriginals map[string]bool) []*candidate {
	if len(followingList) == 0 {
		return cands
	}
	represented := map[string]bool{}
	for _, c := range cands {
		represented[c.author] = true
	}
	if len(represented) >= targetUniqueAuthors(len(followingList), limit) {
		return cands
	}

	injected := 0
	for _, followeeID := range followingList {
		if injected == backfillFollowees {
			break
		}
		if represented[followeeID] {
			continue
		}
		recent, err := s.posts.UserPosts(ctx, followeeID, 5, 0)
		if err != nil {
			slog.Warn("backfill lookup failed", "followee", followeeID, "error", err)
			continue
		}
		for _, rec := range recent {
			if seen[rec.ID] || seenOriginals[originalOf(rec)] {
				continue
			}
			seen[rec.ID] = true
			seenOriginals[originalOf(rec)] = true
			represented[followeeID] = true
			cands = append(cands, &candidate{
				view:   PostView{Post: *rec, Source: feeds.SourceFollow},
				author: rec.AuthorID,
			})
			injected++
			break
		}
	}
	return cands
}

// score ranks every candidate: engagement-over-age, raw engagement, recency
// and source, minus the repost and author-frequency penalties.
func (s *Service) score(cands []*candidate) {
	now := time.Now().UTC()
	freq := map[string]int{}
	for _, c := range cands {
		freq[c.author]++
	}
	for _, c := range cands {
		rec := &c.view.Post
		age := now.Sub(rec.CreatedAt)
		hn := s.params.Score(rec.LikeCount, rec.ReplyCount, rec.RepostCount+rec.QuoteCount, age)
		score := 4*hn + 2*math.Log10(float64(rec.Engagement())+1) + recency(age) + sourceBoost(c.view.Source)
		if rec.RepostOfID != "" && strings.TrimSpace(rec.Content) == "" {
			score -= 0.4
		}
		score -= math.Min(0.6, float64(freq[c.author]-1)*0.05)
		c.score = score
	}
	sortByScore(cands)
}

func (s *Service) readExplore(ctx context.Context) []ranking.ScoredPost {
	blob, err := s.store.Get(ctx, kv.KeyExploreRanked)
	if err != nil {
		return nil
	}
	var ranked []ranking.ScoredPost
	if err := json.Unmarshal(blob, &ranked); err != nil {
		slog.Warn("malformed explore rankings", "error", err)
		return nil
	}
	return ranked
}

func (s *Service) clamp(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// recency rewards fresh posts, decaying towards zero over the first day.
func recency(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	return 1 / (1 + hours/6)
}

func sourceBoost(source string) float64 {
	switch source {
	case feeds.SourceOwn:
		return 0.2
	case feeds.SourceFollow:
		return 0.1
	default:
		return 0
	}
}

// targetUniqueAuthors is how many distinct authors a full page should aim
// for, bounded by how many people the viewer follows.
func targetUniqueAuthors(followingCount, limit int) int {
	target := max6(limit / 3)
	if followingCount > 0 && followingCount < target {
		target = followingCount
	}
	return target
}

func max6(n int) int {
	if n < 6 {
		return 6
	}
	return n
}

// selectDiverse fills up to limit slots from score-sorted candidates: first
// pass enforces max 1 per author in any 5-slot window and a per-author total
// cap; the spill pass relaxes the window and doubles the cap so pages fill
// even with few authors.
func selectDiverse(cands []*candidate, limit, targetUnique int) []*candidate {
	if targetUnique < 1 {
		targetUnique = 1
	}
	perAuthor := (limit + targetUnique - 1) / targetUnique
	if perAuthor < 2 {
		perAuthor = 2
	}

	out := make([]*candidate, 0, limit)
	var spill []*candidate
	totals := map[string]int{}

	for _, c := range cands {
		if len(out) == limit {
			break
		}
		if totals[c.author] >= perAuthor || !windowFree(out, c.author) {
			spill = append(spill, c)
			continue
		}
		out = append(out, c)
		totals[c.author]++
	}
	for _, c := range spill {
		if len(out) == limit {
			break
		}
		if totals[c.author] >= 2*perAuthor {
			continue
		}
		out = append(out, c)
		totals[c.author]++
	}
	return out
}

// windowFree reports whether the author is absent from the last 4 selected
// slots.
func windowFree(selected []*candidate, author string) bool {
	start := len(selected) - 4
	if start < 0 {
		start = 0
	}
	for _, c := range selected[start:] {
		if c.author == author {
			return false
		}
	}
	return true
}

func sortByScore(cands []*candidate) {
	// Stable, so ties keep their newest-first feed order.
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
