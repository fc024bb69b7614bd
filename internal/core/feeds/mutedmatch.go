package feeds

import (
	"regexp"
	"strings"
	"sync"

	"Wire/internal/core/users"
)

// Muted-word matching uses word boundaries when the word is a plain token.
// Words containing other runes (emoji, punctuation, spaces) fall back to
// case-insensitive substring matching, since \b is meaningless around them.

var plainToken = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

var wordPatterns sync.Map // word -> *regexp.Regexp

// ContentMatchesWord reports whether content contains the (already
// lowercased) muted word.
func ContentMatchesWord(content, word string) bool {
	if word == "" {
		return false
	}
	if !plainToken.MatchString(word) {
		return strings.Contains(strings.ToLower(content), word)
	}
	re := compileWord(word)
	return re.MatchString(content)
}

func compileWord(word string) *regexp.Regexp {
	if cached, ok := wordPatterns.Load(word); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	wordPatterns.Store(word, re)
	return re
}

// EffectiveWords resolves scopes: all-scope words always apply, while
// not_following words apply only when the author is neither followed by nor
// the viewer themself.
func EffectiveWords(muted []users.MutedWord, authorID, viewerID string, following map[string]bool) []string {
	out := make([]string, 0, len(muted))
	for _, mw := range muted {
		switch mw.Scope {
		case users.ScopeNotFollowing:
			if authorID == viewerID || following[authorID] {
				continue
			}
		}
		out = append(out, mw.Word)
	}
	return out
}

// ContentMatchesAny reports whether content matches any word.
func ContentMatchesAny(content string, words []string) bool {
	for _, w := range words {
		if ContentMatchesWord(content, w) {
			return true
		}
	}
	return false
}
