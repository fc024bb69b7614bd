package users

import (
	"strings"
	"time"
)

// NormalizeMutedWords canonicalises a muted-word list: words are trimmed and
// lowercased, empty and expired entries are dropped, duplicates collapse by
// (word, scope) keeping the first occurrence, and the list is capped at
// MaxMutedWords. An unknown scope coerces to ScopeAll, which filters more
// rather than less.
func NormalizeMutedWords(words []MutedWord, now time.Time) []MutedWord {
	out := make([]MutedWord, 0, len(words))
	seen := make(map[string]bool, len(words))

	for _, mw := range words {
		word := strings.ToLower(strings.TrimSpace(mw.Word))
		if word == "" {
			continue
		}
		if mw.ExpiresAt != nil && now.After(*mw.ExpiresAt) {
			continue
		}
		scope := mw.Scope
		if scope != ScopeAll && scope != ScopeNotFollowing {
			scope = ScopeAll
		}
		key := word + "\x00" + scope
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, MutedWord{Word: word, Scope: scope, ExpiresAt: mw.ExpiresAt})
		if len(out) == MaxMutedWords {
			break
		}
	}
	return out
}
