package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateHandle(t *testing.T) {
	valid := []string{"alice", "bob_99", "a1c", "x_y_z_x_y_z_x_y"}
	for _, h := range valid {
		assert.NoError(t, ValidateHandle(h), h)
	}

	invalid := []string{
		"ab",               // too short
		"abcdefghijklmnop", // too long
		"_alice",           // leading underscore
		"Alice",            // uppercase (must be normalized first)
		"al ice",           // whitespace
		"al-ice",           // hyphen
		"admin",            // reserved
		"wire",             // reserved
	}
	for _, h := range invalid {
		assert.Error(t, ValidateHandle(h), h)
	}
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "alice", NormalizeHandle("  ALICE "))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("a@b.com"))
	assert.Error(t, ValidateEmail("nope"))
	assert.Error(t, ValidateEmail("@b.com"))
	assert.Error(t, ValidateEmail("a@"))
	assert.Error(t, ValidateEmail("a@nodot"))
}

func TestNormalizeMutedWordsCap(t *testing.T) {
	words := make([]MutedWord, 0, MaxMutedWords+20)
	for i := 0; i < MaxMutedWords+20; i++ {
		words = append(words, MutedWord{Word: "w" + string(rune('a'+i%26)) + string(rune('a'+i/26)), Scope: ScopeAll})
	}
	got := NormalizeMutedWords(words, time.Now())
	assert.LessOrEqual(t, len(got), MaxMutedWords)
}

func TestNormalizeMutedWordsScopeCoercion(t *testing.T) {
	got := NormalizeMutedWords([]MutedWord{{Word: "x", Scope: "bogus"}}, time.Now())
	assert.Equal(t, ScopeAll, got[0].Scope)
}

func TestSameWordDifferentScopesKept(t *testing.T) {
	got := NormalizeMutedWords([]MutedWord{
		{Word: "spam", Scope: ScopeAll},
		{Word: "spam", Scope: ScopeNotFollowing},
	}, time.Now())
	assert.Len(t, got, 2)
}
