package orderedset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRemoveHas(t *testing.T) {
	s := New()
	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"), "duplicate add is a no-op")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.False(t, s.Has("a"))
	assert.Equal(t, []string{"b"}, s.Values())
}

func TestOrderPreservedAfterRemove(t *testing.T) {
	s := New("a", "b", "c", "d")
	s.Remove("b")
	assert.Equal(t, []string{"a", "c", "d"}, s.Values())
	assert.True(t, s.Has("d"))
	s.Add("e")
	assert.Equal(t, []string{"a", "c", "d", "e"}, s.Values())
}

func TestPushFront(t *testing.T) {
	s := New("a", "b")
	s.PushFront("c")
	assert.Equal(t, []string{"c", "a", "b"}, s.Values())

	// Pushing an existing value moves it to the front.
	s.PushFront("b")
	assert.Equal(t, []string{"b", "c", "a"}, s.Values())
	assert.Equal(t, 3, s.Len())
}

func TestTruncate(t *testing.T) {
	s := New("a", "b", "c")
	s.Truncate(2)
	assert.Equal(t, []string{"a", "b"}, s.Values())
	assert.False(t, s.Has("c"))
	s.Truncate(10) // no-op
	assert.Equal(t, 2, s.Len())
}

func TestJSONRoundTrip(t *testing.T) {
	s := New("x", "y")
	blob, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["x","y"]`, string(blob))

	var back Set
	require.NoError(t, json.Unmarshal(blob, &back))
	assert.Equal(t, []string{"x", "y"}, back.Values())
	assert.True(t, back.Has("y"), "index is rebuilt on load")
}

func TestZeroValueMarshalsAsEmptyArray(t *testing.T) {
	var s Set
	blob, err := json.Marshal(&s)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(blob))
}
