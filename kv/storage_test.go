package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	t.Run("add and get", func(t *testing.T) {
		s := New().Add("Hello", "world")
		value, found := s.Get("hello")
		require.True(t, found)
		require.Equal(t, "world", value)

		_, found = s.Get("nonexistent")
		require.False(t, found)
	})

	t.Run("value or fallback", func(t *testing.T) {
		s := New().Add("Hello", "world")
		require.Equal(t, "world", s.Value("HELLO"))
		require.Empty(t, s.Value("nonexistent"))
		require.Equal(t, "default", s.ValueOr("nonexistent", "default"))
	})

	t.Run("values", func(t *testing.T) {
		s := New().
			Add("Accept", "text/html").
			Add("Host", "example.com").
			Add("accept", "application/json")
		require.Equal(t, []string{"text/html", "application/json"}, s.Values("Accept"))
		require.Nil(t, s.Values("nonexistent"))
	})

	t.Run("keys are unique", func(t *testing.T) {
		s := New().
			Add("Accept", "text/html").
			Add("Host", "example.com").
			Add("accept", "application/json")
		require.Equal(t, []string{"Accept", "Host"}, s.Keys())
	})

	t.Run("set keeps the position of the first occurrence", func(t *testing.T) {
		s := New().
			Add("A", "1").
			Add("B", "2").
			Add("a", "3").
			Add("C", "4")
		s.Set("A", "5")
		require.Equal(t, []Pair{
			{"A", "5"},
			{"B", "2"},
			{"C", "4"},
		}, s.Expose())
	})

	t.Run("set appends a missing key", func(t *testing.T) {
		s := New().Add("A", "1")
		s.Set("B", "2")
		require.Equal(t, []Pair{
			{"A", "1"},
			{"B", "2"},
		}, s.Expose())
	})

	t.Run("delete removes all occurrences", func(t *testing.T) {
		s := New().
			Add("A", "1").
			Add("B", "2").
			Add("a", "3")
		s.Delete("a")
		require.Equal(t, []Pair{{"B", "2"}}, s.Expose())
		require.False(t, s.Has("A"))
	})

	t.Run("has and len", func(t *testing.T) {
		s := New()
		require.True(t, s.Empty())
		s.Add("Hello", "world")
		require.True(t, s.Has("HELLO"))
		require.False(t, s.Has("nonexistent"))
		require.Equal(t, 1, s.Len())
	})

	t.Run("clone is independent", func(t *testing.T) {
		s := New().Add("Hello", "world")
		clone := s.Clone()
		clone.Add("Hello", "nobody")
		require.Equal(t, []string{"world"}, s.Values("Hello"))
		require.Equal(t, []string{"world", "nobody"}, clone.Values("Hello"))
	})

	t.Run("clear empties the storage", func(t *testing.T) {
		s := New().Add("Hello", "world").Clear()
		require.True(t, s.Empty())
		require.False(t, s.Has("Hello"))
	})
}
