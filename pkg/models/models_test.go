package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTweet(t *testing.T) {
	collected := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	tweet := NewTweet("some tweet body", collected)

	assert.Equal(t, "some tweet body", tweet.BodyText)
	assert.Equal(t, "2025-03-14 09:26:53", tweet.CollectedAt)
	assert.Equal(t, UnknownField, tweet.AuthorDisplayName)
	assert.Equal(t, UnknownField, tweet.AuthorHandle)
	assert.Equal(t, UnknownField, tweet.PublishedAt)
}

func TestNormalizeBody(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already clean", "hello world", "hello world"},
		{"leading and trailing space", "  hello world  ", "hello world"},
		{"internal whitespace runs", "hello \t\n  world", "hello world"},
		{"newlines between fragments", "line one\nline two", "line one line two"},
		{"case preserved", "Hello WORLD", "Hello WORLD"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBody(tt.input))
		})
	}
}

func TestDedupKey(t *testing.T) {
	t.Run("stable across whitespace variants", func(t *testing.T) {
		a := DedupKey("hello   world")
		b := DedupKey("  hello world\n")
		assert.Equal(t, a, b)
	})

	t.Run("distinct bodies get distinct keys", func(t *testing.T) {
		assert.NotEqual(t, DedupKey("hello world"), DedupKey("hello there"))
	})

	t.Run("case changes the key", func(t *testing.T) {
		assert.NotEqual(t, DedupKey("Hello"), DedupKey("hello"))
	})

	t.Run("is a hex sha1 digest", func(t *testing.T) {
		key := DedupKey("hello world")
		assert.Len(t, key, 40)
		assert.Equal(t, "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", key)
	})
}
