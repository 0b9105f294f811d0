package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/logger"
	"xscraper/pkg/models"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"golang", "golang"},
		{"rust programming", "rust_programming"},
		{"  padded query  ", "padded_query"},
		{"three word query", "three_word_query"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slug(tt.input))
	}
}

func TestDefaultFilename(t *testing.T) {
	assert.Equal(t, "rust_programming_tweets.json", DefaultFilename("rust programming"))
}

func TestWriterWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, logger.NewTestLogger())
	require.NoError(t, err)

	tweets := []models.Tweet{
		models.NewTweet("first tweet body text", time.Now()),
		models.NewTweet("second tweet body text", time.Now()),
	}

	path, err := w.Write("golang_tweets.json", tweets)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "golang_tweets.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded []models.Tweet
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Len(t, loaded, 2)
	assert.Equal(t, "first tweet body text", loaded[0].BodyText)
	assert.Equal(t, models.UnknownField, loaded[0].AuthorHandle)
}

func TestWriterWriteEmptyResult(t *testing.T) {
	w, err := NewWriter(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)

	path, err := w.Write("empty_tweets.json", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWriterWriteReplacesExisting(t *testing.T) {
	w, err := NewWriter(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)

	_, err = w.Write("out.json", []models.Tweet{models.NewTweet("old content body text", time.Now())})
	require.NoError(t, err)

	path, err := w.Write("out.json", []models.Tweet{models.NewTweet("new content body text", time.Now())})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded []models.Tweet
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Len(t, loaded, 1)
	assert.Equal(t, "new content body text", loaded[0].BodyText)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestNewWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	w, err := NewWriter(dir, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, dir, w.OutputDir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
