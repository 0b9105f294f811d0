package scraper

import (
	"time"
	"unicode/utf8"

	"xscraper/pkg/models"
)

// extract reads one article into a tweet record. It returns ok=false when
// the article has no usable body; metadata fields that cannot be read stay
// at the unknown sentinel.
func extract(article Article, minLength int, collectedAt time.Time) (models.Tweet, string, bool) {
	body, err := article.Body()
	if err != nil {
		return models.Tweet{}, "", false
	}

	normalized := models.NormalizeBody(body)
	if utf8.RuneCountInString(normalized) < minLength {
		return models.Tweet{}, "", false
	}

	tweet := models.NewTweet(normalized, collectedAt)

	if name, err := article.AuthorName(); err == nil && name != "" {
		tweet.AuthorDisplayName = name
	}
	if handle, err := article.AuthorHandle(); err == nil && handle != "" {
		tweet.AuthorHandle = handle
	}
	if published, err := article.PublishedAt(); err == nil && published != "" {
		tweet.PublishedAt = published
	}

	return tweet, models.DedupKey(normalized), true
}
