package models

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// UnknownField is the sentinel used when a metadata field cannot be extracted.
const UnknownField = "unknown"

// MinBodyLength is the minimum body text length for a tweet to be kept.
// Anything shorter is treated as noise (ads, UI chrome, empty renders).
const MinBodyLength = 10

// Tweet is one collected content record.
type Tweet struct {
	AuthorDisplayName string `json:"author_display_name"`
	AuthorHandle      string `json:"author_handle"`
	BodyText          string `json:"body_text"`
	PublishedAt       string `json:"published_at"`
	CollectedAt       string `json:"collected_at"`
}

// NewTweet creates a tweet record stamped with the collection time. Metadata
// fields start at the unknown sentinel and are filled in best-effort.
func NewTweet(body string, collectedAt time.Time) Tweet {
	return Tweet{
		AuthorDisplayName: UnknownField,
		AuthorHandle:      UnknownField,
		BodyText:          body,
		PublishedAt:       UnknownField,
		CollectedAt:       collectedAt.Format("2006-01-02 15:04:05"),
	}
}

// NormalizeBody collapses whitespace runs to single spaces and trims the ends,
// so two renders of the same tweet that differ only in whitespace produce the
// same dedup key. Case is preserved.
func NormalizeBody(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DedupKey returns the identity key for a tweet body: a SHA-1 digest of the
// whitespace-normalized text.
func DedupKey(body string) string {
	sum := sha1.Sum([]byte(NormalizeBody(body)))
	return hex.EncodeToString(sum[:])
}
