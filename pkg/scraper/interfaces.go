package scraper

import (
	"time"

	"xscraper/pkg/browser"
	"xscraper/pkg/pacing"
	"xscraper/pkg/session"
)

// Feed is the page surface the extraction loop drives. It is satisfied by
// browser-backed sessions and by fakes in tests.
type Feed interface {
	Open(url string) error
	URL() string
	Present(list browser.CandidateList, wait time.Duration) bool
	ApplyCookies(cookies []session.Cookie) error
	Scroll(pixels float64) error
	Pause(action pacing.Action)
	Articles() ([]Article, error)
}

// Article is one rendered tweet container. Every accessor is best-effort:
// an error means that fragment of the tweet could not be read, not that
// the whole tweet is unusable.
type Article interface {
	Body() (string, error)
	AuthorName() (string, error)
	AuthorHandle() (string, error)
	PublishedAt() (string, error)
}

// ArticleContainers locates rendered tweets, most specific selector first.
var ArticleContainers = browser.CandidateList{
	Target: "tweet article",
	Candidates: []browser.Candidate{
		{Selector: `article[data-testid="tweet"]`},
		{Selector: `article`},
		{Selector: `[data-testid="tweet"]`},
	},
}
