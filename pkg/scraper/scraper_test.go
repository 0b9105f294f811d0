package scraper

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/browser"
	"xscraper/pkg/checkpoint"
	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/pacing"
	"xscraper/pkg/session"
)

// fakeArticle is a scripted tweet container.
type fakeArticle struct {
	body         string
	bodyErr      error
	name         string
	nameErr      error
	handle       string
	handleErr    error
	published    string
	publishedErr error
}

func (a *fakeArticle) Body() (string, error)         { return a.body, a.bodyErr }
func (a *fakeArticle) AuthorName() (string, error)   { return a.name, a.nameErr }
func (a *fakeArticle) AuthorHandle() (string, error) { return a.handle, a.handleErr }
func (a *fakeArticle) PublishedAt() (string, error)  { return a.published, a.publishedErr }

func article(body string) *fakeArticle {
	return &fakeArticle{
		body:      body,
		name:      "Test Author",
		handle:    "@tester",
		published: "2025-03-14T09:26:53.000Z",
	}
}

// fakeFeed scripts the articles each scroll cycle reveals.
type fakeFeed struct {
	url       string
	live      bool
	perCycle  [][]Article
	scrolls   int
	scrollErr error
	opened    []string
}

func (f *fakeFeed) Open(url string) error {
	f.opened = append(f.opened, url)
	return nil
}

func (f *fakeFeed) URL() string { return f.url }

func (f *fakeFeed) Present(list browser.CandidateList, wait time.Duration) bool {
	return f.live
}

func (f *fakeFeed) ApplyCookies(cookies []session.Cookie) error { return nil }

func (f *fakeFeed) Scroll(pixels float64) error {
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls++
	return nil
}

func (f *fakeFeed) Pause(action pacing.Action) {}

func (f *fakeFeed) Articles() ([]Article, error) {
	idx := f.scrolls - 1
	if idx < 0 || idx >= len(f.perCycle) {
		return nil, nil
	}
	return f.perCycle[idx], nil
}

func liveFeed(perCycle ...[]Article) *fakeFeed {
	return &fakeFeed{
		url:      "https://x.com/home",
		live:     true,
		perCycle: perCycle,
	}
}

func scraperTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Browser.SignalWait = time.Millisecond
	cfg.Scrape.MaxCycles = 10
	return cfg
}

func newTestScraper(t *testing.T, feed Feed, cfg *config.Config) *Scraper {
	t.Helper()
	return New(feed, cfg, logger.NewTestLogger())
}

func TestRunRejectsStaleSession(t *testing.T) {
	feed := &fakeFeed{url: "https://x.com/i/flow/login", live: false}
	s := newTestScraper(t, feed, scraperTestConfig())

	result, err := s.Run("golang")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeStaleSession))
	assert.Equal(t, 0, result.Cycles)
	assert.Empty(t, result.Tweets)
	assert.Empty(t, feed.opened)
}

func TestRunOpensEscapedSearchURL(t *testing.T) {
	feed := liveFeed()
	s := newTestScraper(t, feed, scraperTestConfig())

	_, err := s.Run("rust programming")
	require.NoError(t, err)
	require.Len(t, feed.opened, 1)
	assert.Equal(t, "https://x.com/search?q=rust+programming&src=typed_query&f=live", feed.opened[0])
}

func TestRunCollectsAndDeduplicates(t *testing.T) {
	// Cycle two re-renders the first two tweets alongside one new one.
	feed := liveFeed(
		[]Article{article("the first tweet about golang"), article("the second tweet about golang")},
		[]Article{article("the first tweet about golang"), article("the second tweet about golang"), article("the third tweet about golang")},
	)
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 2
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)

	assert.Len(t, result.Tweets, 3)
	assert.Equal(t, 2, result.Cycles)
	assert.Equal(t, HaltMaxCycles, result.Halt)
	assert.Equal(t, "the first tweet about golang", result.Tweets[0].BodyText)
	assert.Equal(t, "@tester", result.Tweets[0].AuthorHandle)
}

func TestRunDeduplicatesWhitespaceVariants(t *testing.T) {
	feed := liveFeed(
		[]Article{article("a tweet  with   odd spacing")},
		[]Article{article("a tweet with odd\nspacing")},
	)
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 2
	cfg.Scrape.NoNewCycleMax = 5
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)
	require.Len(t, result.Tweets, 1)
	assert.Equal(t, "a tweet with odd spacing", result.Tweets[0].BodyText)
}

func TestRunFiltersShortBodies(t *testing.T) {
	feed := liveFeed([]Article{
		article("ok"),
		article("long enough tweet body"),
		&fakeArticle{bodyErr: errors.New("detached")},
	})
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 1
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)
	require.Len(t, result.Tweets, 1)
	assert.Equal(t, "long enough tweet body", result.Tweets[0].BodyText)
}

func TestRunMeasuresBodyLengthInRunes(t *testing.T) {
	// Multibyte text is measured in characters, not bytes: four kanji are
	// twelve bytes but still below the ten-character floor, while ten kanji
	// pass it.
	feed := liveFeed([]Article{
		article("日本語四"),
		article("これは十分に長い日本語の投稿"),
	})
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 1
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)
	require.Len(t, result.Tweets, 1)
	assert.Equal(t, "これは十分に長い日本語の投稿", result.Tweets[0].BodyText)
}

func TestRunKeepsUnknownSentinelsForMissingMetadata(t *testing.T) {
	broken := &fakeArticle{
		body:         "a tweet whose metadata could not be read",
		nameErr:      errors.New("no header"),
		handleErr:    errors.New("no link"),
		publishedErr: errors.New("no timestamp"),
	}
	feed := liveFeed([]Article{broken})
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 1
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)
	require.Len(t, result.Tweets, 1)

	tweet := result.Tweets[0]
	assert.Equal(t, models.UnknownField, tweet.AuthorDisplayName)
	assert.Equal(t, models.UnknownField, tweet.AuthorHandle)
	assert.Equal(t, models.UnknownField, tweet.PublishedAt)
	assert.NotEmpty(t, tweet.CollectedAt)
}

func TestRunHaltsOnConsecutiveEmptyCycles(t *testing.T) {
	feed := liveFeed(
		[]Article{article("the only tweet that renders")},
		nil,
		nil,
	)
	cfg := scraperTestConfig()
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)

	assert.Equal(t, HaltNoContent, result.Halt)
	assert.Equal(t, 3, result.Cycles)
	assert.Len(t, result.Tweets, 1)
}

func TestRunEmptyStreakResetsOnContent(t *testing.T) {
	// A single empty cycle between productive ones never halts the run.
	feed := liveFeed(
		[]Article{article("tweet before the gap in rendering")},
		nil,
		[]Article{article("tweet after the gap in rendering")},
	)
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 3
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)

	assert.Equal(t, HaltMaxCycles, result.Halt)
	assert.Len(t, result.Tweets, 2)
}

func TestRunHaltsWhenNothingNewAppears(t *testing.T) {
	same := []Article{article("the feed stopped moving entirely")}
	feed := liveFeed(same, same, same, same, same)
	cfg := scraperTestConfig()
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)

	assert.Equal(t, HaltNoNew, result.Halt)
	// One productive cycle, then three stalled ones.
	assert.Equal(t, 4, result.Cycles)
	assert.Len(t, result.Tweets, 1)
}

func TestRunHaltsAtMaxCycles(t *testing.T) {
	feed := liveFeed(
		[]Article{article("cycle one content for the run")},
		[]Article{article("cycle two content for the run")},
		[]Article{article("cycle three content for the run")},
	)
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 3
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("golang")
	require.NoError(t, err)

	assert.Equal(t, HaltMaxCycles, result.Halt)
	assert.Equal(t, 3, result.Cycles)
	assert.Len(t, result.Tweets, 3)
}

func TestRunFullScenario(t *testing.T) {
	// Three cycles: five fresh tweets, then two fresh among three
	// re-renders, then a cycle where nothing renders at all.
	first := []Article{
		article("rust tweet number one of the run"),
		article("rust tweet number two of the run"),
		article("rust tweet number three of the run"),
		article("rust tweet number four of the run"),
		article("rust tweet number five of the run"),
	}
	second := []Article{
		first[0], first[1], first[2],
		article("rust tweet number six of the run"),
		article("rust tweet number seven of the run"),
	}
	feed := liveFeed(first, second, nil)

	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 3
	s := newTestScraper(t, feed, cfg)

	result, err := s.Run("rust programming")
	require.NoError(t, err)

	assert.Len(t, result.Tweets, 7)
	assert.Equal(t, 3, result.Cycles)
	assert.Equal(t, HaltMaxCycles, result.Halt)
}

func TestRunReturnsPartialResultsOnScrollFailure(t *testing.T) {
	feed := liveFeed([]Article{article("collected before the page died")})
	cfg := scraperTestConfig()
	s := newTestScraper(t, feed, cfg)

	// Let the first cycle succeed, then kill the page.
	result1, err := s.Run("golang")
	require.NoError(t, err)
	require.Len(t, result1.Tweets, 1)

	feed2 := liveFeed()
	feed2.scrollErr = errors.New("target closed")
	s2 := newTestScraper(t, feed2, cfg)

	result, err := s2.Run("golang")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeContext))
	assert.NotNil(t, result)
	assert.Empty(t, result.Tweets)
}

func TestRunWithCheckpointResume(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Setenv("XDG_DATA_HOME", t.TempDir())
	}

	mgr, err := checkpoint.NewManager("golang")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Delete() })

	// Seed a checkpoint as an interrupted run would have left it.
	cp, err := mgr.Create("golang", "golang")
	require.NoError(t, err)
	previous := models.NewTweet("tweet collected before the interruption", time.Now())
	cp.Record(previous, models.DedupKey(previous.BodyText))
	require.NoError(t, mgr.Save(cp))

	// The feed re-renders the already-collected tweet plus a new one.
	feed := liveFeed([]Article{
		article("tweet collected before the interruption"),
		article("tweet that appeared after resuming"),
	})
	cfg := scraperTestConfig()
	cfg.Scrape.MaxCycles = 1
	s := newTestScraper(t, feed, cfg).WithCheckpoints(mgr, true)

	result, err := s.Run("golang")
	require.NoError(t, err)

	require.Len(t, result.Tweets, 2)
	assert.Equal(t, "tweet collected before the interruption", result.Tweets[0].BodyText)
	assert.Equal(t, "tweet that appeared after resuming", result.Tweets[1].BodyText)

	// A completed run removes its checkpoint.
	assert.False(t, mgr.Exists())
}
