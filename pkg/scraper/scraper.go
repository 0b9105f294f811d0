// Package scraper drives the search extraction loop: scroll the live
// results feed, resolve the rendered tweets, and collect them until the
// cycle budget runs out or the feed stops yielding anything new.
package scraper

import (
	"fmt"
	"net/url"
	"time"

	"xscraper/pkg/auth"
	"xscraper/pkg/checkpoint"
	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/models"
	"xscraper/pkg/pacing"
	"xscraper/pkg/storage"
)

// Halt reasons reported in a Result.
const (
	HaltMaxCycles = "max_cycles"
	HaltNoContent = "no_content_rendered"
	HaltNoNew     = "no_new_content"
)

// Result is the outcome of one scrape run. Tweets holds whatever was
// collected, even when the run ended early.
type Result struct {
	Query  string
	Tweets []models.Tweet
	Cycles int
	Halt   string
}

// Scraper runs extraction over an authenticated feed.
type Scraper struct {
	feed Feed
	cfg  *config.Config
	log  logger.Logger

	checkpoints *checkpoint.Manager
	resume      bool
}

// New creates a scraper over the feed.
func New(feed Feed, cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{feed: feed, cfg: cfg, log: log}
}

// WithCheckpoints enables progress persistence, optionally resuming a
// previous run of the same query.
func (s *Scraper) WithCheckpoints(m *checkpoint.Manager, resume bool) *Scraper {
	s.checkpoints = m
	s.resume = resume
	return s
}

// Run collects tweets for the query. The session must already be
// authenticated: a feed without session signals aborts before the first
// cycle with a stale-session error. Partial results are always returned.
func (s *Scraper) Run(query string) (*Result, error) {
	result := &Result{Query: query, Tweets: []models.Tweet{}}

	if !auth.SessionLive(s.feed, s.cfg.Browser.SignalWait) {
		return result, errs.New(errs.ErrorTypeStaleSession, "persisted session is no longer authenticated")
	}

	searchURL := fmt.Sprintf(s.cfg.X.SearchURL, url.QueryEscape(query))
	s.log.WithField("url", searchURL).Info("opening live search results")
	if err := s.feed.Open(searchURL); err != nil {
		return result, err
	}
	s.feed.Pause(pacing.ActionSearch)

	seen := make(map[string]struct{})
	cp := s.prepareCheckpoint(query, seen, result)

	emptyStreak := 0
	noNewStreak := 0

	for cycle := 1; cycle <= s.cfg.Scrape.MaxCycles; cycle++ {
		result.Cycles = cycle

		if err := s.feed.Scroll(s.cfg.Scrape.ScrollPixels); err != nil {
			return result, errs.Wrap(errs.ErrorTypeContext, "page context lost during scroll", err)
		}

		articles, err := s.feed.Articles()
		if err != nil {
			s.log.WithError(err).WithField("cycle", cycle).Warn("article query failed")
		}

		if len(articles) == 0 {
			emptyStreak++
			noNewStreak++
			s.log.WithField("cycle", cycle).Warn("no tweet containers rendered")
			if emptyStreak >= s.cfg.Scrape.EmptyCycleMax {
				result.Halt = HaltNoContent
				break
			}
			if noNewStreak >= s.cfg.Scrape.NoNewCycleMax {
				result.Halt = HaltNoNew
				break
			}
			continue
		}
		emptyStreak = 0

		added := 0
		collectedAt := time.Now()
		for _, article := range articles {
			tweet, key, ok := extract(article, s.cfg.Scrape.MinTextLength, collectedAt)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Tweets = append(result.Tweets, tweet)
			if cp != nil {
				cp.Record(tweet, key)
			}
			added++
		}

		s.log.InfoWithFields("extraction cycle finished", map[string]interface{}{
			"cycle":      cycle,
			"containers": len(articles),
			"new":        added,
			"total":      len(result.Tweets),
		})

		if added == 0 {
			noNewStreak++
			if noNewStreak >= s.cfg.Scrape.NoNewCycleMax {
				result.Halt = HaltNoNew
				break
			}
		} else {
			noNewStreak = 0
		}

		s.saveCheckpoint(cp, cycle)
	}

	if result.Halt == "" {
		result.Halt = HaltMaxCycles
	}

	if s.checkpoints != nil {
		if err := s.checkpoints.Delete(); err != nil {
			s.log.WithError(err).Warn("failed to remove checkpoint after completed run")
		}
	}

	s.log.InfoWithFields("scrape run finished", map[string]interface{}{
		"query":  query,
		"tweets": len(result.Tweets),
		"cycles": result.Cycles,
		"halt":   result.Halt,
	})
	return result, nil
}

// prepareCheckpoint loads or creates the checkpoint for the query and, on
// resume, seeds the dedup set and result with the persisted progress.
func (s *Scraper) prepareCheckpoint(query string, seen map[string]struct{}, result *Result) *checkpoint.Checkpoint {
	if s.checkpoints == nil {
		return nil
	}

	if s.resume {
		cp, err := s.checkpoints.Load()
		if err != nil {
			s.log.WithError(err).Warn("checkpoint unreadable, starting fresh")
		} else if cp != nil && cp.Query == query {
			for k := range cp.SeenSet() {
				seen[k] = struct{}{}
			}
			result.Tweets = append(result.Tweets, cp.Items...)
			s.log.WithField("items", len(cp.Items)).Info("resuming from checkpoint")
			return cp
		}
	}

	cp, err := s.checkpoints.Create(query, storage.Slug(query))
	if err != nil {
		s.log.WithError(err).Warn("checkpoint creation failed, continuing without one")
		return nil
	}
	return cp
}

func (s *Scraper) saveCheckpoint(cp *checkpoint.Checkpoint, cycle int) {
	if cp == nil || s.cfg.Scrape.CheckpointEach <= 0 || cycle%s.cfg.Scrape.CheckpointEach != 0 {
		return
	}
	cp.Cycles = cycle
	if err := s.checkpoints.Save(cp); err != nil {
		s.log.WithError(err).Warn("checkpoint save failed")
	}
}
