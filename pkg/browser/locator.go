package browser

import (
	"time"

	"xscraper/pkg/logger"
)

// Candidate is one way of locating a page element. Selector is a CSS
// selector; a non-empty Text additionally requires the element's visible
// text to match that pattern.
type Candidate struct {
	Selector string
	Text     string
}

// CandidateList is an ordered set of locator candidates for one logical
// target. Candidates are tried front to back and the first present
// element wins.
type CandidateList struct {
	Target     string
	Candidates []Candidate
}

// Finder is the element lookup surface a Resolver drives. Present reports
// whether a candidate matches anything within the wait window; a non-nil
// error means the lookup itself misfired, not that the element is absent.
type Finder interface {
	Present(c Candidate, wait time.Duration) (bool, error)
	FillIn(c Candidate, value string, wait time.Duration) error
	ClickOn(c Candidate, wait time.Duration) error
}

// Resolver walks a CandidateList in order until a candidate resolves.
// Lookup errors on one candidate never abort the walk; the next candidate
// gets its chance.
type Resolver struct {
	finder Finder
	wait   time.Duration
	log    logger.Logger
}

// NewResolver creates a resolver with a per-candidate wait window.
func NewResolver(finder Finder, wait time.Duration, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{finder: finder, wait: wait, log: log}
}

// Find returns the index of the first candidate that is present on the
// page, or ok=false when none resolved.
func (r *Resolver) Find(list CandidateList) (int, bool) {
	return r.FindWithin(list, r.wait)
}

// FindWithin is Find with an explicit per-candidate wait window.
func (r *Resolver) FindWithin(list CandidateList, wait time.Duration) (int, bool) {
	for i, c := range list.Candidates {
		ok, err := r.finder.Present(c, wait)
		if err != nil {
			r.log.DebugWithFields("candidate lookup failed, trying next", map[string]interface{}{
				"target":    list.Target,
				"candidate": c.Selector,
				"error":     err.Error(),
			})
			continue
		}
		if ok {
			r.log.DebugWithFields("candidate resolved", map[string]interface{}{
				"target":    list.Target,
				"candidate": c.Selector,
				"index":     i,
			})
			return i, true
		}
	}
	r.log.DebugWithFields("no candidate resolved", map[string]interface{}{
		"target":     list.Target,
		"candidates": len(list.Candidates),
	})
	return 0, false
}

// Fill types a value into the first candidate that accepts it. It returns
// the index of the candidate used, or ok=false when every candidate
// failed.
func (r *Resolver) Fill(list CandidateList, value string) (int, bool) {
	for i, c := range list.Candidates {
		if err := r.finder.FillIn(c, value, r.wait); err != nil {
			r.log.DebugWithFields("fill attempt failed, trying next", map[string]interface{}{
				"target":    list.Target,
				"candidate": c.Selector,
				"error":     err.Error(),
			})
			continue
		}
		return i, true
	}
	return 0, false
}

// Click clicks the first candidate that accepts it. It returns the index
// of the candidate used, or ok=false when every candidate failed.
func (r *Resolver) Click(list CandidateList) (int, bool) {
	for i, c := range list.Candidates {
		if err := r.finder.ClickOn(c, r.wait); err != nil {
			r.log.DebugWithFields("click attempt failed, trying next", map[string]interface{}{
				"target":    list.Target,
				"candidate": c.Selector,
				"error":     err.Error(),
			})
			continue
		}
		return i, true
	}
	return 0, false
}
