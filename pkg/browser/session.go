package browser

import (
	"time"

	"github.com/go-rod/rod"

	"xscraper/pkg/config"
	"xscraper/pkg/logger"
	"xscraper/pkg/pacing"
	"xscraper/pkg/session"
)

// Session bundles one page with the navigation and element resolution
// policies plus the pacing applied after render-triggering actions. It is
// the surface the auth flow and the extraction loop drive.
type Session struct {
	page *Page
	nav  *Navigator
	res  *Resolver
	pace pacing.Policy
	log  logger.Logger
}

// NewSession opens a fresh page on the browser and wires the policies
// around it.
func NewSession(b *Browser, cfg *config.Config, pace pacing.Policy, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if pace == nil {
		pace = pacing.Default()
	}

	page, err := b.NewPage()
	if err != nil {
		return nil, err
	}

	return &Session{
		page: page,
		nav:  NewNavigator(page, &cfg.Browser, log),
		res:  NewResolver(page, cfg.Browser.ElementWait, log),
		pace: pace,
		log:  log,
	}, nil
}

// Open navigates to the URL through the readiness ladder and lets the page
// settle.
func (s *Session) Open(url string) error {
	if err := s.nav.Navigate(url); err != nil {
		return err
	}
	s.pace.Wait(pacing.ActionNavigate)
	return nil
}

// URL returns the page's current URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Present reports whether any candidate of the list resolves within the
// wait window.
func (s *Session) Present(list CandidateList, wait time.Duration) bool {
	_, ok := s.res.FindWithin(list, wait)
	return ok
}

// Fill types the value into the first workable candidate and pauses for
// the page to react.
func (s *Session) Fill(list CandidateList, value string) (int, bool) {
	idx, ok := s.res.Fill(list, value)
	if ok {
		s.pace.Wait(pacing.ActionFieldFilled)
	}
	return idx, ok
}

// Click clicks the first workable candidate and pauses for the page to
// react.
func (s *Session) Click(list CandidateList) (int, bool) {
	idx, ok := s.res.Click(list)
	if ok {
		s.pace.Wait(pacing.ActionSubmit)
	}
	return idx, ok
}

// Scroll scrolls down by the given number of pixels and waits for newly
// loaded content to settle.
func (s *Session) Scroll(pixels float64) error {
	if err := s.page.Scroll(pixels); err != nil {
		return err
	}
	s.pace.Wait(pacing.ActionScroll)
	return nil
}

// Pause applies the settle delay for one action kind without performing
// any page interaction.
func (s *Session) Pause(action pacing.Action) {
	s.pace.Wait(action)
}

// ApplyCookies installs a persisted cookie set into the page context.
func (s *Session) ApplyCookies(cookies []session.Cookie) error {
	return s.page.ApplyCookies(cookies)
}

// Cookies captures the current browser cookie set.
func (s *Session) Cookies() ([]session.Cookie, error) {
	return s.page.Cookies()
}

// Matches returns every element matched by the first candidate that
// matches anything at all, together with the index of that candidate.
func (s *Session) Matches(list CandidateList) (rod.Elements, int, error) {
	var lastErr error
	for i, c := range list.Candidates {
		els, err := s.page.Elements(c)
		if err != nil {
			lastErr = err
			s.log.DebugWithFields("element query failed, trying next candidate", map[string]interface{}{
				"target":    list.Target,
				"candidate": c.Selector,
				"error":     err.Error(),
			})
			continue
		}
		if len(els) > 0 {
			return els, i, nil
		}
	}
	return nil, 0, lastErr
}
