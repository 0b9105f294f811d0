package browser

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/session"
)

// Page wraps a devtools page with error-returning element access.
type Page struct {
	page *rod.Page
	log  logger.Logger
}

func (p *Page) configure(cfg *config.BrowserConfig) error {
	if err := p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "failed to set viewport", err)
	}

	if cfg.UserAgent != "" {
		if err := p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.Locale,
		}); err != nil {
			return errs.Wrap(errs.ErrorTypeNavigation, "failed to set user agent", err)
		}
	}
	return nil
}

// Goto opens the URL and applies the strategy's readiness wait, all under
// the strategy's deadline.
func (p *Page) Goto(url string, s Strategy) error {
	pg := p.page.Timeout(s.Timeout)

	if err := pg.Navigate(url); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "failed to open "+url, err)
	}

	switch s.Wait {
	case WaitDOMStable:
		if err := pg.WaitDOMStable(300*time.Millisecond, 0); err != nil {
			return errs.Wrap(errs.ErrorTypeNavigation, "page DOM did not settle", err)
		}
	case WaitLoad:
		if err := pg.WaitLoad(); err != nil {
			return errs.Wrap(errs.ErrorTypeNavigation, "page load event did not fire", err)
		}
	case WaitNone:
		// Navigation commit is enough.
	}
	return nil
}

// URL returns the page's current URL, or an empty string when the page is
// unreachable.
func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		p.log.WithError(err).Debug("failed to read page URL")
		return ""
	}
	return info.URL
}

// Present reports whether the candidate matches an element within the wait
// window. An expired wait means absent, not an error.
func (p *Page) Present(c Candidate, wait time.Duration) (bool, error) {
	_, err := p.find(c, wait)
	if err != nil {
		if isAbsence(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FillIn locates the candidate, clears it and types the value.
func (p *Page) FillIn(c Candidate, value string, wait time.Duration) error {
	el, err := p.find(c, wait)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}

// ClickOn locates the candidate and left-clicks it.
func (p *Page) ClickOn(c Candidate, wait time.Duration) error {
	el, err := p.find(c, wait)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *Page) find(c Candidate, wait time.Duration) (*rod.Element, error) {
	pg := p.page.Timeout(wait)
	if c.Text != "" {
		return pg.ElementR(c.Selector, c.Text)
	}
	return pg.Element(c.Selector)
}

// isAbsence distinguishes "the element never appeared" from a broken page
// connection.
func isAbsence(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var notFound *rod.ElementNotFoundError
	return errors.As(err, &notFound)
}

// Elements returns every element the candidate's selector matches right
// now, without waiting.
func (p *Page) Elements(c Candidate) (rod.Elements, error) {
	return p.page.Elements(c.Selector)
}

// Scroll scrolls the page down by the given number of pixels.
func (p *Page) Scroll(pixels float64) error {
	return p.page.Mouse.Scroll(0, pixels, 1)
}

// ApplyCookies normalizes and installs cookies into the browser context.
func (p *Page) ApplyCookies(cookies []session.Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range session.Normalize(cookies) {
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			param.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, param)
	}
	if err := p.page.SetCookies(params); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, "failed to install session cookies", err)
	}
	p.log.WithField("count", len(params)).Debug("session cookies installed")
	return nil
}

// Cookies captures the browser's current cookie set in normalized form.
func (p *Page) Cookies() ([]session.Cookie, error) {
	res, err := proto.NetworkGetCookies{}.Call(p.page)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeAuth, "failed to capture session cookies", err)
	}

	cookies := make([]session.Cookie, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		cookie := session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
		}
		if c.Expires > 0 {
			cookie.Expires = int64(c.Expires)
		}
		cookies = append(cookies, cookie)
	}
	return session.Normalize(cookies), nil
}
